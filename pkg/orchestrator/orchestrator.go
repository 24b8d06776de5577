// Package orchestrator coordinates all pipeline stages.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/user/watermarker/pkg/pipeline"
	"github.com/user/watermarker/pkg/ports"
	"github.com/user/watermarker/pkg/stages/geometry"
	"github.com/user/watermarker/pkg/stages/rasterize"
	"github.com/user/watermarker/pkg/stages/resolve"
	"github.com/user/watermarker/pkg/stages/rotate"
)

// Config contains all configuration for the orchestrator.
type Config struct {
	// Input/Output
	InputPath  string
	OutputPath string

	// Canvas
	CanvasWidth        int
	CanvasHeight       int
	PreserveResolution bool // canvas follows the decoded image size

	// Watermark
	Spec pipeline.WatermarkSpec

	// Fonts
	StrictFonts bool // fail instead of falling back to the default family

	// Performance
	Workers int

	// Encoding
	JPEGQuality int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		CanvasWidth:  pipeline.DefaultCanvas.Width,
		CanvasHeight: pipeline.DefaultCanvas.Height,
		Spec:         pipeline.DefaultSpec(),
		Workers:      1,
		JPEGQuality:  95,
	}
}

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	normalizeStage pipeline.Stage[pipeline.NormalizeInput, *image.RGBA]
	resolveStage   pipeline.Stage[pipeline.WatermarkSpec, []pipeline.ResolvedInstruction]
	rasterizeStage pipeline.Stage[pipeline.RenderInstruction, pipeline.RasterizeResult]
	rotateStage    pipeline.Stage[pipeline.RotateInput, pipeline.TextLayer]
	compositeStage pipeline.Stage[pipeline.CompositeInput, *image.RGBA]
	encodeStage    pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult]
	renderer       ports.Renderer
	fs             ports.FileSystem
	sink           ports.DebugSink
	logger         ports.Logger
}

// New creates a new Orchestrator.
func New(
	normalizeStage pipeline.Stage[pipeline.NormalizeInput, *image.RGBA],
	resolveStage pipeline.Stage[pipeline.WatermarkSpec, []pipeline.ResolvedInstruction],
	rasterizeStage pipeline.Stage[pipeline.RenderInstruction, pipeline.RasterizeResult],
	rotateStage pipeline.Stage[pipeline.RotateInput, pipeline.TextLayer],
	compositeStage pipeline.Stage[pipeline.CompositeInput, *image.RGBA],
	encodeStage pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult],
	renderer ports.Renderer,
	fs ports.FileSystem,
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		normalizeStage: normalizeStage,
		resolveStage:   resolveStage,
		rasterizeStage: rasterizeStage,
		rotateStage:    rotateStage,
		compositeStage: compositeStage,
		encodeStage:    encodeStage,
		renderer:       renderer,
		fs:             fs,
		sink:           sink,
		logger:         logger,
	}
}

// Load reads and decodes an image file.
func (o *Orchestrator) Load(ctx context.Context, path string) (image.Image, error) {
	data, err := o.fs.ReadFile(path)
	if err != nil {
		return nil, &pipeline.DecodeError{Path: path, Err: err}
	}

	img, format, err := o.renderer.DecodeImage(data)
	if err != nil {
		return nil, &pipeline.DecodeError{Path: path, Err: err}
	}

	b := img.Bounds()
	o.logger.Info("Loaded %s (%dx%d, %s)", path, b.Dx(), b.Dy(), format)
	return img, nil
}

// Render composes the watermark described by config.Spec onto base.
// It never reads or writes files and never modifies base.
func (o *Orchestrator) Render(ctx context.Context, base image.Image, config Config) (RenderResult, error) {
	start := time.Now()

	if err := resolve.Validate(config.Spec, false); err != nil {
		return RenderResult{}, err
	}
	if base == nil {
		return RenderResult{}, &pipeline.DecodeError{Err: errors.New("no base image")}
	}

	canvas := canvasFor(config, base)

	// 1. Normalize base
	normalized, err := o.normalizeStage.Execute(ctx, pipeline.NormalizeInput{Image: base, Canvas: canvas})
	if err != nil {
		return RenderResult{}, fmt.Errorf("normalize stage: %w", err)
	}
	if o.sink.Enabled() {
		o.sink.SaveNormalizedBase(normalized)
	}

	// 2. Resolve instructions
	resolved, err := o.resolveStage.Execute(ctx, config.Spec)
	if err != nil {
		return RenderResult{}, fmt.Errorf("resolve stage: %w", err)
	}
	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(instructionsForDebug(resolved), "", "  "); err == nil {
			o.sink.SaveInstructionsJSON(data)
		}
	}

	o.logger.Info("Rendering %d anchors on %dx%d canvas", len(resolved), canvas.Width, canvas.Height)

	// 3. Prepare layers
	pass := &renderPass{
		orchestrator: o,
		canvas:       canvas,
		strict:       config.StrictFonts,
	}
	prepared, err := pass.prepareAll(ctx, resolved, config.Workers)
	if err != nil {
		return RenderResult{}, err
	}

	// 4. Composite
	placements := make([]pipeline.Placement, len(prepared))
	for i, p := range prepared {
		placements[i] = p.placement
	}
	out, err := o.compositeStage.Execute(ctx, pipeline.CompositeInput{Base: normalized, Placements: placements})
	if err != nil {
		return RenderResult{}, fmt.Errorf("composite stage: %w", err)
	}

	result := RenderResult{
		Image:         out,
		Canvas:        canvas,
		Anchors:       config.Spec.Anchors.Names(),
		FontRequested: config.Spec.FontFamily,
		FontUsed:      config.Spec.FontFamily,
		DurationMs:    int(time.Since(start).Milliseconds()),
	}
	var used []string
	for _, p := range prepared {
		if p.fontUsed != "" && !slices.Contains(used, p.fontUsed) {
			used = append(used, p.fontUsed)
		}
		if p.fellBack {
			result.FellBack = true
		}
	}
	if len(used) > 0 {
		result.FontUsed = strings.Join(used, ", ")
	}

	return result, nil
}

// Preview loads config.InputPath and renders it without writing anything.
func (o *Orchestrator) Preview(ctx context.Context, config Config) (RenderResult, error) {
	if err := resolve.Validate(config.Spec, false); err != nil {
		return RenderResult{}, err
	}

	base, err := o.Load(ctx, config.InputPath)
	if err != nil {
		return RenderResult{}, err
	}

	return o.Render(ctx, base, config)
}

// Save loads config.InputPath, renders it and writes config.OutputPath.
// A failed save leaves no output file behind.
func (o *Orchestrator) Save(ctx context.Context, config Config) (RunResult, error) {
	// 1. Validate before touching any file
	if err := resolve.Validate(config.Spec, true); err != nil {
		o.logger.Error("Cannot save: %s", err)
		return RunResult{}, err
	}
	if _, ok := ports.FormatFromPath(config.OutputPath); !ok {
		err := &pipeline.EncodeError{
			Path: config.OutputPath,
			Err:  fmt.Errorf("%w: %q", pipeline.ErrUnsupportedFormat, config.OutputPath),
		}
		o.logger.Error("Cannot save: %s", err)
		return RunResult{}, err
	}

	// 2. Load
	base, err := o.Load(ctx, config.InputPath)
	if err != nil {
		o.logger.Error("Failed to load image: %s", err)
		return RunResult{}, err
	}

	// 3. Render
	rendered, err := o.Render(ctx, base, config)
	if err != nil {
		o.logger.Error("Failed to render watermark: %s", err)
		return RunResult{}, err
	}

	// 4. Encode and write
	encoded, err := o.encodeStage.Execute(ctx, pipeline.EncodeInput{
		Image:       rendered.Image,
		OutputPath:  config.OutputPath,
		JPEGQuality: config.JPEGQuality,
	})
	if err != nil {
		o.logger.Error("Failed to write output: %s", err)
		return RunResult{}, fmt.Errorf("encode stage: %w", err)
	}

	o.logger.Info("Output saved to %s", encoded.Path)

	b := base.Bounds()
	return RunResult{
		InputPath:     config.InputPath,
		OutputPath:    encoded.Path,
		Format:        encoded.Format,
		FileSize:      encoded.FileSize,
		SourceWidth:   b.Dx(),
		SourceHeight:  b.Dy(),
		CanvasWidth:   rendered.Canvas.Width,
		CanvasHeight:  rendered.Canvas.Height,
		Text:          config.Spec.Text,
		FontSize:      config.Spec.FontSize,
		Color:         config.Spec.Color.Hex(),
		RotationAngle: rotate.NormalizeAngle(config.Spec.RotationAngle),
		Anchors:       rendered.Anchors,
		FontRequested: rendered.FontRequested,
		FontUsed:      rendered.FontUsed,
		FellBack:      rendered.FellBack,
		DurationMs:    rendered.DurationMs,
	}, nil
}

// canvasFor picks the working canvas for a render.
func canvasFor(config Config, base image.Image) pipeline.Dimension {
	if config.PreserveResolution {
		b := base.Bounds()
		return pipeline.Dimension{Width: b.Dx(), Height: b.Dy()}
	}
	if config.CanvasWidth == 0 && config.CanvasHeight == 0 {
		return pipeline.DefaultCanvas
	}
	return pipeline.Dimension{Width: config.CanvasWidth, Height: config.CanvasHeight}
}

// renderPass holds per-render state shared by layer workers.
type renderPass struct {
	orchestrator *Orchestrator
	canvas       pipeline.Dimension
	strict       bool
	warnOnce     sync.Once
}

// preparedLayer is one rotated layer with its paste position.
type preparedLayer struct {
	index     int
	placement pipeline.Placement
	fontUsed  string
	fellBack  bool
}

// prepareAll rasterizes, rotates and positions every instruction using a worker
// pool. Results come back in instruction order.
func (p *renderPass) prepareAll(ctx context.Context, resolved []pipeline.ResolvedInstruction, numWorkers int) ([]preparedLayer, error) {
	if len(resolved) == 0 {
		return nil, nil
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if numWorkers > len(resolved) {
		numWorkers = len(resolved)
	}

	jobs := make(chan int, len(resolved))
	results := make(chan preparedLayer, len(resolved))
	errChan := make(chan error, numWorkers)

	// Start workers
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go p.worker(ctx, &wg, resolved, jobs, results, errChan)
	}

	// Send jobs
	for i := range resolved {
		jobs <- i
	}
	close(jobs)

	// Wait for workers to finish
	go func() {
		wg.Wait()
		close(results)
		close(errChan)
	}()

	// Collect results
	layers := make([]preparedLayer, 0, len(resolved))
	for result := range results {
		layers = append(layers, result)
	}

	// Check for errors
	if err := <-errChan; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Sort by index to maintain canonical order
	sort.Slice(layers, func(i, j int) bool {
		return layers[i].index < layers[j].index
	})

	return layers, nil
}

// worker prepares layers from the jobs channel.
func (p *renderPass) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	resolved []pipeline.ResolvedInstruction,
	jobs <-chan int,
	results chan<- preparedLayer,
	errChan chan<- error,
) {
	defer wg.Done()

	for idx := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		layer, err := p.prepare(ctx, resolved[idx])
		if err != nil {
			select {
			case errChan <- err:
			default:
			}
			return
		}

		layer.index = idx
		results <- layer
	}
}

// prepare turns one instruction into a positioned layer.
func (p *renderPass) prepare(ctx context.Context, ri pipeline.ResolvedInstruction) (preparedLayer, error) {
	o := p.orchestrator
	instr := ri.Instruction
	anchor := ri.Anchor.String()

	raster, err := o.rasterizeStage.Execute(ctx, instr)
	fellBack := false

	var fontErr *pipeline.FontResolutionError
	if errors.As(err, &fontErr) && !p.strict && !rasterize.IsDefaultFamily(instr.FontFamily) {
		p.warnOnce.Do(func() {
			o.logger.Warn("Font %q unavailable, falling back to %s", instr.FontFamily, pipeline.DefaultFamily)
		})
		fallback := instr
		fallback.FontFamily = pipeline.DefaultFamily
		raster, err = o.rasterizeStage.Execute(ctx, fallback)
		fellBack = true
	}
	if err != nil {
		return preparedLayer{}, fmt.Errorf("rasterize %s: %w", anchor, err)
	}

	if o.sink.Enabled() && !raster.Layer.Empty() {
		o.sink.SaveTextLayer(anchor, raster.Layer.Image)
	}

	rotated, err := o.rotateStage.Execute(ctx, pipeline.RotateInput{
		Layer:   raster.Layer,
		Degrees: instr.RotationAngle,
	})
	if err != nil {
		return preparedLayer{}, fmt.Errorf("rotate %s: %w", anchor, err)
	}

	if o.sink.Enabled() && !rotated.Empty() {
		o.sink.SaveRotatedLayer(anchor, rotated.Image)
	}

	origin := geometry.Origin(ri.Anchor, p.canvas, rotated.Size())

	return preparedLayer{
		placement: pipeline.Placement{Layer: rotated, X: origin.X, Y: origin.Y},
		fontUsed:  raster.FontFamily,
		fellBack:  fellBack,
	}, nil
}

// debugInstruction is the JSON shape written to the debug sink.
type debugInstruction struct {
	Anchor        string `json:"anchor"`
	Text          string `json:"text"`
	FontFamily    string `json:"font_family"`
	FontSize      int    `json:"font_size"`
	Color         string `json:"color"`
	RotationAngle int    `json:"rotation_angle"`
}

func instructionsForDebug(resolved []pipeline.ResolvedInstruction) []debugInstruction {
	out := make([]debugInstruction, len(resolved))
	for i, r := range resolved {
		out[i] = debugInstruction{
			Anchor:        r.Anchor.String(),
			Text:          r.Instruction.Text,
			FontFamily:    r.Instruction.FontFamily,
			FontSize:      r.Instruction.FontSize,
			Color:         r.Instruction.Color.Hex(),
			RotationAngle: r.Instruction.RotationAngle,
		}
	}
	return out
}

// RenderResult is a composed image and what went into it.
type RenderResult struct {
	Image  *image.RGBA
	Canvas pipeline.Dimension

	Anchors       []string
	FontRequested string
	FontUsed      string // distinct families drawn, in anchor order, comma separated
	FellBack      bool   // the requested family was replaced by the default

	DurationMs int
}

// RunResult contains the results of a save for summary generation.
type RunResult struct {
	// Files
	InputPath  string
	OutputPath string
	Format     string
	FileSize   int64

	// Geometry
	SourceWidth  int
	SourceHeight int
	CanvasWidth  int
	CanvasHeight int

	// Watermark
	Text          string
	FontSize      int
	Color         string
	RotationAngle int
	Anchors       []string
	FontRequested string
	FontUsed      string
	FellBack      bool

	DurationMs int
}
