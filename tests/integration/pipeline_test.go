// Package integration contains integration tests for the watermarker pipeline.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/user/watermarker/pkg/adapters/filesink"
	"github.com/user/watermarker/pkg/adapters/fontresolver"
	"github.com/user/watermarker/pkg/adapters/ggrenderer"
	"github.com/user/watermarker/pkg/adapters/logger"
	"github.com/user/watermarker/pkg/adapters/nullsink"
	"github.com/user/watermarker/pkg/adapters/osfilesystem"
	"github.com/user/watermarker/pkg/mocks"
	"github.com/user/watermarker/pkg/orchestrator"
	"github.com/user/watermarker/pkg/pipeline"
	"github.com/user/watermarker/pkg/ports"
	"github.com/user/watermarker/pkg/stages/composite"
	"github.com/user/watermarker/pkg/stages/encode"
	"github.com/user/watermarker/pkg/stages/geometry"
	"github.com/user/watermarker/pkg/stages/normalize"
	"github.com/user/watermarker/pkg/stages/rasterize"
	"github.com/user/watermarker/pkg/stages/resolve"
	"github.com/user/watermarker/pkg/stages/rotate"
)

// newOrchestrator wires the real adapters.
func newOrchestrator(sink ports.DebugSink, fonts ports.FontResolver) *orchestrator.Orchestrator {
	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	log := logger.NewNoop()

	return orchestrator.New(
		normalize.NewStage(renderer, log, normalize.DefaultBackground),
		resolve.NewStage(log),
		rasterize.NewStage(renderer, fonts, fs, log, 0),
		rotate.NewStage(log),
		composite.NewStage(log),
		encode.NewStage(renderer, fs, log),
		renderer,
		fs,
		sink,
		log,
	)
}

// writeInput writes a solid light-gray PNG and returns its path.
func writeInput(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 220, 220, 220, 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode input: %v", err)
	}
	path := filepath.Join(dir, "input.png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func decodeFile(t *testing.T, path string) image.Image {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	img, _, err := ggrenderer.New().DecodeImage(data)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

// inkBounds returns the bounding box of pixels that differ from bg.
func inkBounds(img image.Image, bg color.RGBA) image.Rectangle {
	b := img.Bounds()
	ink := image.Rectangle{}
	first := true
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if uint8(r>>8) == bg.R && uint8(g>>8) == bg.G && uint8(bl>>8) == bg.B {
				continue
			}
			p := image.Rect(x, y, x+1, y+1)
			if first {
				ink = p
				first = false
			} else {
				ink = ink.Union(p)
			}
		}
	}
	return ink
}

func watermarkConfig(input, output string, anchors ...pipeline.Anchor) orchestrator.Config {
	cfg := orchestrator.DefaultConfig()
	cfg.InputPath = input
	cfg.OutputPath = output
	cfg.Spec = pipeline.WatermarkSpec{
		Text:       "SAMPLE",
		FontFamily: pipeline.DefaultFamily,
		FontSize:   40,
		Color:      pipeline.RGB{R: 200},
		Anchors:    pipeline.NewAnchorSet(anchors...),
	}
	return cfg
}

// TestStagesChain runs the stages by hand, the way the orchestrator does.
func TestStagesChain(t *testing.T) {
	ctx := context.Background()
	renderer := ggrenderer.New()
	log := logger.NewNoop()

	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	base, err := normalize.NewStage(renderer, log, normalize.DefaultBackground).
		Execute(ctx, pipeline.NormalizeInput{Image: src})
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if base.Bounds().Dx() != 700 || base.Bounds().Dy() != 800 {
		t.Fatalf("expected 700x800 base, got %v", base.Bounds())
	}

	spec := pipeline.WatermarkSpec{
		Text:       "X",
		FontFamily: pipeline.DefaultFamily,
		FontSize:   48,
		Anchors:    pipeline.NewAnchorSet(pipeline.MidCenter),
	}
	resolved, err := resolve.NewStage(log).Execute(ctx, spec)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(resolved))
	}

	raster, err := rasterize.NewStage(renderer, nil, osfilesystem.New(), log, 0).Execute(ctx, resolved[0].Instruction)
	if err != nil {
		t.Fatalf("rasterize failed: %v", err)
	}
	rotated, err := rotate.NewStage(log).Execute(ctx, pipeline.RotateInput{Layer: raster.Layer})
	if err != nil {
		t.Fatalf("rotate failed: %v", err)
	}

	origin := geometry.Origin(pipeline.MidCenter, pipeline.DefaultCanvas, rotated.Size())
	out, err := composite.NewStage(log).Execute(ctx, pipeline.CompositeInput{
		Base:       base,
		Placements: []pipeline.Placement{{Layer: rotated, X: origin.X, Y: origin.Y}},
	})
	if err != nil {
		t.Fatalf("composite failed: %v", err)
	}

	// The layer box is centered on (350, 400).
	size := rotated.Size()
	cx := origin.X + size.Width/2
	cy := origin.Y + size.Height/2
	if abs(cx-350) > 1 || abs(cy-400) > 1 {
		t.Errorf("expected layer centered at (350,400), got (%d,%d)", cx, cy)
	}

	ink := inkBounds(out, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	if ink.Empty() {
		t.Fatal("expected ink on the composed image")
	}
	if !ink.In(image.Rect(origin.X, origin.Y, origin.X+size.Width, origin.Y+size.Height)) {
		t.Errorf("ink %v escapes the layer box", ink)
	}
}

func TestSaveAllFormats(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, 350, 400)
	orch := newOrchestrator(nullsink.New(), nil)

	for _, name := range []string{"out.png", "out.jpg", "out.jpeg", "out.bmp", "out.gif"} {
		t.Run(name, func(t *testing.T) {
			output := filepath.Join(dir, name)
			result, err := orch.Save(context.Background(), watermarkConfig(input, output, pipeline.UpperLeft))
			if err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			info, err := os.Stat(output)
			if err != nil {
				t.Fatalf("stat output: %v", err)
			}
			if info.Size() != result.FileSize {
				t.Errorf("expected size %d, got %d", result.FileSize, info.Size())
			}

			img := decodeFile(t, output)
			if img.Bounds().Dx() != 700 || img.Bounds().Dy() != 800 {
				t.Errorf("expected 700x800, got %v", img.Bounds())
			}
		})
	}
}

func TestPreviewMatchesSave(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, 640, 480)
	output := filepath.Join(dir, "out.png")
	orch := newOrchestrator(nullsink.New(), nil)

	cfg := watermarkConfig(input, output, pipeline.AllAnchors()...)
	cfg.Spec.RotationAngle = 30
	cfg.Workers = 4

	preview, err := orch.Preview(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if _, err := orch.Save(context.Background(), cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	saved := decodeFile(t, output)
	b := preview.Image.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pr, pg, pb, pa := preview.Image.At(x, y).RGBA()
			sr, sg, sb, sa := saved.At(x, y).RGBA()
			if pr != sr || pg != sg || pb != sb || pa != sa {
				t.Fatalf("pixel (%d,%d) differs: preview %v, saved %v", x, y, preview.Image.At(x, y), saved.At(x, y))
			}
		}
	}
}

func TestSaveFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, 70, 80)

	// A regular file where the output directory should be.
	blocker := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	output := filepath.Join(blocker, "out.png")

	orch := newOrchestrator(nullsink.New(), nil)
	_, err := orch.Save(context.Background(), watermarkConfig(input, output, pipeline.MidCenter))

	var encErr *pipeline.EncodeError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncodeError, got %v", err)
	}
	// The parent is a regular file, so Stat reports ENOTDIR rather than ENOENT.
	if _, err := os.Stat(output); err == nil {
		t.Error("expected no output file")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected only input and blocker, found %d entries", len(entries))
	}
}

func TestSaveUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, 70, 80)
	output := filepath.Join(dir, "out.tiff")

	orch := newOrchestrator(nullsink.New(), nil)
	_, err := orch.Save(context.Background(), watermarkConfig(input, output, pipeline.MidCenter))

	if !errors.Is(err, pipeline.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	// The parent is a regular file, so Stat reports ENOTDIR rather than ENOENT.
	if _, err := os.Stat(output); err == nil {
		t.Error("expected no output file")
	}
}

func TestOrchestratorWithDebugSink(t *testing.T) {
	dir := t.TempDir()
	debugDir := filepath.Join(dir, "debug")
	input := writeInput(t, dir, 70, 80)

	fs := osfilesystem.New()
	if err := fs.MkdirAll(debugDir); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	sink := filesink.New(debugDir, fs, ggrenderer.New())
	orch := newOrchestrator(sink, nil)

	cfg := watermarkConfig(input, filepath.Join(dir, "out.png"), pipeline.UpperLeft, pipeline.BottomRight)
	cfg.Spec.RotationAngle = 90
	if _, err := orch.Save(context.Background(), cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(debugDir, "instructions.json"))
	if err != nil {
		t.Fatalf("expected instructions.json: %v", err)
	}
	var instructions []map[string]any
	if err := json.Unmarshal(data, &instructions); err != nil {
		t.Fatalf("parse instructions.json: %v", err)
	}
	if len(instructions) != 2 || instructions[0]["anchor"] != "upper_left" {
		t.Errorf("unexpected instructions: %s", data)
	}

	for _, rel := range []string{
		"base.png",
		"layers/text/upper_left.png",
		"layers/text/bottom_right.png",
		"layers/rotated/upper_left.png",
		"layers/rotated/bottom_right.png",
	} {
		if _, err := os.Stat(filepath.Join(debugDir, filepath.FromSlash(rel))); err != nil {
			t.Errorf("expected %s in debug output: %v", rel, err)
		}
	}

	// A quarter turn swaps the layer dimensions.
	text := decodeFile(t, filepath.Join(debugDir, "layers", "text", "upper_left.png")).Bounds()
	rotated := decodeFile(t, filepath.Join(debugDir, "layers", "rotated", "upper_left.png")).Bounds()
	if text.Dx() != rotated.Dy() || text.Dy() != rotated.Dx() {
		t.Errorf("expected swapped dimensions, text %v rotated %v", text, rotated)
	}
}

func TestFontResolverWithFontDirectory(t *testing.T) {
	dir := t.TempDir()
	fontDir := filepath.Join(dir, "fonts")
	if err := os.MkdirAll(fontDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(fontDir, "BrandSans-Regular.ttf"), goregular.TTF, 0644); err != nil {
		t.Fatalf("write font: %v", err)
	}
	input := writeInput(t, dir, 70, 80)

	resolver := fontresolver.New(fontresolver.Options{
		Dirs: fontresolver.ResolveFontDirs([]string{fontDir}, false),
	})
	orch := newOrchestrator(nullsink.New(), resolver)

	cfg := watermarkConfig(input, filepath.Join(dir, "out.png"), pipeline.MidCenter)
	cfg.Spec.FontFamily = "Brand Sans"
	cfg.StrictFonts = true

	result, err := orch.Save(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if result.FellBack || result.FontUsed != "Brand Sans" {
		t.Errorf("expected Brand Sans without fallback, got %s (fell back: %v)", result.FontUsed, result.FellBack)
	}

	cfg.Spec.FontFamily = "Missing Family"
	_, err = orch.Save(context.Background(), cfg)
	var fontErr *pipeline.FontResolutionError
	if !errors.As(err, &fontErr) {
		t.Fatalf("expected FontResolutionError in strict mode, got %v", err)
	}
}

func TestFontResolverWithCollectionAndOpenType(t *testing.T) {
	dir := t.TempDir()
	fontDir := filepath.Join(dir, "fonts")
	if err := os.MkdirAll(fontDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	fonts := map[string][]byte{
		"GoFamily.ttc":   mocks.FontCollection(gomono.TTF, goregular.TTF),
		"Signage.otf":    goregular.TTF,
		"notes-font.txt": []byte("not a font"),
	}
	for name, data := range fonts {
		if err := os.WriteFile(filepath.Join(fontDir, name), data, 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	input := writeInput(t, dir, 70, 80)

	resolver := fontresolver.New(fontresolver.Options{
		Dirs: fontresolver.ResolveFontDirs([]string{fontDir}, false),
	})
	families := resolver.Families()
	if len(families) != 2 || families[0] != "GoFamily" || families[1] != "Signage" {
		t.Fatalf("expected [GoFamily Signage], got %v", families)
	}

	orch := newOrchestrator(nullsink.New(), resolver)
	for _, family := range families {
		cfg := watermarkConfig(input, filepath.Join(dir, family+".png"), pipeline.MidCenter)
		cfg.Spec.FontFamily = family
		cfg.StrictFonts = true

		result, err := orch.Save(context.Background(), cfg)
		if err != nil {
			t.Fatalf("%s: Save failed: %v", family, err)
		}
		if result.FellBack || result.FontUsed != family {
			t.Errorf("%s: expected no fallback, got %s (fell back: %v)", family, result.FontUsed, result.FellBack)
		}
	}
}

func TestPreserveResolution(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, 1400, 1600)
	output := filepath.Join(dir, "out.png")

	cfg := watermarkConfig(input, output, pipeline.MidCenter)
	cfg.PreserveResolution = true

	result, err := newOrchestrator(nullsink.New(), nil).Save(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if result.CanvasWidth != 1400 || result.CanvasHeight != 1600 {
		t.Errorf("expected 1400x1600 canvas, got %dx%d", result.CanvasWidth, result.CanvasHeight)
	}

	// The mid_center point scales to (700, 800).
	ink := inkBounds(decodeFile(t, output), color.RGBA{R: 220, G: 220, B: 220, A: 255})
	center := image.Pt((ink.Min.X+ink.Max.X)/2, (ink.Min.Y+ink.Max.Y)/2)
	if abs(center.X-700) > 20 || abs(center.Y-800) > 20 {
		t.Errorf("expected ink centered near (700,800), got %v", center)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
