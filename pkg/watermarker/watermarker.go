package watermarker

import (
	"context"
	"fmt"
	"image"

	"github.com/user/watermarker/pkg/adapters/filesink"
	"github.com/user/watermarker/pkg/adapters/fontresolver"
	"github.com/user/watermarker/pkg/adapters/ggrenderer"
	"github.com/user/watermarker/pkg/adapters/logger"
	"github.com/user/watermarker/pkg/adapters/nullsink"
	"github.com/user/watermarker/pkg/adapters/osfilesystem"
	"github.com/user/watermarker/pkg/orchestrator"
	"github.com/user/watermarker/pkg/ports"
	"github.com/user/watermarker/pkg/stages/composite"
	"github.com/user/watermarker/pkg/stages/encode"
	"github.com/user/watermarker/pkg/stages/normalize"
	"github.com/user/watermarker/pkg/stages/rasterize"
	"github.com/user/watermarker/pkg/stages/resolve"
	"github.com/user/watermarker/pkg/stages/rotate"
)

// Option customizes the adapters a Watermarker is built with.
type Option func(*options)

type options struct {
	logger ports.Logger
	fs     ports.FileSystem
	fonts  ports.FontResolver
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l ports.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithFileSystem replaces the OS file system.
func WithFileSystem(fs ports.FileSystem) Option {
	return func(o *options) { o.fs = fs }
}

// WithFontResolver replaces the directory-scanning font resolver.
func WithFontResolver(r ports.FontResolver) Option {
	return func(o *options) { o.fonts = r }
}

// Watermarker renders and saves watermarked images with one configuration.
// It is safe for concurrent use.
type Watermarker struct {
	config Config
	orch   *orchestrator.Orchestrator
	fonts  ports.FontResolver
}

// New wires the default adapters and stages for cfg.
func New(cfg Config, opts ...Option) (*Watermarker, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.NewNoop()
	}
	if o.fs == nil {
		o.fs = osfilesystem.New()
	}
	if o.fonts == nil {
		o.fonts = fontresolver.New(fontresolver.Options{
			Fonts: cfg.Fonts,
			Dirs:  fontresolver.ResolveFontDirs(cfg.FontDirs, cfg.SystemFonts),
		})
	}

	renderer := ggrenderer.NewWithOptions(ggrenderer.Options{
		Resample: ggrenderer.Resample(cfg.Resample),
	})

	var sink ports.DebugSink
	if cfg.Debug {
		if err := o.fs.MkdirAll(cfg.DebugDir); err != nil {
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, o.fs, renderer)
	} else {
		sink = nullsink.New()
	}

	orch := orchestrator.New(
		normalize.NewStage(renderer, o.logger, cfg.Background),
		resolve.NewStage(o.logger),
		rasterize.NewStage(renderer, o.fonts, o.fs, o.logger, cfg.FontCacheSize),
		rotate.NewStage(o.logger),
		composite.NewStage(o.logger),
		encode.NewStage(renderer, o.fs, o.logger),
		renderer,
		o.fs,
		sink,
		o.logger,
	)

	return &Watermarker{config: cfg, orch: orch, fonts: o.fonts}, nil
}

// Config returns the configuration the Watermarker was built with.
func (w *Watermarker) Config() Config {
	return w.config
}

// Render composes the watermark onto base without touching the file system.
func (w *Watermarker) Render(ctx context.Context, base image.Image) (orchestrator.RenderResult, error) {
	return w.orch.Render(ctx, base, w.config.ToOrchestratorConfig("", ""))
}

// Preview loads inputPath and renders it without writing anything.
func (w *Watermarker) Preview(ctx context.Context, inputPath string) (orchestrator.RenderResult, error) {
	return w.orch.Preview(ctx, w.config.ToOrchestratorConfig(inputPath, ""))
}

// Save loads inputPath, renders it and writes outputPath in the format named
// by its extension.
func (w *Watermarker) Save(ctx context.Context, inputPath, outputPath string) (orchestrator.RunResult, error) {
	return w.orch.Save(ctx, w.config.ToOrchestratorConfig(inputPath, outputPath))
}

// Families lists the font families the resolver can find.
func (w *Watermarker) Families() []string {
	return w.fonts.Families()
}

// Preview renders inputPath with cfg using the default adapters.
func Preview(ctx context.Context, inputPath string, cfg Config, opts ...Option) (orchestrator.RenderResult, error) {
	w, err := New(cfg, opts...)
	if err != nil {
		return orchestrator.RenderResult{}, err
	}
	return w.Preview(ctx, inputPath)
}

// Save renders inputPath with cfg and writes outputPath using the default adapters.
func Save(ctx context.Context, inputPath, outputPath string, cfg Config, opts ...Option) (orchestrator.RunResult, error) {
	w, err := New(cfg, opts...)
	if err != nil {
		return orchestrator.RunResult{}, err
	}
	return w.Save(ctx, inputPath, outputPath)
}
