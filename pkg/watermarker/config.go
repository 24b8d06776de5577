// Package watermarker provides a high-level API for stamping text watermarks onto images.
package watermarker

import (
	"github.com/user/watermarker/pkg/orchestrator"
	"github.com/user/watermarker/pkg/pipeline"
	"github.com/user/watermarker/pkg/stages/rasterize"
	"github.com/user/watermarker/pkg/stages/rotate"
)

// MaxFontSize is the largest font size Build accepts.
const MaxFontSize = 500

// Resampling filter names.
const (
	ResampleLanczos    = "lanczos"
	ResampleCatmullRom = "catmullrom"
)

// Config represents the configuration for a watermark render.
type Config struct {
	// Canvas
	CanvasWidth        int    // Working canvas width (default: 700)
	CanvasHeight       int    // Working canvas height (default: 800)
	PreserveResolution bool   // Use the decoded image size as the canvas
	Resample           string // Base resize filter (lanczos, catmullrom)
	Background         pipeline.RGB

	// Watermark
	Text          string
	FontFamily    string
	FontSize      int // 0-500
	Color         pipeline.RGB
	RotationAngle int // degrees counter-clockwise, [0, 360)
	Anchors       []pipeline.Anchor

	// Fonts
	StrictFonts   bool              // Fail instead of falling back to the default family
	Fonts         map[string]string // family -> font file
	FontDirs      []string          // Extra directories to scan
	SystemFonts   bool              // Also scan the platform font directories
	FontCacheSize int               // Parsed fonts kept in memory

	// Performance
	Workers int

	// Encoding
	JPEGQuality int // 1-100

	// Debug
	Debug    bool
	DebugDir string
}

// ConfigBuilder provides a fluent interface for building Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder creates a new ConfigBuilder with default values.
func NewConfigBuilder() *ConfigBuilder {
	spec := pipeline.DefaultSpec()
	return &ConfigBuilder{
		config: Config{
			CanvasWidth:   pipeline.DefaultCanvas.Width,
			CanvasHeight:  pipeline.DefaultCanvas.Height,
			Resample:      ResampleLanczos,
			Background:    pipeline.RGB{R: 255, G: 255, B: 255},
			FontFamily:    spec.FontFamily,
			FontSize:      spec.FontSize,
			Color:         spec.Color,
			SystemFonts:   true,
			FontCacheSize: rasterize.DefaultCacheSize,
			Workers:       1,
			JPEGQuality:   95,
			DebugDir:      "./debug",
		},
	}
}

// Build returns the configured Config with constraints applied.
func (b *ConfigBuilder) Build() Config {
	cfg := b.config

	// Apply constraints
	if cfg.CanvasWidth < 0 {
		cfg.CanvasWidth = 0
	}
	if cfg.CanvasHeight < 0 {
		cfg.CanvasHeight = 0
	}
	if cfg.FontSize < 0 {
		cfg.FontSize = 0
	}
	if cfg.FontSize > MaxFontSize {
		cfg.FontSize = MaxFontSize
	}
	cfg.RotationAngle = rotate.NormalizeAngle(cfg.RotationAngle)
	if cfg.Resample != ResampleCatmullRom {
		cfg.Resample = ResampleLanczos
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.JPEGQuality < 1 {
		cfg.JPEGQuality = 1
	}
	if cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 100
	}
	if cfg.FontCacheSize < 1 {
		cfg.FontCacheSize = rasterize.DefaultCacheSize
	}

	// Deduplicate anchors, keeping canonical order
	cfg.Anchors = pipeline.NewAnchorSet(cfg.Anchors...).Sorted()

	return cfg
}

// WithCanvas sets the working canvas size.
func (b *ConfigBuilder) WithCanvas(width, height int) *ConfigBuilder {
	b.config.CanvasWidth = width
	b.config.CanvasHeight = height
	return b
}

// WithPreserveResolution keeps the base image at its decoded size.
func (b *ConfigBuilder) WithPreserveResolution(preserve bool) *ConfigBuilder {
	b.config.PreserveResolution = preserve
	return b
}

// WithResample sets the base resize filter.
func (b *ConfigBuilder) WithResample(resample string) *ConfigBuilder {
	b.config.Resample = resample
	return b
}

// WithBackground sets the color transparent base pixels are flattened onto.
func (b *ConfigBuilder) WithBackground(c pipeline.RGB) *ConfigBuilder {
	b.config.Background = c
	return b
}

// WithText sets the watermark text.
func (b *ConfigBuilder) WithText(text string) *ConfigBuilder {
	b.config.Text = text
	return b
}

// WithFontFamily sets the font family.
func (b *ConfigBuilder) WithFontFamily(family string) *ConfigBuilder {
	b.config.FontFamily = family
	return b
}

// WithFontSize sets the font size in points.
func (b *ConfigBuilder) WithFontSize(size int) *ConfigBuilder {
	b.config.FontSize = size
	return b
}

// WithColor sets the text color.
func (b *ConfigBuilder) WithColor(c pipeline.RGB) *ConfigBuilder {
	b.config.Color = c
	return b
}

// WithRotation sets the rotation angle in degrees.
func (b *ConfigBuilder) WithRotation(degrees int) *ConfigBuilder {
	b.config.RotationAngle = degrees
	return b
}

// WithAnchors replaces the active anchors.
func (b *ConfigBuilder) WithAnchors(anchors ...pipeline.Anchor) *ConfigBuilder {
	b.config.Anchors = append([]pipeline.Anchor(nil), anchors...)
	return b
}

// WithAnchor adds one active anchor.
func (b *ConfigBuilder) WithAnchor(anchor pipeline.Anchor) *ConfigBuilder {
	b.config.Anchors = append(b.config.Anchors, anchor)
	return b
}

// WithAllAnchors activates all nine anchors.
func (b *ConfigBuilder) WithAllAnchors() *ConfigBuilder {
	b.config.Anchors = pipeline.AllAnchors()
	return b
}

// WithStrictFonts disables the fallback to the default family.
func (b *ConfigBuilder) WithStrictFonts(strict bool) *ConfigBuilder {
	b.config.StrictFonts = strict
	return b
}

// WithFont maps a family name to a font file.
func (b *ConfigBuilder) WithFont(family, path string) *ConfigBuilder {
	if b.config.Fonts == nil {
		b.config.Fonts = make(map[string]string)
	}
	b.config.Fonts[family] = path
	return b
}

// WithFontDirs adds directories to scan for font files.
func (b *ConfigBuilder) WithFontDirs(dirs ...string) *ConfigBuilder {
	b.config.FontDirs = append(b.config.FontDirs, dirs...)
	return b
}

// WithSystemFonts toggles scanning of the platform font directories.
func (b *ConfigBuilder) WithSystemFonts(enabled bool) *ConfigBuilder {
	b.config.SystemFonts = enabled
	return b
}

// WithFontCacheSize sets how many parsed fonts are kept in memory.
func (b *ConfigBuilder) WithFontCacheSize(size int) *ConfigBuilder {
	b.config.FontCacheSize = size
	return b
}

// WithWorkers sets the number of layer workers.
func (b *ConfigBuilder) WithWorkers(workers int) *ConfigBuilder {
	b.config.Workers = workers
	return b
}

// WithJPEGQuality sets the JPEG encoding quality.
func (b *ConfigBuilder) WithJPEGQuality(quality int) *ConfigBuilder {
	b.config.JPEGQuality = quality
	return b
}

// WithDebug enables debug output into dir.
func (b *ConfigBuilder) WithDebug(enabled bool, dir string) *ConfigBuilder {
	b.config.Debug = enabled
	if dir != "" {
		b.config.DebugDir = dir
	}
	return b
}

// Spec returns the watermark description carried by the config.
func (c Config) Spec() pipeline.WatermarkSpec {
	return pipeline.WatermarkSpec{
		Text:          c.Text,
		FontFamily:    c.FontFamily,
		FontSize:      c.FontSize,
		Color:         c.Color,
		RotationAngle: c.RotationAngle,
		Anchors:       pipeline.NewAnchorSet(c.Anchors...),
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig(inputPath, outputPath string) orchestrator.Config {
	return orchestrator.Config{
		InputPath:  inputPath,
		OutputPath: outputPath,

		CanvasWidth:        c.CanvasWidth,
		CanvasHeight:       c.CanvasHeight,
		PreserveResolution: c.PreserveResolution,

		Spec:        c.Spec(),
		StrictFonts: c.StrictFonts,

		Workers:     c.Workers,
		JPEGQuality: c.JPEGQuality,
	}
}
