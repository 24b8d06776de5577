// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/user/watermarker/pkg/orchestrator"
	"github.com/user/watermarker/pkg/pipeline"
	"github.com/user/watermarker/pkg/watermarker"
)

// Config represents the full configuration for watermarker.
type Config struct {
	// Canvas
	CanvasWidth        int    `yaml:"canvas_width"`
	CanvasHeight       int    `yaml:"canvas_height"`
	PreserveResolution bool   `yaml:"preserve_resolution"`
	Resample           string `yaml:"resample"`
	BackgroundColor    string `yaml:"background_color"`

	// Watermark
	Text       string   `yaml:"text"`
	FontFamily string   `yaml:"font_family"`
	FontSize   int      `yaml:"font_size"`
	Color      string   `yaml:"color"`
	Angle      int      `yaml:"angle"`
	Anchors    []string `yaml:"anchors"`

	// Fonts
	StrictFonts   bool              `yaml:"strict_fonts"`
	Fonts         map[string]string `yaml:"fonts"`
	FontDirs      []string          `yaml:"font_dirs"`
	SystemFonts   bool              `yaml:"system_fonts"`
	FontCacheSize int               `yaml:"font_cache_size"`

	// Performance
	Workers int `yaml:"workers"` // 0 = one per CPU

	// Encoding
	JPEGQuality int `yaml:"jpeg_quality"`

	// Output
	Summary  string `yaml:"summary"`
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	d := watermarker.NewConfigBuilder().Build()
	return Config{
		// Canvas
		CanvasWidth:     d.CanvasWidth,
		CanvasHeight:    d.CanvasHeight,
		Resample:        d.Resample,
		BackgroundColor: d.Background.Hex(),

		// Watermark
		FontFamily: d.FontFamily,
		FontSize:   d.FontSize,
		Color:      d.Color.Hex(),

		// Fonts
		SystemFonts:   d.SystemFonts,
		FontCacheSize: d.FontCacheSize,

		// Encoding
		JPEGQuality: d.JPEGQuality,

		// Output
		DebugDir: d.DebugDir,
	}
}

// LoadFromFile loads configuration from a YAML file.
// Keys missing from the file keep their default values.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// ParseColor parses "#rrggbb", "#rgb" (the # is optional) or "r,g,b".
func ParseColor(s string) (pipeline.RGB, error) {
	s = strings.TrimSpace(s)
	invalid := func(err error) (pipeline.RGB, error) {
		return pipeline.RGB{}, &pipeline.InvalidSpecError{
			Field:  "color",
			Reason: fmt.Sprintf("cannot parse %q", s),
			Err:    err,
		}
	}

	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return invalid(nil)
		}
		var c [3]uint8
		for i, p := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return invalid(err)
			}
			c[i] = uint8(v)
		}
		return pipeline.RGB{R: c[0], G: c[1], B: c[2]}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return invalid(nil)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return invalid(err)
	}
	return pipeline.RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Builder returns a watermarker.ConfigBuilder seeded from c, ready for further
// overrides.
func (c Config) Builder() (*watermarker.ConfigBuilder, error) {
	textColor, err := ParseColor(c.Color)
	if err != nil {
		return nil, err
	}
	background, err := ParseColor(c.BackgroundColor)
	if err != nil {
		return nil, fmt.Errorf("background_color: %w", err)
	}
	anchors, err := pipeline.ParseAnchorSet(c.Anchors)
	if err != nil {
		return nil, err
	}

	b := watermarker.NewConfigBuilder().
		WithCanvas(c.CanvasWidth, c.CanvasHeight).
		WithPreserveResolution(c.PreserveResolution).
		WithResample(c.Resample).
		WithBackground(background).
		WithText(c.Text).
		WithFontFamily(c.FontFamily).
		WithFontSize(c.FontSize).
		WithColor(textColor).
		WithRotation(c.Angle).
		WithAnchors(anchors.Sorted()...).
		WithStrictFonts(c.StrictFonts).
		WithFontDirs(c.FontDirs...).
		WithSystemFonts(c.SystemFonts).
		WithFontCacheSize(c.FontCacheSize).
		WithWorkers(c.Workers).
		WithJPEGQuality(c.JPEGQuality).
		WithDebug(c.Debug, c.DebugDir)
	for family, path := range c.Fonts {
		b.WithFont(family, path)
	}
	return b, nil
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig(inputPath, outputPath string) (orchestrator.Config, error) {
	b, err := c.Builder()
	if err != nil {
		return orchestrator.Config{}, err
	}
	return b.Build().ToOrchestratorConfig(inputPath, outputPath), nil
}
