package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/watermarker/pkg/pipeline"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.CanvasWidth != 700 || cfg.CanvasHeight != 800 {
		t.Errorf("expected 700x800, got %dx%d", cfg.CanvasWidth, cfg.CanvasHeight)
	}
	if cfg.FontFamily != "Arial" || cfg.FontSize != 10 {
		t.Errorf("expected Arial 10, got %s %d", cfg.FontFamily, cfg.FontSize)
	}
	if cfg.Color != "#000000" {
		t.Errorf("expected #000000, got %s", cfg.Color)
	}
	if cfg.BackgroundColor != "#ffffff" {
		t.Errorf("expected #ffffff background, got %s", cfg.BackgroundColor)
	}
	if cfg.JPEGQuality != 95 {
		t.Errorf("expected quality 95, got %d", cfg.JPEGQuality)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watermark.yaml")
	content := `
text: CONFIDENTIAL
font_size: 36
color: "#ff0000"
angle: 45
anchors:
  - upper_left
  - Center Middle
preserve_resolution: true
fonts:
  Brand: /fonts/brand.ttf
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Text != "CONFIDENTIAL" || cfg.FontSize != 36 || cfg.Angle != 45 {
		t.Errorf("unexpected watermark fields: %+v", cfg)
	}
	if !cfg.PreserveResolution {
		t.Error("expected preserve_resolution")
	}
	if cfg.Fonts["Brand"] != "/fonts/brand.ttf" {
		t.Errorf("unexpected fonts: %v", cfg.Fonts)
	}
	// Unset keys keep defaults
	if cfg.FontFamily != "Arial" || cfg.CanvasWidth != 700 {
		t.Errorf("expected defaults for unset keys, got %s %d", cfg.FontFamily, cfg.CanvasWidth)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("font_size: [1, 2"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want pipeline.RGB
	}{
		{"#000000", pipeline.RGB{}},
		{"#ff8000", pipeline.RGB{R: 255, G: 128}},
		{"FF8000", pipeline.RGB{R: 255, G: 128}},
		{"#f80", pipeline.RGB{R: 255, G: 136}},
		{"10, 20, 30", pipeline.RGB{R: 10, G: 20, B: 30}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Errorf("ParseColor(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %s, want %s", tt.in, got.Hex(), tt.want.Hex())
		}
	}
}

func TestParseColor_Invalid(t *testing.T) {
	for _, in := range []string{"", "#12", "#gggggg", "1,2", "1,2,300", "red"} {
		_, err := ParseColor(in)
		var specErr *pipeline.InvalidSpecError
		if !errors.As(err, &specErr) {
			t.Errorf("ParseColor(%q): expected InvalidSpecError, got %v", in, err)
			continue
		}
		if specErr.Field != "color" {
			t.Errorf("ParseColor(%q): expected field color, got %s", in, specErr.Field)
		}
	}
}

func TestToOrchestratorConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Text = "DRAFT"
	cfg.Color = "#0000ff"
	cfg.Angle = 370
	cfg.FontSize = 900
	cfg.Anchors = []string{"bottom_right", "upper_left"}

	oc, err := cfg.ToOrchestratorConfig("in.jpg", "out.png")
	if err != nil {
		t.Fatalf("ToOrchestratorConfig failed: %v", err)
	}

	if oc.InputPath != "in.jpg" || oc.OutputPath != "out.png" {
		t.Errorf("unexpected paths: %s %s", oc.InputPath, oc.OutputPath)
	}
	if oc.Spec.Color != (pipeline.RGB{B: 255}) {
		t.Errorf("expected blue, got %s", oc.Spec.Color.Hex())
	}
	if oc.Spec.RotationAngle != 10 {
		t.Errorf("expected angle wrapped to 10, got %d", oc.Spec.RotationAngle)
	}
	if oc.Spec.FontSize != 500 {
		t.Errorf("expected size clamped to 500, got %d", oc.Spec.FontSize)
	}
	names := oc.Spec.Anchors.Names()
	if len(names) != 2 || names[0] != "upper_left" || names[1] != "bottom_right" {
		t.Errorf("unexpected anchors: %v", names)
	}
}

func TestToOrchestratorConfig_InvalidValues(t *testing.T) {
	cfg := Defaults()
	cfg.Anchors = []string{"nowhere"}
	if _, err := cfg.ToOrchestratorConfig("", ""); err == nil {
		t.Error("expected error for unknown anchor")
	}

	cfg = Defaults()
	cfg.Color = "not-a-color"
	if _, err := cfg.ToOrchestratorConfig("", ""); err == nil {
		t.Error("expected error for bad color")
	}
}
