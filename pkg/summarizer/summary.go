// Package summarizer provides summary generation for watermark runs.
package summarizer

import (
	"time"

	"github.com/user/watermarker/pkg/orchestrator"
)

// Summary contains all data collected during one save.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Input and output files
	Files FilesInfo

	// Source and canvas geometry
	Image ImageInfo

	// What was drawn
	Watermark WatermarkInfo

	// Wall time of the render
	DurationMs int
}

// FilesInfo describes the input and output files.
type FilesInfo struct {
	Input    string
	Output   string
	Format   string
	FileSize int64
}

// ImageInfo describes the source image and the working canvas.
type ImageInfo struct {
	SourceWidth  int
	SourceHeight int
	CanvasWidth  int
	CanvasHeight int
}

// WatermarkInfo describes the rendered watermark.
type WatermarkInfo struct {
	Text          string
	FontRequested string
	FontUsed      string
	FellBack      bool
	FontSize      int
	Color         string
	RotationAngle int
	Anchors       []string
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// FromRunResult builds a Summary from a finished save.
func FromRunResult(r orchestrator.RunResult) *Summary {
	return NewBuilder().
		WithFiles(r.InputPath, r.OutputPath, r.Format, r.FileSize).
		WithImage(ImageInfo{
			SourceWidth:  r.SourceWidth,
			SourceHeight: r.SourceHeight,
			CanvasWidth:  r.CanvasWidth,
			CanvasHeight: r.CanvasHeight,
		}).
		WithWatermark(WatermarkInfo{
			Text:          r.Text,
			FontRequested: r.FontRequested,
			FontUsed:      r.FontUsed,
			FellBack:      r.FellBack,
			FontSize:      r.FontSize,
			Color:         r.Color,
			RotationAngle: r.RotationAngle,
			Anchors:       r.Anchors,
		}).
		WithDuration(r.DurationMs).
		Build()
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithFiles sets file information.
func (b *Builder) WithFiles(input, output, format string, size int64) *Builder {
	b.summary.Files = FilesInfo{
		Input:    input,
		Output:   output,
		Format:   format,
		FileSize: size,
	}
	return b
}

// WithImage sets geometry information.
func (b *Builder) WithImage(image ImageInfo) *Builder {
	b.summary.Image = image
	return b
}

// WithWatermark sets watermark information.
func (b *Builder) WithWatermark(watermark WatermarkInfo) *Builder {
	b.summary.Watermark = watermark
	return b
}

// WithDuration sets the render duration.
func (b *Builder) WithDuration(ms int) *Builder {
	b.summary.DurationMs = ms
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
