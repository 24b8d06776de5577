// Package normalize prepares base images for composition.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/user/watermarker/pkg/pipeline"
	"github.com/user/watermarker/pkg/ports"
)

// DefaultBackground is the color transparent base pixels are flattened onto.
var DefaultBackground = pipeline.RGB{R: 255, G: 255, B: 255}

// Stage resizes a base image to the canvas and flattens its alpha channel.
type Stage struct {
	renderer   ports.Renderer
	logger     ports.Logger
	background color.RGBA
}

// NewStage creates a new normalize stage.
func NewStage(renderer ports.Renderer, logger ports.Logger, background pipeline.RGB) *Stage {
	return &Stage{
		renderer:   renderer,
		logger:     logger.WithComponent("normalize"),
		background: background.Color(),
	}
}

// Execute returns an opaque RGBA image of exactly the canvas size.
// A zero canvas means the default 700x800 canvas.
func (s *Stage) Execute(ctx context.Context, input pipeline.NormalizeInput) (*image.RGBA, error) {
	if input.Image == nil {
		return nil, &pipeline.DecodeError{Err: errors.New("no base image")}
	}

	canvas := input.Canvas
	if canvas == (pipeline.Dimension{}) {
		canvas = pipeline.DefaultCanvas
	}
	if canvas.Width <= 0 || canvas.Height <= 0 {
		return nil, &pipeline.InvalidSpecError{
			Field:  "canvas",
			Reason: fmt.Sprintf("dimensions must be positive, got %dx%d", canvas.Width, canvas.Height),
		}
	}

	img := input.Image
	b := img.Bounds()
	if b.Dx() != canvas.Width || b.Dy() != canvas.Height {
		s.logger.Debug("Resizing base %dx%d to %dx%d", b.Dx(), b.Dy(), canvas.Width, canvas.Height)
		img = s.renderer.ResizeImage(img, canvas.Width, canvas.Height)
	}

	return Flatten(img, s.background), nil
}

// Flatten composites img over an opaque background and returns a zero-origin copy.
func Flatten(img image.Image, background color.Color) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}

// IsOpaque reports whether every pixel of img has full alpha.
func IsOpaque(img *image.RGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 255 {
			return false
		}
	}
	return true
}
