// Package composite implements the layer composition stage.
package composite

import (
	"context"
	"image"

	"golang.org/x/image/draw"

	"github.com/user/watermarker/pkg/pipeline"
	"github.com/user/watermarker/pkg/ports"
)

// Stage pastes text layers over a base image.
type Stage struct {
	logger ports.Logger
}

// NewStage creates a new composite stage.
func NewStage(logger ports.Logger) *Stage {
	return &Stage{
		logger: logger.WithComponent("composite"),
	}
}

// Execute composes all placements onto a copy of the base.
func (s *Stage) Execute(ctx context.Context, input pipeline.CompositeInput) (*image.RGBA, error) {
	b := input.Base.Bounds()
	s.logger.Debug("Compositing %d layers onto %dx%d base", len(input.Placements), b.Dx(), b.Dy())

	out := copyBase(input.Base)
	for _, p := range input.Placements {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if p.Layer.Empty() {
			s.logger.Debug("Skipping empty layer at (%d, %d)", p.X, p.Y)
			continue
		}
		paste(out, p)
	}

	s.logger.Debug("Composition completed")
	return out, nil
}

// Composite returns a new image holding base with each placement drawn over it
// in order. Placements extending past the canvas are clipped. base is never modified.
func Composite(base image.Image, placements []pipeline.Placement) *image.RGBA {
	out := copyBase(base)
	for _, p := range placements {
		if p.Layer.Empty() {
			continue
		}
		paste(out, p)
	}
	return out
}

func copyBase(base image.Image) *image.RGBA {
	b := base.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), base, b.Min, draw.Src)
	return out
}

// paste draws the layer with Porter-Duff over at its top-left coordinate.
func paste(dst *image.RGBA, p pipeline.Placement) {
	src := p.Layer.Image
	sb := src.Bounds()
	r := image.Rect(p.X, p.Y, p.X+sb.Dx(), p.Y+sb.Dy())
	draw.Draw(dst, r, src, sb.Min, draw.Over)
}
