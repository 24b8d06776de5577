// Package geometry implements the anchor table stage.
package geometry

import (
	"context"
	"fmt"
	"math"

	"github.com/user/watermarker/pkg/pipeline"
)

// anchorPoint is one design-table row for the 700x800 canvas.
type anchorPoint struct {
	x, y     int
	centered bool
}

// table is indexed by pipeline.Anchor.
// Center-column anchors center the layer on the point; all others use the point
// as the layer's top-left corner.
var table = [...]anchorPoint{
	pipeline.UpperLeft:    {10, 30, false},
	pipeline.TopCenter:    {350, 30, true},
	pipeline.UpperRight:   {600, 30, false},
	pipeline.MidLeft:      {10, 400, false},
	pipeline.MidCenter:    {350, 400, true},
	pipeline.MidRight:     {600, 400, false},
	pipeline.BottomLeft:   {10, 750, false},
	pipeline.BottomCenter: {350, 750, true},
	pipeline.BottomRight:  {600, 750, false},
}

// Stage returns the anchor table for a canvas.
// This is a pure function with no external dependencies.
type Stage struct{}

// NewStage creates a new geometry stage.
func NewStage() *Stage {
	return &Stage{}
}

// Execute returns every anchor position for the input canvas in canonical order.
// A zero canvas means the default 700x800 canvas.
func (s *Stage) Execute(ctx context.Context, input pipeline.GeometryInput) (pipeline.GeometryResult, error) {
	canvas := input.Canvas
	if canvas == (pipeline.Dimension{}) {
		canvas = pipeline.DefaultCanvas
	}
	if canvas.Width <= 0 || canvas.Height <= 0 {
		return pipeline.GeometryResult{}, &pipeline.InvalidSpecError{
			Field:  "canvas",
			Reason: fmt.Sprintf("dimensions must be positive, got %dx%d", canvas.Width, canvas.Height),
		}
	}
	return pipeline.GeometryResult{Positions: Table(canvas)}, nil
}

// Table returns the anchor positions for canvas in canonical order.
func Table(canvas pipeline.Dimension) []pipeline.AnchorPosition {
	anchors := pipeline.AllAnchors()
	positions := make([]pipeline.AnchorPosition, len(anchors))
	for i, a := range anchors {
		positions[i] = pipeline.AnchorPosition{
			Anchor:   a,
			Point:    CoordinatesIn(a, canvas),
			Centered: IsCentered(a),
		}
	}
	return positions
}

// CoordinatesFor returns the design-table point of anchor on the 700x800 canvas.
// Unknown anchors map to the origin.
func CoordinatesFor(anchor pipeline.Anchor) pipeline.Point {
	if !anchor.Valid() {
		return pipeline.Point{}
	}
	row := table[anchor]
	return pipeline.Point{X: row.x, Y: row.y}
}

// IsCentered reports whether the layer is centered on the anchor point.
func IsCentered(anchor pipeline.Anchor) bool {
	return anchor.Valid() && table[anchor].centered
}

// CoordinatesIn scales the design point proportionally to canvas.
func CoordinatesIn(anchor pipeline.Anchor, canvas pipeline.Dimension) pipeline.Point {
	p := CoordinatesFor(anchor)
	design := pipeline.DefaultCanvas
	if canvas == design || canvas.Width <= 0 || canvas.Height <= 0 {
		return p
	}
	return pipeline.Point{
		X: int(math.Round(float64(p.X) * float64(canvas.Width) / float64(design.Width))),
		Y: int(math.Round(float64(p.Y) * float64(canvas.Height) / float64(design.Height))),
	}
}

// Origin returns the top-left paste coordinate of a layer of the given size.
func Origin(anchor pipeline.Anchor, canvas, layer pipeline.Dimension) pipeline.Point {
	p := CoordinatesIn(anchor, canvas)
	if IsCentered(anchor) {
		p.X -= layer.Width / 2
		p.Y -= layer.Height / 2
	}
	return p
}
