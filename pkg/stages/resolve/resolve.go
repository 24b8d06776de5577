// Package resolve turns a watermark spec into per-anchor render instructions.
package resolve

import (
	"context"
	"fmt"

	"github.com/user/watermarker/pkg/pipeline"
	"github.com/user/watermarker/pkg/ports"
	"github.com/user/watermarker/pkg/stages/rotate"
)

// Stage resolves a WatermarkSpec into ordered instructions.
type Stage struct {
	logger ports.Logger
}

// NewStage creates a new resolve stage.
func NewStage(logger ports.Logger) *Stage {
	return &Stage{
		logger: logger.WithComponent("resolve"),
	}
}

// Execute validates spec for rendering and returns one instruction per active anchor.
func (s *Stage) Execute(ctx context.Context, spec pipeline.WatermarkSpec) ([]pipeline.ResolvedInstruction, error) {
	if err := Validate(spec, false); err != nil {
		return nil, err
	}
	resolved := Resolve(spec)
	s.logger.Debug("Resolved %d anchors", len(resolved))
	return resolved, nil
}

// Resolve returns one instruction per active anchor in canonical anchor order.
// The order never depends on how the anchor set was built. Angles are wrapped
// into [0, 360).
func Resolve(spec pipeline.WatermarkSpec) []pipeline.ResolvedInstruction {
	anchors := spec.Anchors.Sorted()
	resolved := make([]pipeline.ResolvedInstruction, 0, len(anchors))
	for _, a := range anchors {
		resolved = append(resolved, pipeline.ResolvedInstruction{
			Anchor: a,
			Instruction: pipeline.RenderInstruction{
				Text:          spec.Text,
				FontFamily:    spec.FontFamily,
				FontSize:      spec.FontSize,
				Color:         spec.Color,
				RotationAngle: rotate.NormalizeAngle(spec.RotationAngle),
			},
		})
	}
	return resolved
}

// Validate checks spec. Saves additionally require text and at least one anchor.
// The rotation angle is never rejected; Resolve wraps it modulo 360.
func Validate(spec pipeline.WatermarkSpec, forSave bool) error {
	if spec.FontSize < 0 {
		return &pipeline.InvalidSpecError{
			Field:  "font_size",
			Reason: fmt.Sprintf("must not be negative, got %d", spec.FontSize),
		}
	}
	for a := range spec.Anchors {
		if !a.Valid() {
			return &pipeline.InvalidSpecError{
				Field:  "anchors",
				Reason: fmt.Sprintf("unknown anchor %s", a),
			}
		}
	}

	if !forSave {
		return nil
	}

	if spec.Text == "" {
		return &pipeline.InvalidSpecError{Field: "text", Reason: "is empty", Err: pipeline.ErrEmptyText}
	}
	if len(spec.Anchors) == 0 {
		return &pipeline.InvalidSpecError{Field: "anchors", Reason: "none selected", Err: pipeline.ErrNoAnchors}
	}
	return nil
}
