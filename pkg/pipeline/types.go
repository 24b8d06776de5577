// Package pipeline holds the watermark stage contract and the types passed
// between stages.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"
)

// =============================================================================
// Stages
// =============================================================================

// Stage is one step of a watermark render: normalize, resolve, rasterize,
// rotate, composite or encode.
type Stage[In, Out any] interface {
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc lets a plain function stand in for a stage, mostly in tests.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}

// =============================================================================
// Common Types
// =============================================================================

// Dimension represents width and height.
type Dimension struct {
	Width  int
	Height int
}

// DefaultCanvas is the working resolution previews and saves are normalized to.
var DefaultCanvas = Dimension{Width: 700, Height: 800}

// Point is a pixel coordinate on the canvas.
type Point struct {
	X int
	Y int
}

// RGB is an opaque watermark color.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// Color returns the opaque color.RGBA.
func (c RGB) Color() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Hex returns the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// =============================================================================
// Anchors
// =============================================================================

// Anchor is one of the nine fixed watermark positions.
type Anchor int

const (
	UpperLeft Anchor = iota
	TopCenter
	UpperRight
	MidLeft
	MidCenter
	MidRight
	BottomLeft
	BottomCenter
	BottomRight
)

// anchorNames is indexed by Anchor and defines the canonical order.
var anchorNames = [...]string{
	"upper_left",
	"top_center",
	"upper_right",
	"mid_left",
	"mid_center",
	"mid_right",
	"bottom_left",
	"bottom_center",
	"bottom_right",
}

// anchorLabels are the human-readable labels shown next to each position.
var anchorLabels = [...]string{
	"Top Left",
	"Top Center",
	"Top Right",
	"Center Left",
	"Center Middle",
	"Center Right",
	"Bottom Left",
	"Bottom Center",
	"Bottom Right",
}

// AllAnchors returns every anchor in canonical order.
func AllAnchors() []Anchor {
	all := make([]Anchor, len(anchorNames))
	for i := range all {
		all[i] = Anchor(i)
	}
	return all
}

// String returns the snake_case anchor name.
func (a Anchor) String() string {
	if !a.Valid() {
		return fmt.Sprintf("anchor(%d)", int(a))
	}
	return anchorNames[a]
}

// Label returns the human-readable label.
func (a Anchor) Label() string {
	if !a.Valid() {
		return a.String()
	}
	return anchorLabels[a]
}

// Valid reports whether a is one of the nine anchors.
func (a Anchor) Valid() bool {
	return a >= UpperLeft && a <= BottomRight
}

// ParseAnchor accepts a snake_case name ("mid_center") or a label ("Center Middle"),
// case-insensitively.
func ParseAnchor(s string) (Anchor, error) {
	key := normalizeAnchorKey(s)
	for i := range anchorNames {
		if key == normalizeAnchorKey(anchorNames[i]) || key == normalizeAnchorKey(anchorLabels[i]) {
			return Anchor(i), nil
		}
	}
	return 0, &InvalidSpecError{Field: "anchors", Reason: fmt.Sprintf("unknown anchor %q", s)}
}

func normalizeAnchorKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}

// AnchorSet is an unordered set of active anchors.
type AnchorSet map[Anchor]struct{}

// NewAnchorSet creates a set from the given anchors.
func NewAnchorSet(anchors ...Anchor) AnchorSet {
	set := make(AnchorSet, len(anchors))
	for _, a := range anchors {
		set[a] = struct{}{}
	}
	return set
}

// ParseAnchorSet parses a list of anchor names into a set.
func ParseAnchorSet(names []string) (AnchorSet, error) {
	set := make(AnchorSet, len(names))
	for _, name := range names {
		a, err := ParseAnchor(name)
		if err != nil {
			return nil, err
		}
		set[a] = struct{}{}
	}
	return set, nil
}

// Has reports whether the anchor is active.
func (s AnchorSet) Has(a Anchor) bool {
	_, ok := s[a]
	return ok
}

// Sorted returns the active anchors in canonical order.
func (s AnchorSet) Sorted() []Anchor {
	out := make([]Anchor, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Names returns the snake_case names of the active anchors in canonical order.
func (s AnchorSet) Names() []string {
	sorted := s.Sorted()
	names := make([]string, len(sorted))
	for i, a := range sorted {
		names[i] = a.String()
	}
	return names
}

// =============================================================================
// Watermark Spec Types
// =============================================================================

// DefaultFamily is the built-in font family. It never needs a font file.
const DefaultFamily = "Go Regular"

// WatermarkSpec is the complete description of one watermark render request.
// Every active anchor shares the same text and style.
type WatermarkSpec struct {
	Text          string
	FontFamily    string
	FontSize      int // >= 0
	Color         RGB
	RotationAngle int // degrees, [0, 360)
	Anchors       AnchorSet
}

// DefaultSpec returns the reset state: no text, Arial 10, black, no rotation, no anchors.
func DefaultSpec() WatermarkSpec {
	return WatermarkSpec{
		FontFamily: "Arial",
		FontSize:   10,
		Color:      RGB{},
		Anchors:    NewAnchorSet(),
	}
}

// RenderInstruction is the per-anchor style record consumed by the rasterizer.
type RenderInstruction struct {
	Text          string
	FontFamily    string
	FontSize      int
	Color         RGB
	RotationAngle int
}

// ResolvedInstruction pairs an anchor with its render instruction.
type ResolvedInstruction struct {
	Anchor      Anchor
	Instruction RenderInstruction
}

// =============================================================================
// Layer Types
// =============================================================================

// TextLayer is a transparent premultiplied RGBA buffer holding only glyph pixels.
type TextLayer struct {
	Image *image.RGBA
}

// Size returns the layer dimensions.
func (l TextLayer) Size() Dimension {
	if l.Image == nil {
		return Dimension{}
	}
	b := l.Image.Bounds()
	return Dimension{Width: b.Dx(), Height: b.Dy()}
}

// Empty reports whether the layer has no pixels.
func (l TextLayer) Empty() bool {
	size := l.Size()
	return size.Width == 0 || size.Height == 0
}

// Placement is a layer pasted with its top-left corner at (X, Y).
type Placement struct {
	Layer TextLayer
	X     int
	Y     int
}

// =============================================================================
// Stage Inputs and Results
// =============================================================================

// GeometryInput asks for the anchor table of a canvas.
type GeometryInput struct {
	Canvas Dimension
}

// AnchorPosition is one row of the geometry table.
type AnchorPosition struct {
	Anchor   Anchor
	Point    Point
	Centered bool
}

// GeometryResult holds the anchor table in canonical order.
type GeometryResult struct {
	Positions []AnchorPosition
}

// NormalizeInput asks for a base image resized to Canvas and flattened.
type NormalizeInput struct {
	Image  image.Image
	Canvas Dimension
}

// RotateInput is a layer and the counter-clockwise angle to rotate it by.
type RotateInput struct {
	Layer   TextLayer
	Degrees int
}

// RasterizeResult is the rasterized layer plus the family actually used.
type RasterizeResult struct {
	Layer      TextLayer
	FontFamily string
}

// CompositeInput contains the normalized base and the ordered placements.
type CompositeInput struct {
	Base       image.Image
	Placements []Placement
}

// EncodeInput contains the flattened image and its destination.
type EncodeInput struct {
	Image       image.Image
	OutputPath  string
	JPEGQuality int
}

// EncodeResult describes what was written.
type EncodeResult struct {
	Path     string
	Format   string
	FileSize int64
}
