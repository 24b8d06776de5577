// Package rotate implements the text layer rotation stage.
package rotate

import (
	"context"
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/user/watermarker/pkg/pipeline"
	"github.com/user/watermarker/pkg/ports"
)

// Stage rotates text layers counter-clockwise about their center.
type Stage struct {
	logger ports.Logger
}

// NewStage creates a new rotate stage.
func NewStage(logger ports.Logger) *Stage {
	return &Stage{
		logger: logger.WithComponent("rotate"),
	}
}

// Execute rotates the input layer.
func (s *Stage) Execute(ctx context.Context, input pipeline.RotateInput) (pipeline.TextLayer, error) {
	size := input.Layer.Size()
	s.logger.Debug("Rotating layer %dx%d by %d degrees", size.Width, size.Height, input.Degrees)

	rotated := Rotate(input.Layer, input.Degrees)

	size = rotated.Size()
	s.logger.Debug("Layer rotated: %dx%d", size.Width, size.Height)
	return rotated, nil
}

// NormalizeAngle maps any angle into [0, 360).
func NormalizeAngle(degrees int) int {
	return ((degrees % 360) + 360) % 360
}

// Rotate returns a new layer holding layer rotated counter-clockwise by degrees,
// expanded so no corner is cut. The input is never modified.
func Rotate(layer pipeline.TextLayer, degrees int) pipeline.TextLayer {
	if layer.Empty() {
		return pipeline.TextLayer{Image: image.NewRGBA(image.Rect(0, 0, 0, 0))}
	}

	src := layer.Image
	switch NormalizeAngle(degrees) {
	case 0:
		return pipeline.TextLayer{Image: clone(src)}
	case 90:
		return pipeline.TextLayer{Image: quarterTurn(src, 1)}
	case 180:
		return pipeline.TextLayer{Image: quarterTurn(src, 2)}
	case 270:
		return pipeline.TextLayer{Image: quarterTurn(src, 3)}
	default:
		return pipeline.TextLayer{Image: arbitrary(src, NormalizeAngle(degrees))}
	}
}

// ExpandedSize returns the bounding box of a w x h rectangle rotated by degrees.
func ExpandedSize(w, h, degrees int) pipeline.Dimension {
	theta := float64(NormalizeAngle(degrees)) * math.Pi / 180
	sin, cos := math.Abs(math.Sin(theta)), math.Abs(math.Cos(theta))
	return pipeline.Dimension{
		Width:  ceil(float64(w)*cos + float64(h)*sin),
		Height: ceil(float64(w)*sin + float64(h)*cos),
	}
}

// ceil tolerates float noise such as 99.99999999 or 100.00000001.
func ceil(v float64) int {
	return int(math.Ceil(v - 1e-9))
}

func clone(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		srcRow := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()*4], srcRow[:b.Dx()*4])
	}
	return dst
}

// quarterTurn remaps pixels exactly for turns*90 degrees counter-clockwise.
func quarterTurn(src *image.RGBA, turns int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.RGBA
	if turns%2 == 1 {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch turns {
			case 1:
				dx, dy = y, w-1-x
			case 2:
				dx, dy = w-1-x, h-1-y
			case 3:
				dx, dy = h-1-y, x
			}
			si := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			di := dst.PixOffset(dx, dy)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}

// arbitrary resamples with a Catmull-Rom kernel about the layer center.
func arbitrary(src *image.RGBA, degrees int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	size := ExpandedSize(w, h, degrees)
	dst := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))

	theta := float64(degrees) * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)

	// Source center, relative to the source bounds origin.
	cx := float64(b.Min.X) + float64(w)/2
	cy := float64(b.Min.Y) + float64(h)/2
	ncx := float64(size.Width) / 2
	ncy := float64(size.Height) / 2

	// Counter-clockwise on screen with y pointing down.
	s2d := f64.Aff3{
		cos, sin, ncx - (cos*cx + sin*cy),
		-sin, cos, ncy - (-sin*cx + cos*cy),
	}

	draw.CatmullRom.Transform(dst, s2d, src, b, draw.Src, nil)
	return dst
}
