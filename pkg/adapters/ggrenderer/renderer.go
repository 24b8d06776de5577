// Package ggrenderer provides a renderer implementation using the gg library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	stddraw "image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	// Register decoders accepted for base images beyond the encoders above.
	_ "golang.org/x/image/webp"

	"github.com/user/watermarker/pkg/ports"
)

// Resample selects the filter used when normalizing the base image.
type Resample string

const (
	// ResampleLanczos uses a Lanczos-3 kernel.
	ResampleLanczos Resample = "lanczos"
	// ResampleCatmullRom uses the Catmull-Rom bicubic kernel.
	ResampleCatmullRom Resample = "catmullrom"
)

// DefaultJPEGQuality is used when EncodeImage receives a non-positive quality.
const DefaultJPEGQuality = 95

// Options configures the renderer.
type Options struct {
	Resample Resample
}

// Renderer implements ports.Renderer using the gg library.
type Renderer struct {
	resample Resample
}

// New creates a new Renderer with Lanczos resampling.
func New() *Renderer {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a new Renderer with the given options.
func NewWithOptions(opts Options) *Renderer {
	if opts.Resample == "" {
		opts.Resample = ResampleLanczos
	}
	return &Renderer{resample: opts.Resample}
}

// CreateCanvas creates a new transparent drawing canvas.
func (r *Renderer) CreateCanvas(width, height int) ports.Canvas {
	return &Canvas{dc: gg.NewContext(width, height)}
}

// DecodeImage decodes image data into an image.Image.
func (r *Renderer) DecodeImage(data []byte) (image.Image, string, error) {
	return image.Decode(bytes.NewReader(data))
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	case ports.FormatJPEG:
		if quality <= 0 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode JPEG: %w", err)
		}
	case ports.FormatBMP:
		if err := bmp.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode BMP: %w", err)
		}
	case ports.FormatGIF:
		// nil Quantizer and Drawer: Plan9 palette with Floyd-Steinberg dithering.
		if err := gif.Encode(&buf, img, &gif.Options{NumColors: 256}); err != nil {
			return nil, fmt.Errorf("encode GIF: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// ResizeImage resizes an image to the specified dimensions.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if r.resample == ResampleCatmullRom {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		return dst
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas using gg.Context.
type Canvas struct {
	dc *gg.Context
}

// DrawText draws text with its baseline origin at (x, y).
func (c *Canvas) DrawText(text string, x, y float64, style ports.TextStyle) {
	if style.Face != nil {
		c.dc.SetFontFace(style.Face)
	}
	c.dc.SetColor(style.Color)
	c.dc.DrawString(text, x, y)
}

// ToRGBA returns the canvas pixels as premultiplied RGBA.
func (c *Canvas) ToRGBA() *image.RGBA {
	img := c.dc.Image()
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	stddraw.Draw(rgba, rgba.Bounds(), img, bounds.Min, stddraw.Src)
	return rgba
}

// Ensure Canvas implements ports.Canvas
var _ ports.Canvas = (*Canvas)(nil)
