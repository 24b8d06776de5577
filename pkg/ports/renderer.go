package ports

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
)

// Renderer abstracts image processing operations.
type Renderer interface {
	// CreateCanvas creates a fully transparent drawing canvas with the specified dimensions.
	CreateCanvas(width, height int) Canvas

	// DecodeImage decodes image data into an image.Image and reports the detected format name.
	DecodeImage(data []byte) (image.Image, string, error)

	// EncodeImage encodes an image to the specified format.
	// quality is only used for JPEG (1-100).
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage resizes an image to the specified dimensions.
	ResizeImage(img image.Image, width, height int) image.Image
}

// Canvas provides drawing operations for rendering glyph layers.
type Canvas interface {
	// DrawText draws text with its baseline origin at (x, y).
	DrawText(text string, x, y float64, style TextStyle)

	// ToRGBA returns the canvas pixels as premultiplied RGBA.
	ToRGBA() *image.RGBA
}

// TextStyle defines text rendering properties.
type TextStyle struct {
	Face  font.Face
	Color color.Color
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatPNG ImageFormat = iota
	FormatJPEG
	FormatBMP
	FormatGIF
)

// String returns the lowercase format name.
func (f ImageFormat) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatBMP:
		return "bmp"
	case FormatGIF:
		return "gif"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// HasAlpha reports whether the format can store an alpha channel.
func (f ImageFormat) HasAlpha() bool {
	return f == FormatPNG
}

// FormatFromPath selects the output format from a file extension.
// ok is false when the extension has no encoder.
func FormatFromPath(path string) (format ImageFormat, ok bool) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "png":
		return FormatPNG, true
	case "jpg", "jpeg":
		return FormatJPEG, true
	case "bmp":
		return FormatBMP, true
	case "gif":
		return FormatGIF, true
	default:
		return 0, false
	}
}
