package mocks

import (
	"image"
	"sync"

	"github.com/user/watermarker/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	CreateCanvasFunc func(width, height int) ports.Canvas
	DecodeImageFunc  func(data []byte) (image.Image, string, error)
	EncodeImageFunc  func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	ResizeImageFunc  func(img image.Image, width, height int) image.Image
}

func (m *Renderer) CreateCanvas(width, height int) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height)
	}
	return NewCanvas(width, height)
}

func (m *Renderer) DecodeImage(data []byte) (image.Image, string, error) {
	if m.DecodeImageFunc != nil {
		return m.DecodeImageFunc(data)
	}
	return image.NewRGBA(image.Rect(0, 0, 100, 100)), "png", nil
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte{}, nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ ports.Renderer = (*Renderer)(nil)

// TextCall records one DrawText invocation.
type TextCall struct {
	Text  string
	X, Y  float64
	Style ports.TextStyle
}

// Canvas is a mock implementation of ports.Canvas.
type Canvas struct {
	mu    sync.Mutex
	img   *image.RGBA
	Calls []TextCall
}

// NewCanvas creates a transparent mock canvas.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (m *Canvas) DrawText(text string, x, y float64, style ports.TextStyle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, TextCall{Text: text, X: x, Y: y, Style: style})
}

func (m *Canvas) ToRGBA() *image.RGBA {
	return m.img
}

var _ ports.Canvas = (*Canvas)(nil)
