package mocks

import (
	"image"
	"sync"

	"github.com/user/watermarker/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	InstructionsJSON []byte
	NormalizedBase   image.Image
	TextLayers       map[string]image.Image
	RotatedLayers    map[string]image.Image
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:       enabled,
		TextLayers:    make(map[string]image.Image),
		RotatedLayers: make(map[string]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveInstructionsJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InstructionsJSON = data
	return nil
}

func (m *DebugSink) SaveNormalizedBase(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NormalizedBase = img
	return nil
}

func (m *DebugSink) SaveTextLayer(anchor string, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TextLayers[anchor] = img
	return nil
}

func (m *DebugSink) SaveRotatedLayer(anchor string, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RotatedLayers[anchor] = img
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)

// NullSink is a no-op implementation of ports.DebugSink.
type NullSink struct{}

func (m *NullSink) Enabled() bool                                         { return false }
func (m *NullSink) SaveInstructionsJSON(data []byte) error                { return nil }
func (m *NullSink) SaveNormalizedBase(img image.Image) error              { return nil }
func (m *NullSink) SaveTextLayer(anchor string, img image.Image) error    { return nil }
func (m *NullSink) SaveRotatedLayer(anchor string, img image.Image) error { return nil }

var _ ports.DebugSink = (*NullSink)(nil)
