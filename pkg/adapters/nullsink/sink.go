// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/user/watermarker/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveInstructionsJSON does nothing.
func (s *Sink) SaveInstructionsJSON(data []byte) error {
	return nil
}

// SaveNormalizedBase does nothing.
func (s *Sink) SaveNormalizedBase(img image.Image) error {
	return nil
}

// SaveTextLayer does nothing.
func (s *Sink) SaveTextLayer(anchor string, img image.Image) error {
	return nil
}

// SaveRotatedLayer does nothing.
func (s *Sink) SaveRotatedLayer(anchor string, img image.Image) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
