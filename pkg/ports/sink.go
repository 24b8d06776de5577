package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving intermediate render buffers for debugging purposes.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveInstructionsJSON saves the resolved per-anchor instructions as JSON.
	SaveInstructionsJSON(data []byte) error

	// SaveNormalizedBase saves the base image after resizing and flattening.
	SaveNormalizedBase(img image.Image) error

	// SaveTextLayer saves a rasterized text layer before rotation.
	SaveTextLayer(anchor string, img image.Image) error

	// SaveRotatedLayer saves a text layer after rotation.
	SaveRotatedLayer(anchor string, img image.Image) error
}
