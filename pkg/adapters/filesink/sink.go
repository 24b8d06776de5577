// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/watermarker/pkg/ports"
)

// Sink saves debug output to files.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveInstructionsJSON saves the resolved per-anchor instructions as JSON.
func (s *Sink) SaveInstructionsJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "instructions.json")
	return s.fs.WriteFile(path, data)
}

// SaveNormalizedBase saves the base image after resizing and flattening.
func (s *Sink) SaveNormalizedBase(img image.Image) error {
	return s.savePNG(filepath.Join(s.baseDir, "base.png"), img)
}

// SaveTextLayer saves a rasterized text layer before rotation.
func (s *Sink) SaveTextLayer(anchor string, img image.Image) error {
	return s.saveLayer("text", anchor, img)
}

// SaveRotatedLayer saves a text layer after rotation.
func (s *Sink) SaveRotatedLayer(anchor string, img image.Image) error {
	return s.saveLayer("rotated", anchor, img)
}

func (s *Sink) saveLayer(kind, anchor string, img image.Image) error {
	dir := filepath.Join(s.baseDir, "layers", kind)
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	return s.savePNG(filepath.Join(dir, anchor+".png"), img)
}

func (s *Sink) savePNG(path string, img image.Image) error {
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
