// Package encode implements the image encoding stage.
package encode

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/user/watermarker/pkg/pipeline"
	"github.com/user/watermarker/pkg/ports"
	"github.com/user/watermarker/pkg/stages/normalize"
)

// Stage encodes a composed image and writes it to disk.
type Stage struct {
	renderer ports.Renderer
	fs       ports.FileSystem
	logger   ports.Logger
}

// NewStage creates a new encode stage.
func NewStage(renderer ports.Renderer, fs ports.FileSystem, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		fs:       fs,
		logger:   logger.WithComponent("encode"),
	}
}

// Execute encodes the image in the format named by the output extension and
// writes it atomically. Nothing is written when any step fails.
func (s *Stage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	result := pipeline.EncodeResult{}

	format, ok := ports.FormatFromPath(input.OutputPath)
	if !ok {
		return result, &pipeline.EncodeError{
			Path: input.OutputPath,
			Err:  fmt.Errorf("%w: %q", pipeline.ErrUnsupportedFormat, filepath.Ext(input.OutputPath)),
		}
	}

	if input.Image == nil {
		return result, &pipeline.EncodeError{Path: input.OutputPath, Err: fmt.Errorf("no image")}
	}

	select {
	case <-ctx.Done():
		return result, ctx.Err()
	default:
	}

	img := input.Image
	if !format.HasAlpha() {
		img = normalize.Flatten(img, normalize.DefaultBackground.Color())
	}

	s.logger.Debug("Encoding %s (quality %d)", format, input.JPEGQuality)

	data, err := s.renderer.EncodeImage(img, format, input.JPEGQuality)
	if err != nil {
		return result, &pipeline.EncodeError{Path: input.OutputPath, Err: err}
	}

	if err := s.fs.WriteFileAtomic(input.OutputPath, data); err != nil {
		return result, &pipeline.EncodeError{Path: input.OutputPath, Err: err}
	}

	s.logger.Debug("Image encoded: %d bytes", len(data))

	result.Path = input.OutputPath
	result.Format = format.String()
	result.FileSize = int64(len(data))
	return result, nil
}
