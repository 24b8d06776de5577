package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when an output extension has no encoder.
	ErrUnsupportedFormat = errors.New("pipeline: unsupported image format")

	// ErrFontNotFound is returned when a font family maps to no installed font file.
	ErrFontNotFound = errors.New("pipeline: font not found")

	// ErrEmptyText is returned when a save is requested without watermark text.
	ErrEmptyText = errors.New("pipeline: watermark text is empty")

	// ErrNoAnchors is returned when a save is requested with no active anchors.
	ErrNoAnchors = errors.New("pipeline: no anchors selected")
)

// DecodeError reports an unreadable or corrupt base image.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("decode image: %v", e.Err)
	}
	return fmt.Sprintf("decode image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FontResolutionError reports a font family that cannot be mapped to a usable font.
type FontResolutionError struct {
	Family string
	Err    error
}

func (e *FontResolutionError) Error() string {
	return fmt.Sprintf("resolve font %q: %v", e.Family, e.Err)
}

func (e *FontResolutionError) Unwrap() error { return e.Err }

// InvalidSpecError reports a watermark spec the core refuses to render or save.
type InvalidSpecError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidSpecError) Unwrap() error { return e.Err }

// EncodeError reports an output that cannot be encoded or written.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
