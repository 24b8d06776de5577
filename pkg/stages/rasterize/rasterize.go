// Package rasterize renders watermark text into transparent glyph layers.
package rasterize

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/user/watermarker/pkg/pipeline"
	"github.com/user/watermarker/pkg/ports"
)

// DefaultCacheSize is the number of parsed fonts kept in memory.
const DefaultCacheSize = 16

// embeddedFont is the font behind pipeline.DefaultFamily.
var embeddedFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// Stage rasterizes one render instruction into a text layer.
// It is safe for concurrent use.
type Stage struct {
	renderer ports.Renderer
	fonts    ports.FontResolver
	fs       ports.FileSystem
	logger   ports.Logger
	cache    *lru.Cache[string, *opentype.Font]
}

// NewStage creates a new rasterize stage. fonts may be nil, in which case only
// the default family is available.
func NewStage(renderer ports.Renderer, fonts ports.FontResolver, fs ports.FileSystem, logger ports.Logger, cacheSize int) *Stage {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New[string, *opentype.Font](cacheSize)
	return &Stage{
		renderer: renderer,
		fonts:    fonts,
		fs:       fs,
		logger:   logger.WithComponent("rasterize"),
		cache:    cache,
	}
}

// Execute renders the instruction's text with its font, size and color on a
// transparent buffer sized to the text's full extent.
func (s *Stage) Execute(ctx context.Context, instr pipeline.RenderInstruction) (pipeline.RasterizeResult, error) {
	if instr.FontSize < 0 {
		return pipeline.RasterizeResult{}, &pipeline.InvalidSpecError{
			Field:  "font_size",
			Reason: fmt.Sprintf("must not be negative, got %d", instr.FontSize),
		}
	}

	if instr.FontSize == 0 || instr.Text == "" {
		return pipeline.RasterizeResult{
			Layer:      pipeline.TextLayer{Image: image.NewRGBA(image.Rect(0, 0, 0, 0))},
			FontFamily: instr.FontFamily,
		}, nil
	}

	f, family, err := s.loadFont(instr.FontFamily)
	if err != nil {
		return pipeline.RasterizeResult{}, err
	}

	s.logger.Debug("Rasterizing %q with %s at %dpt", instr.Text, family, instr.FontSize)

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size: float64(instr.FontSize),
		DPI:  72,
	})
	if err != nil {
		return pipeline.RasterizeResult{}, &pipeline.FontResolutionError{Family: family, Err: err}
	}
	defer face.Close()

	layer := s.draw(instr, face)

	size := layer.Size()
	s.logger.Debug("Layer rasterized: %dx%d", size.Width, size.Height)

	return pipeline.RasterizeResult{Layer: layer, FontFamily: family}, nil
}

// draw measures the string and paints it so that no glyph ink or advance is cut.
func (s *Stage) draw(instr pipeline.RenderInstruction, face font.Face) pipeline.TextLayer {
	bounds, advance := font.BoundString(face, instr.Text)
	metrics := face.Metrics()

	minX := min(0, bounds.Min.X.Floor())
	maxX := max(advance.Ceil(), bounds.Max.X.Ceil())
	minY := min(-metrics.Ascent.Ceil(), bounds.Min.Y.Floor())
	maxY := max(metrics.Descent.Ceil(), bounds.Max.Y.Ceil())

	width := maxX - minX
	height := maxY - minY
	if width <= 0 || height <= 0 {
		return pipeline.TextLayer{Image: image.NewRGBA(image.Rect(0, 0, 0, 0))}
	}

	canvas := s.renderer.CreateCanvas(width, height)
	canvas.DrawText(instr.Text, float64(-minX), float64(-minY), ports.TextStyle{
		Face:  face,
		Color: instr.Color.Color(),
	})

	return pipeline.TextLayer{Image: canvas.ToRGBA()}
}

// loadFont returns the parsed font for family and the family name actually used.
func (s *Stage) loadFont(family string) (*opentype.Font, string, error) {
	if IsDefaultFamily(family) {
		f, err := embeddedFont()
		if err != nil {
			return nil, "", &pipeline.FontResolutionError{Family: pipeline.DefaultFamily, Err: err}
		}
		return f, pipeline.DefaultFamily, nil
	}

	if s.fonts == nil {
		return nil, "", &pipeline.FontResolutionError{
			Family: family,
			Err:    fmt.Errorf("%w: %s", pipeline.ErrFontNotFound, family),
		}
	}

	path, err := s.fonts.Resolve(family)
	if err != nil {
		return nil, "", &pipeline.FontResolutionError{Family: family, Err: err}
	}

	key := path + "#" + foldName(family)
	if f, ok := s.cache.Get(key); ok {
		s.logger.Debug("Font cache hit: %s", path)
		return f, family, nil
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, "", &pipeline.FontResolutionError{Family: family, Err: fmt.Errorf("read %s: %w", path, err)}
	}

	f, err := parseFont(data, family)
	if err != nil {
		return nil, "", &pipeline.FontResolutionError{Family: family, Err: fmt.Errorf("parse %s: %w", path, err)}
	}

	s.cache.Add(key, f)
	return f, family, nil
}

// parseFont parses TrueType, OpenType (CFF included) and collection files.
// From a collection it picks the member whose full or family name matches
// family, or the first member when none does.
func parseFont(data []byte, family string) (*opentype.Font, error) {
	c, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	if c.NumFonts() == 1 {
		return c.Font(0)
	}

	want := foldName(family)
	var buf sfnt.Buffer
	for _, id := range []sfnt.NameID{sfnt.NameIDFull, sfnt.NameIDFamily} {
		for i := 0; i < c.NumFonts(); i++ {
			f, err := c.Font(i)
			if err != nil {
				continue
			}
			name, err := f.Name(&buf, id)
			if err == nil && foldName(name) == want {
				return f, nil
			}
		}
	}
	return c.Font(0)
}

// foldName compares family names ignoring case, spaces, dashes and underscores.
func foldName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(name)
}

// IsDefaultFamily reports whether family selects the embedded font.
func IsDefaultFamily(family string) bool {
	family = strings.TrimSpace(family)
	return family == "" || strings.EqualFold(family, pipeline.DefaultFamily)
}
