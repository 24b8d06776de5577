package rasterize

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"

	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/user/watermarker/pkg/adapters/ggrenderer"
	"github.com/user/watermarker/pkg/adapters/logger"
	"github.com/user/watermarker/pkg/mocks"
	"github.com/user/watermarker/pkg/pipeline"
	"github.com/user/watermarker/pkg/ports"
)

func newTestStage(fonts ports.FontResolver, fs *mocks.FileSystem) *Stage {
	return NewStage(ggrenderer.New(), fonts, fs, logger.NewNoop(), 4)
}

func instruction(text string, size int) pipeline.RenderInstruction {
	return pipeline.RenderInstruction{
		Text:       text,
		FontFamily: pipeline.DefaultFamily,
		FontSize:   size,
		Color:      pipeline.RGB{R: 255, G: 0, B: 0},
	}
}

// inkBounds returns the bounding box of non-transparent pixels.
func inkBounds(img *image.RGBA) image.Rectangle {
	var r image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y).A != 0 {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}

func TestStage_ExecuteDefaultFont(t *testing.T) {
	stage := newTestStage(nil, mocks.NewFileSystem())

	result, err := stage.Execute(context.Background(), instruction("Watermark", 32))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.FontFamily != pipeline.DefaultFamily {
		t.Errorf("expected %s, got %s", pipeline.DefaultFamily, result.FontFamily)
	}

	layer := result.Layer
	if layer.Empty() {
		t.Fatal("expected non-empty layer")
	}
	size := layer.Size()
	if size.Height < 32 {
		t.Errorf("expected height >= 32, got %d", size.Height)
	}

	ink := inkBounds(layer.Image)
	if ink.Empty() {
		t.Fatal("expected glyph pixels")
	}
	if !ink.In(layer.Image.Bounds()) {
		t.Errorf("ink %v escapes layer %v", ink, layer.Image.Bounds())
	}
}

func TestStage_ExecuteColorAndTransparency(t *testing.T) {
	stage := newTestStage(nil, mocks.NewFileSystem())

	instr := instruction("H", 48)
	instr.Color = pipeline.RGB{R: 10, G: 200, B: 30}

	result, err := stage.Execute(context.Background(), instr)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	img := result.Layer.Image
	opaque, clear := 0, 0
	for i := 0; i < len(img.Pix); i += 4 {
		switch img.Pix[i+3] {
		case 255:
			opaque++
			if img.Pix[i] != 10 || img.Pix[i+1] != 200 || img.Pix[i+2] != 30 {
				t.Fatalf("opaque pixel has color %v", img.Pix[i:i+3])
			}
		case 0:
			clear++
		}
	}
	if opaque == 0 {
		t.Error("expected fully opaque glyph pixels")
	}
	if clear == 0 {
		t.Error("expected transparent background pixels")
	}
}

func alphaSum(img *image.RGBA) int {
	sum := 0
	for i := 3; i < len(img.Pix); i += 4 {
		sum += int(img.Pix[i])
	}
	return sum
}

func TestStage_ExecuteNeverClips(t *testing.T) {
	stage := newTestStage(nil, mocks.NewFileSystem())
	renderer := ggrenderer.New()

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: 40, DPI: 72})
	if err != nil {
		t.Fatal(err)
	}

	for _, text := range []string{"gjpqy", "ÅÉÎ", "W", "—", "fij"} {
		result, err := stage.Execute(context.Background(), instruction(text, 40))
		if err != nil {
			t.Fatalf("%q: Execute failed: %v", text, err)
		}

		// The same string on an oversized canvas holds every glyph pixel.
		ref := renderer.CreateCanvas(600, 300)
		ref.DrawText(text, 100, 150, ports.TextStyle{Face: face, Color: color.RGBA{R: 255, A: 255}})

		if got, want := alphaSum(result.Layer.Image), alphaSum(ref.ToRGBA()); got != want {
			t.Errorf("%q: layer alpha %d, reference alpha %d", text, got, want)
		}
	}
}

func TestStage_ExecuteZeroSize(t *testing.T) {
	fonts := mocks.NewFontResolver(nil)
	var calls int32
	fonts.ResolveFunc = func(family string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errors.New("unexpected")
	}
	stage := newTestStage(fonts, mocks.NewFileSystem())

	instr := instruction("hello", 0)
	instr.FontFamily = "Arial"
	result, err := stage.Execute(context.Background(), instr)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Layer.Empty() {
		t.Errorf("expected empty layer, got %+v", result.Layer.Size())
	}
	if calls != 0 {
		t.Error("expected no font resolution for zero size")
	}
}

func TestStage_ExecuteEmptyText(t *testing.T) {
	stage := newTestStage(nil, mocks.NewFileSystem())

	result, err := stage.Execute(context.Background(), instruction("", 24))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Layer.Empty() {
		t.Error("expected empty layer for empty text")
	}
}

func TestStage_ExecuteNegativeSize(t *testing.T) {
	stage := newTestStage(nil, mocks.NewFileSystem())

	_, err := stage.Execute(context.Background(), instruction("x", -1))

	var specErr *pipeline.InvalidSpecError
	if !errors.As(err, &specErr) {
		t.Fatalf("expected InvalidSpecError, got %v", err)
	}
}

func TestStage_ExecuteUnknownFamily(t *testing.T) {
	stage := newTestStage(mocks.NewFontResolver(nil), mocks.NewFileSystem())

	instr := instruction("x", 12)
	instr.FontFamily = "Nonexistent Sans"
	_, err := stage.Execute(context.Background(), instr)

	var fontErr *pipeline.FontResolutionError
	if !errors.As(err, &fontErr) {
		t.Fatalf("expected FontResolutionError, got %v", err)
	}
	if fontErr.Family != "Nonexistent Sans" {
		t.Errorf("expected family in error, got %s", fontErr.Family)
	}
	if !errors.Is(err, pipeline.ErrFontNotFound) {
		t.Error("expected error to wrap ErrFontNotFound")
	}
}

func TestStage_ExecuteNilResolver(t *testing.T) {
	stage := newTestStage(nil, mocks.NewFileSystem())

	instr := instruction("x", 12)
	instr.FontFamily = "Arial"
	_, err := stage.Execute(context.Background(), instr)

	var fontErr *pipeline.FontResolutionError
	if !errors.As(err, &fontErr) {
		t.Fatalf("expected FontResolutionError, got %v", err)
	}
}

func TestStage_ExecuteCorruptFontFile(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.PutFile("/fonts/broken.ttf", []byte("not a font"))
	fonts := mocks.NewFontResolver(map[string]string{"Broken": "/fonts/broken.ttf"})
	stage := newTestStage(fonts, fs)

	instr := instruction("x", 12)
	instr.FontFamily = "Broken"
	_, err := stage.Execute(context.Background(), instr)

	var fontErr *pipeline.FontResolutionError
	if !errors.As(err, &fontErr) {
		t.Fatalf("expected FontResolutionError, got %v", err)
	}
}

func TestStage_ExecuteResolvedFontIsCached(t *testing.T) {
	fs := mocks.NewFileSystem()
	var reads int32
	fs.ReadFileFunc = func(path string) ([]byte, error) {
		atomic.AddInt32(&reads, 1)
		return goregular.TTF, nil
	}
	fonts := mocks.NewFontResolver(map[string]string{"Brand": "/fonts/brand.ttf"})
	stage := newTestStage(fonts, fs)

	instr := instruction("cache", 20)
	instr.FontFamily = "Brand"
	for i := 0; i < 3; i++ {
		result, err := stage.Execute(context.Background(), instr)
		if err != nil {
			t.Fatalf("Execute %d failed: %v", i, err)
		}
		if result.FontFamily != "Brand" {
			t.Errorf("expected Brand, got %s", result.FontFamily)
		}
	}

	if reads != 1 {
		t.Errorf("expected font file to be read once, got %d", reads)
	}
}

func TestStage_ExecuteCollectionMember(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.PutFile("/fonts/go.ttc", mocks.FontCollection(goregular.TTF, gomono.TTF))
	fs.PutFile("/fonts/mono.ttf", gomono.TTF)
	fonts := mocks.NewFontResolver(map[string]string{
		"Go":        "/fonts/go.ttc",
		"Go Mono":   "/fonts/go.ttc",
		"Mono File": "/fonts/mono.ttf",
		"Unlisted":  "/fonts/go.ttc",
	})
	stage := newTestStage(fonts, fs)

	render := func(family string) pipeline.TextLayer {
		t.Helper()
		instr := instruction("iiii", 30)
		instr.FontFamily = family
		result, err := stage.Execute(context.Background(), instr)
		if err != nil {
			t.Fatalf("%s: Execute failed: %v", family, err)
		}
		if result.FontFamily != family {
			t.Errorf("expected %s, got %s", family, result.FontFamily)
		}
		return result.Layer
	}

	mono := render("Go Mono")
	regular := render("Go")
	reference := render("Mono File")
	unlisted := render("Unlisted")

	if mono.Size() != reference.Size() {
		t.Errorf("expected collection member to match the standalone file, got %+v and %+v", mono.Size(), reference.Size())
	}
	if mono.Size().Width <= regular.Size().Width {
		t.Errorf("expected monospace layer wider than proportional, got %d and %d", mono.Size().Width, regular.Size().Width)
	}
	if unlisted.Size() != regular.Size() {
		t.Errorf("expected first member for an unmatched family, got %+v", unlisted.Size())
	}
}

func TestStage_ExecuteOpenTypeExtension(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.PutFile("/fonts/brand.otf", goregular.TTF)
	stage := newTestStage(mocks.NewFontResolver(map[string]string{"Brand": "/fonts/brand.otf"}), fs)

	instr := instruction("Brand", 24)
	instr.FontFamily = "Brand"
	result, err := stage.Execute(context.Background(), instr)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want, err := stage.Execute(context.Background(), instruction("Brand", 24))
	if err != nil {
		t.Fatal(err)
	}
	if result.Layer.Size() != want.Layer.Size() {
		t.Errorf("expected %+v, got %+v", want.Layer.Size(), result.Layer.Size())
	}
}

func TestStage_ExecuteDeterministic(t *testing.T) {
	stage := newTestStage(nil, mocks.NewFileSystem())

	a, err := stage.Execute(context.Background(), instruction("Same", 28))
	if err != nil {
		t.Fatal(err)
	}
	b, err := stage.Execute(context.Background(), instruction("Same", 28))
	if err != nil {
		t.Fatal(err)
	}

	if string(a.Layer.Image.Pix) != string(b.Layer.Image.Pix) {
		t.Error("expected identical layers for identical instructions")
	}
}

func TestIsDefaultFamily(t *testing.T) {
	for _, family := range []string{"", "  ", "Go Regular", "go regular"} {
		if !IsDefaultFamily(family) {
			t.Errorf("expected %q to select the default font", family)
		}
	}
	if IsDefaultFamily("Arial") {
		t.Error("expected Arial not to be the default font")
	}
}
