package normalize

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/user/watermarker/pkg/adapters/logger"
	"github.com/user/watermarker/pkg/mocks"
	"github.com/user/watermarker/pkg/pipeline"
)

func TestFlatten_TransparentOntoBackground(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 255})

	out := Flatten(img, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	if !IsOpaque(out) {
		t.Fatal("expected opaque output")
	}
	if got := out.RGBAAt(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("expected white background, got %v", got)
	}
	if got := out.RGBAAt(1, 1); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("expected red pixel preserved, got %v", got)
	}
}

func TestFlatten_HalfAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{A: 128})

	out := Flatten(img, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	got := out.RGBAAt(0, 0)
	if got.A != 255 || got.R < 120 || got.R > 135 {
		t.Errorf("expected opaque mid gray, got %v", got)
	}
}

func TestStage_ExecuteResizes(t *testing.T) {
	var gotW, gotH int
	renderer := &mocks.Renderer{
		ResizeImageFunc: func(img image.Image, width, height int) image.Image {
			gotW, gotH = width, height
			return image.NewRGBA(image.Rect(0, 0, width, height))
		},
	}
	stage := NewStage(renderer, logger.NewNoop(), DefaultBackground)

	out, err := stage.Execute(context.Background(), pipeline.NormalizeInput{
		Image: image.NewRGBA(image.Rect(0, 0, 1920, 1080)),
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if gotW != 700 || gotH != 800 {
		t.Errorf("expected resize to 700x800, got %dx%d", gotW, gotH)
	}
	if out.Bounds() != image.Rect(0, 0, 700, 800) {
		t.Errorf("unexpected bounds %v", out.Bounds())
	}
	if !IsOpaque(out) {
		t.Error("expected opaque output")
	}
}

func TestStage_ExecuteSkipsResizeAtCanvasSize(t *testing.T) {
	renderer := &mocks.Renderer{
		ResizeImageFunc: func(img image.Image, width, height int) image.Image {
			t.Error("unexpected resize")
			return img
		},
	}
	stage := NewStage(renderer, logger.NewNoop(), pipeline.RGB{})

	out, err := stage.Execute(context.Background(), pipeline.NormalizeInput{
		Image:  image.NewRGBA(image.Rect(0, 0, 300, 200)),
		Canvas: pipeline.Dimension{Width: 300, Height: 200},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := out.RGBAAt(5, 5); got != (color.RGBA{A: 255}) {
		t.Errorf("expected black background, got %v", got)
	}
}

func TestStage_ExecuteErrors(t *testing.T) {
	stage := NewStage(&mocks.Renderer{}, logger.NewNoop(), DefaultBackground)

	_, err := stage.Execute(context.Background(), pipeline.NormalizeInput{})
	var decodeErr *pipeline.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("expected DecodeError for nil image, got %v", err)
	}

	_, err = stage.Execute(context.Background(), pipeline.NormalizeInput{
		Image:  image.NewRGBA(image.Rect(0, 0, 1, 1)),
		Canvas: pipeline.Dimension{Width: 0, Height: 10},
	})
	var specErr *pipeline.InvalidSpecError
	if !errors.As(err, &specErr) {
		t.Errorf("expected InvalidSpecError for bad canvas, got %v", err)
	}
}
