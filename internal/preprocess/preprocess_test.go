package preprocess

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

func TestPreprocessRejectsEmptyImage(t *testing.T) {
	img := gocv.NewMat()
	defer img.Close()

	_, err := Preprocess(img, DefaultParams())
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPreprocessRejectsUnsupportedChannels(t *testing.T) {
	img := gocv.NewMatWithSize(16, 16, gocv.MatTypeCV8UC2)
	defer img.Close()

	_, err := Preprocess(img, DefaultParams())
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPreprocessGrayscaleOutputShape(t *testing.T) {
	img := gocv.NewMatWithSize(32, 48, gocv.MatTypeCV8UC3)
	defer img.Close()

	res, err := Preprocess(img, DefaultParams())
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	defer res.Close()

	if res.Gray.Channels() != 1 {
		t.Errorf("gray channels = %d, want 1", res.Gray.Channels())
	}
	if res.Gray.Rows() != 32 || res.Gray.Cols() != 48 {
		t.Errorf("gray size = %dx%d, want 32x48", res.Gray.Rows(), res.Gray.Cols())
	}
	if res.Edges.Rows() != 32 || res.Edges.Cols() != 48 {
		t.Errorf("edge map size = %dx%d, want 32x48", res.Edges.Rows(), res.Edges.Cols())
	}
}

func TestPreprocessDeterministic(t *testing.T) {
	img := gocv.NewMatWithSize(40, 40, gocv.MatTypeCV8UC3)
	defer img.Close()

	// Draw a shape so the edge map is non-trivial.
	gocv.Rectangle(&img, image.Rect(8, 8, 24, 24), color.RGBA{255, 255, 255, 255}, -1)

	first, err := Preprocess(img, DefaultParams())
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	defer first.Close()

	second, err := Preprocess(img, DefaultParams())
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	defer second.Close()

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(first.Edges, second.Edges, &diff)
	if gocv.CountNonZero(diff) != 0 {
		t.Error("repeated preprocessing of identical input produced different edge maps")
	}
}

func TestPreprocessAcceptsSingleChannel(t *testing.T) {
	img := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8U)
	defer img.Close()

	res, err := Preprocess(img, DefaultParams())
	if err != nil {
		t.Fatalf("Preprocess on grayscale input: %v", err)
	}
	res.Close()
}
