package app

import (
	"image"
	"image/color"
	"sync"
	"testing"

	"charscan/internal/classify"
	"charscan/internal/nn"

	"gocv.io/x/gocv"

	"gonum.org/v1/gonum/mat"
)

// tinyModel builds an 8x8-input model small enough to run hundreds of
// times in a test.
func tinyModel(t *testing.T) *classify.Model {
	t.Helper()
	dense := &nn.Dense{
		In: 64, Out: 2,
		W: mat.NewDense(2, 64, make([]float64, 128)),
		B: mat.NewVecDense(2, []float64{0, 0}),
	}
	net := &nn.Network{
		InputH: 8,
		InputW: 8,
		Layers: []nn.Layer{nn.NewFlatten(), dense},
	}
	m, err := classify.NewModel([]string{"A", "B"}, net)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

// testFrame draws a frame with one bright shape so the pipeline has a
// region to work on.
func testFrame() gocv.Mat {
	frame := gocv.NewMatWithSize(60, 80, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&frame, image.Rect(20, 15, 50, 45),
		color.RGBA{255, 255, 255, 255}, 2)
	return frame
}

func TestRecognizeSurvivesFrameReplacement(t *testing.T) {
	s := NewState()
	defer s.Close()
	s.Model = tinyModel(t)

	first := testFrame()
	s.SetFrame(first)
	first.Close()

	// Replace the current image continuously while recognition runs.
	// Recognize must never read a Mat that SetFrame has closed.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			frame := testFrame()
			s.SetFrame(frame)
			frame.Close()
		}
	}()

	for i := 0; i < 50; i++ {
		if _, err := s.Recognize(); err != nil {
			t.Fatalf("Recognize during frame replacement: %v", err)
		}
	}
	wg.Wait()
}

func TestRecognizeWithoutModel(t *testing.T) {
	s := NewState()
	defer s.Close()

	frame := testFrame()
	s.SetFrame(frame)
	frame.Close()

	if _, err := s.Recognize(); err == nil {
		t.Error("expected error with no model loaded")
	}
}

func TestRecognizeWithoutImage(t *testing.T) {
	s := NewState()
	defer s.Close()
	s.Model = tinyModel(t)

	if _, err := s.Recognize(); err == nil {
		t.Error("expected error with no image loaded")
	}
}

func TestSetFrameReplacesImage(t *testing.T) {
	s := NewState()
	defer s.Close()

	frame := testFrame()
	s.SetFrame(frame)
	frame.Close()

	s.WithImage(func(img gocv.Mat) {
		if img.Empty() {
			t.Error("image empty after SetFrame")
		}
		if img.Rows() != 60 || img.Cols() != 80 {
			t.Errorf("image %dx%d, want 60x80", img.Rows(), img.Cols())
		}
	})
	if s.ImagePath != "" {
		t.Errorf("ImagePath = %q, want empty after SetFrame", s.ImagePath)
	}
}
