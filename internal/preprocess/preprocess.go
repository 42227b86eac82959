// Package preprocess normalizes raw input images for contour analysis.
package preprocess

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrInvalidInput is returned for images the pipeline cannot work with:
// zero area or an unsupported channel layout.
var ErrInvalidInput = errors.New("invalid input image")

// Params holds tunable preprocessing parameters.
type Params struct {
	// Gaussian blur kernel size (odd). Suppresses sensor noise before
	// edge detection.
	BlurKernel int `json:"blur_kernel,omitempty"`

	// Canny hysteresis thresholds. Gradients above High are strong
	// edges; gradients between Low and High survive only when connected
	// to a strong edge.
	CannyLow  float32 `json:"canny_low,omitempty"`
	CannyHigh float32 `json:"canny_high,omitempty"`
}

// DefaultParams returns parameters that work well for printed and
// handwritten characters on a plain background.
func DefaultParams() Params {
	return Params{
		BlurKernel: 5,
		CannyLow:   50,
		CannyHigh:  150,
	}
}

// Result holds the preprocessed forms of a raw image. The caller owns
// both Mats and must Close them.
type Result struct {
	// Gray is the single-channel luminance image, same extent as the input.
	Gray gocv.Mat

	// Edges is the binary Canny edge map derived from Gray.
	Edges gocv.Mat
}

// Close releases both Mats.
func (r *Result) Close() {
	r.Gray.Close()
	r.Edges.Close()
}

// Preprocess converts a raw image to grayscale, smooths it, and produces
// a binary edge map. The transformation is deterministic: identical
// input always yields identical output.
func Preprocess(img gocv.Mat, params Params) (Result, error) {
	if img.Empty() || img.Rows() == 0 || img.Cols() == 0 {
		return Result{}, fmt.Errorf("%w: zero area", ErrInvalidInput)
	}

	gray := gocv.NewMat()
	switch img.Channels() {
	case 1:
		img.CopyTo(&gray)
	case 3:
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(img, &gray, gocv.ColorBGRAToGray)
	default:
		gray.Close()
		return Result{}, fmt.Errorf("%w: unsupported channel count %d", ErrInvalidInput, img.Channels())
	}

	k := params.BlurKernel
	if k < 3 {
		k = 3
	}
	if k%2 == 0 {
		k++
	}

	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	gocv.Canny(blurred, &edges, params.CannyLow, params.CannyHigh)
	blurred.Close()

	return Result{Gray: gray, Edges: edges}, nil
}
