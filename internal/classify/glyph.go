package classify

import (
	"fmt"
	"image"

	"charscan/pkg/geometry"

	"gocv.io/x/gocv"
)

// Glyph is a single cropped, normalized character image ready for
// classification: fixed-size, ink-white on black, intensities in [0,1].
type Glyph struct {
	H, W   int
	Pixels []float64 // row-major
}

// PrepareGlyph crops a region from the grayscale source, binarizes it,
// resizes it to the given resolution, and normalizes intensities to
// [0,1] with ink as the bright minority. The transformation mirrors
// what the trainer does to its dataset images.
func PrepareGlyph(gray gocv.Mat, region geometry.RectInt, h, w int) (Glyph, error) {
	if gray.Empty() {
		return Glyph{}, fmt.Errorf("empty source image")
	}
	bounds := geometry.RectInt{Width: gray.Cols(), Height: gray.Rows()}
	r := region.Clamp(bounds)
	if r.Empty() {
		return Glyph{}, fmt.Errorf("region %+v outside image %dx%d", region, gray.Cols(), gray.Rows())
	}

	crop := gray.Region(image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height))
	defer crop.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(crop, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	// The network expects ink to be the bright minority. Dark text on a
	// light background comes out majority-white after Otsu, so flip it.
	whiteCount := gocv.CountNonZero(binary)
	if float64(whiteCount) > 0.5*float64(binary.Rows()*binary.Cols()) {
		gocv.BitwiseNot(binary, &binary)
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(binary, &resized, image.Pt(w, h), 0, 0, gocv.InterpolationArea)

	pixels := make([]float64, h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pixels[y*w+x] = float64(resized.GetUCharAt(y, x)) / 255.0
		}
	}
	return Glyph{H: h, W: w, Pixels: pixels}, nil
}
