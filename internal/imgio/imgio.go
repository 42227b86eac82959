// Package imgio handles image file I/O and conversions between gocv
// Mats and Go images.
package imgio

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"charscan/internal/pipeline"

	"gocv.io/x/gocv"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Load reads an image file into a BGR Mat. Formats OpenCV cannot read
// directly (notably some TIFF variants) fall back to Go's decoders.
func Load(path string) (gocv.Mat, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if !mat.Empty() {
		return mat, nil
	}
	mat.Close()

	file, err := os.Open(path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img)
}

// FromImage converts a Go image to a BGR Mat.
func FromImage(img image.Image) (gocv.Mat, error) {
	rgba, ok := img.(*image.RGBA)
	if !ok {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				rgba.Set(x-b.Min.X, y-b.Min.Y, img.At(x, y))
			}
		}
	}
	mat, err := gocv.ImageToMatRGBA(rgba)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(mat, &bgr, gocv.ColorRGBAToBGR)
	return bgr, nil
}

// ToImage converts a BGR Mat to a Go image for display.
func ToImage(mat gocv.Mat) (image.Image, error) {
	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(mat, &rgba, gocv.ColorBGRToRGBA)
	img, err := rgba.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert mat: %w", err)
	}
	return img, nil
}

var (
	boxColor   = color.RGBA{0, 220, 0, 255}
	labelColor = color.RGBA{0, 140, 255, 255}
)

// Annotate draws recognition results onto a copy of the source image:
// a box per region with the predicted label above it.
func Annotate(img gocv.Mat, results []pipeline.Result) gocv.Mat {
	out := img.Clone()
	for _, r := range results {
		rect := image.Rect(r.Region.X, r.Region.Y,
			r.Region.X+r.Region.Width, r.Region.Y+r.Region.Height)
		gocv.Rectangle(&out, rect, boxColor, 2)

		labelY := r.Region.Y - 6
		if labelY < 12 {
			labelY = r.Region.Y + r.Region.Height + 16
		}
		text := fmt.Sprintf("%s %.2f", r.Pred.Label, r.Pred.Confidence)
		gocv.PutText(&out, text, image.Pt(r.Region.X, labelY),
			gocv.FontHersheySimplex, 0.6, labelColor, 2)
	}
	return out
}

// Save writes a Mat to disk; the format follows the file extension.
func Save(path string, img gocv.Mat) error {
	if ok := gocv.IMWrite(path, img); !ok {
		return fmt.Errorf("failed to write image to %s", path)
	}
	return nil
}
