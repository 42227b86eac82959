// Package ocr provides a Tesseract-backed fallback recognizer for
// regions the network classifier is unsure about.
package ocr

import (
	"fmt"
	"image"
	"strings"

	"charscan/pkg/geometry"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// Engine wraps a gosseract client configured for single-character
// recognition over a restricted alphabet.
type Engine struct {
	client    *gosseract.Client
	whitelist string
}

// NewEngine creates an engine restricted to the given character set.
// An empty whitelist leaves Tesseract's full alphabet enabled.
func NewEngine(whitelist string) (*Engine, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Single characters are not dictionary words; keep Tesseract from
	// "correcting" them.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &Engine{client: client, whitelist: whitelist}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// RecognizeRegion performs OCR on one region of a grayscale image and
// returns the recognized character, or "" when Tesseract finds nothing.
// Implements the pipeline's Fallback interface.
func (e *Engine) RecognizeRegion(gray gocv.Mat, region geometry.RectInt) (string, error) {
	if gray.Empty() {
		return "", fmt.Errorf("empty image")
	}

	bounds := geometry.RectInt{Width: gray.Cols(), Height: gray.Rows()}
	r := region.Clamp(bounds)
	if r.Empty() {
		return "", fmt.Errorf("region %+v outside image", region)
	}

	crop := gray.Region(image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height))
	defer crop.Close()

	processed := prepareRegion(crop)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return "", fmt.Errorf("failed to encode region: %w", err)
	}
	defer buf.Close()

	if err := e.client.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		return "", fmt.Errorf("failed to set PSM: %w", err)
	}
	if e.whitelist != "" {
		if err := e.client.SetWhitelist(e.whitelist); err != nil {
			return "", fmt.Errorf("failed to set whitelist: %w", err)
		}
	}
	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	text = strings.ToUpper(strings.TrimSpace(text))
	if text == "" {
		return "", nil
	}
	// PSM_SINGLE_CHAR can still emit trailing noise; keep one rune.
	return string([]rune(text)[0]), nil
}

// prepareRegion upscales small crops and binarizes for Tesseract, which
// expects dark text on a light background.
func prepareRegion(crop gocv.Mat) gocv.Mat {
	h, w := crop.Rows(), crop.Cols()

	var scaled gocv.Mat
	if minDim := min(h, w); minDim < 50 {
		scale := 50.0 / float64(minDim)
		scaled = gocv.NewMat()
		gocv.Resize(crop, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		scaled = crop.Clone()
	}

	binary := gocv.NewMat()
	gocv.Threshold(scaled, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	scaled.Close()

	whiteCount := gocv.CountNonZero(binary)
	if float64(whiteCount) < 0.5*float64(binary.Rows()*binary.Cols()) {
		// Light text on dark background; Tesseract wants the opposite.
		gocv.BitwiseNot(binary, &binary)
	}

	return binary
}
