// Package pipeline composes preprocessing, contour extraction, and
// per-region classification into the single recognize entry point.
package pipeline

import (
	"fmt"
	"log"

	"charscan/internal/classify"
	"charscan/internal/contour"
	"charscan/internal/preprocess"
	"charscan/pkg/geometry"

	"gocv.io/x/gocv"
)

// GlyphClassifier is the slice of classify.Model the pipeline needs.
type GlyphClassifier interface {
	InputSize() (h, w int)
	Classify(classify.Glyph) (classify.Prediction, error)
}

// Fallback is a secondary recognizer consulted for regions the primary
// classifier is not confident about, e.g. a Tesseract engine.
type Fallback interface {
	RecognizeRegion(gray gocv.Mat, region geometry.RectInt) (string, error)
}

// Result pairs one region with its prediction.
type Result struct {
	Region geometry.RectInt    `json:"region"`
	Pred   classify.Prediction `json:"prediction"`
}

// Options configures a recognize call. The zero value of MinConfidence
// keeps every prediction; raising it enables the caller's rejection
// policy, with Fallback (when set) consulted before a region is dropped.
type Options struct {
	Preprocess    preprocess.Params
	Contour       contour.Options
	MinConfidence float64
	Fallback      Fallback
}

// DefaultOptions returns options for typical printed text.
func DefaultOptions() Options {
	return Options{
		Preprocess: preprocess.DefaultParams(),
		Contour:    contour.DefaultOptions(),
	}
}

// Recognize runs the full pipeline over one raw image and returns
// region/prediction pairs in reading order. Preprocessing failure aborts
// the call; a failure on an individual region drops that region only.
// The call is synchronous and the model is only read, so sequential
// calls may share one model.
func Recognize(img gocv.Mat, model GlyphClassifier, opts Options) ([]Result, error) {
	pre, err := preprocess.Preprocess(img, opts.Preprocess)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}
	defer pre.Close()

	regions := contour.ExtractRegions(pre.Edges, opts.Contour)
	if len(regions) == 0 {
		return []Result{}, nil
	}

	h, w := model.InputSize()
	results := make([]Result, 0, len(regions))
	for _, region := range regions {
		glyph, err := classify.PrepareGlyph(pre.Gray, region, h, w)
		if err != nil {
			log.Printf("recognize: dropping region %+v: %v", region, err)
			continue
		}

		pred, err := model.Classify(glyph)
		if err != nil {
			log.Printf("recognize: dropping region %+v: %v", region, err)
			continue
		}

		if pred.Confidence < opts.MinConfidence {
			if opts.Fallback == nil {
				continue
			}
			text, err := opts.Fallback.RecognizeRegion(pre.Gray, region)
			if err != nil || text == "" {
				log.Printf("recognize: dropping low-confidence region %+v (%.2f)", region, pred.Confidence)
				continue
			}
			pred.Label = text
		}

		results = append(results, Result{Region: region, Pred: pred})
	}
	return results, nil
}

// Text concatenates result labels in order, a convenience for callers
// that only want the recognized string.
func Text(results []Result) string {
	s := ""
	for _, r := range results {
		s += r.Pred.Label
	}
	return s
}
