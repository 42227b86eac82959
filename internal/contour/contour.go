// Package contour finds candidate character regions in an edge map.
package contour

import (
	"sort"

	"charscan/pkg/geometry"

	"gocv.io/x/gocv"
)

// Options configures region extraction.
type Options struct {
	// MinArea discards bounding boxes below this pixel area. Filters
	// speckle and edge noise.
	MinArea int `json:"min_area,omitempty"`

	// XTolerance is the horizontal distance (pixels) within which two
	// boxes are considered the same column for reading-order sorting.
	XTolerance int `json:"x_tolerance,omitempty"`

	// Padding grows each surviving box by this many pixels on every
	// side, clamped to the image extent. Characters render better with
	// a little margin around the stroke.
	Padding int `json:"padding,omitempty"`
}

// DefaultOptions returns extraction options suited to roughly
// 20-100 px tall characters.
func DefaultOptions() Options {
	return Options{
		MinArea:    80,
		XTolerance: 4,
		Padding:    2,
	}
}

// ExtractRegions finds connected boundary curves in a binary edge map
// and returns their bounding boxes in reading order: left to right,
// boxes in the same column top to bottom. An image with no surviving
// regions yields an empty slice, never an error.
func ExtractRegions(edges gocv.Mat, opts Options) []geometry.RectInt {
	if edges.Empty() {
		return nil
	}

	imgBounds := geometry.RectInt{Width: edges.Cols(), Height: edges.Rows()}

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	regions := make([]geometry.RectInt, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		pts := contours.At(i)
		box := gocv.BoundingRect(pts)

		r := geometry.RectInt{
			X:      box.Min.X,
			Y:      box.Min.Y,
			Width:  box.Dx(),
			Height: box.Dy(),
		}
		if r.Area() < opts.MinArea {
			continue
		}
		if opts.Padding > 0 {
			r = r.Inset(-opts.Padding).Clamp(imgBounds)
		}
		regions = append(regions, r)
	}

	regions = mergeOverlapping(regions)
	SortReadingOrder(regions, opts.XTolerance)
	return regions
}

// SortReadingOrder sorts regions in place into reading order.
func SortReadingOrder(regions []geometry.RectInt, xTolerance int) {
	sort.SliceStable(regions, func(i, j int) bool {
		return geometry.ReadingOrderLess(regions[i], regions[j], xTolerance)
	})
}

// mergeOverlapping collapses boxes that intersect into their union.
// Canny produces two contours per stroke (inner and outer boundary);
// without merging every character would be reported twice.
func mergeOverlapping(regions []geometry.RectInt) []geometry.RectInt {
	merged := make([]geometry.RectInt, 0, len(regions))
	for _, r := range regions {
		absorbed := false
		for i := range merged {
			if merged[i].Intersects(r) {
				merged[i] = merged[i].Union(r)
				absorbed = true
				break
			}
		}
		if !absorbed {
			merged = append(merged, r)
		}
	}

	// A union can newly overlap an earlier box; one extra pass settles
	// the small region counts seen in practice.
	for {
		before := len(merged)
		again := make([]geometry.RectInt, 0, len(merged))
		for _, r := range merged {
			absorbed := false
			for i := range again {
				if again[i].Intersects(r) {
					again[i] = again[i].Union(r)
					absorbed = true
					break
				}
			}
			if !absorbed {
				again = append(again, r)
			}
		}
		merged = again
		if len(merged) == before {
			return merged
		}
	}
}
