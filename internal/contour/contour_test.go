package contour

import (
	"image"
	"image/color"
	"testing"

	"charscan/pkg/geometry"

	"gocv.io/x/gocv"
)

var white = color.RGBA{255, 255, 255, 255}

func TestExtractRegionsEmptyEdgeMap(t *testing.T) {
	edges := gocv.NewMatWithSize(64, 64, gocv.MatTypeCV8U)
	defer edges.Close()

	regions := ExtractRegions(edges, DefaultOptions())
	if len(regions) != 0 {
		t.Fatalf("blank edge map produced %d regions, want 0", len(regions))
	}
}

func TestExtractRegionsUninitializedMat(t *testing.T) {
	edges := gocv.NewMat()
	defer edges.Close()

	if regions := ExtractRegions(edges, DefaultOptions()); regions != nil {
		t.Fatalf("empty Mat produced %v, want nil", regions)
	}
}

func TestExtractRegionsFiltersSmallBoxes(t *testing.T) {
	edges := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8U)
	defer edges.Close()

	// One real box and one speck.
	gocv.Rectangle(&edges, image.Rect(10, 10, 40, 50), white, 1)
	gocv.Rectangle(&edges, image.Rect(70, 70, 73, 73), white, 1)

	opts := DefaultOptions()
	opts.MinArea = 100
	opts.Padding = 0

	regions := ExtractRegions(edges, opts)
	if len(regions) != 1 {
		t.Fatalf("got %d regions, want 1 (speck should be filtered)", len(regions))
	}
	r := regions[0]
	if r.X != 10 || r.Y != 10 {
		t.Errorf("region origin = (%d,%d), want (10,10)", r.X, r.Y)
	}
}

func TestExtractRegionsReadingOrder(t *testing.T) {
	edges := gocv.NewMatWithSize(80, 240, gocv.MatTypeCV8U)
	defer edges.Close()

	// Three well-separated outlines, drawn right to left.
	gocv.Rectangle(&edges, image.Rect(170, 20, 210, 60), white, 1)
	gocv.Rectangle(&edges, image.Rect(90, 20, 130, 60), white, 1)
	gocv.Rectangle(&edges, image.Rect(10, 20, 50, 60), white, 1)

	opts := DefaultOptions()
	opts.Padding = 0

	regions := ExtractRegions(edges, opts)
	if len(regions) != 3 {
		t.Fatalf("got %d regions, want 3", len(regions))
	}
	for i := 1; i < len(regions); i++ {
		if regions[i].X <= regions[i-1].X {
			t.Errorf("regions not in ascending x order: %+v", regions)
		}
	}
}

func TestSortReadingOrderColumnTies(t *testing.T) {
	regions := []geometry.RectInt{
		{X: 52, Y: 90, Width: 20, Height: 20},
		{X: 50, Y: 10, Width: 20, Height: 20},
		{X: 10, Y: 40, Width: 20, Height: 20},
	}
	SortReadingOrder(regions, 4)

	if regions[0].X != 10 {
		t.Fatalf("leftmost region not first: %+v", regions)
	}
	if regions[1].Y != 10 || regions[2].Y != 90 {
		t.Errorf("column tie not broken by ascending y: %+v", regions)
	}
}

func TestMergeOverlapping(t *testing.T) {
	regions := []geometry.RectInt{
		{X: 10, Y: 10, Width: 30, Height: 30},
		{X: 12, Y: 12, Width: 26, Height: 26}, // inner contour of the same stroke
		{X: 100, Y: 10, Width: 20, Height: 20},
	}
	merged := mergeOverlapping(regions)
	if len(merged) != 2 {
		t.Fatalf("got %d regions after merge, want 2", len(merged))
	}
	if merged[0] != (geometry.RectInt{X: 10, Y: 10, Width: 30, Height: 30}) {
		t.Errorf("merged box = %+v", merged[0])
	}
}
