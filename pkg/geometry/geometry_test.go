package geometry

import (
	"sort"
	"testing"
)

func TestRectIntArea(t *testing.T) {
	tests := []struct {
		name string
		rect RectInt
		want int
	}{
		{"simple", RectInt{X: 0, Y: 0, Width: 4, Height: 5}, 20},
		{"offset origin", RectInt{X: 10, Y: 20, Width: 3, Height: 3}, 9},
		{"zero width", RectInt{Width: 0, Height: 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rect.Area(); got != tt.want {
				t.Errorf("Area() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRectIntEmpty(t *testing.T) {
	if (RectInt{Width: 5, Height: 5}).Empty() {
		t.Error("5x5 rect reported empty")
	}
	if !(RectInt{Width: 0, Height: 5}).Empty() {
		t.Error("zero-width rect not reported empty")
	}
	if !(RectInt{Width: 5, Height: -1}).Empty() {
		t.Error("negative-height rect not reported empty")
	}
}

func TestRectIntClamp(t *testing.T) {
	bounds := RectInt{X: 0, Y: 0, Width: 100, Height: 100}

	tests := []struct {
		name string
		rect RectInt
		want RectInt
	}{
		{"inside", RectInt{X: 10, Y: 10, Width: 20, Height: 20}, RectInt{X: 10, Y: 10, Width: 20, Height: 20}},
		{"overflow right", RectInt{X: 90, Y: 0, Width: 20, Height: 10}, RectInt{X: 90, Y: 0, Width: 10, Height: 10}},
		{"negative origin", RectInt{X: -5, Y: -5, Width: 10, Height: 10}, RectInt{X: 0, Y: 0, Width: 5, Height: 5}},
		{"fully outside", RectInt{X: 200, Y: 200, Width: 10, Height: 10}, RectInt{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rect.Clamp(bounds); got != tt.want {
				t.Errorf("Clamp() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadingOrderLess(t *testing.T) {
	a := RectInt{X: 10, Y: 50, Width: 20, Height: 30}
	b := RectInt{X: 60, Y: 10, Width: 20, Height: 30}
	if !ReadingOrderLess(a, b, 5) {
		t.Error("left box should come before right box regardless of y")
	}
	if ReadingOrderLess(b, a, 5) {
		t.Error("right box should not come before left box")
	}

	// Same column within tolerance: top-to-bottom.
	c := RectInt{X: 12, Y: 5, Width: 20, Height: 30}
	if !ReadingOrderLess(c, a, 5) {
		t.Error("upper box should come first when x within tolerance")
	}
}

func TestReadingOrderSortStability(t *testing.T) {
	boxes := []RectInt{
		{X: 300, Y: 10, Width: 20, Height: 30},
		{X: 12, Y: 80, Width: 20, Height: 30},
		{X: 150, Y: 40, Width: 20, Height: 30},
		{X: 10, Y: 10, Width: 20, Height: 30},
	}
	sort.Slice(boxes, func(i, j int) bool {
		return ReadingOrderLess(boxes[i], boxes[j], 4)
	})

	wantX := []int{10, 12, 150, 300}
	for i, b := range boxes {
		if b.X != wantX[i] {
			t.Fatalf("position %d: got x=%d, want %d", i, b.X, wantX[i])
		}
	}
	// The two x≈10 boxes must be ordered by y.
	if boxes[0].Y > boxes[1].Y {
		t.Error("boxes in the same column not ordered top-to-bottom")
	}
}

func TestRectIntUnion(t *testing.T) {
	a := RectInt{X: 0, Y: 0, Width: 10, Height: 10}
	b := RectInt{X: 20, Y: 5, Width: 10, Height: 10}
	got := a.Union(b)
	want := RectInt{X: 0, Y: 0, Width: 30, Height: 15}
	if got != want {
		t.Errorf("Union() = %+v, want %+v", got, want)
	}

	if got := (RectInt{}).Union(b); got != b {
		t.Errorf("Union with empty = %+v, want %+v", got, b)
	}
}
