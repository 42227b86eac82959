// Overlay types and drawing for the image canvas.
package canvas

import (
	"fmt"
	"image"
	"image/color"

	"charscan/internal/pipeline"
)

// Overlay holds labeled boxes to draw over the image.
type Overlay struct {
	Boxes []Box
	Color color.RGBA
}

// Box is one labeled rectangle in image coordinates.
type Box struct {
	X, Y, Width, Height int
	Label               string
}

// FromResults builds an overlay from pipeline output.
func FromResults(results []pipeline.Result) *Overlay {
	ov := &Overlay{Color: color.RGBA{0, 220, 0, 255}}
	for _, r := range results {
		ov.Boxes = append(ov.Boxes, Box{
			X:      r.Region.X,
			Y:      r.Region.Y,
			Width:  r.Region.Width,
			Height: r.Region.Height,
			Label:  fmt.Sprintf("%s %.0f%%", r.Pred.Label, r.Pred.Confidence*100),
		})
	}
	return ov
}

// draw renders the overlay at the given zoom onto the output image.
func (ov *Overlay) draw(output *image.RGBA, zoom float64) {
	for _, box := range ov.Boxes {
		x1 := int(float64(box.X) * zoom)
		y1 := int(float64(box.Y) * zoom)
		x2 := int(float64(box.X+box.Width) * zoom)
		y2 := int(float64(box.Y+box.Height) * zoom)

		drawRectOutline(output, x1, y1, x2, y2, ov.Color)

		if box.Label != "" {
			scale := int(zoom + 0.5)
			if scale < 1 {
				scale = 1
			}
			if scale > 3 {
				scale = 3
			}
			labelY := y1 - 7*scale
			if labelY < 0 {
				labelY = y2 + 2*scale
			}
			drawLabel(output, box.Label, x1, labelY, ov.Color, scale)
		}
	}
}

// drawRectOutline draws a 1px rectangle outline, clipped to the image.
func drawRectOutline(img *image.RGBA, x1, y1, x2, y2 int, col color.RGBA) {
	bounds := img.Bounds()
	for x := x1; x <= x2; x++ {
		setClipped(img, bounds, x, y1, col)
		setClipped(img, bounds, x, y2, col)
	}
	for y := y1; y <= y2; y++ {
		setClipped(img, bounds, x1, y, col)
		setClipped(img, bounds, x2, y, col)
	}
}

func setClipped(img *image.RGBA, bounds image.Rectangle, x, y int, col color.RGBA) {
	if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
		img.SetRGBA(x, y, col)
	}
}

// digitPatterns contains 3x5 pixel patterns for digits 0-9.
var digitPatterns = [10][5]uint8{
	{0b111, 0b101, 0b101, 0b101, 0b111}, // 0
	{0b010, 0b110, 0b010, 0b010, 0b111}, // 1
	{0b111, 0b001, 0b111, 0b100, 0b111}, // 2
	{0b111, 0b001, 0b111, 0b001, 0b111}, // 3
	{0b101, 0b101, 0b111, 0b001, 0b001}, // 4
	{0b111, 0b100, 0b111, 0b001, 0b111}, // 5
	{0b111, 0b100, 0b111, 0b101, 0b111}, // 6
	{0b111, 0b001, 0b001, 0b001, 0b001}, // 7
	{0b111, 0b101, 0b111, 0b101, 0b111}, // 8
	{0b111, 0b101, 0b111, 0b001, 0b111}, // 9
}

// letterPatterns contains 3x5 pixel patterns for letters and symbols
// used in overlay labels.
var letterPatterns = map[rune][5]uint8{
	'A': {0b010, 0b101, 0b111, 0b101, 0b101},
	'B': {0b110, 0b101, 0b110, 0b101, 0b110},
	'C': {0b011, 0b100, 0b100, 0b100, 0b011},
	'D': {0b110, 0b101, 0b101, 0b101, 0b110},
	'E': {0b111, 0b100, 0b110, 0b100, 0b111},
	'F': {0b111, 0b100, 0b110, 0b100, 0b100},
	'G': {0b011, 0b100, 0b101, 0b101, 0b011},
	'H': {0b101, 0b101, 0b111, 0b101, 0b101},
	'I': {0b111, 0b010, 0b010, 0b010, 0b111},
	'J': {0b001, 0b001, 0b001, 0b101, 0b010},
	'K': {0b101, 0b101, 0b110, 0b101, 0b101},
	'L': {0b100, 0b100, 0b100, 0b100, 0b111},
	'M': {0b101, 0b111, 0b101, 0b101, 0b101},
	'N': {0b101, 0b111, 0b111, 0b101, 0b101},
	'O': {0b010, 0b101, 0b101, 0b101, 0b010},
	'P': {0b110, 0b101, 0b110, 0b100, 0b100},
	'Q': {0b010, 0b101, 0b101, 0b111, 0b011},
	'R': {0b110, 0b101, 0b110, 0b101, 0b101},
	'S': {0b011, 0b100, 0b010, 0b001, 0b110},
	'T': {0b111, 0b010, 0b010, 0b010, 0b010},
	'U': {0b101, 0b101, 0b101, 0b101, 0b111},
	'V': {0b101, 0b101, 0b101, 0b101, 0b010},
	'W': {0b101, 0b101, 0b101, 0b111, 0b101},
	'X': {0b101, 0b101, 0b010, 0b101, 0b101},
	'Y': {0b101, 0b101, 0b010, 0b010, 0b010},
	'Z': {0b111, 0b001, 0b010, 0b100, 0b111},
	'%': {0b101, 0b001, 0b010, 0b100, 0b101},
	'?': {0b111, 0b001, 0b011, 0b000, 0b010},
	' ': {0b000, 0b000, 0b000, 0b000, 0b000},
}

func charPattern(ch rune) [5]uint8 {
	if ch >= '0' && ch <= '9' {
		return digitPatterns[ch-'0']
	}
	if ch >= 'a' && ch <= 'z' {
		ch = ch - 'a' + 'A'
	}
	if pattern, ok := letterPatterns[ch]; ok {
		return pattern
	}
	return [5]uint8{}
}

// drawLabel renders text with the built-in 3x5 bitmap font at the given
// scale.
func drawLabel(img *image.RGBA, text string, x, y int, col color.RGBA, scale int) {
	bounds := img.Bounds()
	cx := x
	for _, ch := range text {
		pattern := charPattern(ch)
		for row := 0; row < 5; row++ {
			for bit := 0; bit < 3; bit++ {
				if pattern[row]&(1<<(2-bit)) == 0 {
					continue
				}
				for dy := 0; dy < scale; dy++ {
					for dx := 0; dx < scale; dx++ {
						setClipped(img, bounds, cx+bit*scale+dx, y+row*scale+dy, col)
					}
				}
			}
		}
		cx += 4 * scale
	}
}
