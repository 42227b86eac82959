// Package nn implements a small convolutional network for glyph
// classification: inference, JSON model persistence, and the SGD
// training used by the offline trainer.
package nn

import "fmt"

// Volume is a 3D block of activations: C feature maps of H rows by W
// columns, stored row-major per channel.
type Volume struct {
	C, H, W int
	Data    []float64
}

// NewVolume allocates a zeroed volume.
func NewVolume(c, h, w int) *Volume {
	return &Volume{C: c, H: h, W: w, Data: make([]float64, c*h*w)}
}

// NewVolumeFrom wraps existing data. The slice length must match c*h*w.
func NewVolumeFrom(c, h, w int, data []float64) *Volume {
	if len(data) != c*h*w {
		panic(fmt.Sprintf("nn: volume data length %d does not match %dx%dx%d", len(data), c, h, w))
	}
	return &Volume{C: c, H: h, W: w, Data: data}
}

// At returns the activation at channel c, row y, column x.
func (v *Volume) At(c, y, x int) float64 {
	return v.Data[(c*v.H+y)*v.W+x]
}

// Set stores an activation at channel c, row y, column x.
func (v *Volume) Set(c, y, x int, val float64) {
	v.Data[(c*v.H+y)*v.W+x] = val
}

// Len returns the total number of activations.
func (v *Volume) Len() int {
	return v.C * v.H * v.W
}

// Clone returns a deep copy.
func (v *Volume) Clone() *Volume {
	out := NewVolume(v.C, v.H, v.W)
	copy(out.Data, v.Data)
	return out
}
