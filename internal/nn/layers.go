package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Layer is one stage of the network. Forward caches whatever Backward
// needs, so a layer instance must not be used from more than one
// goroutine at a time.
type Layer interface {
	// Forward computes the layer output for the given input.
	Forward(in *Volume) *Volume

	// Backward consumes the gradient of the loss with respect to the
	// layer output, accumulates parameter gradients, and returns the
	// gradient with respect to the layer input.
	Backward(grad *Volume) *Volume

	// Update applies accumulated parameter gradients scaled by step
	// and resets them. Layers without parameters do nothing.
	Update(step float64)
}

// Conv2D is a stride-1 valid convolution: each of Out filters slides a
// Kernel x Kernel window over all In input channels.
type Conv2D struct {
	In, Out, Kernel int

	// Weights is indexed [out][in][ky][kx], flattened.
	Weights []float64
	Bias    []float64

	lastIn *Volume
	dW     []float64
	dB     []float64
}

// NewConv2D creates a convolution layer with He-initialized weights.
func NewConv2D(in, out, kernel int, rng *rand.Rand) *Conv2D {
	n := out * in * kernel * kernel
	w := make([]float64, n)
	scale := math.Sqrt(2.0 / float64(in*kernel*kernel))
	for i := range w {
		w[i] = rng.NormFloat64() * scale
	}
	return &Conv2D{
		In:      in,
		Out:     out,
		Kernel:  kernel,
		Weights: w,
		Bias:    make([]float64, out),
		dW:      make([]float64, n),
		dB:      make([]float64, out),
	}
}

func (l *Conv2D) weightAt(o, i, ky, kx int) int {
	return ((o*l.In+i)*l.Kernel+ky)*l.Kernel + kx
}

// Forward computes the convolution.
func (l *Conv2D) Forward(in *Volume) *Volume {
	l.lastIn = in
	outH := in.H - l.Kernel + 1
	outW := in.W - l.Kernel + 1
	out := NewVolume(l.Out, outH, outW)

	for o := 0; o < l.Out; o++ {
		for y := 0; y < outH; y++ {
			for x := 0; x < outW; x++ {
				sum := l.Bias[o]
				for i := 0; i < l.In; i++ {
					for ky := 0; ky < l.Kernel; ky++ {
						for kx := 0; kx < l.Kernel; kx++ {
							sum += l.Weights[l.weightAt(o, i, ky, kx)] * in.At(i, y+ky, x+kx)
						}
					}
				}
				out.Set(o, y, x, sum)
			}
		}
	}
	return out
}

// Backward accumulates filter gradients and returns the input gradient.
func (l *Conv2D) Backward(grad *Volume) *Volume {
	in := l.lastIn
	dIn := NewVolume(in.C, in.H, in.W)

	for o := 0; o < l.Out; o++ {
		for y := 0; y < grad.H; y++ {
			for x := 0; x < grad.W; x++ {
				g := grad.At(o, y, x)
				l.dB[o] += g
				for i := 0; i < l.In; i++ {
					for ky := 0; ky < l.Kernel; ky++ {
						for kx := 0; kx < l.Kernel; kx++ {
							idx := l.weightAt(o, i, ky, kx)
							l.dW[idx] += g * in.At(i, y+ky, x+kx)
							dIn.Set(i, y+ky, x+kx, dIn.At(i, y+ky, x+kx)+g*l.Weights[idx])
						}
					}
				}
			}
		}
	}
	return dIn
}

// Update applies and clears accumulated gradients.
func (l *Conv2D) Update(step float64) {
	for i := range l.Weights {
		l.Weights[i] -= step * l.dW[i]
		l.dW[i] = 0
	}
	for i := range l.Bias {
		l.Bias[i] -= step * l.dB[i]
		l.dB[i] = 0
	}
}

// MaxPool2D downsamples each channel by taking the maximum over
// non-overlapping Size x Size windows. Trailing rows/columns that do
// not fill a window are dropped.
type MaxPool2D struct {
	Size int

	lastIn *Volume
	argmax []int
}

// NewMaxPool2D creates a pooling layer.
func NewMaxPool2D(size int) *MaxPool2D {
	return &MaxPool2D{Size: size}
}

// Forward selects window maxima.
func (l *MaxPool2D) Forward(in *Volume) *Volume {
	l.lastIn = in
	outH := in.H / l.Size
	outW := in.W / l.Size
	out := NewVolume(in.C, outH, outW)
	l.argmax = make([]int, out.Len())

	for c := 0; c < in.C; c++ {
		for y := 0; y < outH; y++ {
			for x := 0; x < outW; x++ {
				best := math.Inf(-1)
				bestIdx := 0
				for dy := 0; dy < l.Size; dy++ {
					for dx := 0; dx < l.Size; dx++ {
						sy := y*l.Size + dy
						sx := x*l.Size + dx
						v := in.At(c, sy, sx)
						if v > best {
							best = v
							bestIdx = (c*in.H+sy)*in.W + sx
						}
					}
				}
				outIdx := (c*outH+y)*outW + x
				out.Data[outIdx] = best
				l.argmax[outIdx] = bestIdx
			}
		}
	}
	return out
}

// Backward routes each gradient to the input cell that won the max.
func (l *MaxPool2D) Backward(grad *Volume) *Volume {
	in := l.lastIn
	dIn := NewVolume(in.C, in.H, in.W)
	for i, g := range grad.Data {
		dIn.Data[l.argmax[i]] += g
	}
	return dIn
}

// Update is a no-op; pooling has no parameters.
func (l *MaxPool2D) Update(float64) {}

// ReLU zeroes negative activations.
type ReLU struct {
	mask []bool
}

// NewReLU creates a rectifier layer.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward clamps negatives to zero.
func (l *ReLU) Forward(in *Volume) *Volume {
	out := NewVolume(in.C, in.H, in.W)
	l.mask = make([]bool, in.Len())
	for i, v := range in.Data {
		if v > 0 {
			out.Data[i] = v
			l.mask[i] = true
		}
	}
	return out
}

// Backward passes gradient only where the input was positive.
func (l *ReLU) Backward(grad *Volume) *Volume {
	dIn := NewVolume(grad.C, grad.H, grad.W)
	for i, g := range grad.Data {
		if l.mask[i] {
			dIn.Data[i] = g
		}
	}
	return dIn
}

// Update is a no-op.
func (l *ReLU) Update(float64) {}

// Flatten reshapes a volume to a 1x1xN vector for the dense stages.
type Flatten struct {
	lastC, lastH, lastW int
}

// NewFlatten creates a flatten layer.
func NewFlatten() *Flatten {
	return &Flatten{}
}

// Forward records the input shape and reinterprets the data as a vector.
func (l *Flatten) Forward(in *Volume) *Volume {
	l.lastC, l.lastH, l.lastW = in.C, in.H, in.W
	return NewVolumeFrom(1, 1, in.Len(), in.Data)
}

// Backward restores the original shape.
func (l *Flatten) Backward(grad *Volume) *Volume {
	return NewVolumeFrom(l.lastC, l.lastH, l.lastW, grad.Data)
}

// Update is a no-op.
func (l *Flatten) Update(float64) {}

// Dense is a fully-connected layer y = Wx + b over flattened input.
type Dense struct {
	In, Out int

	W *mat.Dense    // Out x In
	B *mat.VecDense // Out

	lastIn *Volume
	dW     *mat.Dense
	dB     *mat.VecDense
}

// NewDense creates a fully-connected layer with He-initialized weights.
func NewDense(in, out int, rng *rand.Rand) *Dense {
	w := mat.NewDense(out, in, nil)
	scale := math.Sqrt(2.0 / float64(in))
	for r := 0; r < out; r++ {
		for c := 0; c < in; c++ {
			w.Set(r, c, rng.NormFloat64()*scale)
		}
	}
	return &Dense{
		In:  in,
		Out: out,
		W:   w,
		B:   mat.NewVecDense(out, nil),
		dW:  mat.NewDense(out, in, nil),
		dB:  mat.NewVecDense(out, nil),
	}
}

// Forward computes Wx + b.
func (l *Dense) Forward(in *Volume) *Volume {
	l.lastIn = in
	x := mat.NewVecDense(l.In, in.Data)
	y := mat.NewVecDense(l.Out, nil)
	y.MulVec(l.W, x)
	y.AddVec(y, l.B)
	return NewVolumeFrom(1, 1, l.Out, y.RawVector().Data)
}

// Backward accumulates dW += g·xᵀ, dB += g and returns Wᵀg.
func (l *Dense) Backward(grad *Volume) *Volume {
	g := mat.NewVecDense(l.Out, grad.Data)
	x := mat.NewVecDense(l.In, l.lastIn.Data)

	var outer mat.Dense
	outer.Outer(1, g, x)
	l.dW.Add(l.dW, &outer)
	l.dB.AddVec(l.dB, g)

	dIn := mat.NewVecDense(l.In, nil)
	dIn.MulVec(l.W.T(), g)
	return NewVolumeFrom(1, 1, l.In, dIn.RawVector().Data)
}

// Update applies and clears accumulated gradients.
func (l *Dense) Update(step float64) {
	var scaled mat.Dense
	scaled.Scale(step, l.dW)
	l.W.Sub(l.W, &scaled)
	l.dW.Zero()

	var scaledB mat.VecDense
	scaledB.ScaleVec(step, l.dB)
	l.B.SubVec(l.B, &scaledB)
	l.dB.Zero()
}
