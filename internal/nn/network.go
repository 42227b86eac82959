package nn

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Network is an ordered stack of layers mapping a single-channel glyph
// image to class logits.
type Network struct {
	// InputH and InputW are the expected glyph resolution.
	InputH, InputW int

	Layers []Layer
}

// NewGlyphNet builds the standard architecture for glyph classification:
// two conv/pool/relu stages followed by two dense stages. numClasses is
// the size of the label alphabet. The rng seeds the weight init so
// training runs are reproducible.
func NewGlyphNet(inputH, inputW, numClasses int, rng *rand.Rand) *Network {
	// Shape bookkeeping for the flatten width.
	h1 := (inputH - 3 + 1) / 2 // conv 3x3 then pool 2
	w1 := (inputW - 3 + 1) / 2
	h2 := (h1 - 3 + 1) / 2
	w2 := (w1 - 3 + 1) / 2
	flat := 16 * h2 * w2

	return &Network{
		InputH: inputH,
		InputW: inputW,
		Layers: []Layer{
			NewConv2D(1, 8, 3, rng),
			NewMaxPool2D(2),
			NewReLU(),
			NewConv2D(8, 16, 3, rng),
			NewMaxPool2D(2),
			NewReLU(),
			NewFlatten(),
			NewDense(flat, 64, rng),
			NewReLU(),
			NewDense(64, numClasses, rng),
		},
	}
}

// Forward runs the input through every layer and returns the raw class
// logits.
func (n *Network) Forward(in *Volume) *Volume {
	out := in
	for _, l := range n.Layers {
		out = l.Forward(out)
	}
	return out
}

// Predict runs the input through the network and returns the class
// probability distribution.
func (n *Network) Predict(in *Volume) []float64 {
	logits := n.Forward(in)
	return Softmax(logits.Data)
}

// NumClasses returns the width of the final dense layer, or 0 if the
// network has no dense output stage.
func (n *Network) NumClasses() int {
	for i := len(n.Layers) - 1; i >= 0; i-- {
		if d, ok := n.Layers[i].(*Dense); ok {
			return d.Out
		}
	}
	return 0
}

// Softmax converts logits to a probability distribution. Inputs are
// shifted by their maximum for numerical stability.
func Softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	maxVal := floats.Max(logits)
	for i, v := range logits {
		out[i] = math.Exp(v - maxVal)
	}
	sum := floats.Sum(out)
	floats.Scale(1/sum, out)
	return out
}

// Argmax returns the index and value of the largest element.
func Argmax(probs []float64) (int, float64) {
	if len(probs) == 0 {
		return -1, 0
	}
	idx := floats.MaxIdx(probs)
	return idx, probs[idx]
}

// layerSpec is the on-disk form of one layer.
type layerSpec struct {
	Type    string    `json:"type"`
	In      int       `json:"in,omitempty"`
	Out     int       `json:"out,omitempty"`
	Kernel  int       `json:"kernel,omitempty"`
	Size    int       `json:"size,omitempty"`
	Weights []float64 `json:"weights,omitempty"`
	Bias    []float64 `json:"bias,omitempty"`
}

// networkSpec is the on-disk form of a network.
type networkSpec struct {
	InputH int         `json:"input_h"`
	InputW int         `json:"input_w"`
	Layers []layerSpec `json:"layers"`
}

// MarshalJSON serializes the architecture and all weights.
func (n *Network) MarshalJSON() ([]byte, error) {
	spec := networkSpec{InputH: n.InputH, InputW: n.InputW}
	for _, l := range n.Layers {
		switch t := l.(type) {
		case *Conv2D:
			spec.Layers = append(spec.Layers, layerSpec{
				Type: "conv", In: t.In, Out: t.Out, Kernel: t.Kernel,
				Weights: t.Weights, Bias: t.Bias,
			})
		case *MaxPool2D:
			spec.Layers = append(spec.Layers, layerSpec{Type: "maxpool", Size: t.Size})
		case *ReLU:
			spec.Layers = append(spec.Layers, layerSpec{Type: "relu"})
		case *Flatten:
			spec.Layers = append(spec.Layers, layerSpec{Type: "flatten"})
		case *Dense:
			w := make([]float64, 0, t.In*t.Out)
			for r := 0; r < t.Out; r++ {
				w = append(w, t.W.RawRowView(r)...)
			}
			b := make([]float64, t.Out)
			copy(b, t.B.RawVector().Data)
			spec.Layers = append(spec.Layers, layerSpec{
				Type: "dense", In: t.In, Out: t.Out, Weights: w, Bias: b,
			})
		default:
			return nil, fmt.Errorf("unknown layer type %T", l)
		}
	}
	return json.Marshal(spec)
}

// UnmarshalJSON rebuilds a network from its serialized form. Each
// layer's own shape is validated, and the activation shape is traced
// through the stack from InputH x InputW so incompatible layer
// combinations are rejected at load time instead of panicking on the
// first forward pass.
func (n *Network) UnmarshalJSON(data []byte) error {
	var spec networkSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return err
	}
	if spec.InputH <= 0 || spec.InputW <= 0 {
		return fmt.Errorf("invalid input shape %dx%d", spec.InputH, spec.InputW)
	}

	// Activation shape entering the next layer.
	c, h, w := 1, spec.InputH, spec.InputW

	layers := make([]Layer, 0, len(spec.Layers))
	for i, ls := range spec.Layers {
		switch ls.Type {
		case "conv":
			if ls.In <= 0 || ls.Out <= 0 || ls.Kernel <= 0 {
				return fmt.Errorf("layer %d: bad conv shape", i)
			}
			want := ls.Out * ls.In * ls.Kernel * ls.Kernel
			if len(ls.Weights) != want || len(ls.Bias) != ls.Out {
				return fmt.Errorf("layer %d: conv weight count %d, want %d", i, len(ls.Weights), want)
			}
			if ls.In != c {
				return fmt.Errorf("layer %d: conv expects %d input channels, activations have %d", i, ls.In, c)
			}
			if h < ls.Kernel || w < ls.Kernel {
				return fmt.Errorf("layer %d: conv kernel %d exceeds %dx%d activations", i, ls.Kernel, h, w)
			}
			layers = append(layers, &Conv2D{
				In: ls.In, Out: ls.Out, Kernel: ls.Kernel,
				Weights: ls.Weights, Bias: ls.Bias,
				dW: make([]float64, want), dB: make([]float64, ls.Out),
			})
			c, h, w = ls.Out, h-ls.Kernel+1, w-ls.Kernel+1
		case "maxpool":
			if ls.Size <= 0 {
				return fmt.Errorf("layer %d: bad pool size", i)
			}
			if h/ls.Size == 0 || w/ls.Size == 0 {
				return fmt.Errorf("layer %d: pool size %d exceeds %dx%d activations", i, ls.Size, h, w)
			}
			layers = append(layers, NewMaxPool2D(ls.Size))
			h, w = h/ls.Size, w/ls.Size
		case "relu":
			layers = append(layers, NewReLU())
		case "flatten":
			layers = append(layers, NewFlatten())
			c, h, w = 1, 1, c*h*w
		case "dense":
			if ls.In <= 0 || ls.Out <= 0 {
				return fmt.Errorf("layer %d: bad dense shape", i)
			}
			if len(ls.Weights) != ls.In*ls.Out || len(ls.Bias) != ls.Out {
				return fmt.Errorf("layer %d: dense weight count %d, want %d", i, len(ls.Weights), ls.In*ls.Out)
			}
			if ls.In != c*h*w {
				return fmt.Errorf("layer %d: dense expects %d inputs, activations have %d", i, ls.In, c*h*w)
			}
			layers = append(layers, &Dense{
				In: ls.In, Out: ls.Out,
				W:  mat.NewDense(ls.Out, ls.In, ls.Weights),
				B:  mat.NewVecDense(ls.Out, ls.Bias),
				dW: mat.NewDense(ls.Out, ls.In, nil),
				dB: mat.NewVecDense(ls.Out, nil),
			})
			c, h, w = 1, 1, ls.Out
		default:
			return fmt.Errorf("layer %d: unknown type %q", i, ls.Type)
		}
	}

	n.InputH = spec.InputH
	n.InputW = spec.InputW
	n.Layers = layers
	return nil
}
