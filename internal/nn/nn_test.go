package nn

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
)

func TestSoftmax(t *testing.T) {
	probs := Softmax([]float64{1, 2, 3})
	sum := 0.0
	for _, p := range probs {
		if p <= 0 || p >= 1 {
			t.Errorf("probability %v out of (0,1)", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("probabilities sum to %v, want 1", sum)
	}
	if !(probs[2] > probs[1] && probs[1] > probs[0]) {
		t.Errorf("softmax not monotone: %v", probs)
	}
}

func TestSoftmaxLargeLogits(t *testing.T) {
	// Without the max shift these would overflow exp.
	probs := Softmax([]float64{1000, 1001})
	if math.IsNaN(probs[0]) || math.IsNaN(probs[1]) {
		t.Fatalf("softmax produced NaN: %v", probs)
	}
	if probs[1] < probs[0] {
		t.Errorf("larger logit got smaller probability: %v", probs)
	}
}

func TestArgmax(t *testing.T) {
	idx, val := Argmax([]float64{0.1, 0.7, 0.2})
	if idx != 1 || val != 0.7 {
		t.Errorf("Argmax = (%d, %v), want (1, 0.7)", idx, val)
	}
	if idx, _ := Argmax(nil); idx != -1 {
		t.Errorf("Argmax(nil) index = %d, want -1", idx)
	}
}

func TestDenseForward(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	l := NewDense(2, 2, rng)
	l.W.Set(0, 0, 1)
	l.W.Set(0, 1, 2)
	l.W.Set(1, 0, 3)
	l.W.Set(1, 1, 4)
	l.B.SetVec(0, 0.5)
	l.B.SetVec(1, -0.5)

	out := l.Forward(NewVolumeFrom(1, 1, 2, []float64{1, 1}))
	if math.Abs(out.Data[0]-3.5) > 1e-12 || math.Abs(out.Data[1]-6.5) > 1e-12 {
		t.Errorf("dense output = %v, want [3.5 6.5]", out.Data)
	}
}

func TestConvForward(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	l := NewConv2D(1, 1, 2, rng)
	copy(l.Weights, []float64{1, 0, 0, 1}) // identity-diagonal kernel
	l.Bias[0] = 1

	in := NewVolumeFrom(1, 3, 3, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	out := l.Forward(in)
	if out.H != 2 || out.W != 2 {
		t.Fatalf("conv output %dx%d, want 2x2", out.H, out.W)
	}
	// Each output = top-left + bottom-right of the window + bias.
	want := []float64{1 + 5 + 1, 2 + 6 + 1, 4 + 8 + 1, 5 + 9 + 1}
	for i, w := range want {
		if math.Abs(out.Data[i]-w) > 1e-12 {
			t.Errorf("conv out[%d] = %v, want %v", i, out.Data[i], w)
		}
	}
}

func TestMaxPoolForwardBackward(t *testing.T) {
	l := NewMaxPool2D(2)
	in := NewVolumeFrom(1, 2, 4, []float64{
		1, 5, 2, 0,
		3, 4, 8, 1,
	})
	out := l.Forward(in)
	if out.H != 1 || out.W != 2 {
		t.Fatalf("pool output %dx%d, want 1x2", out.H, out.W)
	}
	if out.Data[0] != 5 || out.Data[1] != 8 {
		t.Errorf("pool output = %v, want [5 8]", out.Data)
	}

	grad := NewVolumeFrom(1, 1, 2, []float64{1, 2})
	dIn := l.Backward(grad)
	// Gradient flows only to the argmax cells.
	want := []float64{0, 1, 0, 0, 0, 0, 2, 0}
	for i, w := range want {
		if dIn.Data[i] != w {
			t.Fatalf("pool backward = %v, want %v", dIn.Data, want)
		}
	}
}

func TestReLU(t *testing.T) {
	l := NewReLU()
	out := l.Forward(NewVolumeFrom(1, 1, 4, []float64{-1, 0, 2, -3}))
	want := []float64{0, 0, 2, 0}
	for i, w := range want {
		if out.Data[i] != w {
			t.Fatalf("relu output = %v, want %v", out.Data, want)
		}
	}

	dIn := l.Backward(NewVolumeFrom(1, 1, 4, []float64{1, 1, 1, 1}))
	wantGrad := []float64{0, 0, 1, 0}
	for i, w := range wantGrad {
		if dIn.Data[i] != w {
			t.Fatalf("relu backward = %v, want %v", dIn.Data, wantGrad)
		}
	}
}

// sampleLoss runs forward + softmax cross-entropy for gradient checking.
func sampleLoss(n *Network, in *Volume, class int) float64 {
	probs := Softmax(n.Forward(in).Data)
	return -math.Log(probs[class])
}

func TestDenseGradientNumerically(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	l := NewDense(3, 2, rng)
	n := &Network{InputH: 1, InputW: 3, Layers: []Layer{l}}

	in := NewVolumeFrom(1, 1, 3, []float64{0.3, -0.7, 1.1})
	const class = 1

	// Analytic gradient.
	probs := Softmax(n.Forward(in).Data)
	grad := NewVolumeFrom(1, 1, 2, []float64{probs[0], probs[1]})
	grad.Data[class] -= 1
	l.Backward(grad)

	const eps = 1e-5
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			orig := l.W.At(r, c)
			l.W.Set(r, c, orig+eps)
			plus := sampleLoss(n, in, class)
			l.W.Set(r, c, orig-eps)
			minus := sampleLoss(n, in, class)
			l.W.Set(r, c, orig)

			numeric := (plus - minus) / (2 * eps)
			analytic := l.dW.At(r, c)
			if math.Abs(numeric-analytic) > 1e-6 {
				t.Errorf("dW[%d,%d]: numeric %v, analytic %v", r, c, numeric, analytic)
			}
		}
	}
}

func TestConvGradientNumerically(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	conv := NewConv2D(1, 2, 2, rng)
	n := &Network{InputH: 3, InputW: 3, Layers: []Layer{
		conv,
		NewFlatten(),
	}}

	in := NewVolumeFrom(1, 3, 3, []float64{
		0.1, 0.9, -0.4,
		0.0, 0.5, 0.3,
		-0.2, 0.8, 0.6,
	})
	const class = 3

	probs := Softmax(n.Forward(in).Data)
	grad := NewVolume(1, 1, len(probs))
	copy(grad.Data, probs)
	grad.Data[class] -= 1
	back := grad
	for i := len(n.Layers) - 1; i >= 0; i-- {
		back = n.Layers[i].Backward(back)
	}

	const eps = 1e-5
	for i := range conv.Weights {
		orig := conv.Weights[i]
		conv.Weights[i] = orig + eps
		plus := sampleLoss(n, in, class)
		conv.Weights[i] = orig - eps
		minus := sampleLoss(n, in, class)
		conv.Weights[i] = orig

		numeric := (plus - minus) / (2 * eps)
		if math.Abs(numeric-conv.dW[i]) > 1e-6 {
			t.Errorf("conv dW[%d]: numeric %v, analytic %v", i, numeric, conv.dW[i])
		}
	}
}

func TestNetworkJSONRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	orig := NewGlyphNet(28, 28, 10, rng)

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var restored Network
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.InputH != 28 || restored.InputW != 28 {
		t.Fatalf("restored input shape %dx%d", restored.InputH, restored.InputW)
	}
	if restored.NumClasses() != 10 {
		t.Fatalf("restored classes = %d, want 10", restored.NumClasses())
	}

	in := NewVolume(1, 28, 28)
	for i := range in.Data {
		in.Data[i] = float64(i%7) / 7
	}
	a := orig.Predict(in)
	b := restored.Predict(in.Clone())
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("prediction diverged after round trip at class %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestNetworkUnmarshalRejectsBadSpec(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"garbage", `{"layers": "nope"}`},
		{"zero input", `{"input_h":0,"input_w":28,"layers":[]}`},
		{"unknown layer", `{"input_h":28,"input_w":28,"layers":[{"type":"quantum"}]}`},
		{"short conv weights", `{"input_h":28,"input_w":28,"layers":[{"type":"conv","in":1,"out":2,"kernel":3,"weights":[1],"bias":[0,0]}]}`},
		{"short dense weights", `{"input_h":28,"input_w":28,"layers":[{"type":"dense","in":4,"out":2,"weights":[1,2],"bias":[0,0]}]}`},
		{"dense narrower than flattened input", `{"input_h":4,"input_w":4,"layers":[{"type":"flatten"},{"type":"dense","in":8,"out":2,"weights":[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],"bias":[0,0]}]}`},
		{"conv channel mismatch", `{"input_h":8,"input_w":8,"layers":[{"type":"conv","in":3,"out":1,"kernel":3,"weights":[0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0],"bias":[0]}]}`},
		{"conv kernel exceeds input", `{"input_h":2,"input_w":2,"layers":[{"type":"conv","in":1,"out":1,"kernel":3,"weights":[0,0,0,0,0,0,0,0,0],"bias":[0]}]}`},
		{"pool exceeds input", `{"input_h":2,"input_w":2,"layers":[{"type":"maxpool","size":4}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Network
			if err := json.Unmarshal([]byte(tt.data), &n); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestTrainSeparableProblem(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	n := &Network{InputH: 1, InputW: 2, Layers: []Layer{
		NewDense(2, 2, rng),
	}}

	samples := []Sample{
		{Input: NewVolumeFrom(1, 1, 2, []float64{1, 0}), Class: 0},
		{Input: NewVolumeFrom(1, 1, 2, []float64{0, 1}), Class: 1},
	}

	opts := TrainOptions{Epochs: 200, BatchSize: 2, LearningRate: 0.5, Seed: 5}
	if err := Train(n, samples, opts); err != nil {
		t.Fatalf("Train: %v", err)
	}

	if acc := Evaluate(n, samples); acc != 1.0 {
		t.Errorf("accuracy after training = %v, want 1.0", acc)
	}
}

func TestTrainValidatesInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := &Network{InputH: 1, InputW: 2, Layers: []Layer{NewDense(2, 2, rng)}}

	if err := Train(n, nil, DefaultTrainOptions()); err == nil {
		t.Error("expected error for empty sample set")
	}

	bad := []Sample{{Input: NewVolumeFrom(1, 1, 2, []float64{0, 0}), Class: 9}}
	if err := Train(n, bad, DefaultTrainOptions()); err == nil {
		t.Error("expected error for out-of-range class")
	}
}
