package nn

import (
	"fmt"
	"math"
	"math/rand"
)

// Sample is one labeled training example.
type Sample struct {
	Input *Volume
	Class int
}

// TrainOptions configures SGD training.
type TrainOptions struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         int64

	// Progress, if set, is called after every epoch with the mean
	// cross-entropy loss over that epoch.
	Progress func(epoch int, loss float64)
}

// DefaultTrainOptions returns settings that converge on glyph datasets
// of a few thousand samples.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Epochs:       10,
		BatchSize:    32,
		LearningRate: 0.01,
		Seed:         1,
	}
}

// Train fits the network to the samples with minibatch SGD and
// softmax cross-entropy loss.
func Train(n *Network, samples []Sample, opts TrainOptions) error {
	if len(samples) == 0 {
		return fmt.Errorf("no training samples")
	}
	numClasses := n.NumClasses()
	for i, s := range samples {
		if s.Class < 0 || s.Class >= numClasses {
			return fmt.Errorf("sample %d: class %d out of range [0,%d)", i, s.Class, numClasses)
		}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	order := make([]int, len(samples))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		totalLoss := 0.0
		inBatch := 0
		for _, idx := range order {
			s := samples[idx]
			logits := n.Forward(s.Input)
			probs := Softmax(logits.Data)

			p := probs[s.Class]
			if p < 1e-12 {
				p = 1e-12
			}
			totalLoss += -math.Log(p)

			// Gradient of cross-entropy w.r.t. logits.
			grad := NewVolume(1, 1, len(probs))
			copy(grad.Data, probs)
			grad.Data[s.Class] -= 1

			back := grad
			for i := len(n.Layers) - 1; i >= 0; i-- {
				back = n.Layers[i].Backward(back)
			}

			inBatch++
			if inBatch == opts.BatchSize {
				n.update(opts.LearningRate / float64(inBatch))
				inBatch = 0
			}
		}
		if inBatch > 0 {
			n.update(opts.LearningRate / float64(inBatch))
		}

		if opts.Progress != nil {
			opts.Progress(epoch+1, totalLoss/float64(len(samples)))
		}
	}
	return nil
}

// Evaluate returns classification accuracy over the samples.
func Evaluate(n *Network, samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	correct := 0
	for _, s := range samples {
		probs := n.Predict(s.Input)
		if idx, _ := Argmax(probs); idx == s.Class {
			correct++
		}
	}
	return float64(correct) / float64(len(samples))
}

func (n *Network) update(step float64) {
	for _, l := range n.Layers {
		l.Update(step)
	}
}
