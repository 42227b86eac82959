// Package classify wraps the trained network behind a Model handle and
// turns prepared glyphs into label predictions.
package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"charscan/internal/nn"
)

// ErrModelLoad is returned when the model artifact is missing, corrupt,
// or incompatible. A load that fails never yields a partial Model.
var ErrModelLoad = errors.New("model load failed")

// DefaultAlphabet is the closed label set the stock model is trained
// on: digits then uppercase letters.
const DefaultAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Prediction is the classifier's answer for a single glyph.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Model is an immutable handle to a loaded classifier: the trained
// network plus its label alphabet. Load it once and pass it explicitly
// into every call; it is never mutated by classification.
type Model struct {
	classes []string
	net     *nn.Network
}

// modelFile is the on-disk artifact layout.
type modelFile struct {
	Version int         `json:"version"`
	Classes []string    `json:"classes"`
	Network *nn.Network `json:"network"`
}

const modelFileVersion = 1

// NewModel wraps a trained network and its alphabet. The number of
// classes must match the network's output width.
func NewModel(classes []string, net *nn.Network) (*Model, error) {
	if net == nil {
		return nil, fmt.Errorf("nil network")
	}
	if len(classes) != net.NumClasses() {
		return nil, fmt.Errorf("alphabet size %d does not match network output %d",
			len(classes), net.NumClasses())
	}
	return &Model{classes: classes, net: net}, nil
}

// Classes returns a copy of the label alphabet in class order.
func (m *Model) Classes() []string {
	out := make([]string, len(m.classes))
	copy(out, m.classes)
	return out
}

// InputSize returns the glyph resolution the network expects.
func (m *Model) InputSize() (h, w int) {
	return m.net.InputH, m.net.InputW
}

// Classify runs a prepared glyph through the network and returns the
// highest-probability label with its probability as confidence. A
// low-confidence result is still returned; rejection thresholds are the
// caller's policy.
func (m *Model) Classify(g Glyph) (Prediction, error) {
	if g.H != m.net.InputH || g.W != m.net.InputW {
		return Prediction{}, fmt.Errorf("glyph size %dx%d does not match model input %dx%d",
			g.H, g.W, m.net.InputH, m.net.InputW)
	}
	probs := m.net.Predict(nn.NewVolumeFrom(1, g.H, g.W, g.Pixels))
	idx, conf := nn.Argmax(probs)
	if idx < 0 {
		return Prediction{}, fmt.Errorf("network produced no output")
	}
	return Prediction{Label: m.classes[idx], Confidence: conf}, nil
}

// LoadModel reads a model artifact from disk. Any failure is reported
// as ErrModelLoad with the cause attached.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrModelLoad, path, err)
	}
	if mf.Version != modelFileVersion {
		return nil, fmt.Errorf("%w: unsupported artifact version %d", ErrModelLoad, mf.Version)
	}
	if mf.Network == nil {
		return nil, fmt.Errorf("%w: artifact has no network", ErrModelLoad)
	}
	if len(mf.Classes) == 0 {
		return nil, fmt.Errorf("%w: artifact has no class alphabet", ErrModelLoad)
	}

	m, err := NewModel(mf.Classes, mf.Network)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	return m, nil
}

// SaveModel writes the model artifact produced by the trainer.
func SaveModel(path string, m *Model) error {
	mf := modelFile{
		Version: modelFileVersion,
		Classes: m.classes,
		Network: m.net,
	}
	data, err := json.Marshal(mf)
	if err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
