// Package model provides the trained classifier handle and the corpora the
// pipeline consumes. The model is produced and trained elsewhere; everything
// here treats it as read-only.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// TrainedModel is an immutable handle to an already-trained classifier.
// Predict returns one probability per class. Weights exposes a read-only view
// of the parameters for converters; no caller mutates it.
type TrainedModel interface {
	Name() string
	SizeMB() float64
	Predict(input []float32) ([]float32, error)
	Weights() *Snapshot
}

// Snapshot is a read-only view of a dense model's parameters.
// Weights is laid out one row per class, one column per input feature.
type Snapshot struct {
	Classes  []string
	InputDim int
	Weights  [][]float32
	Bias     []float32
}

// Dense is a linear softmax classifier over fixed-length feature vectors.
type Dense struct {
	name     string
	classes  []string
	inputDim int
	weights  [][]float32
	bias     []float32
}

// denseFile is the on-disk JSON layout for a trained model.
type denseFile struct {
	Name     string      `json:"name"`
	Classes  []string    `json:"classes"`
	InputDim int         `json:"input_dim"`
	Weights  [][]float32 `json:"weights"`
	Bias     []float32   `json:"bias"`
}

// NewDense builds a model from explicit parameters. The slices are retained;
// callers hand over ownership.
func NewDense(name string, classes []string, weights [][]float32, bias []float32) (*Dense, error) {
	if len(weights) != len(classes) || len(bias) != len(classes) {
		return nil, fmt.Errorf("model %s: %d classes but %d weight rows, %d biases", name, len(classes), len(weights), len(bias))
	}
	if len(weights) == 0 || len(weights[0]) == 0 {
		return nil, fmt.Errorf("model %s: empty weight matrix", name)
	}
	dim := len(weights[0])
	for i, row := range weights {
		if len(row) != dim {
			return nil, fmt.Errorf("model %s: weight row %d has %d columns, want %d", name, i, len(row), dim)
		}
	}
	return &Dense{name: name, classes: classes, inputDim: dim, weights: weights, bias: bias}, nil
}

// Load reads a trained model from its JSON file.
func Load(path string) (*Dense, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a trained model from JSON bytes.
func Parse(raw []byte) (*Dense, error) {
	var f denseFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	m, err := NewDense(f.Name, f.Classes, f.Weights, f.Bias)
	if err != nil {
		return nil, err
	}
	if f.InputDim != 0 && f.InputDim != m.inputDim {
		return nil, fmt.Errorf("model %s: input_dim %d does not match weight columns %d", f.Name, f.InputDim, m.inputDim)
	}
	return m, nil
}

func (m *Dense) Name() string { return m.name }

// SizeMB reports the serialized size of the uncompressed parameters
// (float32 weights and biases).
func (m *Dense) SizeMB() float64 {
	params := len(m.weights)*m.inputDim + len(m.bias)
	return float64(params*4) / (1024 * 1024)
}

// Predict runs one forward pass and returns softmax probabilities.
func (m *Dense) Predict(input []float32) ([]float32, error) {
	if len(input) != m.inputDim {
		return nil, fmt.Errorf("model %s: input has %d features, want %d", m.name, len(input), m.inputDim)
	}
	logits := make([]float64, len(m.weights))
	for c, row := range m.weights {
		acc := float64(m.bias[c])
		for i, w := range row {
			acc += float64(w) * float64(input[i])
		}
		logits[c] = acc
	}
	return Softmax(logits), nil
}

// Weights returns a read-only snapshot of the parameters.
func (m *Dense) Weights() *Snapshot {
	return &Snapshot{
		Classes:  m.classes,
		InputDim: m.inputDim,
		Weights:  m.weights,
		Bias:     m.bias,
	}
}

// Softmax converts logits to probabilities (max-subtracted for stability).
func Softmax(logits []float64) []float32 {
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		if l > maxLogit {
			maxLogit = l
		}
	}
	var sum float64
	exps := make([]float64, len(logits))
	for i, l := range logits {
		exps[i] = math.Exp(l - maxLogit)
		sum += exps[i]
	}
	out := make([]float32, len(logits))
	for i, e := range exps {
		out[i] = float32(e / sum)
	}
	return out
}

// Argmax returns the index of the highest probability.
func Argmax(probs []float32) int {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best
}
