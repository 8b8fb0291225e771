package convert

import (
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/x448/float16"

	"github.com/shayne-snap/quantpole/internal/model"
)

// Quantized is a decoded candidate artifact, runnable for benchmarking and
// evaluation. It dequantizes on the fly; the backing payload never changes.
type Quantized struct {
	p payload
}

// Decode loads a candidate artifact back into a runnable predictor.
func Decode(a *Artifact) (*Quantized, error) {
	var p payload
	if err := cbor.Unmarshal(a.Bytes, &p); err != nil {
		return nil, fmt.Errorf("decode artifact for %s: %w", a.Strategy, err)
	}
	if len(p.Rows) != len(p.Classes) || len(p.Bias) != len(p.Classes) {
		return nil, fmt.Errorf("decode artifact for %s: inconsistent payload", a.Strategy)
	}
	return &Quantized{p: p}, nil
}

// Classes returns the class names carried by the artifact.
func (q *Quantized) Classes() []string { return q.p.Classes }

// Predict runs one forward pass through the quantized parameters and returns
// softmax probabilities.
func (q *Quantized) Predict(input []float32) ([]float32, error) {
	if len(input) != q.p.InputDim {
		return nil, fmt.Errorf("quantized %s: input has %d features, want %d", q.p.Strategy, len(input), q.p.InputDim)
	}
	x := input
	if len(q.p.InScales) > 0 {
		x = q.quantizeInput(input)
	}
	logits := make([]float64, len(q.p.Rows))
	switch q.p.WeightType {
	case "float16":
		for c, row := range q.p.Rows {
			acc := float64(q.p.Bias[c])
			for i := range x {
				bits := uint16(row[2*i]) | uint16(row[2*i+1])<<8
				acc += float64(float16.Frombits(bits).Float32()) * float64(x[i])
			}
			logits[c] = acc
		}
	case "int8":
		for c, row := range q.p.Rows {
			var acc float64
			for i := range x {
				acc += float64(int8(row[i])) * float64(x[i])
			}
			logits[c] = acc*float64(q.p.RowScales[c]) + float64(q.p.Bias[c])
		}
	default:
		return nil, fmt.Errorf("quantized %s: unsupported weight type %q", q.p.Strategy, q.p.WeightType)
	}
	return model.Softmax(logits), nil
}

// quantizeInput rounds each feature onto its calibrated int8 grid and
// dequantizes it again, reproducing the precision loss of an integer input
// path.
func (q *Quantized) quantizeInput(input []float32) []float32 {
	out := make([]float32, len(input))
	for i, v := range input {
		step := math.Round(float64((v - q.p.InZeros[i]) / q.p.InScales[i]))
		if step < 0 {
			step = 0
		} else if step > 255 {
			step = 255
		}
		out[i] = q.p.InZeros[i] + float32(step)*q.p.InScales[i]
	}
	return out
}
