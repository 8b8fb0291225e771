// Package convert turns a trained model plus a compression strategy into a
// serialized candidate artifact, and decodes artifacts back into runnable
// predictors. Artifacts are CBOR-encoded quantized parameter sets.
package convert

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/x448/float16"

	"github.com/shayne-snap/quantpole/internal/model"
	"github.com/shayne-snap/quantpole/internal/quant"
)

// Artifact is one compressed, serialized build of the model. Strategy is the
// attempting strategy's name even when the fallback variant produced the
// bytes; AppliedVariant records what actually ran.
type Artifact struct {
	Strategy       string
	AppliedVariant string
	Bytes          []byte
	ConversionMs   float64
}

// SizeBytes returns the serialized artifact size.
func (a *Artifact) SizeBytes() int { return len(a.Bytes) }

// SizeMB returns the serialized artifact size in megabytes.
func (a *Artifact) SizeMB() float64 { return float64(len(a.Bytes)) / (1024 * 1024) }

// ConversionError reports a strategy-specific conversion failure.
type ConversionError struct {
	Strategy string
	Reason   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion failed for %s: %s", e.Strategy, e.Reason)
}

// MissingCalibrationDataError reports a calibration-requiring strategy invoked
// without a calibration set.
type MissingCalibrationDataError struct {
	Strategy string
}

func (e *MissingCalibrationDataError) Error() string {
	return fmt.Sprintf("strategy %s requires a calibration set", e.Strategy)
}

// payload is the CBOR layout of a quantized model. Weight rows are packed
// bytes: one byte per weight for int8 types, two little-endian bytes per
// weight for float16.
type payload struct {
	Strategy   string    `cbor:"strategy"`
	WeightType string    `cbor:"weight_type"`
	Classes    []string  `cbor:"classes"`
	InputDim   int       `cbor:"input_dim"`
	Rows       [][]byte  `cbor:"rows"`
	RowScales  []float32 `cbor:"row_scales,omitempty"`
	Bias       []float32 `cbor:"bias"`
	InScales   []float32 `cbor:"in_scales,omitempty"`
	InZeros    []float32 `cbor:"in_zeros,omitempty"`
}

// Convert produces a candidate artifact for the given strategy. Calibration
// is mandatory for calibration-requiring strategies. When the strategy
// declares a fallback, a ConversionError triggers exactly one retry with the
// fallback variant; the artifact keeps the attempting strategy's name and its
// conversion time spans both attempts.
func Convert(m model.TrainedModel, strat quant.Strategy, calib model.Corpus) (*Artifact, error) {
	if strat.NeedsCalibration && len(calib) == 0 {
		return nil, &MissingCalibrationDataError{Strategy: strat.Name}
	}
	start := time.Now()
	p, err := encode(m.Weights(), strat, calib)
	if err != nil {
		var convErr *ConversionError
		if !errors.As(err, &convErr) || strat.Fallback == "" {
			return nil, err
		}
		fb, fbErr := quant.Get(strat.Fallback)
		if fbErr != nil {
			return nil, fmt.Errorf("fallback for %s: %w", strat.Name, fbErr)
		}
		p, err = encode(m.Weights(), fb, calib)
		if err != nil {
			return nil, err
		}
	}
	raw, err := cbor.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode artifact for %s: %w", strat.Name, err)
	}
	return &Artifact{
		Strategy:       strat.Name,
		AppliedVariant: p.Strategy,
		Bytes:          raw,
		ConversionMs:   float64(time.Since(start)) / float64(time.Millisecond),
	}, nil
}

func encode(s *model.Snapshot, strat quant.Strategy, calib model.Corpus) (*payload, error) {
	p := &payload{
		Strategy:   strat.Name,
		WeightType: strat.TargetType.String(),
		Classes:    s.Classes,
		InputDim:   s.InputDim,
		Bias:       s.Bias,
	}
	switch strat.TargetType {
	case quant.TypeFloat16:
		p.Rows = packFloat16Rows(s.Weights)
	case quant.TypeInt8:
		rows, scales, err := packInt8Rows(strat.Name, s.Weights)
		if err != nil {
			return nil, err
		}
		p.Rows = rows
		p.RowScales = scales
	default:
		return nil, &ConversionError{Strategy: strat.Name, Reason: fmt.Sprintf("unsupported target type %s", strat.TargetType)}
	}
	if strat.QuantizedInput {
		inScales, inZeros, err := calibrateInput(strat.Name, s.InputDim, calib)
		if err != nil {
			return nil, err
		}
		p.InScales = inScales
		p.InZeros = inZeros
	}
	return p, nil
}

func packFloat16Rows(weights [][]float32) [][]byte {
	rows := make([][]byte, len(weights))
	for c, row := range weights {
		buf := make([]byte, 2*len(row))
		for i, w := range row {
			bits := float16.Fromfloat32(w).Bits()
			buf[2*i] = byte(bits)
			buf[2*i+1] = byte(bits >> 8)
		}
		rows[c] = buf
	}
	return rows
}

func packInt8Rows(strategy string, weights [][]float32) ([][]byte, []float32, error) {
	rows := make([][]byte, len(weights))
	scales := make([]float32, len(weights))
	for c, row := range weights {
		var maxAbs float32
		for _, w := range row {
			a := float32(math.Abs(float64(w)))
			if a > maxAbs {
				maxAbs = a
			}
		}
		if maxAbs == 0 {
			return nil, nil, &ConversionError{
				Strategy: strategy,
				Reason:   fmt.Sprintf("weight row %d is all zero, int8 scale undefined", c),
			}
		}
		scale := maxAbs / 127
		buf := make([]byte, len(row))
		for i, w := range row {
			q := math.Round(float64(w / scale))
			if q > 127 {
				q = 127
			} else if q < -127 {
				q = -127
			}
			buf[i] = byte(int8(q))
		}
		rows[c] = buf
		scales[c] = scale
	}
	return rows, scales, nil
}

// calibrateInput derives a per-feature affine quantization from the observed
// calibration range. A degenerate range (no spread on some feature) cannot
// encode that feature's operations in int8, which is the strict-variant
// failure mode the fallback retry exists for.
func calibrateInput(strategy string, dim int, calib model.Corpus) ([]float32, []float32, error) {
	mins := make([]float32, dim)
	maxs := make([]float32, dim)
	for i := range mins {
		mins[i] = float32(math.Inf(1))
		maxs[i] = float32(math.Inf(-1))
	}
	for _, in := range calib {
		if len(in) != dim {
			return nil, nil, &ConversionError{
				Strategy: strategy,
				Reason:   fmt.Sprintf("calibration input has %d features, want %d", len(in), dim),
			}
		}
		for i, v := range in {
			if v < mins[i] {
				mins[i] = v
			}
			if v > maxs[i] {
				maxs[i] = v
			}
		}
	}
	scales := make([]float32, dim)
	zeros := make([]float32, dim)
	for i := range scales {
		spread := maxs[i] - mins[i]
		if spread <= 0 {
			return nil, nil, &ConversionError{
				Strategy: strategy,
				Reason:   fmt.Sprintf("calibration range for feature %d is degenerate, cannot derive int8 input scale", i),
			}
		}
		scales[i] = spread / 255
		zeros[i] = mins[i]
	}
	return scales, zeros, nil
}
