// Package quant defines the compression strategy catalog and the calibration
// sampler.
package quant

import (
	"fmt"

	"github.com/shayne-snap/quantpole/internal/model"
)

// NumericType is the target weight representation for a strategy.
type NumericType int

const (
	TypeFloat32 NumericType = iota
	TypeFloat16
	TypeInt8
)

func (t NumericType) String() string {
	switch t {
	case TypeFloat32:
		return "float32"
	case TypeFloat16:
		return "float16"
	case TypeInt8:
		return "int8"
	default:
		return "float32"
	}
}

// BytesPerWeight returns the storage cost of one weight in the given type.
func (t NumericType) BytesPerWeight() float64 {
	switch t {
	case TypeFloat32:
		return 4.0
	case TypeFloat16:
		return 2.0
	case TypeInt8:
		return 1.0
	default:
		return 4.0
	}
}

// Strategy is one named compression technique. Fallback, when non-empty,
// names the strategy to retry with after a conversion failure.
type Strategy struct {
	Name             string
	TargetType       NumericType
	NeedsCalibration bool
	QuantizedInput   bool
	Fallback         string
	Description      string
}

// Strategy names. Catalog order is fixed and doubles as the selector's
// tie-break order.
const (
	StrategyDynamicRange     = "dynamic-range"
	StrategyFloat16          = "float16"
	StrategyInt8Calibrated   = "int8-calibrated"
	StrategyInt8WithFallback = "int8-calibrated-with-fallback"
	StrategyInt8Relaxed      = "int8-relaxed"
)

var catalog = []Strategy{
	{
		Name:        StrategyDynamicRange,
		TargetType:  TypeInt8,
		Description: "Dynamic range quantization (int8 weights, float activations)",
	},
	{
		Name:        StrategyFloat16,
		TargetType:  TypeFloat16,
		Description: "Float16 weight quantization",
	},
	{
		Name:             StrategyInt8Calibrated,
		TargetType:       TypeInt8,
		NeedsCalibration: true,
		QuantizedInput:   true,
		Description:      "Full integer quantization (calibrated int8 input path)",
	},
	{
		Name:             StrategyInt8WithFallback,
		TargetType:       TypeInt8,
		NeedsCalibration: true,
		QuantizedInput:   true,
		Fallback:         StrategyInt8Relaxed,
		Description:      "Full integer quantization with relaxed-typing fallback",
	},
}

// int8-relaxed is reachable only as a fallback target, so it is not listed.
var fallbackOnly = map[string]Strategy{
	StrategyInt8Relaxed: {
		Name:             StrategyInt8Relaxed,
		TargetType:       TypeInt8,
		NeedsCalibration: true,
		Description:      "Integer weight quantization with float input fallback",
	},
}

// List returns the catalog in its fixed enumeration order.
func List() []Strategy {
	out := make([]Strategy, len(catalog))
	copy(out, catalog)
	return out
}

// Get returns the named strategy, including fallback-only variants.
func Get(name string) (Strategy, error) {
	for _, s := range catalog {
		if s.Name == name {
			return s, nil
		}
	}
	if s, ok := fallbackOnly[name]; ok {
		return s, nil
	}
	return Strategy{}, &UnknownStrategyError{Name: name}
}

// UnknownStrategyError reports a strategy name absent from the catalog.
type UnknownStrategyError struct {
	Name string
}

func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("unknown compression strategy %q", e.Name)
}

// InsufficientCalibrationDataError reports a sample request larger than the
// source corpus.
type InsufficientCalibrationDataError struct {
	Requested int
	Available int
}

func (e *InsufficientCalibrationDataError) Error() string {
	return fmt.Sprintf("insufficient calibration data: requested %d inputs, corpus has %d", e.Requested, e.Available)
}

// Sample takes the ordering-preserving prefix of length size from the corpus.
// No shuffling, so repeated runs see the same calibration set.
func Sample(corpus model.Corpus, size int) (model.Corpus, error) {
	if size <= 0 {
		return nil, fmt.Errorf("calibration sample size must be positive, got %d", size)
	}
	if size > len(corpus) {
		return nil, &InsufficientCalibrationDataError{Requested: size, Available: len(corpus)}
	}
	out := make(model.Corpus, size)
	copy(out, corpus[:size])
	return out, nil
}
