package convert

import (
	"errors"
	"math"
	"testing"

	"github.com/shayne-snap/quantpole/internal/model"
	"github.com/shayne-snap/quantpole/internal/quant"
)

func testModel(t *testing.T) *model.Dense {
	t.Helper()
	m, err := model.NewDense("conv-test", []string{"a", "b", "c"}, [][]float32{
		{1.6, 0.2, -0.3, 0.1},
		{0.1, 1.4, 0.2, -0.2},
		{-0.1, 0.3, 1.7, 0.2},
	}, []float32{0.05, -0.05, 0.0})
	if err != nil {
		t.Fatalf("NewDense: %v", err)
	}
	return m
}

func testCalibration() model.Corpus {
	return model.Corpus{
		{0.1, 0.5, 1.0, 0.2},
		{3.5, 0.8, 0.3, 1.1},
		{0.7, 4.2, 0.9, 0.4},
		{1.2, 0.3, 3.8, 2.0},
	}
}

// degenerateCalibration has no spread on the last feature.
func degenerateCalibration() model.Corpus {
	return model.Corpus{
		{0.1, 0.5, 1.0, 0.7},
		{3.5, 0.8, 0.3, 0.7},
		{0.7, 4.2, 0.9, 0.7},
	}
}

func mustStrategy(t *testing.T, name string) quant.Strategy {
	t.Helper()
	s, err := quant.Get(name)
	if err != nil {
		t.Fatalf("Get(%s): %v", name, err)
	}
	return s
}

func TestConvert_AllCatalogStrategies(t *testing.T) {
	m := testModel(t)
	calib := testCalibration()
	for _, strat := range quant.List() {
		a, err := Convert(m, strat, calib)
		if err != nil {
			t.Errorf("Convert(%s): %v", strat.Name, err)
			continue
		}
		if a.SizeBytes() <= 0 {
			t.Errorf("%s: artifact has %d bytes", strat.Name, a.SizeBytes())
		}
		if a.Strategy != strat.Name {
			t.Errorf("%s: artifact strategy = %q", strat.Name, a.Strategy)
		}
		if a.ConversionMs < 0 {
			t.Errorf("%s: negative conversion time %v", strat.Name, a.ConversionMs)
		}
	}
}

func TestConvert_Int8SmallerThanFloat16(t *testing.T) {
	m := testModel(t)
	int8Art, err := Convert(m, mustStrategy(t, quant.StrategyDynamicRange), nil)
	if err != nil {
		t.Fatalf("dynamic-range: %v", err)
	}
	f16Art, err := Convert(m, mustStrategy(t, quant.StrategyFloat16), nil)
	if err != nil {
		t.Fatalf("float16: %v", err)
	}
	if int8Art.SizeBytes() >= f16Art.SizeBytes() {
		t.Errorf("int8 artifact (%d bytes) not smaller than float16 (%d bytes)",
			int8Art.SizeBytes(), f16Art.SizeBytes())
	}
}

func TestConvert_MissingCalibration(t *testing.T) {
	m := testModel(t)
	_, err := Convert(m, mustStrategy(t, quant.StrategyInt8Calibrated), nil)
	var missing *MissingCalibrationDataError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingCalibrationDataError", err)
	}
	if missing.Strategy != quant.StrategyInt8Calibrated {
		t.Errorf("error strategy = %q", missing.Strategy)
	}
}

func TestConvert_ZeroRowFailsInt8(t *testing.T) {
	m, err := model.NewDense("zero-row", []string{"a", "b"}, [][]float32{
		{1.0, 2.0},
		{0.0, 0.0},
	}, []float32{0, 0})
	if err != nil {
		t.Fatalf("NewDense: %v", err)
	}
	_, err = Convert(m, mustStrategy(t, quant.StrategyDynamicRange), nil)
	var conv *ConversionError
	if !errors.As(err, &conv) {
		t.Fatalf("err = %v, want ConversionError", err)
	}
	// float16 does not need a scale, so the same model converts
	if _, err := Convert(m, mustStrategy(t, quant.StrategyFloat16), nil); err != nil {
		t.Errorf("float16 on zero-row model: %v", err)
	}
}

func TestConvert_StrictInt8_DegenerateRange(t *testing.T) {
	m := testModel(t)
	_, err := Convert(m, mustStrategy(t, quant.StrategyInt8Calibrated), degenerateCalibration())
	var conv *ConversionError
	if !errors.As(err, &conv) {
		t.Fatalf("err = %v, want ConversionError", err)
	}
}

func TestConvert_FallbackRetry(t *testing.T) {
	m := testModel(t)
	// strict input quantization fails on the degenerate range, so the
	// declared fallback variant must kick in exactly once
	a, err := Convert(m, mustStrategy(t, quant.StrategyInt8WithFallback), degenerateCalibration())
	if err != nil {
		t.Fatalf("Convert with fallback: %v", err)
	}
	if a.Strategy != quant.StrategyInt8WithFallback {
		t.Errorf("artifact keeps attempting strategy name, got %q", a.Strategy)
	}
	if a.AppliedVariant != quant.StrategyInt8Relaxed {
		t.Errorf("AppliedVariant = %q, want %q", a.AppliedVariant, quant.StrategyInt8Relaxed)
	}
	if a.SizeBytes() <= 0 {
		t.Error("fallback artifact is empty")
	}
}

func TestConvert_FallbackNotTakenOnSuccess(t *testing.T) {
	m := testModel(t)
	a, err := Convert(m, mustStrategy(t, quant.StrategyInt8WithFallback), testCalibration())
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if a.AppliedVariant != quant.StrategyInt8WithFallback {
		t.Errorf("AppliedVariant = %q, want the strict variant", a.AppliedVariant)
	}
}

func TestDecode_RoundTripPredictions(t *testing.T) {
	m := testModel(t)
	calib := testCalibration()
	inputs := [][]float32{
		{3.2, 0.4, 0.8, 0.3},
		{0.5, 3.9, 0.2, 0.9},
		{0.3, 0.6, 3.5, 1.2},
	}
	for _, strat := range quant.List() {
		a, err := Convert(m, strat, calib)
		if err != nil {
			t.Fatalf("Convert(%s): %v", strat.Name, err)
		}
		q, err := Decode(a)
		if err != nil {
			t.Fatalf("Decode(%s): %v", strat.Name, err)
		}
		if len(q.Classes()) != 3 {
			t.Errorf("%s: classes = %v", strat.Name, q.Classes())
		}
		for _, in := range inputs {
			orig, err := m.Predict(in)
			if err != nil {
				t.Fatalf("Predict: %v", err)
			}
			got, err := q.Predict(in)
			if err != nil {
				t.Fatalf("%s: quantized Predict: %v", strat.Name, err)
			}
			if model.Argmax(got) != model.Argmax(orig) {
				t.Errorf("%s: argmax drifted for input %v: %v vs %v", strat.Name, in, got, orig)
			}
		}
	}
}

func TestDecode_Float16CloseToOriginal(t *testing.T) {
	m := testModel(t)
	a, err := Convert(m, mustStrategy(t, quant.StrategyFloat16), nil)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	q, err := Decode(a)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	in := []float32{1.1, 0.7, 0.4, 0.9}
	orig, _ := m.Predict(in)
	got, _ := q.Predict(in)
	for i := range orig {
		if diff := math.Abs(float64(got[i] - orig[i])); diff > 0.01 {
			t.Errorf("prob %d drifted by %v", i, diff)
		}
	}
}

func TestDecode_WrongInputDim(t *testing.T) {
	m := testModel(t)
	a, err := Convert(m, mustStrategy(t, quant.StrategyFloat16), nil)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	q, err := Decode(a)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, err := q.Predict([]float32{1}); err == nil {
		t.Error("Predict with wrong dim succeeded, want error")
	}
}

func TestDecode_Garbage(t *testing.T) {
	if _, err := Decode(&Artifact{Strategy: "x", Bytes: []byte{0x01, 0x02}}); err == nil {
		t.Error("Decode(garbage) succeeded, want error")
	}
}
