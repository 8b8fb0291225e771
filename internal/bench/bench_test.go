package bench

import (
	"errors"
	"testing"

	"github.com/shayne-snap/quantpole/internal/model"
)

// fixedPredictor always returns the same probabilities.
type fixedPredictor struct {
	probs []float32
}

func (p *fixedPredictor) Predict(input []float32) ([]float32, error) {
	return p.probs, nil
}

// labelPredictor predicts the class named by the dominant input feature.
type labelPredictor struct{}

func (labelPredictor) Predict(input []float32) ([]float32, error) {
	probs := make([]float32, len(input))
	probs[model.Argmax(input)] = 1
	return probs, nil
}

type errPredictor struct{}

func (errPredictor) Predict(input []float32) ([]float32, error) {
	return nil, errors.New("boom")
}

func TestBenchmark_Stats(t *testing.T) {
	p := &fixedPredictor{probs: []float32{0.9, 0.1}}
	r, err := Benchmark(p, []float32{1, 2}, 50)
	if err != nil {
		t.Fatalf("Benchmark: %v", err)
	}
	if r.Runs != 50 {
		t.Errorf("Runs = %d, want 50", r.Runs)
	}
	if r.MinMs > r.MeanMs || r.MeanMs > r.MaxMs {
		t.Errorf("stats out of order: min %v mean %v max %v", r.MinMs, r.MeanMs, r.MaxMs)
	}
	if r.StdDevMs < 0 {
		t.Errorf("StdDevMs = %v", r.StdDevMs)
	}
	if r.TotalBenchS < 0 {
		t.Errorf("TotalBenchS = %v", r.TotalBenchS)
	}
}

func TestBenchmark_DefaultRuns(t *testing.T) {
	p := &fixedPredictor{probs: []float32{1}}
	r, err := Benchmark(p, []float32{1}, 0)
	if err != nil {
		t.Fatalf("Benchmark: %v", err)
	}
	if r.Runs != DefaultRuns {
		t.Errorf("Runs = %d, want %d", r.Runs, DefaultRuns)
	}
}

func TestBenchmark_EmptyInput(t *testing.T) {
	if _, err := Benchmark(&fixedPredictor{}, nil, 10); err == nil {
		t.Error("Benchmark with empty input succeeded, want error")
	}
}

func TestBenchmark_PredictError(t *testing.T) {
	if _, err := Benchmark(errPredictor{}, []float32{1}, 10); err == nil {
		t.Error("Benchmark with failing predictor succeeded, want error")
	}
}

func TestEvaluate(t *testing.T) {
	corpus := model.LabeledCorpus{
		{Input: []float32{5, 0, 0}, Label: 0},
		{Input: []float32{0, 5, 0}, Label: 1},
		{Input: []float32{0, 0, 5}, Label: 2},
		{Input: []float32{5, 0, 0}, Label: 1}, // predictor will say 0, mislabeled on purpose
	}
	r, err := Evaluate(labelPredictor{}, corpus)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if r.Total != 4 || r.Correct != 3 {
		t.Errorf("got %d/%d, want 3/4", r.Correct, r.Total)
	}
	if r.Accuracy != 0.75 {
		t.Errorf("Accuracy = %v, want 0.75", r.Accuracy)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	corpus := model.LabeledCorpus{
		{Input: []float32{1, 2}, Label: 1},
		{Input: []float32{3, 1}, Label: 0},
	}
	a, _ := Evaluate(labelPredictor{}, corpus)
	b, _ := Evaluate(labelPredictor{}, corpus)
	if a.Accuracy != b.Accuracy || a.Correct != b.Correct {
		t.Errorf("two evaluations differ: %+v vs %+v", a, b)
	}
}

func TestEvaluate_Empty(t *testing.T) {
	if _, err := Evaluate(labelPredictor{}, nil); err == nil {
		t.Error("Evaluate(empty) succeeded, want error")
	}
}

func TestEvaluate_PredictError(t *testing.T) {
	corpus := model.LabeledCorpus{{Input: []float32{1}, Label: 0}}
	if _, err := Evaluate(errPredictor{}, corpus); err == nil {
		t.Error("Evaluate with failing predictor succeeded, want error")
	}
}
