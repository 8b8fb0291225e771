// Package bench measures candidate latency and accuracy. Both measurements
// are strictly sequential so the numbers stay uncontended and reproducible.
package bench

import (
	"fmt"
	"math"
	"time"

	"github.com/shayne-snap/quantpole/internal/model"
)

// Predictor is any runnable classifier: the original trained model or a
// decoded candidate artifact.
type Predictor interface {
	Predict(input []float32) ([]float32, error)
}

// DefaultRuns is the fixed benchmark run count.
const DefaultRuns = 100

// Result is the latency profile of one predictor over repeated runs of the
// same input.
type Result struct {
	Runs        int
	MeanMs      float64
	MinMs       float64
	MaxMs       float64
	StdDevMs    float64
	TotalBenchS float64
}

// AccuracyResult is the correctness profile of one predictor over the
// held-out test corpus.
type AccuracyResult struct {
	Correct  int
	Total    int
	Accuracy float64
}

// Benchmark times runs sequential predictions of the same fixed input. No
// warm-up discard; every run counts.
func Benchmark(p Predictor, input []float32, runs int) (*Result, error) {
	if runs <= 0 {
		runs = DefaultRuns
	}
	if len(input) == 0 {
		return nil, fmt.Errorf("benchmark: empty sample input")
	}
	times := make([]float64, 0, runs)
	for i := 0; i < runs; i++ {
		start := time.Now()
		if _, err := p.Predict(input); err != nil {
			return nil, fmt.Errorf("benchmark run %d: %w", i, err)
		}
		times = append(times, float64(time.Since(start))/float64(time.Millisecond))
	}

	minMs, maxMs := times[0], times[0]
	var sum float64
	for _, t := range times {
		sum += t
		if t < minMs {
			minMs = t
		}
		if t > maxMs {
			maxMs = t
		}
	}
	mean := sum / float64(len(times))
	var varSum float64
	for _, t := range times {
		d := t - mean
		varSum += d * d
	}
	return &Result{
		Runs:        runs,
		MeanMs:      mean,
		MinMs:       minMs,
		MaxMs:       maxMs,
		StdDevMs:    math.Sqrt(varSum / float64(len(times))),
		TotalBenchS: sum / 1000,
	}, nil
}

// Evaluate runs every test example through the predictor in corpus order,
// taking the highest-probability class as the prediction.
func Evaluate(p Predictor, corpus model.LabeledCorpus) (*AccuracyResult, error) {
	if len(corpus) == 0 {
		return nil, fmt.Errorf("evaluate: empty test corpus")
	}
	correct := 0
	for i, ex := range corpus {
		probs, err := p.Predict(ex.Input)
		if err != nil {
			return nil, fmt.Errorf("evaluate example %d: %w", i, err)
		}
		if model.Argmax(probs) == ex.Label {
			correct++
		}
	}
	return &AccuracyResult{
		Correct:  correct,
		Total:    len(corpus),
		Accuracy: float64(correct) / float64(len(corpus)),
	}, nil
}
