// Package report serializes the pipeline outcome: baseline, per-strategy
// metrics, raw measurements, and the selection result.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/shayne-snap/quantpole/internal/pick"
)

// DefaultFileName is where Run writes the report inside the output directory.
const DefaultFileName = "quantization_report.json"

// Summary mirrors the report's summary block.
type Summary struct {
	OriginalModelSizeMB  float64  `json:"original_model_size_mb"`
	OriginalAccuracy     float64  `json:"original_accuracy"`
	OriginalInferenceMs  float64  `json:"original_inference_ms"`
	MethodsTested        []string `json:"methods_tested"`
	BestMethodBySize     string   `json:"best_method_by_size"`
	BestMethodByAccuracy string   `json:"best_method_by_accuracy"`
	SelectedMethod       string   `json:"selected_method"`
	ConstraintsSatisfied bool     `json:"constraints_satisfied"`
}

// MethodResult is one strategy's scorecard in the detailed results block.
type MethodResult struct {
	QuantizedSizeMB    float64 `json:"quantized_size_mb"`
	SizeReductionRatio float64 `json:"size_reduction_ratio"`
	QuantizedAccuracy  float64 `json:"quantized_accuracy"`
	AccuracyRetention  float64 `json:"accuracy_retention"`
	InferenceTimeMs    float64 `json:"inference_time_ms"`
	SpeedupRatio       float64 `json:"speedup_ratio"`
}

// RawMeasurements carries the unreduced benchmark and accuracy numbers for
// one strategy.
type RawMeasurements struct {
	ConversionTimeMs float64 `json:"conversion_time_ms"`
	BenchmarkRuns    int     `json:"benchmark_runs"`
	MinInferenceMs   float64 `json:"min_inference_ms"`
	MaxInferenceMs   float64 `json:"max_inference_ms"`
	StdDevMs         float64 `json:"std_dev_ms"`
	TotalBenchmarkS  float64 `json:"total_benchmark_s"`
	CorrectCount     int     `json:"correct_count"`
	TotalCount       int     `json:"total_count"`
}

// Report is the full structured comparison record. Strategies that failed
// conversion or measurement are absent from DetailedResults; the omission is
// recorded in Failures keyed by strategy name.
type Report struct {
	RunID           string                     `json:"run_id"`
	GeneratedAt     time.Time                  `json:"generated_at"`
	Summary         Summary                    `json:"summary"`
	DetailedResults map[string]MethodResult    `json:"detailed_results"`
	RawMeasurements map[string]RawMeasurements `json:"raw_measurements"`
	Failures        map[string]string          `json:"failures,omitempty"`
}

// Build assembles the report from the baseline, the measured candidates (in
// catalog order), the selection outcome, and any per-strategy failures.
func Build(base pick.Baseline, candidates []pick.Candidate, sel *pick.SelectionResult, failures map[string]string) *Report {
	r := &Report{
		RunID:           uuid.NewString(),
		GeneratedAt:     time.Now().UTC(),
		DetailedResults: make(map[string]MethodResult, len(candidates)),
		RawMeasurements: make(map[string]RawMeasurements, len(candidates)),
	}
	if len(failures) > 0 {
		r.Failures = failures
	}

	methods := make([]string, 0, len(candidates))
	bestBySize, bestByAccuracy := "", ""
	for _, c := range candidates {
		m := sel.Metrics[c.Strategy]
		methods = append(methods, c.Strategy)
		r.DetailedResults[c.Strategy] = MethodResult{
			QuantizedSizeMB:    m.SizeMB,
			SizeReductionRatio: m.SizeReductionRatio,
			QuantizedAccuracy:  m.Accuracy,
			AccuracyRetention:  m.AccuracyRetention,
			InferenceTimeMs:    m.LatencyMs,
			SpeedupRatio:       m.SpeedupRatio,
		}
		r.RawMeasurements[c.Strategy] = RawMeasurements{
			ConversionTimeMs: c.ConversionMs,
			BenchmarkRuns:    c.Latency.Runs,
			MinInferenceMs:   c.Latency.MinMs,
			MaxInferenceMs:   c.Latency.MaxMs,
			StdDevMs:         c.Latency.StdDevMs,
			TotalBenchmarkS:  c.Latency.TotalBenchS,
			CorrectCount:     c.Accuracy.Correct,
			TotalCount:       c.Accuracy.Total,
		}
		if bestBySize == "" || m.SizeMB < sel.Metrics[bestBySize].SizeMB {
			bestBySize = c.Strategy
		}
		if bestByAccuracy == "" || m.AccuracyRetention > sel.Metrics[bestByAccuracy].AccuracyRetention {
			bestByAccuracy = c.Strategy
		}
	}

	r.Summary = Summary{
		OriginalModelSizeMB:  base.SizeMB,
		OriginalAccuracy:     base.Accuracy,
		OriginalInferenceMs:  base.LatencyMs,
		MethodsTested:        methods,
		BestMethodBySize:     bestBySize,
		BestMethodByAccuracy: bestByAccuracy,
		SelectedMethod:       sel.Strategy,
		ConstraintsSatisfied: sel.ConstraintsSatisfied,
	}
	return r
}

// WriteFile writes the report as indented JSON, creating the parent
// directory if needed.
func (r *Report) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report dir: %w", err)
	}
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}

// ReadFile loads a previously written report.
func ReadFile(path string) (*Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}
