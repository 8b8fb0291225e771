// Package pipeline runs the full compression-strategy evaluation: baseline
// measurement, per-strategy convert/benchmark/evaluate with local failure
// isolation, constrained selection, and report generation.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/shayne-snap/quantpole/internal/bench"
	"github.com/shayne-snap/quantpole/internal/convert"
	"github.com/shayne-snap/quantpole/internal/model"
	"github.com/shayne-snap/quantpole/internal/pick"
	"github.com/shayne-snap/quantpole/internal/quant"
	"github.com/shayne-snap/quantpole/internal/report"
)

// DefaultCalibrationSize is how many corpus inputs feed calibration when the
// caller does not override it.
const DefaultCalibrationSize = 100

// Failure kinds recorded in the report for strategies omitted from results.
const (
	FailureInsufficientCalibration = "insufficient_calibration_data"
	FailureMissingCalibration      = "missing_calibration_data"
	FailureConversion              = "conversion_error"
	FailureMeasurement             = "benchmark_or_evaluation_error"
)

// Options tune one pipeline run. Zero values fall back to defaults.
type Options struct {
	Constraints     pick.Constraints
	BenchmarkRuns   int
	CalibrationSize int
	OutputDir       string
	ReportPath      string
	Strategies      []string
	Logger          *zap.Logger
}

// Run executes the pipeline over every catalog strategy (or the requested
// subset) and returns the selection outcome and the full report. Per-strategy
// failures are logged and recorded but do not abort sibling strategies;
// pick.ErrNoViableArtifact is returned when nothing converted.
func Run(m model.TrainedModel, calibCorpus model.Corpus, testCorpus model.LabeledCorpus, opts Options) (*pick.SelectionResult, *report.Report, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if len(testCorpus) == 0 {
		return nil, nil, fmt.Errorf("pipeline: empty test corpus")
	}
	runs := opts.BenchmarkRuns
	if runs <= 0 {
		runs = bench.DefaultRuns
	}
	calibSize := opts.CalibrationSize
	if calibSize <= 0 {
		calibSize = DefaultCalibrationSize
	}

	strategies, err := resolveStrategies(opts.Strategies)
	if err != nil {
		return nil, nil, err
	}

	// One fixed representative input, reused for every latency measurement.
	sampleInput := testCorpus[0].Input

	base, err := measureBaseline(m, testCorpus, sampleInput, runs)
	if err != nil {
		return nil, nil, fmt.Errorf("baseline: %w", err)
	}
	log.Info("baseline measured",
		zap.Float64("size_mb", base.SizeMB),
		zap.Float64("accuracy", base.Accuracy),
		zap.Float64("latency_ms", base.LatencyMs))

	// The calibration sample is a deterministic prefix, shared by every
	// calibration-requiring strategy in the run.
	var calibSample model.Corpus
	var calibErr error
	calibReady := false

	var candidates []pick.Candidate
	metrics := make(map[string]pick.Metrics)
	failures := make(map[string]string)

	for _, strat := range strategies {
		var calib model.Corpus
		if strat.NeedsCalibration {
			if !calibReady {
				calibSample, calibErr = quant.Sample(calibCorpus, calibSize)
				calibReady = true
			}
			if calibErr != nil {
				log.Warn("strategy skipped",
					zap.String("strategy", strat.Name),
					zap.Error(calibErr))
				failures[strat.Name] = failureKind(calibErr)
				continue
			}
			calib = calibSample
		}

		cand, err := runStrategy(m, strat, calib, testCorpus, sampleInput, runs, opts.OutputDir, log)
		if err != nil {
			log.Warn("strategy skipped",
				zap.String("strategy", strat.Name),
				zap.Error(err))
			failures[strat.Name] = failureKind(err)
			continue
		}
		candidates = append(candidates, *cand)
		cm := pick.Aggregate(*base, *cand)
		metrics[strat.Name] = cm
		log.Info("strategy evaluated",
			zap.String("strategy", strat.Name),
			zap.Float64("size_mb", cm.SizeMB),
			zap.Float64("size_reduction", cm.SizeReductionRatio),
			zap.Float64("accuracy", cm.Accuracy),
			zap.Float64("accuracy_retention", cm.AccuracyRetention),
			zap.Float64("speedup", cm.SpeedupRatio))
	}

	sel, err := pick.Select(candidates, metrics, opts.Constraints)
	if err != nil {
		return nil, nil, err
	}
	if !sel.ConstraintsSatisfied {
		log.Warn("no strategy satisfies all constraints, best-effort selection",
			zap.String("strategy", sel.Strategy))
	} else {
		log.Info("strategy selected", zap.String("strategy", sel.Strategy))
	}

	rep := report.Build(*base, candidates, sel, failures)
	if path := reportPath(opts); path != "" {
		if err := rep.WriteFile(path); err != nil {
			return nil, nil, err
		}
		log.Info("report written", zap.String("path", path))
	}
	return sel, rep, nil
}

func resolveStrategies(names []string) ([]quant.Strategy, error) {
	if len(names) == 0 {
		return quant.List(), nil
	}
	out := make([]quant.Strategy, 0, len(names))
	for _, n := range names {
		s, err := quant.Get(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func measureBaseline(m model.TrainedModel, testCorpus model.LabeledCorpus, sampleInput []float32, runs int) (*pick.Baseline, error) {
	acc, err := bench.Evaluate(m, testCorpus)
	if err != nil {
		return nil, err
	}
	lat, err := bench.Benchmark(m, sampleInput, runs)
	if err != nil {
		return nil, err
	}
	return &pick.Baseline{
		SizeMB:    m.SizeMB(),
		Accuracy:  acc.Accuracy,
		LatencyMs: lat.MeanMs,
	}, nil
}

func runStrategy(m model.TrainedModel, strat quant.Strategy, calib model.Corpus, testCorpus model.LabeledCorpus, sampleInput []float32, runs int, outputDir string, log *zap.Logger) (*pick.Candidate, error) {
	artifact, err := convert.Convert(m, strat, calib)
	if err != nil {
		return nil, err
	}
	if artifact.AppliedVariant != strat.Name {
		log.Info("conversion fell back to relaxed variant",
			zap.String("strategy", strat.Name),
			zap.String("variant", artifact.AppliedVariant))
	}
	if outputDir != "" {
		if err := writeArtifact(outputDir, artifact); err != nil {
			return nil, err
		}
	}
	predictor, err := convert.Decode(artifact)
	if err != nil {
		return nil, err
	}
	lat, err := bench.Benchmark(predictor, sampleInput, runs)
	if err != nil {
		return nil, err
	}
	acc, err := bench.Evaluate(predictor, testCorpus)
	if err != nil {
		return nil, err
	}
	return &pick.Candidate{
		Strategy:     strat.Name,
		SizeMB:       artifact.SizeMB(),
		ConversionMs: artifact.ConversionMs,
		Latency:      lat,
		Accuracy:     acc,
	}, nil
}

// ArtifactFileName returns the output file name for a strategy's artifact.
func ArtifactFileName(strategy string) string {
	return "mobile_classifier_" + strategy + ".qmod"
}

func writeArtifact(dir string, a *convert.Artifact) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact dir: %w", err)
	}
	path := filepath.Join(dir, ArtifactFileName(a.Strategy))
	if err := os.WriteFile(path, a.Bytes, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

func reportPath(opts Options) string {
	if opts.ReportPath != "" {
		return opts.ReportPath
	}
	if opts.OutputDir != "" {
		return filepath.Join(opts.OutputDir, report.DefaultFileName)
	}
	return ""
}

func failureKind(err error) string {
	var insufficient *quant.InsufficientCalibrationDataError
	var missing *convert.MissingCalibrationDataError
	var conv *convert.ConversionError
	switch {
	case errors.As(err, &insufficient):
		return FailureInsufficientCalibration
	case errors.As(err, &missing):
		return FailureMissingCalibration
	case errors.As(err, &conv):
		return FailureConversion
	default:
		return FailureMeasurement
	}
}
