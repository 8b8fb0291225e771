// Package pick combines per-candidate measurements into baseline-relative
// ratios and runs the constrained selection with its best-effort fallback.
package pick

import (
	"errors"

	"github.com/shayne-snap/quantpole/internal/bench"
)

// Baseline is the uncompressed model's measurements, computed exactly once
// per pipeline run and shared by every candidate's ratios.
type Baseline struct {
	SizeMB    float64
	Accuracy  float64
	LatencyMs float64
}

// Candidate is one successfully converted and measured strategy.
type Candidate struct {
	Strategy     string
	SizeMB       float64
	ConversionMs float64
	Latency      *bench.Result
	Accuracy     *bench.AccuracyResult
}

// Metrics is the comparative scorecard for one strategy, all ratios relative
// to the shared baseline.
type Metrics struct {
	SizeMB             float64
	SizeReductionRatio float64
	Accuracy           float64
	AccuracyRetention  float64
	LatencyMs          float64
	SpeedupRatio       float64
}

// Constraints are the caller-supplied acceptance thresholds. A zero or
// negative value disables that constraint.
type Constraints struct {
	MaxSizeMB            float64
	MinAccuracyRetention float64
}

// Default deployment targets for phone-class devices.
const (
	DefaultMaxSizeMB            = 20.0
	DefaultMinAccuracyRetention = 0.90
)

// DefaultConstraints returns the standard mobile deployment thresholds.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxSizeMB:            DefaultMaxSizeMB,
		MinAccuracyRetention: DefaultMinAccuracyRetention,
	}
}

// SelectionResult is the outcome of the constrained pick. When no candidate
// meets both constraints the globally smallest candidate is chosen and
// ConstraintsSatisfied is false; callers must check it before trusting the
// chosen build.
type SelectionResult struct {
	Strategy             string
	ConstraintsSatisfied bool
	Metrics              map[string]Metrics
}

// ErrNoViableArtifact means zero strategies produced a usable candidate.
var ErrNoViableArtifact = errors.New("no compression strategy produced a viable artifact")

// Aggregate derives a candidate's scorecard from the shared baseline.
func Aggregate(base Baseline, c Candidate) Metrics {
	return Metrics{
		SizeMB:             c.SizeMB,
		SizeReductionRatio: base.SizeMB / c.SizeMB,
		Accuracy:           c.Accuracy.Accuracy,
		AccuracyRetention:  c.Accuracy.Accuracy / base.Accuracy,
		LatencyMs:          c.Latency.MeanMs,
		SpeedupRatio:       base.LatencyMs / c.Latency.MeanMs,
	}
}

// Select picks the best candidate subject to the constraints. Candidates must
// be in catalog enumeration order; ties on size keep the earlier entry.
// Among compliant candidates the smallest wins. When none complies, the
// globally smallest candidate wins with ConstraintsSatisfied false.
func Select(ordered []Candidate, metrics map[string]Metrics, cons Constraints) (*SelectionResult, error) {
	if len(ordered) == 0 {
		return nil, ErrNoViableArtifact
	}

	satisfies := func(c Candidate) bool {
		m := metrics[c.Strategy]
		if cons.MaxSizeMB > 0 && c.SizeMB > cons.MaxSizeMB {
			return false
		}
		if cons.MinAccuracyRetention > 0 && m.AccuracyRetention < cons.MinAccuracyRetention {
			return false
		}
		return true
	}

	smallest := func(cands []Candidate) Candidate {
		best := cands[0]
		for _, c := range cands[1:] {
			if c.SizeMB < best.SizeMB {
				best = c
			}
		}
		return best
	}

	var compliant []Candidate
	for _, c := range ordered {
		if satisfies(c) {
			compliant = append(compliant, c)
		}
	}

	if len(compliant) > 0 {
		return &SelectionResult{
			Strategy:             smallest(compliant).Strategy,
			ConstraintsSatisfied: true,
			Metrics:              metrics,
		}, nil
	}
	return &SelectionResult{
		Strategy:             smallest(ordered).Strategy,
		ConstraintsSatisfied: false,
		Metrics:              metrics,
	}, nil
}
