package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// Corpus is an ordered sequence of preprocessed feature vectors, used for
// calibration.
type Corpus [][]float32

// Example is one held-out test item: a preprocessed input and its true class.
type Example struct {
	Input []float32 `json:"input"`
	Label int       `json:"label"`
}

// LabeledCorpus is the ordered held-out test set.
type LabeledCorpus []Example

// LoadCorpus reads a calibration corpus from a JSON array of feature vectors.
func LoadCorpus(path string) (Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return ParseCorpus(raw)
}

// ParseCorpus decodes a calibration corpus from JSON bytes.
func ParseCorpus(raw []byte) (Corpus, error) {
	var c Corpus
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	if len(c) == 0 {
		return nil, fmt.Errorf("parse corpus: no inputs")
	}
	return c, nil
}

// LoadLabeledCorpus reads a test corpus from a JSON array of
// {"input": [...], "label": n} objects.
func LoadLabeledCorpus(path string) (LabeledCorpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test corpus: %w", err)
	}
	return ParseLabeledCorpus(raw)
}

// ParseLabeledCorpus decodes a test corpus from JSON bytes.
func ParseLabeledCorpus(raw []byte) (LabeledCorpus, error) {
	var c LabeledCorpus
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse test corpus: %w", err)
	}
	if len(c) == 0 {
		return nil, fmt.Errorf("parse test corpus: no examples")
	}
	return c, nil
}

// Inputs strips the labels, e.g. to reuse a test corpus for calibration.
func (c LabeledCorpus) Inputs() Corpus {
	out := make(Corpus, 0, len(c))
	for _, e := range c {
		out = append(out, e.Input)
	}
	return out
}
