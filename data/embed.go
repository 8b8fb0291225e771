// Package data embeds a small sample model and corpora for demo runs.
package data

import (
	_ "embed"

	"github.com/shayne-snap/quantpole/internal/model"
)

//go:embed sample_model.json
var sampleModelJSON []byte

//go:embed sample_calibration.json
var sampleCalibrationJSON []byte

//go:embed sample_test.json
var sampleTestJSON []byte

// SampleRun returns the embedded demo model and corpora, ready for the
// pipeline.
func SampleRun() (model.TrainedModel, model.Corpus, model.LabeledCorpus, error) {
	m, err := model.Parse(sampleModelJSON)
	if err != nil {
		return nil, nil, nil, err
	}
	calib, err := model.ParseCorpus(sampleCalibrationJSON)
	if err != nil {
		return nil, nil, nil, err
	}
	test, err := model.ParseLabeledCorpus(sampleTestJSON)
	if err != nil {
		return nil, nil, nil, err
	}
	return m, calib, test, nil
}
