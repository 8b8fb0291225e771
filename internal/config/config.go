// Package config loads pipeline settings from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shayne-snap/quantpole/internal/bench"
	"github.com/shayne-snap/quantpole/internal/pick"
	"github.com/shayne-snap/quantpole/internal/pipeline"
)

// Config holds pipeline configuration. Flags override file values.
type Config struct {
	OutputDir       string `yaml:"output_dir"`
	ReportPath      string `yaml:"report_path"`
	BenchmarkRuns   int    `yaml:"benchmark_runs"`
	CalibrationSize int    `yaml:"calibration_size"`

	Constraints struct {
		MaxSizeMB            float64 `yaml:"max_size_mb"`
		MinAccuracyRetention float64 `yaml:"min_accuracy_retention"`
	} `yaml:"constraints"`

	Strategies []string `yaml:"strategies"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from a YAML file and fills in defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	c := &Config{}
	if err := yaml.NewDecoder(file).Decode(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "artifacts"
	}
	if c.BenchmarkRuns == 0 {
		c.BenchmarkRuns = bench.DefaultRuns
	}
	if c.CalibrationSize == 0 {
		c.CalibrationSize = pipeline.DefaultCalibrationSize
	}
	if c.Constraints.MaxSizeMB == 0 {
		c.Constraints.MaxSizeMB = pick.DefaultMaxSizeMB
	}
	if c.Constraints.MinAccuracyRetention == 0 {
		c.Constraints.MinAccuracyRetention = pick.DefaultMinAccuracyRetention
	}
}

// PickConstraints converts the config block into selector constraints.
func (c *Config) PickConstraints() pick.Constraints {
	return pick.Constraints{
		MaxSizeMB:            c.Constraints.MaxSizeMB,
		MinAccuracyRetention: c.Constraints.MinAccuracyRetention,
	}
}
