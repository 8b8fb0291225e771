package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shayne-snap/quantpole/data"
	"github.com/shayne-snap/quantpole/internal/config"
	"github.com/shayne-snap/quantpole/internal/display"
	"github.com/shayne-snap/quantpole/internal/model"
	"github.com/shayne-snap/quantpole/internal/pipeline"
)

// ErrConstraintsNotSatisfied makes the process exit non-zero when only a
// best-effort selection was possible. The report is still written first.
var ErrConstraintsNotSatisfied = errors.New("selected build does not satisfy all deployment constraints")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full compression-strategy evaluation and selection pipeline",
	RunE:  runPipeline,
}

func init() {
	runCmd.Flags().String("model", "", "Trained model JSON file")
	runCmd.Flags().String("calibration", "", "Calibration corpus JSON file")
	runCmd.Flags().String("test", "", "Held-out test corpus JSON file")
	runCmd.Flags().String("out", "", "Output directory for candidate artifacts and report")
	runCmd.Flags().String("report", "", "Report path (default <out>/quantization_report.json)")
	runCmd.Flags().String("config", "", "YAML config file")
	runCmd.Flags().Float64("max-size-mb", 0, "Maximum artifact size in MB (0 = config/default)")
	runCmd.Flags().Float64("min-accuracy-retention", 0, "Minimum accuracy retention ratio (0 = config/default)")
	runCmd.Flags().Int("runs", 0, "Benchmark run count (0 = config/default)")
	runCmd.Flags().Int("calibration-size", 0, "Calibration sample size (0 = config/default)")
	runCmd.Flags().StringSlice("strategy", nil, "Strategy subset to evaluate (default: full catalog)")
	runCmd.Flags().Bool("demo", false, "Run against the embedded sample model and corpora")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	m, calibCorpus, testCorpus, err := loadInputs(cmd)
	if err != nil {
		return err
	}

	log, err := buildLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	opts := pipeline.Options{
		Constraints:     cfg.PickConstraints(),
		BenchmarkRuns:   cfg.BenchmarkRuns,
		CalibrationSize: cfg.CalibrationSize,
		OutputDir:       cfg.OutputDir,
		ReportPath:      cfg.ReportPath,
		Strategies:      cfg.Strategies,
		Logger:          log,
	}

	sel, rep, err := pipeline.Run(m, calibCorpus, testCorpus, opts)
	if err != nil {
		return err
	}
	display.Report(os.Stdout, rep, globalJSON)
	if !sel.ConstraintsSatisfied {
		return ErrConstraintsNotSatisfied
	}
	return nil
}

// loadRunConfig resolves the effective configuration: file (or defaults),
// then flag overrides.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	if cfgPath != "" {
		c, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = config.Default()
	}

	if cmd.Flags().Changed("out") {
		cfg.OutputDir, _ = cmd.Flags().GetString("out")
	}
	if cmd.Flags().Changed("report") {
		cfg.ReportPath, _ = cmd.Flags().GetString("report")
	}
	if v, _ := cmd.Flags().GetFloat64("max-size-mb"); v > 0 {
		cfg.Constraints.MaxSizeMB = v
	}
	if v, _ := cmd.Flags().GetFloat64("min-accuracy-retention"); v > 0 {
		cfg.Constraints.MinAccuracyRetention = v
	}
	if v, _ := cmd.Flags().GetInt("runs"); v > 0 {
		cfg.BenchmarkRuns = v
	}
	if v, _ := cmd.Flags().GetInt("calibration-size"); v > 0 {
		cfg.CalibrationSize = v
	}
	if v, _ := cmd.Flags().GetStringSlice("strategy"); len(v) > 0 {
		cfg.Strategies = v
	}
	return cfg, nil
}

func loadInputs(cmd *cobra.Command) (model.TrainedModel, model.Corpus, model.LabeledCorpus, error) {
	demo, _ := cmd.Flags().GetBool("demo")
	if demo {
		return data.SampleRun()
	}

	modelPath, _ := cmd.Flags().GetString("model")
	calibPath, _ := cmd.Flags().GetString("calibration")
	testPath, _ := cmd.Flags().GetString("test")
	if modelPath == "" || testPath == "" {
		return nil, nil, nil, fmt.Errorf("--model and --test are required (or use --demo)")
	}

	m, err := model.Load(modelPath)
	if err != nil {
		return nil, nil, nil, err
	}
	testCorpus, err := model.LoadLabeledCorpus(testPath)
	if err != nil {
		return nil, nil, nil, err
	}
	var calibCorpus model.Corpus
	if calibPath != "" {
		calibCorpus, err = model.LoadCorpus(calibPath)
		if err != nil {
			return nil, nil, nil, err
		}
	} else {
		calibCorpus = testCorpus.Inputs()
	}
	return m, calibCorpus, testCorpus, nil
}

func buildLogger() (*zap.Logger, error) {
	if globalQuiet {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}
