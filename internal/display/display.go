// Package display handles CLI table and JSON output for the strategy
// catalog, the host profile, and pipeline reports.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/template"

	"github.com/olekukonko/tablewriter"

	"github.com/shayne-snap/quantpole/internal/hardware"
	"github.com/shayne-snap/quantpole/internal/pick"
	"github.com/shayne-snap/quantpole/internal/quant"
	"github.com/shayne-snap/quantpole/internal/report"
)

var (
	systemTpl  *template.Template
	summaryTpl *template.Template
)

func init() {
	systemTpl = template.Must(template.New("system").Parse(
		`
=== Host Profile ===
CPU: {{.CPUName}} ({{.CPUCores}} cores)
Total RAM: {{.TotalRAMGB}}
Available RAM: {{.AvailableRAMGB}}
Free Disk: {{.FreeDiskGB}}

Suggested constraints:
  Max artifact size: {{.MaxSizeMB}}
  Min accuracy retention: {{.MinRetention}}

`))
	summaryTpl = template.Must(template.New("summary").Parse(
		`
=== Quantization Report ===
Original model: {{.SizeMB}} MB, accuracy {{.Accuracy}}, {{.LatencyMs}} ms/inference
Methods tested: {{.Methods}}
Best by size: {{.BestBySize}}    Best by accuracy: {{.BestByAccuracy}}
Selected: {{.Selected}} (constraints satisfied: {{.Satisfied}})

`))
}

// System prints the host profile and its suggested constraints.
func System(out io.Writer, p *hardware.Profile, cons pick.Constraints, useJSON bool) {
	if useJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]interface{}{
			"system": p,
			"suggested_constraints": map[string]interface{}{
				"max_size_mb":            round2(cons.MaxSizeMB),
				"min_accuracy_retention": cons.MinAccuracyRetention,
			},
		})
		return
	}
	data := struct {
		CPUName                                string
		CPUCores                               int
		TotalRAMGB, AvailableRAMGB, FreeDiskGB string
		MaxSizeMB, MinRetention                string
	}{
		CPUName:        p.CPUName,
		CPUCores:       p.CPUCores,
		TotalRAMGB:     fmt.Sprintf("%.2f GB", p.TotalRAMGB),
		AvailableRAMGB: fmt.Sprintf("%.2f GB", p.AvailableRAMGB),
		FreeDiskGB:     fmt.Sprintf("%.2f GB", p.FreeDiskGB),
		MaxSizeMB:      fmt.Sprintf("%.1f MB", cons.MaxSizeMB),
		MinRetention:   fmt.Sprintf("%.0f%%", cons.MinAccuracyRetention*100),
	}
	_ = systemTpl.Execute(out, data)
}

// Strategies prints the compression strategy catalog.
func Strategies(out io.Writer, strategies []quant.Strategy, useJSON bool) {
	if useJSON {
		rows := make([]map[string]interface{}, 0, len(strategies))
		for _, s := range strategies {
			rows = append(rows, map[string]interface{}{
				"name":              s.Name,
				"target_type":       s.TargetType.String(),
				"needs_calibration": s.NeedsCalibration,
				"fallback":          s.Fallback,
				"description":       s.Description,
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]interface{}{"strategies": rows})
		return
	}
	fmt.Fprintln(out, "\n=== Compression Strategies ===")
	tbl := tablewriter.NewWriter(out)
	tbl.Header("Strategy", "Target", "Calibration", "Fallback", "Description")
	for _, s := range strategies {
		calib, fb := "no", "-"
		if s.NeedsCalibration {
			calib = "yes"
		}
		if s.Fallback != "" {
			fb = s.Fallback
		}
		tbl.Append([]string{s.Name, s.TargetType.String(), calib, fb, s.Description})
	}
	_ = tbl.Render()
}

// Report prints a pipeline report (table or JSON).
func Report(out io.Writer, r *report.Report, useJSON bool) {
	if useJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(r)
		return
	}
	data := struct {
		SizeMB, Accuracy, LatencyMs                     string
		Methods                                         string
		BestBySize, BestByAccuracy, Selected, Satisfied string
	}{
		SizeMB:         fmt.Sprintf("%.2f", r.Summary.OriginalModelSizeMB),
		Accuracy:       fmt.Sprintf("%.3f", r.Summary.OriginalAccuracy),
		LatencyMs:      fmt.Sprintf("%.3f", r.Summary.OriginalInferenceMs),
		Methods:        fmt.Sprintf("%d", len(r.Summary.MethodsTested)),
		BestBySize:     r.Summary.BestMethodBySize,
		BestByAccuracy: r.Summary.BestMethodByAccuracy,
		Selected:       r.Summary.SelectedMethod,
		Satisfied:      fmt.Sprintf("%t", r.Summary.ConstraintsSatisfied),
	}
	_ = summaryTpl.Execute(out, data)

	tbl := tablewriter.NewWriter(out)
	tbl.Header("Method", "Size MB", "Reduction", "Accuracy", "Retention", "ms/run", "Speedup")
	for _, method := range r.Summary.MethodsTested {
		d := r.DetailedResults[method]
		tbl.Append([]string{
			method,
			fmt.Sprintf("%.3f", d.QuantizedSizeMB),
			fmt.Sprintf("%.1fx", d.SizeReductionRatio),
			fmt.Sprintf("%.3f", d.QuantizedAccuracy),
			fmt.Sprintf("%.1f%%", d.AccuracyRetention*100),
			fmt.Sprintf("%.3f", d.InferenceTimeMs),
			fmt.Sprintf("%.2fx", d.SpeedupRatio),
		})
	}
	_ = tbl.Render()

	if len(r.Failures) > 0 {
		fmt.Fprintln(out, "\nSkipped strategies:")
		names := make([]string, 0, len(r.Failures))
		for name := range r.Failures {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "  %s: %s\n", name, r.Failures[name])
		}
	}
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
