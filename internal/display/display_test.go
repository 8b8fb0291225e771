package display

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shayne-snap/quantpole/internal/bench"
	"github.com/shayne-snap/quantpole/internal/hardware"
	"github.com/shayne-snap/quantpole/internal/pick"
	"github.com/shayne-snap/quantpole/internal/quant"
	"github.com/shayne-snap/quantpole/internal/report"
)

func testProfile() *hardware.Profile {
	return &hardware.Profile{
		TotalRAMGB:     16,
		AvailableRAMGB: 12,
		CPUCores:       8,
		CPUName:        "Test CPU",
		FreeDiskGB:     200,
	}
}

func testReport() *report.Report {
	base := pick.Baseline{SizeMB: 24, Accuracy: 0.96, LatencyMs: 12}
	cands := []pick.Candidate{
		{
			Strategy:     "dynamic-range",
			SizeMB:       8,
			ConversionMs: 3,
			Latency:      &bench.Result{Runs: 100, MeanMs: 6, MinMs: 5, MaxMs: 9},
			Accuracy:     &bench.AccuracyResult{Correct: 93, Total: 100, Accuracy: 0.93},
		},
	}
	metrics := map[string]pick.Metrics{"dynamic-range": pick.Aggregate(base, cands[0])}
	sel := &pick.SelectionResult{Strategy: "dynamic-range", ConstraintsSatisfied: true, Metrics: metrics}
	return report.Build(base, cands, sel, map[string]string{"float16": "conversion_error"})
}

func TestSystem_Table(t *testing.T) {
	var buf bytes.Buffer
	System(&buf, testProfile(), pick.DefaultConstraints(), false)
	out := buf.String()
	for _, want := range []string{"Test CPU", "8 cores", "20.0 MB", "90%"} {
		if !strings.Contains(out, want) {
			t.Errorf("system output missing %q:\n%s", want, out)
		}
	}
}

func TestSystem_JSON(t *testing.T) {
	var buf bytes.Buffer
	System(&buf, testProfile(), pick.DefaultConstraints(), true)
	var obj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := obj["system"]; !ok {
		t.Error("JSON missing system block")
	}
	if _, ok := obj["suggested_constraints"]; !ok {
		t.Error("JSON missing suggested_constraints block")
	}
}

func TestStrategies_Table(t *testing.T) {
	var buf bytes.Buffer
	Strategies(&buf, quant.List(), false)
	out := buf.String()
	for _, s := range quant.List() {
		if !strings.Contains(out, s.Name) {
			t.Errorf("strategies output missing %q", s.Name)
		}
	}
}

func TestStrategies_JSON(t *testing.T) {
	var buf bytes.Buffer
	Strategies(&buf, quant.List(), true)
	var obj struct {
		Strategies []map[string]interface{} `json:"strategies"`
	}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(obj.Strategies) != len(quant.List()) {
		t.Errorf("JSON has %d strategies, want %d", len(obj.Strategies), len(quant.List()))
	}
}

func TestReport_Table(t *testing.T) {
	var buf bytes.Buffer
	Report(&buf, testReport(), false)
	out := buf.String()
	for _, want := range []string{"dynamic-range", "Selected: dynamic-range", "3.0x", "Skipped strategies", "float16: conversion_error"} {
		if !strings.Contains(out, want) {
			t.Errorf("report output missing %q:\n%s", want, out)
		}
	}
}

func TestReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	Report(&buf, testReport(), true)
	var r report.Report
	if err := json.Unmarshal(buf.Bytes(), &r); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if r.Summary.SelectedMethod != "dynamic-range" {
		t.Errorf("SelectedMethod = %q", r.Summary.SelectedMethod)
	}
	if r.DetailedResults["dynamic-range"].SizeReductionRatio != 3 {
		t.Errorf("detail = %+v", r.DetailedResults["dynamic-range"])
	}
}
