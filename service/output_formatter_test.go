package service

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/internal/testutil"
	"gopkg.in/yaml.v3"
)

func sampleResult() *domain.OrchestratorResult {
	violations := []domain.Violation{
		testutil.MakeViolation(func(v *domain.Violation) { v.Severity = domain.SeverityError }),
		testutil.MakeViolation(func(v *domain.Violation) {
			v.File = "src/util.ts"
			v.Line = 42
			v.Source = "pattern-lint"
			v.Rule = "line-too-long"
			v.Category = domain.CategoryStyle
			v.Message = "line exceeds 120 characters"
			v.FixSuggestion = "wrap the line"
		}),
	}
	return &domain.OrchestratorResult{
		Violations: violations,
		EngineResults: []domain.EngineResult{
			{EngineName: "debug-artifacts", Success: true, Violations: violations[:1], DurationMs: 12},
			{EngineName: "pattern-lint", Success: true, Violations: violations[1:], DurationMs: 7},
		},
		TotalDurationMs: 20,
		Summary:         summarize(violations),
		Timestamp:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormatJSON(t *testing.T) {
	formatter := NewOutputFormatter()

	output, err := formatter.Format(sampleResult(), domain.OutputFormatJSON, false)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	var envelope ResultJSON
	if err := json.Unmarshal([]byte(output), &envelope); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if envelope.Summary.Total != 2 {
		t.Errorf("Expected total 2, got %d", envelope.Summary.Total)
	}
	if len(envelope.Violations) != 2 {
		t.Errorf("Expected 2 violations, got %d", len(envelope.Violations))
	}
	if len(envelope.Engines) != 2 {
		t.Errorf("Expected 2 engine results, got %d", len(envelope.Engines))
	}
	if envelope.GeneratedAt == "" {
		t.Error("Expected a generation timestamp")
	}
}

func TestFormatYAML(t *testing.T) {
	formatter := NewOutputFormatter()

	output, err := formatter.Format(sampleResult(), domain.OutputFormatYAML, false)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	var envelope ResultJSON
	if err := yaml.Unmarshal([]byte(output), &envelope); err != nil {
		t.Fatalf("Output is not valid YAML: %v", err)
	}
	if envelope.Summary.Total != 2 {
		t.Errorf("Expected total 2, got %d", envelope.Summary.Total)
	}
}

func TestFormatCSV(t *testing.T) {
	formatter := NewOutputFormatter()

	output, err := formatter.Format(sampleResult(), domain.OutputFormatCSV, false)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "file,line,column") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[2], "line-too-long") {
		t.Errorf("Expected rule in row: %s", lines[2])
	}
}

func TestFormatText(t *testing.T) {
	formatter := NewOutputFormatter()

	output, err := formatter.Format(sampleResult(), domain.OutputFormatText, false)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	for _, want := range []string{
		"Violation Analysis Report",
		"Total violations: 2",
		"debug-artifacts",
		"pattern-lint",
		"By severity",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in text output", want)
		}
	}
	if strings.Contains(output, "fix: wrap the line") {
		t.Error("Details must be hidden without showDetails")
	}
}

func TestFormatTextWithDetails(t *testing.T) {
	formatter := NewOutputFormatter()

	output, err := formatter.Format(sampleResult(), domain.OutputFormatText, true)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	if !strings.Contains(output, "line exceeds 120 characters") {
		t.Error("Expected violation message in detailed output")
	}
	if !strings.Contains(output, "fix: wrap the line") {
		t.Error("Expected fix suggestion in detailed output")
	}
	if !strings.Contains(output, "src/util.ts:42") {
		t.Error("Expected location in detailed output")
	}
}

func TestFormatTextReportsFailedEngines(t *testing.T) {
	formatter := NewOutputFormatter()
	result := sampleResult()
	result.EngineResults = append(result.EngineResults, domain.EngineResult{
		EngineName: "typescript",
		Success:    false,
		Error:      "tsc not found",
	})

	output, err := formatter.Format(result, domain.OutputFormatText, false)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(output, "FAILED") || !strings.Contains(output, "tsc not found") {
		t.Error("Expected the failed engine to be reported")
	}
}

func TestFormatTextReportsCrossover(t *testing.T) {
	formatter := NewOutputFormatter()
	result := sampleResult()
	result.CrossoverWarnings = []domain.CrossoverWarning{{
		File:     "src/app.ts",
		Line:     10,
		Sources:  []string{"debug-artifacts", "pattern-lint"},
		Severity: domain.CrossoverNotice,
		Message:  "debug-artifacts and pattern-lint report overlapping findings at src/app.ts:10",
	}}

	output, err := formatter.Format(result, domain.OutputFormatText, false)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.Contains(output, "Crossover warnings:") {
		t.Error("Expected the crossover section")
	}
}

func TestFormatUnsupported(t *testing.T) {
	formatter := NewOutputFormatter()

	_, err := formatter.Format(sampleResult(), "html", false)
	if err == nil {
		t.Fatal("Expected error for unsupported format")
	}
	if !domain.HasErrorCode(err, domain.ErrCodeUnsupportedFormat) {
		t.Errorf("Expected unsupported format code, got %v", err)
	}
}
