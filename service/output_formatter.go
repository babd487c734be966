package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/internal/version"
	"gopkg.in/yaml.v3"
)

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct{}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{}
}

// ResultJSON wraps an OrchestratorResult with output metadata
type ResultJSON struct {
	Version     string                     `json:"version" yaml:"version"`
	GeneratedAt string                     `json:"generated_at" yaml:"generated_at"`
	DurationMs  int64                      `json:"duration_ms" yaml:"duration_ms"`
	Summary     domain.ViolationSummary    `json:"summary" yaml:"summary"`
	Violations  []domain.Violation         `json:"violations" yaml:"violations"`
	Engines     []domain.EngineResult      `json:"engines" yaml:"engines"`
	Crossover   []domain.CrossoverWarning  `json:"crossover,omitempty" yaml:"crossover,omitempty"`
	Warnings    []string                   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Format formats the result as a string
func (f *OutputFormatterImpl) Format(result *domain.OrchestratorResult, format domain.OutputFormat, showDetails bool) (string, error) {
	var sb strings.Builder
	if err := f.Write(result, format, showDetails, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Write formats the result and writes it to the writer
func (f *OutputFormatterImpl) Write(result *domain.OrchestratorResult, format domain.OutputFormat, showDetails bool, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return f.writeJSON(result, writer)
	case domain.OutputFormatYAML:
		return f.writeYAML(result, writer)
	case domain.OutputFormatCSV:
		return f.writeCSV(result, writer)
	case domain.OutputFormatText:
		return f.writeText(result, showDetails, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// wrapResult builds the metadata envelope shared by JSON and YAML output
func wrapResult(result *domain.OrchestratorResult) ResultJSON {
	return ResultJSON{
		Version:     version.Version,
		GeneratedAt: result.Timestamp.Format(time.RFC3339),
		DurationMs:  result.TotalDurationMs,
		Summary:     result.Summary,
		Violations:  result.Violations,
		Engines:     result.EngineResults,
		Crossover:   result.CrossoverWarnings,
		Warnings:    result.Warnings,
	}
}

// writeJSON writes the result as indented JSON
func (f *OutputFormatterImpl) writeJSON(result *domain.OrchestratorResult, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(wrapResult(result)); err != nil {
		return domain.NewOutputError("failed to encode JSON output", err)
	}
	return nil
}

// writeYAML writes the result as YAML
func (f *OutputFormatterImpl) writeYAML(result *domain.OrchestratorResult, writer io.Writer) error {
	encoder := yaml.NewEncoder(writer)
	defer func() { _ = encoder.Close() }()
	if err := encoder.Encode(wrapResult(result)); err != nil {
		return domain.NewOutputError("failed to encode YAML output", err)
	}
	return nil
}

// writeCSV writes one row per violation
func (f *OutputFormatterImpl) writeCSV(result *domain.OrchestratorResult, writer io.Writer) error {
	w := csv.NewWriter(writer)
	header := []string{"file", "line", "column", "severity", "category", "source", "rule", "message"}
	if err := w.Write(header); err != nil {
		return domain.NewOutputError("failed to write CSV header", err)
	}
	for _, v := range result.Violations {
		row := []string{
			v.File,
			strconv.Itoa(v.Line),
			strconv.Itoa(v.Column),
			string(v.Severity),
			string(v.Category),
			v.Source,
			v.Rule,
			v.Message,
		}
		if err := w.Write(row); err != nil {
			return domain.NewOutputError("failed to write CSV row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return domain.NewOutputError("failed to flush CSV output", err)
	}
	return nil
}

// writeText writes the human-readable report
func (f *OutputFormatterImpl) writeText(result *domain.OrchestratorResult, showDetails bool, writer io.Writer) error {
	var sb strings.Builder

	sb.WriteString("Violation Analysis Report\n")
	sb.WriteString("=========================\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n", result.Timestamp.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Duration:  %dms\n\n", result.TotalDurationMs))

	sb.WriteString("Engines:\n")
	for _, er := range result.EngineResults {
		status := "ok"
		detail := fmt.Sprintf("%d violations", len(er.Violations))
		if !er.Success {
			status = "FAILED"
			detail = er.Error
		}
		sb.WriteString(fmt.Sprintf("  %-18s %-6s %s (%dms)\n", er.EngineName, status, detail, er.DurationMs))
	}

	sb.WriteString(fmt.Sprintf("\nTotal violations: %d\n", result.Summary.Total))
	writeHistogram(&sb, "By severity", severityHistogram(result.Summary.BySeverity))
	writeHistogram(&sb, "By source", stringHistogram(result.Summary.BySource))
	writeHistogram(&sb, "By category", categoryHistogram(result.Summary.ByCategory))

	if len(result.Summary.TopFiles) > 0 {
		sb.WriteString("\nTop files:\n")
		for _, fc := range result.Summary.TopFiles {
			sb.WriteString(fmt.Sprintf("  %4d  %s\n", fc.Count, fc.File))
		}
	}

	if len(result.CrossoverWarnings) > 0 {
		sb.WriteString("\nCrossover warnings:\n")
		for _, w := range result.CrossoverWarnings {
			sb.WriteString(fmt.Sprintf("  [%s] %s\n", w.Severity, w.Message))
		}
	}

	if showDetails && len(result.Violations) > 0 {
		sb.WriteString("\nViolations:\n")
		for _, v := range result.Violations {
			sb.WriteString(fmt.Sprintf("  %s %s [%s/%s] %s\n",
				severityGlyph(v.Severity), v.Location(), v.Source, v.Category, v.Message))
			if v.FixSuggestion != "" {
				sb.WriteString(fmt.Sprintf("      fix: %s\n", v.FixSuggestion))
			}
		}
	}

	if len(result.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, w := range result.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", w))
		}
	}

	if _, err := io.WriteString(writer, sb.String()); err != nil {
		return domain.NewOutputError("failed to write text output", err)
	}
	return nil
}

// severityGlyph returns the text marker for a severity level
func severityGlyph(s domain.Severity) string {
	switch s {
	case domain.SeverityError:
		return "✗"
	case domain.SeverityWarn:
		return "!"
	default:
		return "·"
	}
}

// histogramEntry is one label/count pair ready for printing
type histogramEntry struct {
	label string
	count int
}

// writeHistogram prints a titled count list, skipping empty histograms
func writeHistogram(sb *strings.Builder, title string, entries []histogramEntry) {
	if len(entries) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n%s:\n", title))
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("  %-14s %d\n", e.label, e.count))
	}
}

// severityHistogram orders severity counts by rank
func severityHistogram(counts map[domain.Severity]int) []histogramEntry {
	entries := make([]histogramEntry, 0, len(counts))
	for s, c := range counts {
		entries = append(entries, histogramEntry{label: string(s), count: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		return domain.Severity(entries[i].label).Rank() < domain.Severity(entries[j].label).Rank()
	})
	return entries
}

// stringHistogram orders counts descending, then by label
func stringHistogram(counts map[string]int) []histogramEntry {
	entries := make([]histogramEntry, 0, len(counts))
	for k, c := range counts {
		entries = append(entries, histogramEntry{label: k, count: c})
	}
	sortHistogram(entries)
	return entries
}

// categoryHistogram orders category counts descending, then by label
func categoryHistogram(counts map[domain.ViolationCategory]int) []histogramEntry {
	entries := make([]histogramEntry, 0, len(counts))
	for k, c := range counts {
		entries = append(entries, histogramEntry{label: string(k), count: c})
	}
	sortHistogram(entries)
	return entries
}

func sortHistogram(entries []histogramEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].label < entries[j].label
	})
}
