package engine

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
)

// Rules reported by the pattern lint engine
const (
	RuleAnnotationMarker = "annotation-marker"
	RuleLineTooLong      = "line-too-long"
)

// PatternLintEngine scans source lines for annotation markers (TODO, FIXME,
// ...) and lines exceeding the configured length.
type PatternLintEngine struct {
	name          string
	priority      int
	enabled       bool
	maxLineLength int
	markers       []string
	files         domain.FileCollector
}

// NewPatternLintEngine creates the pattern lint engine. maxLineLength 0
// disables the line length rule; an empty marker list disables the
// annotation rule.
func NewPatternLintEngine(files domain.FileCollector, priority int, enabled bool, maxLineLength int, markers []string) *PatternLintEngine {
	return &PatternLintEngine{
		name:          "pattern-lint",
		priority:      priority,
		enabled:       enabled,
		maxLineLength: maxLineLength,
		markers:       markers,
		files:         files,
	}
}

// Name implements domain.Engine
func (e *PatternLintEngine) Name() string { return e.name }

// Priority implements domain.Engine
func (e *PatternLintEngine) Priority() int { return e.priority }

// Enabled implements domain.Engine
func (e *PatternLintEngine) Enabled() bool { return e.enabled }

// Analyze scans every collected file line by line. opts["rule"] restricts
// the run to a single rule.
func (e *PatternLintEngine) Analyze(ctx context.Context, targetPath string, opts map[string]string) ([]domain.Violation, error) {
	files, err := e.files.CollectSourceFiles([]string{targetPath}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to collect source files: %w", err)
	}

	ruleFilter := opts["rule"]
	var violations []domain.Violation
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := e.scanFile(file, ruleFilter)
		if err != nil {
			continue
		}
		violations = append(violations, found...)
	}
	return violations, nil
}

// scanFile applies both line rules to one file
func (e *PatternLintEngine) scanFile(path, ruleFilter string) ([]domain.Violation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var violations []domain.Violation
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if ruleFilter == "" || ruleFilter == RuleAnnotationMarker {
			if marker, col := e.findMarker(line); marker != "" {
				violations = append(violations, domain.Violation{
					File:     path,
					Line:     lineNo,
					Column:   col,
					Code:     strings.TrimSpace(line),
					Category: domain.CategoryAnnotation,
					Severity: domain.SeverityInfo,
					Source:   e.name,
					Rule:     RuleAnnotationMarker,
					Message:  fmt.Sprintf("%s marker left in code", marker),
				})
			}
		}

		if ruleFilter == "" || ruleFilter == RuleLineTooLong {
			if e.maxLineLength > 0 && len(line) > e.maxLineLength {
				violations = append(violations, domain.Violation{
					File:          path,
					Line:          lineNo,
					Code:          strings.TrimSpace(line[:e.maxLineLength]),
					Category:      domain.CategoryStyle,
					Severity:      domain.SeverityWarn,
					Source:        e.name,
					Rule:          RuleLineTooLong,
					Message:       fmt.Sprintf("line is %d characters (limit %d)", len(line), e.maxLineLength),
					FixSuggestion: "break the line up or extract a variable",
				})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return violations, nil
}

// findMarker returns the first marker found in the line and its 1-based
// column, or ("", 0) when the line is clean
func (e *PatternLintEngine) findMarker(line string) (string, int) {
	for _, marker := range e.markers {
		if idx := strings.Index(line, marker); idx >= 0 {
			return marker, idx + 1
		}
	}
	return "", 0
}
