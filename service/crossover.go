package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
)

// CrossoverDetectorImpl implements the CrossoverDetector interface.
//
// Crossover detection runs over the merged, deduplicated result of one
// analysis cycle and reports positions where two or more engines produced
// findings. Overlap alone is a notice; disagreement between the engines
// (different severities, contradictory fix suggestions) is critical.
type CrossoverDetectorImpl struct{}

// NewCrossoverDetector creates a new crossover detector
func NewCrossoverDetector() *CrossoverDetectorImpl {
	return &CrossoverDetectorImpl{}
}

type positionKey struct {
	file string
	line int
}

// Detect inspects a merged result set and returns one warning per position
// where findings from different sources overlap. Warnings are ordered by
// (file, line) for deterministic output.
func (d *CrossoverDetectorImpl) Detect(violations []domain.Violation) []domain.CrossoverWarning {
	groups := make(map[positionKey][]domain.Violation)
	for _, v := range violations {
		key := positionKey{file: v.File, line: v.Line}
		groups[key] = append(groups[key], v)
	}

	var warnings []domain.CrossoverWarning
	for key, group := range groups {
		sources := distinctSources(group)
		if len(sources) < 2 {
			continue
		}

		severity, reason := gradeOverlap(group)
		warnings = append(warnings, domain.CrossoverWarning{
			File:     key.file,
			Line:     key.line,
			Sources:  sources,
			Severity: severity,
			Message: fmt.Sprintf("%s report overlapping findings at %s:%d (%s)",
				strings.Join(sources, " and "), key.file, key.line, reason),
		})
	}

	sort.Slice(warnings, func(i, j int) bool {
		if warnings[i].File != warnings[j].File {
			return warnings[i].File < warnings[j].File
		}
		return warnings[i].Line < warnings[j].Line
	})
	return warnings
}

// distinctSources returns the sorted set of engines in the group
func distinctSources(group []domain.Violation) []string {
	seen := make(map[string]bool, len(group))
	var sources []string
	for _, v := range group {
		if !seen[v.Source] {
			seen[v.Source] = true
			sources = append(sources, v.Source)
		}
	}
	sort.Strings(sources)
	return sources
}

// gradeOverlap classifies an overlapping group. Findings that disagree on
// severity rank or carry conflicting fix suggestions are critical; a plain
// overlap is a notice.
func gradeOverlap(group []domain.Violation) (domain.CrossoverSeverity, string) {
	baseRank := group[0].Severity.Rank()
	for _, v := range group[1:] {
		if v.Severity.Rank() != baseRank {
			return domain.CrossoverCritical, "sources disagree on severity"
		}
	}

	var fix string
	for _, v := range group {
		if v.FixSuggestion == "" {
			continue
		}
		if fix == "" {
			fix = v.FixSuggestion
			continue
		}
		if v.FixSuggestion != fix {
			return domain.CrossoverCritical, "sources suggest conflicting fixes"
		}
	}
	return domain.CrossoverNotice, "same position reported by multiple sources"
}
