package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strconv"
)

// Severity represents the severity level of a violation
type Severity string

const (
	// SeverityError represents a violation that must be fixed
	SeverityError Severity = "error"

	// SeverityWarn represents a violation that should be reviewed
	SeverityWarn Severity = "warn"

	// SeverityInfo represents an informational finding
	SeverityInfo Severity = "info"
)

// Rank returns the sort rank of the severity (error sorts before warn,
// warn before info). Unknown severities rank last.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarn:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// IsValid reports whether the severity is one of the known levels
func (s Severity) IsValid() bool {
	return s == SeverityError || s == SeverityWarn || s == SeverityInfo
}

// ViolationCategory classifies the kind of problem a violation describes
type ViolationCategory string

const (
	// CategoryType represents type-system findings
	CategoryType ViolationCategory = "type"

	// CategoryLint represents linter rule findings
	CategoryLint ViolationCategory = "lint"

	// CategoryDeadCode represents unused or unreachable code findings
	CategoryDeadCode ViolationCategory = "dead-code"

	// CategoryDuplication represents duplicated code findings
	CategoryDuplication ViolationCategory = "duplication"

	// CategoryDebug represents leftover debug artifacts (console calls, debugger statements)
	CategoryDebug ViolationCategory = "debug"

	// CategoryAnnotation represents TODO/FIXME style marker findings
	CategoryAnnotation ViolationCategory = "annotation"

	// CategoryStyle represents formatting and style findings
	CategoryStyle ViolationCategory = "style"

	// CategoryOther represents findings that fit no specific category
	CategoryOther ViolationCategory = "other"
)

// DedupStrategy selects the key function used to collapse equivalent
// violations within a single analysis cycle
type DedupStrategy string

const (
	// DedupExact collapses violations with identical (file, line, code, source)
	DedupExact DedupStrategy = "exact"

	// DedupLocation collapses violations reported at the same (file, line)
	DedupLocation DedupStrategy = "location"

	// DedupSimilar collapses violations in the same file and category whose
	// code snippets share a common 50-byte prefix
	DedupSimilar DedupStrategy = "similar"

	// DedupNone disables intra-cycle deduplication
	DedupNone DedupStrategy = "none"
)

// IsValid reports whether the strategy is one of the known strategies
func (d DedupStrategy) IsValid() bool {
	switch d {
	case DedupExact, DedupLocation, DedupSimilar, DedupNone:
		return true
	}
	return false
}

// Violation represents a single static-analysis finding.
//
// A Violation is immutable once produced by an engine. The tracker works on
// sanitized copies and never mutates the record it was handed.
type Violation struct {
	// File is the path of the file the finding refers to
	File string `json:"file" yaml:"file"`

	// Line is the 1-based line number (0 means unknown)
	Line int `json:"line" yaml:"line"`

	// Column is the 1-based column number (0 means unknown)
	Column int `json:"column,omitempty" yaml:"column,omitempty"`

	// Code is the raw snippet or identifier the finding refers to
	Code string `json:"code,omitempty" yaml:"code,omitempty"`

	// Category classifies the kind of problem
	Category ViolationCategory `json:"category" yaml:"category"`

	// Severity is the severity level
	Severity Severity `json:"severity" yaml:"severity"`

	// Source identifies the engine that produced the finding
	Source string `json:"source" yaml:"source"`

	// Rule is the engine-specific rule identifier, if any
	Rule string `json:"rule,omitempty" yaml:"rule,omitempty"`

	// Message is the human-readable description
	Message string `json:"message" yaml:"message"`

	// FixSuggestion describes how the finding could be resolved
	FixSuggestion string `json:"fix_suggestion,omitempty" yaml:"fix_suggestion,omitempty"`
}

// HasColumn reports whether a column position was recorded
func (v Violation) HasColumn() bool {
	return v.Column > 0
}

// HasRule reports whether an engine rule identifier was recorded
func (v Violation) HasRule() bool {
	return v.Rule != ""
}

// Location returns the finding position as "file:line" (or just the file
// path when the line is unknown)
func (v Violation) Location() string {
	if v.Line <= 0 {
		return v.File
	}
	return v.File + ":" + strconv.Itoa(v.Line)
}

var identitySep = []byte{0}

// IdentityHash returns the stable digest that identifies a violation across
// analysis cycles. Violations with equal (file, line, rule, message) always
// produce the same hash; a difference in any of those four fields produces a
// different hash. The hash is the unit of persistent deduplication.
func IdentityHash(v Violation) string {
	h := sha256.New()
	_, _ = io.WriteString(h, v.File)
	_, _ = h.Write(identitySep)
	_, _ = io.WriteString(h, strconv.Itoa(v.Line))
	_, _ = h.Write(identitySep)
	_, _ = io.WriteString(h, v.Rule)
	_, _ = h.Write(identitySep)
	_, _ = io.WriteString(h, v.Message)
	return hex.EncodeToString(h.Sum(nil)[:16])
}
