package domain

import "time"

// EngineResult represents the outcome of one engine invocation.
// It is created once when the engine settles and never modified afterwards.
type EngineResult struct {
	// EngineName identifies the engine that produced this result
	EngineName string `json:"engine_name" yaml:"engine_name"`

	// Violations are the findings the engine reported (empty on failure)
	Violations []Violation `json:"violations" yaml:"violations"`

	// DurationMs is the engine execution time in milliseconds
	DurationMs int64 `json:"duration_ms" yaml:"duration_ms"`

	// Success indicates whether the engine completed without error
	Success bool `json:"success" yaml:"success"`

	// Error is the failure description when Success is false
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Metadata carries optional engine-specific details
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// FileCount pairs a file path with its violation count
type FileCount struct {
	// File is the file path
	File string `json:"file" yaml:"file"`

	// Count is the number of violations in the file
	Count int `json:"count" yaml:"count"`
}

// ViolationSummary provides aggregate statistics for one analysis cycle
type ViolationSummary struct {
	// Total is the number of violations after deduplication
	Total int `json:"total" yaml:"total"`

	// BySeverity counts violations per severity level
	BySeverity map[Severity]int `json:"by_severity" yaml:"by_severity"`

	// BySource counts violations per engine
	BySource map[string]int `json:"by_source" yaml:"by_source"`

	// ByCategory counts violations per category
	ByCategory map[ViolationCategory]int `json:"by_category" yaml:"by_category"`

	// TopFiles lists the ten files with the most violations,
	// count-descending then path-ascending
	TopFiles []FileCount `json:"top_files" yaml:"top_files"`
}

// CrossoverSeverity grades an overlap between findings from different sources
type CrossoverSeverity string

const (
	// CrossoverCritical marks overlapping findings that disagree on severity
	// or carry conflicting fix suggestions
	CrossoverCritical CrossoverSeverity = "critical"

	// CrossoverNotice marks benign overlap (same position, compatible findings)
	CrossoverNotice CrossoverSeverity = "notice"
)

// CrossoverWarning reports findings from two or more engines overlapping at
// the same position
type CrossoverWarning struct {
	// File is the file both findings refer to
	File string `json:"file" yaml:"file"`

	// Line is the line both findings refer to
	Line int `json:"line" yaml:"line"`

	// Sources are the engines involved, sorted
	Sources []string `json:"sources" yaml:"sources"`

	// Severity grades the overlap
	Severity CrossoverSeverity `json:"severity" yaml:"severity"`

	// Message is the human-readable description of the overlap
	Message string `json:"message" yaml:"message"`
}

// OrchestratorResult represents one full analysis cycle.
// It is read-only once returned by the orchestrator.
type OrchestratorResult struct {
	// Violations are the merged and deduplicated findings of all engines
	Violations []Violation `json:"violations" yaml:"violations"`

	// EngineResults are the per-engine outcomes, in engine priority order
	EngineResults []EngineResult `json:"engine_results" yaml:"engine_results"`

	// TotalDurationMs is the wall-clock duration of the cycle in milliseconds
	TotalDurationMs int64 `json:"total_duration_ms" yaml:"total_duration_ms"`

	// Summary holds the aggregate statistics
	Summary ViolationSummary `json:"summary" yaml:"summary"`

	// Timestamp is when the cycle completed
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// CrossoverWarnings reports overlap between sources, if any
	CrossoverWarnings []CrossoverWarning `json:"crossover_warnings,omitempty" yaml:"crossover_warnings,omitempty"`

	// Warnings reports non-fatal problems (persistence failures, skipped
	// records) that did not stop the cycle
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ProcessingResult reports the outcome of one tracker batch
type ProcessingResult struct {
	// Processed is the number of violations handed to the tracker
	Processed int `json:"processed" yaml:"processed"`

	// Inserted is the number of newly stored violations
	Inserted int `json:"inserted" yaml:"inserted"`

	// Updated is the number of violations already known by identity hash
	Updated int `json:"updated" yaml:"updated"`

	// Deduplicated is the number of records dropped as in-batch duplicates
	Deduplicated int `json:"deduplicated" yaml:"deduplicated"`

	// Errors describes records excluded by validation
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	// Warnings describes suspicious but accepted records (unknown source,
	// extension/category mismatch)
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// CacheStats reports the size of the tracker's memoization caches
type CacheStats struct {
	// HashEntries is the number of memoized identity hashes
	HashEntries int `json:"hash_entries" yaml:"hash_entries"`

	// ValidationEntries is the number of memoized validation results
	ValidationEntries int `json:"validation_entries" yaml:"validation_entries"`
}
