package domain

import (
	"context"
	"io"
	"time"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatCSV  OutputFormat = "csv"
)

// IsValid reports whether the format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML, OutputFormatCSV:
		return true
	}
	return false
}

// AnalyzeRequest represents a request for one analysis cycle
type AnalyzeRequest struct {
	// Path is the directory or file to analyze
	Path string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	ShowDetails  bool

	// DedupStrategy selects the intra-cycle deduplication key
	DedupStrategy DedupStrategy

	// FailOnCriticalCrossover makes a critical source overlap fail the cycle
	FailOnCriticalCrossover bool

	// CycleTimeout bounds the whole engine fan-out (0 means the default)
	CycleTimeout time.Duration

	// EngineOptions are passed through to every engine
	EngineOptions map[string]string

	// ConfigPath points at an explicit config file
	ConfigPath string

	// NoProgress disables progress output
	NoProgress bool
}

// ServiceHealth reports the health of one collaborator
type ServiceHealth struct {
	// Healthy indicates the collaborator responded normally
	Healthy bool `json:"healthy" yaml:"healthy"`

	// Detail is a short human-readable status
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Health grades
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// HealthStatus reports the overall health of the orchestration layer
type HealthStatus struct {
	// Overall is one of healthy, degraded, unhealthy
	Overall string `json:"overall" yaml:"overall"`

	// Services maps collaborator names to their health
	Services map[string]ServiceHealth `json:"services" yaml:"services"`

	// Errors lists the problems behind a degraded or unhealthy grade
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// SystemStats reports orchestration runtime counters
type SystemStats struct {
	// CyclesRun is the number of completed analysis cycles
	CyclesRun int64 `json:"cycles_run" yaml:"cycles_run"`

	// ViolationsSeen is the total number of deduplicated violations produced
	ViolationsSeen int64 `json:"violations_seen" yaml:"violations_seen"`

	// LastCycleTime is when the most recent cycle completed
	LastCycleTime time.Time `json:"last_cycle_time,omitempty" yaml:"last_cycle_time,omitempty"`

	// LastCycleDurationMs is the most recent cycle duration in milliseconds
	LastCycleDurationMs int64 `json:"last_cycle_duration_ms" yaml:"last_cycle_duration_ms"`

	// Cache reports the tracker's memoization cache sizes
	Cache CacheStats `json:"cache" yaml:"cache"`

	// Scheduler reports the rule scheduler's counters
	Scheduler SchedulerStats `json:"scheduler" yaml:"scheduler"`
}

// Engine analyzes a target path and produces violations.
//
// Engines are external collaborators: an implementation must honor ctx
// cancellation and return promptly when the deadline passes. Returning an
// error is equivalent to a failed engine run; the orchestrator isolates the
// failure and the cycle continues.
type Engine interface {
	// Name identifies the engine; used as the violation Source
	Name() string

	// Priority orders engine output in merged results (lower first)
	Priority() int

	// Enabled reports whether the engine participates in analysis cycles
	Enabled() bool

	// Analyze runs the engine against the target path
	Analyze(ctx context.Context, targetPath string, opts map[string]string) ([]Violation, error)
}

// Orchestrator coordinates engines, deduplication, crossover detection,
// persistence and the watch loop
type Orchestrator interface {
	// Analyze runs one full analysis cycle
	Analyze(ctx context.Context, req *AnalyzeRequest) (*OrchestratorResult, error)

	// StartWatchMode begins the continuous cycle loop
	StartWatchMode(ctx context.Context, opts WatchOptions) error

	// StopWatchMode stops the loop and drains in-flight work
	StopWatchMode(ctx context.Context) error

	// HealthCheck probes every collaborator
	HealthCheck(ctx context.Context) HealthStatus

	// GetSystemStats returns runtime counters
	GetSystemStats() SystemStats
}

// ViolationTracker deduplicates, validates, sanitizes and persists violations
type ViolationTracker interface {
	// ProcessViolations runs the full tracking pipeline on one batch
	ProcessViolations(ctx context.Context, violations []Violation) (*ProcessingResult, error)

	// GenerateHash returns the memoized identity hash for a violation
	GenerateHash(v Violation) string

	// ClearCaches empties the hash and validation caches
	ClearCaches()

	// GetCacheStats reports cache sizes
	GetCacheStats() CacheStats
}

// RuleScheduler executes scheduled rule checks with bounded concurrency
type RuleScheduler interface {
	// ExecuteRule runs one (rule, engine) check. Concurrent calls for the
	// same key share a single execution and receive the same result.
	ExecuteRule(ctx context.Context, rule, engine string) (*RuleExecution, error)

	// ExecuteNextRules runs up to maxConcurrent due rules concurrently
	ExecuteNextRules(ctx context.Context, maxConcurrent int) ([]*RuleExecution, error)

	// Start begins the polling loop
	Start(ctx context.Context) error

	// Stop halts polling and waits for in-flight checks to drain
	Stop(ctx context.Context) error

	// Pause suspends polling without stopping the loop
	Pause()

	// Resume lifts a pause
	Resume()

	// IsRunning reports whether the polling loop is active
	IsRunning() bool

	// Stats returns runtime counters
	Stats() SchedulerStats
}

// WatchStateManager serializes analysis cycles against display reads
type WatchStateManager interface {
	// Transition requests a phase change; false means rejected, state unchanged
	Transition(to WatchPhase) bool

	// StartAnalysis marks an analysis cycle as started
	StartAnalysis() bool

	// CompleteAnalysis marks the in-progress cycle as finished
	CompleteAnalysis() bool

	// FailAnalysis records a cycle failure and moves to the error phase
	FailAnalysis(err error) bool

	// CanUpdateDisplay reports whether the display may read state now
	CanUpdateDisplay() bool

	// GetState returns a copy of the current session state
	GetState() WatchStateData

	// ValidateState checks internal consistency; empty means consistent
	ValidateState() []string
}

// CrossoverDetector finds overlapping findings between sources
type CrossoverDetector interface {
	// Detect inspects a merged, deduplicated result set
	Detect(violations []Violation) []CrossoverWarning
}

// OutputFormatter formats analysis results for output
type OutputFormatter interface {
	// Format formats the result as a string
	Format(result *OrchestratorResult, format OutputFormat, showDetails bool) (string, error)

	// Write formats the result and writes it to the writer
	Write(result *OrchestratorResult, format OutputFormat, showDetails bool, writer io.Writer) error
}

// FileCollector collects analyzable source files
type FileCollector interface {
	// CollectSourceFiles gathers supported files under the given paths
	CollectSourceFiles(paths []string, includePatterns, excludePatterns []string) ([]string, error)

	// IsSupportedFile reports whether the path has a supported extension
	IsSupportedFile(path string) bool
}

// ProgressManager creates progress tasks for long-running operations
type ProgressManager interface {
	// StartTask creates a new progress task
	StartTask(description string, total int) TaskProgress

	// IsInteractive reports whether progress is rendered
	IsInteractive() bool

	// Close cleans up all tasks
	Close()
}

// TaskProgress tracks progress of a single task
type TaskProgress interface {
	// Increment adds n to the current progress
	Increment(n int)

	// Describe updates the current item description
	Describe(description string)

	// Complete marks the task as finished
	Complete()
}
