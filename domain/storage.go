package domain

import "context"

// ViolationStatus represents the lifecycle state of a stored violation
type ViolationStatus string

const (
	// StatusActive marks a violation seen in the most recent cycles
	StatusActive ViolationStatus = "active"

	// StatusResolved marks a violation that stopped appearing
	StatusResolved ViolationStatus = "resolved"
)

// ViolationFilter narrows GetViolations queries. Zero-valued fields match
// everything.
type ViolationFilter struct {
	// File filters by exact file path
	File string

	// Severity filters by severity level
	Severity Severity

	// Source filters by engine
	Source string

	// Category filters by category
	Category ViolationCategory

	// Status filters by lifecycle state
	Status ViolationStatus

	// Limit caps the number of returned records (0 means no cap)
	Limit int
}

// StoreResult reports the outcome of one batch write
type StoreResult struct {
	// Inserted is the number of violations stored for the first time
	Inserted int `json:"inserted" yaml:"inserted"`

	// Updated is the number of violations already known by identity hash
	Updated int `json:"updated" yaml:"updated"`

	// Errors describes records that could not be written
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Storage persists violations, rule schedules, check history and metrics.
//
// Storage is an external collaborator of the orchestration core; the sqlite
// implementation in internal/storage is the default.
type Storage interface {
	// StoreViolations writes one batch, keyed by identity hash.
	// A new hash is an insert; a known hash is an update (last-seen bump,
	// resurrect from resolved).
	StoreViolations(ctx context.Context, violations []Violation) (*StoreResult, error)

	// GetViolations returns stored violations matching the filter
	GetViolations(ctx context.Context, filter ViolationFilter) ([]Violation, error)

	// UpsertRuleSchedule creates or updates a (rule, engine) schedule
	UpsertRuleSchedule(ctx context.Context, schedule RuleSchedule) error

	// GetNextRulesToCheck returns up to limit enabled, due schedules,
	// ordered by priority then due time
	GetNextRulesToCheck(ctx context.Context, limit int) ([]RuleSchedule, error)

	// StartRuleCheck records the start of a check and returns its id
	StartRuleCheck(ctx context.Context, rule, engine string) (int64, error)

	// CompleteRuleCheck records a successful check
	CompleteRuleCheck(ctx context.Context, checkID int64, violationsFound int) error

	// FailRuleCheck records a failed check
	FailRuleCheck(ctx context.Context, checkID int64, message string) error

	// RecordPerformanceMetric stores one named measurement
	RecordPerformanceMetric(ctx context.Context, name string, value float64, unit, note string) error

	// CleanupOldData removes resolved violations and metrics outside the
	// retention window; returns the number of deleted rows
	CleanupOldData(ctx context.Context) (int64, error)

	// Ping verifies the store is reachable
	Ping(ctx context.Context) error

	// Close releases the underlying resources
	Close() error
}
