package domain

import "time"

// RuleSchedule represents one (rule, engine) pair in the check schedule.
// Schedules are never deleted, only disabled.
type RuleSchedule struct {
	// Rule is the rule identifier to check
	Rule string `json:"rule" yaml:"rule"`

	// Engine is the engine responsible for the rule
	Engine string `json:"engine" yaml:"engine"`

	// Enabled indicates whether the schedule participates in polling
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Priority orders schedules when several are due (lower runs first)
	Priority int `json:"priority" yaml:"priority"`

	// CheckFrequencyMs is the minimum interval between checks in milliseconds
	CheckFrequencyMs int64 `json:"check_frequency_ms" yaml:"check_frequency_ms"`

	// LastChecked is when the rule was last executed (zero if never)
	LastChecked time.Time `json:"last_checked,omitempty" yaml:"last_checked,omitempty"`

	// NextCheck is when the rule becomes due again
	NextCheck time.Time `json:"next_check,omitempty" yaml:"next_check,omitempty"`
}

// Frequency returns the check frequency as a duration
func (s RuleSchedule) Frequency() time.Duration {
	return time.Duration(s.CheckFrequencyMs) * time.Millisecond
}

// Key returns the in-flight map key for the schedule's (rule, engine) pair
func (s RuleSchedule) Key() string {
	return RuleKey(s.Rule, s.Engine)
}

// RuleKey builds the in-flight map key for a (rule, engine) pair.
// The NUL separator keeps distinct pairs from colliding.
func RuleKey(rule, engine string) string {
	return rule + "\x00" + engine
}

// RuleExecution represents the outcome of one scheduled rule check
type RuleExecution struct {
	// Rule is the rule that was checked
	Rule string `json:"rule" yaml:"rule"`

	// Engine is the engine that ran the check
	Engine string `json:"engine" yaml:"engine"`

	// CheckID is the storage identifier of the check record
	CheckID int64 `json:"check_id" yaml:"check_id"`

	// StartedAt is when execution began
	StartedAt time.Time `json:"started_at" yaml:"started_at"`

	// DurationMs is the execution time in milliseconds
	DurationMs int64 `json:"duration_ms" yaml:"duration_ms"`

	// ViolationsFound is the number of findings the check produced
	ViolationsFound int `json:"violations_found" yaml:"violations_found"`

	// Err is the failure description when the check failed
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Succeeded reports whether the execution completed without error
func (e RuleExecution) Succeeded() bool {
	return e.Err == ""
}

// SchedulerStats reports the scheduler's runtime counters
type SchedulerStats struct {
	// Running indicates whether the polling loop is active
	Running bool `json:"running" yaml:"running"`

	// Paused indicates whether polling is suspended
	Paused bool `json:"paused" yaml:"paused"`

	// InFlight is the number of currently executing rule checks
	InFlight int `json:"in_flight" yaml:"in_flight"`

	// PollCycles is the number of completed poll cycles
	PollCycles int64 `json:"poll_cycles" yaml:"poll_cycles"`

	// RulesExecuted is the number of completed rule checks
	RulesExecuted int64 `json:"rules_executed" yaml:"rules_executed"`

	// RulesFailed is the number of failed rule checks
	RulesFailed int64 `json:"rules_failed" yaml:"rules_failed"`
}
