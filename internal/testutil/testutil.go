// Package testutil provides helper functions for testing sidequest components
package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
)

// MakeViolation creates a violation fixture with sensible defaults,
// overridden by the mutate function when given
func MakeViolation(mutate func(*domain.Violation)) domain.Violation {
	v := domain.Violation{
		File:     "src/app.ts",
		Line:     10,
		Column:   3,
		Code:     "console.log(user)",
		Category: domain.CategoryDebug,
		Severity: domain.SeverityWarn,
		Source:   "debug-artifacts",
		Rule:     "console-call",
		Message:  "console call left in source",
	}
	if mutate != nil {
		mutate(&v)
	}
	return v
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error but got nil")
	}
}

// AssertEqual fails the test if expected != actual
func AssertEqual(t *testing.T, expected, actual any) {
	t.Helper()
	if expected != actual {
		t.Errorf("Expected %v, got %v", expected, actual)
	}
}

// AssertTrue fails the test if condition is false
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Error(msg)
	}
}

// AssertFalse fails the test if condition is true
func AssertFalse(t *testing.T, condition bool, msg string) {
	t.Helper()
	if condition {
		t.Error(msg)
	}
}

// MemoryStorage is an in-memory domain.Storage for tests. It records every
// call so tests can assert on interactions without a database.
type MemoryStorage struct {
	mu sync.Mutex

	// Violations holds every stored violation keyed by identity hash
	Violations map[string]domain.Violation

	// Schedules holds upserted schedules keyed by RuleKey
	Schedules map[string]domain.RuleSchedule

	// Due is what GetNextRulesToCheck returns
	Due []domain.RuleSchedule

	// StoreCalls counts StoreViolations invocations
	StoreCalls int

	// StartedChecks records (rule, engine) keys passed to StartRuleCheck
	StartedChecks []string

	// CompletedChecks records check ids passed to CompleteRuleCheck
	CompletedChecks []int64

	// FailedChecks records check ids passed to FailRuleCheck
	FailedChecks []int64

	// Metrics records names passed to RecordPerformanceMetric
	Metrics []string

	// StoreErr, when set, is returned by StoreViolations
	StoreErr error

	// Closed reports whether Close was called
	Closed bool

	nextCheckID int64
}

// NewMemoryStorage creates an empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		Violations: make(map[string]domain.Violation),
		Schedules:  make(map[string]domain.RuleSchedule),
	}
}

// StoreViolations implements domain.Storage
func (m *MemoryStorage) StoreViolations(ctx context.Context, violations []domain.Violation) (*domain.StoreResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreCalls++
	if m.StoreErr != nil {
		return nil, m.StoreErr
	}
	result := &domain.StoreResult{}
	for _, v := range violations {
		hash := domain.IdentityHash(v)
		if _, ok := m.Violations[hash]; ok {
			result.Updated++
		} else {
			result.Inserted++
		}
		m.Violations[hash] = v
	}
	return result, nil
}

// GetViolations implements domain.Storage
func (m *MemoryStorage) GetViolations(ctx context.Context, filter domain.ViolationFilter) ([]domain.Violation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Violation
	for _, v := range m.Violations {
		if filter.File != "" && v.File != filter.File {
			continue
		}
		if filter.Severity != "" && v.Severity != filter.Severity {
			continue
		}
		if filter.Source != "" && v.Source != filter.Source {
			continue
		}
		if filter.Category != "" && v.Category != filter.Category {
			continue
		}
		out = append(out, v)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// UpsertRuleSchedule implements domain.Storage
func (m *MemoryStorage) UpsertRuleSchedule(ctx context.Context, schedule domain.RuleSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Schedules[schedule.Key()] = schedule
	return nil
}

// GetNextRulesToCheck implements domain.Storage
func (m *MemoryStorage) GetNextRulesToCheck(ctx context.Context, limit int) ([]domain.RuleSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	due := m.Due
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	out := make([]domain.RuleSchedule, len(due))
	copy(out, due)
	return out, nil
}

// StartRuleCheck implements domain.Storage
func (m *MemoryStorage) StartRuleCheck(ctx context.Context, rule, engine string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextCheckID++
	m.StartedChecks = append(m.StartedChecks, domain.RuleKey(rule, engine))
	return m.nextCheckID, nil
}

// CompleteRuleCheck implements domain.Storage
func (m *MemoryStorage) CompleteRuleCheck(ctx context.Context, checkID int64, violationsFound int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompletedChecks = append(m.CompletedChecks, checkID)
	return nil
}

// FailRuleCheck implements domain.Storage
func (m *MemoryStorage) FailRuleCheck(ctx context.Context, checkID int64, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailedChecks = append(m.FailedChecks, checkID)
	return nil
}

// RecordPerformanceMetric implements domain.Storage
func (m *MemoryStorage) RecordPerformanceMetric(ctx context.Context, name string, value float64, unit, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Metrics = append(m.Metrics, name)
	return nil
}

// CleanupOldData implements domain.Storage
func (m *MemoryStorage) CleanupOldData(ctx context.Context) (int64, error) {
	return 0, nil
}

// Ping implements domain.Storage
func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close implements domain.Storage
func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// CollectingSink is a domain.EventSink that records every published event
type CollectingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

// Publish implements domain.EventSink
func (s *CollectingSink) Publish(event domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a snapshot of the published events
func (s *CollectingSink) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Event, len(s.events))
	copy(out, s.events)
	return out
}
