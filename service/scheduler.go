package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
	"golang.org/x/sync/errgroup"
)

// Scheduler configuration bounds
const (
	// MinSchedulerFrequency is the smallest accepted polling interval
	MinSchedulerFrequency = time.Second

	// DefaultSchedulerFrequency is the polling interval used when none is
	// configured
	DefaultSchedulerFrequency = 30 * time.Second

	// DefaultMaxConcurrentChecks bounds concurrent rule executions when no
	// limit is configured
	DefaultMaxConcurrentChecks = 3
)

// inflightExecution is one running rule check. Concurrent callers for the
// same (rule, engine) key share the entry and wait on done.
type inflightExecution struct {
	done   chan struct{}
	result *domain.RuleExecution
	err    error
}

// RuleSchedulerImpl implements the RuleScheduler interface.
//
// Rule execution delegates to the real engine registry: a scheduled check
// runs its engine against the configured target path with the rule passed
// through engine options, and records start/complete/fail through storage.
type RuleSchedulerImpl struct {
	storage    domain.Storage
	engines    map[string]domain.Engine
	sink       domain.EventSink
	targetPath string

	mu        sync.Mutex
	inflight  map[string]*inflightExecution
	frequency time.Duration
	maxChecks int
	running   bool
	paused    bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	stats     domain.SchedulerStats

	// wg tracks in-flight rule executions for the Stop drain
	wg sync.WaitGroup
}

// NewRuleScheduler creates a rule scheduler over the given engine set.
// Checks run against targetPath; lifecycle events go to sink.
func NewRuleScheduler(storage domain.Storage, engines []domain.Engine, targetPath string, sink domain.EventSink) *RuleSchedulerImpl {
	if sink == nil {
		sink = domain.NopSink{}
	}
	registry := make(map[string]domain.Engine, len(engines))
	for _, e := range engines {
		registry[e.Name()] = e
	}
	return &RuleSchedulerImpl{
		storage:    storage,
		engines:    registry,
		sink:       sink,
		targetPath: targetPath,
		inflight:   make(map[string]*inflightExecution),
		frequency:  DefaultSchedulerFrequency,
		maxChecks:  DefaultMaxConcurrentChecks,
	}
}

// SetDefaultFrequency adjusts the polling interval. The change affects
// subsequent poll cycles only.
func (s *RuleSchedulerImpl) SetDefaultFrequency(frequency time.Duration) error {
	if frequency < MinSchedulerFrequency {
		return domain.NewInvalidInputError(
			fmt.Sprintf("scheduler frequency must be >= %s, got %s", MinSchedulerFrequency, frequency), nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frequency = frequency
	return nil
}

// SetMaxConcurrentChecks adjusts the concurrency bound. The change affects
// subsequent poll cycles only; in-flight work is not interrupted.
func (s *RuleSchedulerImpl) SetMaxConcurrentChecks(max int) error {
	if max < 1 {
		return domain.NewInvalidInputError(
			fmt.Sprintf("max concurrent checks must be >= 1, got %d", max), nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxChecks = max
	return nil
}

// ExecuteRule runs one (rule, engine) check. If the same key is already
// executing, the caller waits for that execution and receives its result:
// at most one check per key runs at any time.
func (s *RuleSchedulerImpl) ExecuteRule(ctx context.Context, rule, engine string) (*domain.RuleExecution, error) {
	key := domain.RuleKey(rule, engine)

	s.mu.Lock()
	if existing, ok := s.inflight[key]; ok {
		s.mu.Unlock()
		select {
		case <-existing.done:
			return existing.result, existing.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	exec := &inflightExecution{done: make(chan struct{})}
	s.inflight[key] = exec
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, key)
		if exec.err == nil {
			s.stats.RulesExecuted++
		} else {
			s.stats.RulesFailed++
		}
		s.mu.Unlock()
		close(exec.done)
		s.wg.Done()
	}()

	exec.result, exec.err = s.runCheck(ctx, rule, engine)
	return exec.result, exec.err
}

// runCheck performs one rule check end to end: storage bookkeeping, engine
// invocation, lifecycle events
func (s *RuleSchedulerImpl) runCheck(ctx context.Context, rule, engine string) (*domain.RuleExecution, error) {
	start := time.Now()
	execution := &domain.RuleExecution{
		Rule:      rule,
		Engine:    engine,
		StartedAt: start,
	}

	if s.storage != nil {
		checkID, err := s.storage.StartRuleCheck(ctx, rule, engine)
		if err != nil {
			execution.Err = err.Error()
			return execution, domain.NewSchedulerFaultError(rule, engine, err)
		}
		execution.CheckID = checkID
	}

	s.sink.Publish(domain.RuleEvent{
		Kind:      domain.EventRuleStarted,
		Timestamp: start,
		Rule:      rule,
		Engine:    engine,
	})

	violations, err := s.invokeEngine(ctx, rule, engine)
	execution.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		execution.Err = err.Error()
		if s.storage != nil && execution.CheckID != 0 {
			if storeErr := s.storage.FailRuleCheck(ctx, execution.CheckID, err.Error()); storeErr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to record rule check failure: %v\n", storeErr)
			}
		}
		s.sink.Publish(domain.RuleEvent{
			Kind:      domain.EventRuleFailed,
			Timestamp: time.Now(),
			Rule:      rule,
			Engine:    engine,
			Duration:  time.Since(start),
			Err:       err.Error(),
		})
		return execution, domain.NewSchedulerFaultError(rule, engine, err)
	}

	execution.ViolationsFound = len(violations)
	if s.storage != nil && execution.CheckID != 0 {
		if storeErr := s.storage.CompleteRuleCheck(ctx, execution.CheckID, len(violations)); storeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to record rule check completion: %v\n", storeErr)
		}
	}
	s.sink.Publish(domain.RuleEvent{
		Kind:            domain.EventRuleCompleted,
		Timestamp:       time.Now(),
		Rule:            rule,
		Engine:          engine,
		ViolationsFound: len(violations),
		Duration:        time.Since(start),
	})
	return execution, nil
}

// invokeEngine resolves the engine and runs it scoped to the rule
func (s *RuleSchedulerImpl) invokeEngine(ctx context.Context, rule, engine string) ([]domain.Violation, error) {
	impl, ok := s.engines[engine]
	if !ok {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown engine %q", engine), nil)
	}
	return impl.Analyze(ctx, s.targetPath, map[string]string{"rule": rule})
}

// ExecuteNextRules fetches due schedules and runs up to the available
// concurrency slots concurrently. Failed checks are reported through the
// ruleFailed event and dropped from the returned slice; only fulfilled
// executions are returned.
func (s *RuleSchedulerImpl) ExecuteNextRules(ctx context.Context, maxConcurrent int) ([]*domain.RuleExecution, error) {
	if maxConcurrent < 1 {
		return nil, domain.NewInvalidInputError(
			fmt.Sprintf("max concurrent must be >= 1, got %d", maxConcurrent), nil)
	}
	if s.storage == nil {
		return nil, nil
	}

	s.mu.Lock()
	availableSlots := maxConcurrent - len(s.inflight)
	s.mu.Unlock()
	if availableSlots <= 0 {
		return nil, nil
	}

	schedules, err := s.storage.GetNextRulesToCheck(ctx, availableSlots)
	if err != nil {
		return nil, domain.NewStorageError("failed to fetch due rules", err)
	}
	if len(schedules) == 0 {
		return nil, nil
	}

	var resultMu sync.Mutex
	var executions []*domain.RuleExecution

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(availableSlots)
	for _, schedule := range schedules {
		g.Go(func() error {
			execution, err := s.ExecuteRule(gCtx, schedule.Rule, schedule.Engine)
			if err != nil {
				// Already recorded and evented; isolated per rule
				fmt.Fprintf(os.Stderr, "Warning: rule check %s (%s) failed: %v\n",
					schedule.Rule, schedule.Engine, err)
				return nil
			}
			resultMu.Lock()
			executions = append(executions, execution)
			resultMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return executions, nil
}

// Start begins the polling loop. It fails if the loop is already running.
func (s *RuleSchedulerImpl) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return domain.NewInvalidInputError("scheduler is already running", nil)
	}
	s.running = true
	s.paused = false
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.pollLoop(ctx, stopCh, doneCh)
	return nil
}

// pollLoop invokes one poll cycle per tick until stopped
func (s *RuleSchedulerImpl) pollLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	for {
		s.mu.Lock()
		frequency := s.frequency
		s.mu.Unlock()

		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(frequency):
		}

		s.mu.Lock()
		paused := s.paused
		maxChecks := s.maxChecks
		s.stats.PollCycles++
		s.mu.Unlock()
		if paused {
			continue
		}

		if _, err := s.ExecuteNextRules(ctx, maxChecks); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: scheduler poll cycle failed: %v\n", err)
		}
	}
}

// Stop halts polling and waits for every in-flight check to drain. The wait
// is bounded by ctx; a cancelled context abandons the drain and returns its
// error.
func (s *RuleSchedulerImpl) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pause suspends polling without stopping the loop; in-flight checks finish
func (s *RuleSchedulerImpl) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume lifts a pause
func (s *RuleSchedulerImpl) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

// IsRunning reports whether the polling loop is active
func (s *RuleSchedulerImpl) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stats returns a snapshot of the scheduler's runtime counters
func (s *RuleSchedulerImpl) Stats() domain.SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	stats.Running = s.running
	stats.Paused = s.paused
	stats.InFlight = len(s.inflight)
	return stats
}
