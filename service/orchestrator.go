package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultCycleTimeout bounds one full engine fan-out when the request does
// not set its own timeout
const DefaultCycleTimeout = 5 * time.Minute

// OrchestratorImpl implements the Orchestrator interface.
//
// One Analyze call is one cycle: run every enabled engine concurrently,
// merge and deduplicate their output deterministically, check for crossover
// between sources, summarize, and persist through the tracker. Watch mode
// repeats cycles on an interval, serialized through the watch state machine.
type OrchestratorImpl struct {
	engines    []domain.Engine
	tracker    domain.ViolationTracker
	storage    domain.Storage
	scheduler  domain.RuleScheduler
	watchState domain.WatchStateManager
	crossover  domain.CrossoverDetector
	sink       domain.EventSink
	progress   domain.ProgressManager

	mu          sync.Mutex
	stats       domain.SystemStats
	watchCancel context.CancelFunc
	watchDone   chan struct{}
	watchErrLog rate.Sometimes
}

// NewOrchestrator creates an orchestrator with the given collaborators.
// tracker, storage, scheduler and progress may be nil; watch mode requires
// a state manager and analysis requires at least one engine.
func NewOrchestrator(
	engines []domain.Engine,
	tracker domain.ViolationTracker,
	storage domain.Storage,
	scheduler domain.RuleScheduler,
	watchState domain.WatchStateManager,
	crossover domain.CrossoverDetector,
	sink domain.EventSink,
	progress domain.ProgressManager,
) *OrchestratorImpl {
	if sink == nil {
		sink = domain.NopSink{}
	}
	if crossover == nil {
		crossover = NewCrossoverDetector()
	}
	return &OrchestratorImpl{
		engines:     engines,
		tracker:     tracker,
		storage:     storage,
		scheduler:   scheduler,
		watchState:  watchState,
		crossover:   crossover,
		sink:        sink,
		progress:    progress,
		watchErrLog: rate.Sometimes{First: 3, Interval: time.Minute},
	}
}

// Analyze runs one full analysis cycle against the request's target path
func (o *OrchestratorImpl) Analyze(ctx context.Context, req *domain.AnalyzeRequest) (*domain.OrchestratorResult, error) {
	if req == nil || req.Path == "" {
		return nil, domain.NewInvalidInputError("no target path specified", nil)
	}
	strategy := req.DedupStrategy
	if strategy == "" {
		strategy = domain.DedupExact
	}
	if !strategy.IsValid() {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown dedup strategy %q", strategy), nil)
	}

	start := time.Now()

	enabled := o.enabledEnginesByPriority()
	if len(enabled) == 0 {
		return nil, domain.NewAnalysisError("no engines enabled", nil)
	}

	engineResults := o.runEngines(ctx, enabled, req)

	merged := o.mergeViolations(enabled, engineResults)
	deduped := dedupeViolations(merged, strategy)

	warnings := o.crossover.Detect(deduped)
	if req.FailOnCriticalCrossover {
		critical := 0
		for _, w := range warnings {
			if w.Severity == domain.CrossoverCritical {
				critical++
			}
		}
		if critical > 0 {
			return nil, domain.NewCrossoverConflictError(critical)
		}
	}

	result := &domain.OrchestratorResult{
		Violations:        deduped,
		EngineResults:     engineResults,
		TotalDurationMs:   time.Since(start).Milliseconds(),
		Summary:           summarize(deduped),
		Timestamp:         time.Now(),
		CrossoverWarnings: warnings,
	}

	// Persistence is best effort: a failed handoff is a warning on the
	// result, never a failed cycle.
	if o.tracker != nil {
		processed, err := o.tracker.ProcessViolations(ctx, deduped)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("failed to persist violations: %v", err))
		} else if len(processed.Errors) > 0 {
			result.Warnings = append(result.Warnings, processed.Errors...)
		}
	}
	if o.storage != nil {
		err := o.storage.RecordPerformanceMetric(ctx, "analysis_cycle_duration",
			float64(result.TotalDurationMs), "ms", req.Path)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("failed to record cycle metric: %v", err))
		}
	}

	o.mu.Lock()
	o.stats.CyclesRun++
	o.stats.ViolationsSeen += int64(len(deduped))
	o.stats.LastCycleTime = result.Timestamp
	o.stats.LastCycleDurationMs = result.TotalDurationMs
	o.mu.Unlock()

	return result, nil
}

// enabledEnginesByPriority snapshots the enabled engines sorted ascending
// by priority. The sort is stable: priority ties keep registration order.
func (o *OrchestratorImpl) enabledEnginesByPriority() []domain.Engine {
	enabled := make([]domain.Engine, 0, len(o.engines))
	for _, e := range o.engines {
		if e.Enabled() {
			enabled = append(enabled, e)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority() < enabled[j].Priority()
	})
	return enabled
}

// runEngines executes every engine concurrently under the cycle timeout and
// collects all results. A failing or panicking engine becomes a failed
// EngineResult with zero violations; it never cancels its siblings.
func (o *OrchestratorImpl) runEngines(ctx context.Context, engines []domain.Engine, req *domain.AnalyzeRequest) []domain.EngineResult {
	timeout := req.CycleTimeout
	if timeout <= 0 {
		timeout = DefaultCycleTimeout
	}
	cycleCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var task domain.TaskProgress = &NoOpTaskProgress{}
	if o.progress != nil && !req.NoProgress {
		task = o.progress.StartTask("analyzing", len(engines))
	}
	defer task.Complete()

	results := make([]domain.EngineResult, len(engines))
	g, gCtx := errgroup.WithContext(cycleCtx)
	for i, engine := range engines {
		g.Go(func() error {
			results[i] = o.runOneEngine(gCtx, engine, req)
			task.Describe(engine.Name())
			task.Increment(1)
			// Errors are captured in the result; returning nil keeps the
			// all-settled barrier intact.
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runOneEngine invokes a single engine and converts its outcome (including
// a panic) into an EngineResult
func (o *OrchestratorImpl) runOneEngine(ctx context.Context, engine domain.Engine, req *domain.AnalyzeRequest) (result domain.EngineResult) {
	start := time.Now()
	result.EngineName = engine.Name()

	defer func() {
		result.DurationMs = time.Since(start).Milliseconds()
		if r := recover(); r != nil {
			result.Success = false
			result.Violations = nil
			result.Error = fmt.Sprintf("engine panic: %v", r)
		}
	}()

	violations, err := engine.Analyze(ctx, req.Path, req.EngineOptions)
	if err != nil {
		result.Success = false
		result.Error = domain.NewEngineFaultError(engine.Name(), err).Error()
		return result
	}
	result.Success = true
	result.Violations = violations
	return result
}

// mergeViolations concatenates the successful engines' violations and sorts
// them deterministically by (source preference, severity rank, file, line).
// Source preference is the engine priority order captured for this cycle.
func (o *OrchestratorImpl) mergeViolations(engines []domain.Engine, results []domain.EngineResult) []domain.Violation {
	sourceRank := make(map[string]int, len(engines))
	for i, e := range engines {
		sourceRank[e.Name()] = i
	}

	var merged []domain.Violation
	for _, r := range results {
		if r.Success {
			merged = append(merged, r.Violations...)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		ra, okA := sourceRank[a.Source]
		rb, okB := sourceRank[b.Source]
		if !okA {
			ra = len(engines)
		}
		if !okB {
			rb = len(engines)
		}
		if ra != rb {
			return ra < rb
		}
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
	return merged
}

// dedupeViolations collapses the sorted slice with kept-first semantics:
// the first occurrence of a key in sorted order wins
func dedupeViolations(violations []domain.Violation, strategy domain.DedupStrategy) []domain.Violation {
	if strategy == domain.DedupNone {
		return violations
	}

	seen := make(map[string]bool, len(violations))
	out := make([]domain.Violation, 0, len(violations))
	for _, v := range violations {
		key := dedupKey(v, strategy)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// dedupKey computes the strategy's collapse key for one violation
func dedupKey(v domain.Violation, strategy domain.DedupStrategy) string {
	switch strategy {
	case domain.DedupLocation:
		return fmt.Sprintf("%s\x00%d", v.File, v.Line)
	case domain.DedupSimilar:
		code := v.Code
		if len(code) > 50 {
			code = code[:50]
		}
		return fmt.Sprintf("%s\x00%s\x00%s", v.File, v.Category, code)
	default: // DedupExact
		return fmt.Sprintf("%s\x00%d\x00%s\x00%s", v.File, v.Line, v.Code, v.Source)
	}
}

// summarize computes the severity/source/category histograms and the
// top-10-files list for one deduplicated result set
func summarize(violations []domain.Violation) domain.ViolationSummary {
	summary := domain.ViolationSummary{
		Total:      len(violations),
		BySeverity: make(map[domain.Severity]int),
		BySource:   make(map[string]int),
		ByCategory: make(map[domain.ViolationCategory]int),
	}

	fileCounts := make(map[string]int)
	for _, v := range violations {
		summary.BySeverity[v.Severity]++
		summary.BySource[v.Source]++
		summary.ByCategory[v.Category]++
		fileCounts[v.File]++
	}

	files := make([]domain.FileCount, 0, len(fileCounts))
	for file, count := range fileCounts {
		files = append(files, domain.FileCount{File: file, Count: count})
	}
	// Count-descending, then path-ascending for deterministic output
	sort.Slice(files, func(i, j int) bool {
		if files[i].Count != files[j].Count {
			return files[i].Count > files[j].Count
		}
		return files[i].File < files[j].File
	})
	if len(files) > 10 {
		files = files[:10]
	}
	summary.TopFiles = files
	return summary
}

// StartWatchMode begins the continuous cycle loop. It fails when watch mode
// is already active or no state manager was configured.
func (o *OrchestratorImpl) StartWatchMode(ctx context.Context, opts domain.WatchOptions) error {
	if o.watchState == nil {
		return domain.NewInvalidInputError("watch mode requires a watch state manager", nil)
	}
	if opts.Interval <= 0 {
		return domain.NewInvalidInputError("watch interval must be positive", nil)
	}

	o.mu.Lock()
	if o.watchCancel != nil {
		o.mu.Unlock()
		return domain.NewInvalidInputError("watch mode is already running", nil)
	}
	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	o.watchCancel = cancel
	o.watchDone = done
	o.mu.Unlock()

	if o.storage != nil {
		if _, err := o.storage.CleanupOldData(watchCtx); err != nil {
			o.emitWatchError("cleanup", err)
		}
	}

	go o.watchLoop(watchCtx, opts, done)
	return nil
}

// watchLoop is the single goroutine that triggers watch cycles. Each cycle
// runs scheduled rule checks, then a full analysis; the cycles themselves
// are internally concurrent.
func (o *OrchestratorImpl) watchLoop(ctx context.Context, opts domain.WatchOptions, done chan<- struct{}) {
	defer close(done)

	// First cycle runs immediately so the display has state to render
	if fatal := o.runWatchCycle(ctx, opts); fatal {
		return
	}

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if o.scheduler != nil {
				if _, err := o.scheduler.ExecuteNextRules(ctx, maxConcurrentFor(o.scheduler)); err != nil {
					o.emitWatchError("scheduler", err)
				}
			}
			if fatal := o.runWatchCycle(ctx, opts); fatal {
				return
			}
		}
	}
}

// maxConcurrentFor derives the poll bound from the scheduler's own stats so
// runtime adjustments take effect on the next watch cycle
func maxConcurrentFor(scheduler domain.RuleScheduler) int {
	if impl, ok := scheduler.(*RuleSchedulerImpl); ok {
		impl.mu.Lock()
		defer impl.mu.Unlock()
		return impl.maxChecks
	}
	return DefaultMaxConcurrentChecks
}

// runWatchCycle runs one analysis cycle under the state machine. The
// returned flag is true when the failure must terminate the watch session.
func (o *OrchestratorImpl) runWatchCycle(ctx context.Context, opts domain.WatchOptions) bool {
	if ctx.Err() != nil {
		return true
	}
	if !o.watchState.StartAnalysis() {
		// Recover from the error phase, then retry once
		if !o.watchState.Transition(domain.PhaseAnalyzing) {
			o.emitWatchError("state", domain.NewInvalidTransitionError(
				o.watchState.GetState().Phase, domain.PhaseAnalyzing))
			return false
		}
	}

	req := opts.Analyze
	result, err := o.Analyze(ctx, &req)
	if err != nil {
		o.watchState.FailAnalysis(err)
		o.emitWatchError("analyze", err)
		// A critical crossover with fail-on set is the one analysis error
		// that ends the session
		return domain.IsCrossoverConflict(err)
	}

	o.watchState.CompleteAnalysis()
	state := o.watchState.GetState()
	o.sink.Publish(domain.CycleEvent{
		Timestamp:   result.Timestamp,
		CycleNumber: state.ChecksCount,
		Total:       result.Summary.Total,
		BySeverity:  result.Summary.BySeverity,
		Duration:    time.Duration(result.TotalDurationMs) * time.Millisecond,
	})
	return false
}

// emitWatchError publishes a watch error event and logs it through the
// throttle so a hot failure loop cannot flood stderr
func (o *OrchestratorImpl) emitWatchError(op string, err error) {
	o.sink.Publish(domain.WatchErrorEvent{
		Timestamp: time.Now(),
		Op:        op,
		Err:       err.Error(),
	})
	o.watchErrLog.Do(func() {
		fmt.Fprintf(os.Stderr, "Warning: watch %s error: %v\n", op, err)
	})
}

// StopWatchMode stops the loop, drains the scheduler and moves the state
// machine to shutdown. Nothing outlives the shutdown transition.
func (o *OrchestratorImpl) StopWatchMode(ctx context.Context) error {
	o.mu.Lock()
	cancel, done := o.watchCancel, o.watchDone
	o.watchCancel = nil
	o.watchDone = nil
	o.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if o.scheduler != nil && o.scheduler.IsRunning() {
		if err := o.scheduler.Stop(ctx); err != nil {
			return err
		}
	}
	if o.watchState != nil {
		o.watchState.Transition(domain.PhaseShutdown)
	}
	return nil
}

// HealthCheck probes every collaborator and grades the overall state.
// A storage failure makes the system unhealthy; a missing optional
// collaborator only degrades it.
func (o *OrchestratorImpl) HealthCheck(ctx context.Context) domain.HealthStatus {
	status := domain.HealthStatus{
		Overall:  domain.HealthHealthy,
		Services: make(map[string]domain.ServiceHealth),
	}

	degrade := func(overall string) {
		if status.Overall == domain.HealthUnhealthy {
			return
		}
		status.Overall = overall
	}

	if o.storage != nil {
		if err := o.storage.Ping(ctx); err != nil {
			status.Services["storage"] = domain.ServiceHealth{Healthy: false, Detail: err.Error()}
			status.Errors = append(status.Errors, fmt.Sprintf("storage: %v", err))
			status.Overall = domain.HealthUnhealthy
		} else {
			status.Services["storage"] = domain.ServiceHealth{Healthy: true, Detail: "reachable"}
		}
	} else {
		status.Services["storage"] = domain.ServiceHealth{Healthy: false, Detail: "not configured"}
		degrade(domain.HealthDegraded)
	}

	if o.tracker != nil {
		cache := o.tracker.GetCacheStats()
		status.Services["tracker"] = domain.ServiceHealth{
			Healthy: true,
			Detail: fmt.Sprintf("%d hash entries, %d validation entries",
				cache.HashEntries, cache.ValidationEntries),
		}
	} else {
		status.Services["tracker"] = domain.ServiceHealth{Healthy: false, Detail: "not configured"}
		degrade(domain.HealthDegraded)
	}

	if o.scheduler != nil {
		stats := o.scheduler.Stats()
		status.Services["scheduler"] = domain.ServiceHealth{
			Healthy: true,
			Detail: fmt.Sprintf("running=%t in_flight=%d failed=%d",
				stats.Running, stats.InFlight, stats.RulesFailed),
		}
	} else {
		status.Services["scheduler"] = domain.ServiceHealth{Healthy: false, Detail: "not configured"}
		degrade(domain.HealthDegraded)
	}

	enabled := len(o.enabledEnginesByPriority())
	if enabled == 0 {
		status.Services["engines"] = domain.ServiceHealth{Healthy: false, Detail: "no engines enabled"}
		status.Errors = append(status.Errors, "no engines enabled")
		status.Overall = domain.HealthUnhealthy
	} else {
		status.Services["engines"] = domain.ServiceHealth{
			Healthy: true,
			Detail:  fmt.Sprintf("%d enabled", enabled),
		}
	}
	return status
}

// GetSystemStats returns a snapshot of the orchestration runtime counters
func (o *OrchestratorImpl) GetSystemStats() domain.SystemStats {
	o.mu.Lock()
	stats := o.stats
	o.mu.Unlock()

	if o.tracker != nil {
		stats.Cache = o.tracker.GetCacheStats()
	}
	if o.scheduler != nil {
		stats.Scheduler = o.scheduler.Stats()
	}
	return stats
}
