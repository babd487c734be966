package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
	"github.com/google/uuid"
)

// WatchStateManagerImpl implements the WatchStateManager interface.
//
// The manager is the sole owner of its WatchStateData; every accessor
// returns a copy so the display layer can never observe a half-applied
// transition.
type WatchStateManagerImpl struct {
	mu    sync.Mutex
	state domain.WatchStateData
	sink  domain.EventSink
	now   func() time.Time
}

// NewWatchStateManager creates a watch state manager for a new session
func NewWatchStateManager(sink domain.EventSink) *WatchStateManagerImpl {
	if sink == nil {
		sink = domain.NopSink{}
	}
	now := time.Now()
	return &WatchStateManagerImpl{
		state: domain.WatchStateData{
			Phase:        domain.PhaseInitializing,
			SessionID:    uuid.NewString(),
			SessionStart: now,
			Metadata:     make(map[string]string),
		},
		sink: sink,
		now:  time.Now,
	}
}

// Transition requests a phase change. It returns false and leaves the state
// unchanged when the transition table forbids the move.
func (m *WatchStateManagerImpl) Transition(to domain.WatchPhase) bool {
	m.mu.Lock()
	from := m.state.Phase
	accepted := from.CanTransitionTo(to)
	if accepted {
		m.state.Phase = to
		// The in-progress flag always agrees with the phase
		m.state.AnalysisInProgress = to == domain.PhaseAnalyzing
	}
	m.mu.Unlock()

	m.sink.Publish(domain.TransitionEvent{
		Timestamp: m.now(),
		From:      from,
		To:        to,
		Accepted:  accepted,
	})
	return accepted
}

// StartAnalysis marks an analysis cycle as started. It succeeds only from
// the initializing, ready or running phases and only when no cycle is
// already in progress.
func (m *WatchStateManagerImpl) StartAnalysis() bool {
	m.mu.Lock()
	from := m.state.Phase
	ok := !m.state.AnalysisInProgress &&
		(from == domain.PhaseInitializing || from == domain.PhaseReady || from == domain.PhaseRunning)
	if ok {
		m.state.Phase = domain.PhaseAnalyzing
		m.state.AnalysisInProgress = true
	}
	m.mu.Unlock()

	m.sink.Publish(domain.TransitionEvent{
		Timestamp: m.now(),
		From:      from,
		To:        domain.PhaseAnalyzing,
		Accepted:  ok,
	})
	return ok
}

// CompleteAnalysis marks the in-progress cycle as finished. The first
// completion moves to ready (unlocking the initial display render), later
// completions move to running.
func (m *WatchStateManagerImpl) CompleteAnalysis() bool {
	m.mu.Lock()
	from := m.state.Phase
	ok := from == domain.PhaseAnalyzing
	var to domain.WatchPhase
	if ok {
		m.state.ChecksCount++
		if m.state.ChecksCount == 1 {
			to = domain.PhaseReady
		} else {
			to = domain.PhaseRunning
		}
		m.state.Phase = to
		m.state.AnalysisInProgress = false
		m.state.LastAnalysisTime = m.now()
	}
	m.mu.Unlock()

	if ok {
		m.sink.Publish(domain.TransitionEvent{
			Timestamp: m.now(),
			From:      from,
			To:        to,
			Accepted:  true,
		})
	}
	return ok
}

// FailAnalysis records a cycle failure and moves to the error phase
func (m *WatchStateManagerImpl) FailAnalysis(err error) bool {
	m.mu.Lock()
	from := m.state.Phase
	ok := from.CanTransitionTo(domain.PhaseError)
	if ok {
		m.state.Phase = domain.PhaseError
		m.state.AnalysisInProgress = false
		if err != nil {
			m.state.LastError = err.Error()
		}
	}
	m.mu.Unlock()

	m.sink.Publish(domain.TransitionEvent{
		Timestamp: m.now(),
		From:      from,
		To:        domain.PhaseError,
		Accepted:  ok,
	})
	return ok
}

// CanUpdateDisplay reports whether the display layer may read state now.
// This is the contract the display must respect before rendering.
func (m *WatchStateManagerImpl) CanUpdateDisplay() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.AnalysisInProgress {
		return false
	}
	return m.state.Phase == domain.PhaseReady || m.state.Phase == domain.PhaseRunning
}

// GetState returns a copy of the current session state
func (m *WatchStateManagerImpl) GetState() domain.WatchStateData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// SetMetadata records a session-scoped detail for the display layer
func (m *WatchStateManagerImpl) SetMetadata(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Metadata == nil {
		m.state.Metadata = make(map[string]string)
	}
	m.state.Metadata[key] = value
}

// ValidateState checks internal consistency and returns one message per
// inconsistency found. An empty slice means the state is consistent.
func (m *WatchStateManagerImpl) ValidateState() []string {
	m.mu.Lock()
	state := m.state.Clone()
	m.mu.Unlock()

	var problems []string
	now := m.now()

	if !state.Phase.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown phase %q", state.Phase))
	}
	if state.AnalysisInProgress != (state.Phase == domain.PhaseAnalyzing) {
		problems = append(problems, fmt.Sprintf(
			"analysis-in-progress flag %t disagrees with phase %q",
			state.AnalysisInProgress, state.Phase))
	}
	if state.ChecksCount < 0 {
		problems = append(problems, fmt.Sprintf("negative checks count %d", state.ChecksCount))
	}
	if state.SessionID == "" {
		problems = append(problems, "empty session id")
	}
	if state.SessionStart.After(now) {
		problems = append(problems, "session start is in the future")
	}
	if !state.LastAnalysisTime.IsZero() && state.LastAnalysisTime.After(now) {
		problems = append(problems, "last analysis time is in the future")
	}
	if !state.LastAnalysisTime.IsZero() && state.LastAnalysisTime.Before(state.SessionStart) {
		problems = append(problems, "last analysis time predates session start")
	}
	return problems
}
