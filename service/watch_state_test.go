package service

import (
	"errors"
	"testing"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/internal/testutil"
)

func TestNewWatchStateManagerInitialState(t *testing.T) {
	m := NewWatchStateManager(nil)

	state := m.GetState()
	if state.Phase != domain.PhaseInitializing {
		t.Errorf("Expected initializing phase, got %s", state.Phase)
	}
	if state.SessionID == "" {
		t.Error("Expected a session id")
	}
	if state.ChecksCount != 0 {
		t.Errorf("Expected zero checks, got %d", state.ChecksCount)
	}
	if problems := m.ValidateState(); len(problems) != 0 {
		t.Errorf("Fresh state must be consistent, got %v", problems)
	}
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from     domain.WatchPhase
		to       domain.WatchPhase
		accepted bool
	}{
		{domain.PhaseInitializing, domain.PhaseAnalyzing, true},
		{domain.PhaseInitializing, domain.PhaseRunning, false},
		{domain.PhaseInitializing, domain.PhaseReady, false},
		{domain.PhaseInitializing, domain.PhaseShutdown, true},
		{domain.PhaseAnalyzing, domain.PhaseReady, true},
		{domain.PhaseAnalyzing, domain.PhaseRunning, false},
		{domain.PhaseAnalyzing, domain.PhaseError, true},
		{domain.PhaseReady, domain.PhaseRunning, true},
		{domain.PhaseReady, domain.PhaseAnalyzing, true},
		{domain.PhaseReady, domain.PhasePaused, true},
		{domain.PhaseRunning, domain.PhasePaused, true},
		{domain.PhaseRunning, domain.PhaseReady, false},
		{domain.PhasePaused, domain.PhaseRunning, true},
		{domain.PhasePaused, domain.PhaseAnalyzing, true},
		{domain.PhaseError, domain.PhaseRunning, true},
		{domain.PhaseError, domain.PhaseAnalyzing, true},
		{domain.PhaseError, domain.PhasePaused, false},
		{domain.PhaseShutdown, domain.PhaseInitializing, false},
		{domain.PhaseShutdown, domain.PhaseAnalyzing, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.accepted {
				t.Errorf("CanTransitionTo(%s -> %s) = %t, want %t", tt.from, tt.to, got, tt.accepted)
			}
		})
	}
}

func TestTransitionRejectedLeavesStateUnchanged(t *testing.T) {
	sink := &testutil.CollectingSink{}
	m := NewWatchStateManager(sink)

	if m.Transition(domain.PhaseRunning) {
		t.Fatal("initializing -> running must be rejected")
	}
	if state := m.GetState(); state.Phase != domain.PhaseInitializing {
		t.Errorf("Rejected transition changed phase to %s", state.Phase)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Type() != domain.EventInvalidTransition {
		t.Errorf("Expected invalidTransition event, got %s", events[0].Type())
	}
}

func TestAnalysisLifecycle(t *testing.T) {
	m := NewWatchStateManager(nil)

	if !m.StartAnalysis() {
		t.Fatal("StartAnalysis from initializing must succeed")
	}
	if m.StartAnalysis() {
		t.Error("StartAnalysis must fail while a cycle is in progress")
	}
	if m.CanUpdateDisplay() {
		t.Error("Display must be locked while analyzing")
	}

	// First completion unlocks the display via ready
	if !m.CompleteAnalysis() {
		t.Fatal("CompleteAnalysis from analyzing must succeed")
	}
	state := m.GetState()
	if state.Phase != domain.PhaseReady {
		t.Errorf("First completion should reach ready, got %s", state.Phase)
	}
	if state.ChecksCount != 1 {
		t.Errorf("Expected 1 completed check, got %d", state.ChecksCount)
	}
	if !m.CanUpdateDisplay() {
		t.Error("Display must be allowed in ready phase")
	}

	// Later completions reach running
	if !m.StartAnalysis() {
		t.Fatal("StartAnalysis from ready must succeed")
	}
	if !m.CompleteAnalysis() {
		t.Fatal("Second CompleteAnalysis must succeed")
	}
	if state := m.GetState(); state.Phase != domain.PhaseRunning {
		t.Errorf("Later completion should reach running, got %s", state.Phase)
	}

	if m.CompleteAnalysis() {
		t.Error("CompleteAnalysis outside the analyzing phase must fail")
	}
}

func TestFailAnalysisRecordsError(t *testing.T) {
	m := NewWatchStateManager(nil)

	m.StartAnalysis()
	if !m.FailAnalysis(errors.New("engine exploded")) {
		t.Fatal("FailAnalysis from analyzing must succeed")
	}

	state := m.GetState()
	if state.Phase != domain.PhaseError {
		t.Errorf("Expected error phase, got %s", state.Phase)
	}
	if state.LastError != "engine exploded" {
		t.Errorf("Expected recorded error, got %q", state.LastError)
	}
	if state.AnalysisInProgress {
		t.Error("Analysis flag must clear on failure")
	}

	// Error recovers through an explicit transition, not StartAnalysis
	if m.StartAnalysis() {
		t.Error("StartAnalysis from error phase must fail")
	}
	if !m.Transition(domain.PhaseAnalyzing) {
		t.Error("error -> analyzing recovery must be allowed")
	}
}

func TestErrorRecoveryKeepsFlagConsistent(t *testing.T) {
	m := NewWatchStateManager(nil)

	m.StartAnalysis()
	m.FailAnalysis(errors.New("engine exploded"))

	// A bare transition into analyzing must raise the in-progress flag,
	// or the recovery cycle runs with a disagreeing flag/phase pair
	if !m.Transition(domain.PhaseAnalyzing) {
		t.Fatal("error -> analyzing recovery must be allowed")
	}
	state := m.GetState()
	if !state.AnalysisInProgress {
		t.Error("Recovery into analyzing must set the in-progress flag")
	}
	if problems := m.ValidateState(); len(problems) != 0 {
		t.Errorf("Recovered state must be consistent, got %v", problems)
	}

	// The recovered cycle completes like any other
	if !m.CompleteAnalysis() {
		t.Fatal("CompleteAnalysis after recovery must succeed")
	}
	if problems := m.ValidateState(); len(problems) != 0 {
		t.Errorf("Completed state must be consistent, got %v", problems)
	}
}

func TestGetStateReturnsCopy(t *testing.T) {
	m := NewWatchStateManager(nil)
	m.SetMetadata("target", "src/")

	state := m.GetState()
	state.Metadata["target"] = "tampered"
	state.ChecksCount = 99

	fresh := m.GetState()
	if fresh.Metadata["target"] != "src/" {
		t.Error("GetState must return an isolated metadata copy")
	}
	if fresh.ChecksCount != 0 {
		t.Error("GetState must return an isolated struct copy")
	}
}

func TestValidateStateDetectsInconsistency(t *testing.T) {
	m := NewWatchStateManager(nil)
	m.StartAnalysis()

	// A mid-cycle state is still internally consistent
	if problems := m.ValidateState(); len(problems) != 0 {
		t.Errorf("Analyzing state must validate cleanly, got %v", problems)
	}

	// Force an inconsistent pair through direct mutation
	m.mu.Lock()
	m.state.AnalysisInProgress = false
	m.mu.Unlock()

	problems := m.ValidateState()
	if len(problems) == 0 {
		t.Error("Expected a flag/phase disagreement to be reported")
	}
}

func TestTransitionEventsPublished(t *testing.T) {
	sink := &testutil.CollectingSink{}
	m := NewWatchStateManager(sink)

	m.StartAnalysis()
	m.CompleteAnalysis()
	m.Transition(domain.PhaseShutdown)

	events := sink.Events()
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	for _, e := range events {
		if e.Type() != domain.EventStateTransition {
			t.Errorf("Expected accepted transitions only, got %s", e.Type())
		}
	}
}
