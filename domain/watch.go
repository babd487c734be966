package domain

import "time"

// WatchPhase represents one state of the watch-mode state machine
type WatchPhase string

const (
	// PhaseInitializing is the phase before the first analysis starts
	PhaseInitializing WatchPhase = "initializing"

	// PhaseAnalyzing is the phase while an analysis cycle is in progress
	PhaseAnalyzing WatchPhase = "analyzing"

	// PhaseReady is the phase after the first analysis completes; the
	// display may render its initial state
	PhaseReady WatchPhase = "ready"

	// PhaseRunning is the steady-state phase between analysis cycles
	PhaseRunning WatchPhase = "running"

	// PhasePaused is the phase while the watch loop is suspended
	PhasePaused WatchPhase = "paused"

	// PhaseError is the phase after a cycle failed; recoverable
	PhaseError WatchPhase = "error"

	// PhaseShutdown is the terminal phase; no further transitions
	PhaseShutdown WatchPhase = "shutdown"
)

// watchTransitions is the transition table of the watch state machine.
// A phase maps to the exhaustive set of phases it may move to.
var watchTransitions = map[WatchPhase][]WatchPhase{
	PhaseInitializing: {PhaseAnalyzing, PhaseError, PhaseShutdown},
	PhaseAnalyzing:    {PhaseReady, PhaseError, PhaseShutdown},
	PhaseReady:        {PhaseRunning, PhaseAnalyzing, PhasePaused, PhaseError, PhaseShutdown},
	PhaseRunning:      {PhaseAnalyzing, PhasePaused, PhaseError, PhaseShutdown},
	PhasePaused:       {PhaseRunning, PhaseAnalyzing, PhaseError, PhaseShutdown},
	PhaseError:        {PhaseRunning, PhaseAnalyzing, PhaseShutdown},
	PhaseShutdown:     {},
}

// CanTransitionTo reports whether the state machine allows moving from p to next
func (p WatchPhase) CanTransitionTo(next WatchPhase) bool {
	for _, allowed := range watchTransitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition out of p is possible
func (p WatchPhase) IsTerminal() bool {
	allowed, ok := watchTransitions[p]
	return ok && len(allowed) == 0
}

// IsValid reports whether p is a known phase
func (p WatchPhase) IsValid() bool {
	_, ok := watchTransitions[p]
	return ok
}

// WatchPhases lists every known phase, in lifecycle order
func WatchPhases() []WatchPhase {
	return []WatchPhase{
		PhaseInitializing,
		PhaseAnalyzing,
		PhaseReady,
		PhaseRunning,
		PhasePaused,
		PhaseError,
		PhaseShutdown,
	}
}

// WatchStateData is the observable state of one watch session.
// It is owned exclusively by the watch state manager; readers always
// receive a copy.
type WatchStateData struct {
	// Phase is the current state machine phase
	Phase WatchPhase `json:"phase" yaml:"phase"`

	// ChecksCount is the number of completed analysis cycles
	ChecksCount int `json:"checks_count" yaml:"checks_count"`

	// SessionID uniquely identifies the watch session
	SessionID string `json:"session_id" yaml:"session_id"`

	// SessionStart is when the session began
	SessionStart time.Time `json:"session_start" yaml:"session_start"`

	// LastAnalysisTime is when the most recent cycle completed (zero if none)
	LastAnalysisTime time.Time `json:"last_analysis_time,omitempty" yaml:"last_analysis_time,omitempty"`

	// LastError is the most recent cycle failure (empty if none)
	LastError string `json:"last_error,omitempty" yaml:"last_error,omitempty"`

	// AnalysisInProgress indicates a cycle is currently running.
	// It must agree with Phase == PhaseAnalyzing.
	AnalysisInProgress bool `json:"analysis_in_progress" yaml:"analysis_in_progress"`

	// Metadata carries session-scoped details for the display layer
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Clone returns a deep copy of the state data
func (d WatchStateData) Clone() WatchStateData {
	out := d
	if d.Metadata != nil {
		out.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// WatchOptions configures a watch session
type WatchOptions struct {
	// Interval is the delay between analysis cycles
	Interval time.Duration `json:"interval" yaml:"interval"`

	// Analyze configures each cycle run by the watch loop
	Analyze AnalyzeRequest `json:"analyze" yaml:"analyze"`
}
