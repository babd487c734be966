package domain

import "time"

// EventType identifies the kind of event emitted by the orchestration layer
type EventType string

const (
	// EventRuleStarted is emitted when a scheduled rule check begins
	EventRuleStarted EventType = "ruleStarted"

	// EventRuleCompleted is emitted when a scheduled rule check succeeds
	EventRuleCompleted EventType = "ruleCompleted"

	// EventRuleFailed is emitted when a scheduled rule check fails
	EventRuleFailed EventType = "ruleFailed"

	// EventCycleCompleted is emitted after each analysis cycle
	EventCycleCompleted EventType = "cycleCompleted"

	// EventWatchError is emitted on non-fatal watch loop errors
	EventWatchError EventType = "watchError"

	// EventStateTransition is emitted when the watch state machine moves
	EventStateTransition EventType = "stateTransition"

	// EventInvalidTransition is emitted when a transition request is rejected
	EventInvalidTransition EventType = "invalidTransition"
)

// Event is implemented by every payload emitted through an EventSink.
// Consumers switch on the concrete type to access payload fields.
type Event interface {
	// Type identifies the event kind
	Type() EventType

	// At is when the event occurred
	At() time.Time
}

// RuleEvent reports the lifecycle of one scheduled rule execution
type RuleEvent struct {
	// Kind is one of EventRuleStarted, EventRuleCompleted, EventRuleFailed
	Kind EventType

	// Timestamp is when the event occurred
	Timestamp time.Time

	// Rule is the rule being checked
	Rule string

	// Engine is the engine running the check
	Engine string

	// ViolationsFound is the finding count (completed events only)
	ViolationsFound int

	// Duration is the execution time (completed and failed events)
	Duration time.Duration

	// Err is the failure description (failed events only)
	Err string
}

// Type implements Event
func (e RuleEvent) Type() EventType { return e.Kind }

// At implements Event
func (e RuleEvent) At() time.Time { return e.Timestamp }

// CycleEvent reports one completed analysis cycle
type CycleEvent struct {
	// Timestamp is when the cycle completed
	Timestamp time.Time

	// CycleNumber is the 1-based count of completed cycles this session
	CycleNumber int

	// Total is the number of violations after deduplication
	Total int

	// BySeverity counts violations per severity level
	BySeverity map[Severity]int

	// Duration is the cycle wall-clock time
	Duration time.Duration
}

// Type implements Event
func (e CycleEvent) Type() EventType { return EventCycleCompleted }

// At implements Event
func (e CycleEvent) At() time.Time { return e.Timestamp }

// WatchErrorEvent reports a non-fatal error inside the watch loop
type WatchErrorEvent struct {
	// Timestamp is when the error occurred
	Timestamp time.Time

	// Op names the operation that failed
	Op string

	// Err is the error description
	Err string
}

// Type implements Event
func (e WatchErrorEvent) Type() EventType { return EventWatchError }

// At implements Event
func (e WatchErrorEvent) At() time.Time { return e.Timestamp }

// TransitionEvent reports a watch state machine transition attempt
type TransitionEvent struct {
	// Timestamp is when the attempt was made
	Timestamp time.Time

	// From is the phase before the attempt
	From WatchPhase

	// To is the requested phase
	To WatchPhase

	// Accepted indicates whether the transition was applied
	Accepted bool
}

// Type implements Event
func (e TransitionEvent) Type() EventType {
	if e.Accepted {
		return EventStateTransition
	}
	return EventInvalidTransition
}

// At implements Event
func (e TransitionEvent) At() time.Time { return e.Timestamp }

// EventSink consumes orchestration events. Publish must not block;
// slow consumers should buffer internally.
type EventSink interface {
	Publish(event Event)
}

// NopSink discards all events
type NopSink struct{}

// Publish implements EventSink
func (NopSink) Publish(Event) {}

// SinkFunc adapts a function to an EventSink
type SinkFunc func(Event)

// Publish implements EventSink
func (f SinkFunc) Publish(e Event) { f(e) }
