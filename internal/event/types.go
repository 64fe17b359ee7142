package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a "category.action" identifier, e.g. "task.started".
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeTaskStarted       = "task.started"
	TypeTaskCompleted     = "task.completed"
	TypeTaskFailed        = "task.failed"
	TypeSequenceStarted   = "sequence.started"
	TypeSequenceCompleted = "sequence.completed"
	TypeWatchTriggered    = "watch.triggered"
)

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Task Events
// -----------------------------------------------------------------------------

// TaskStartedEvent is emitted right before a task action is invoked.
type TaskStartedEvent struct {
	baseEvent
	RunID string
	Task  string
}

// NewTaskStartedEvent creates a TaskStartedEvent.
func NewTaskStartedEvent(runID, task string) TaskStartedEvent {
	return TaskStartedEvent{
		baseEvent: newBaseEvent(TypeTaskStarted),
		RunID:     runID,
		Task:      task,
	}
}

// TaskCompletedEvent is emitted when a task action returns nil.
type TaskCompletedEvent struct {
	baseEvent
	RunID    string
	Task     string
	Duration time.Duration
}

// NewTaskCompletedEvent creates a TaskCompletedEvent.
func NewTaskCompletedEvent(runID, task string, duration time.Duration) TaskCompletedEvent {
	return TaskCompletedEvent{
		baseEvent: newBaseEvent(TypeTaskCompleted),
		RunID:     runID,
		Task:      task,
		Duration:  duration,
	}
}

// TaskFailedEvent is emitted when a task fails or cannot be resolved.
// Duration is zero for tasks that never started.
type TaskFailedEvent struct {
	baseEvent
	RunID    string
	Task     string
	Duration time.Duration
	Err      error
}

// NewTaskFailedEvent creates a TaskFailedEvent.
func NewTaskFailedEvent(runID, task string, duration time.Duration, err error) TaskFailedEvent {
	return TaskFailedEvent{
		baseEvent: newBaseEvent(TypeTaskFailed),
		RunID:     runID,
		Task:      task,
		Duration:  duration,
		Err:       err,
	}
}

// -----------------------------------------------------------------------------
// Sequence Events
// -----------------------------------------------------------------------------

// SequenceStartedEvent is emitted when the orchestrator begins a sequence.
// Name is the composite task being run, or "" for ad-hoc sequences.
type SequenceStartedEvent struct {
	baseEvent
	RunID string
	Name  string
	Steps int
}

// NewSequenceStartedEvent creates a SequenceStartedEvent.
func NewSequenceStartedEvent(runID, name string, steps int) SequenceStartedEvent {
	return SequenceStartedEvent{
		baseEvent: newBaseEvent(TypeSequenceStarted),
		RunID:     runID,
		Name:      name,
		Steps:     steps,
	}
}

// SequenceCompletedEvent is emitted exactly once per sequence, on success or
// failure.
type SequenceCompletedEvent struct {
	baseEvent
	RunID    string
	Name     string
	Duration time.Duration
	Err      error
}

// NewSequenceCompletedEvent creates a SequenceCompletedEvent.
func NewSequenceCompletedEvent(runID, name string, duration time.Duration, err error) SequenceCompletedEvent {
	return SequenceCompletedEvent{
		baseEvent: newBaseEvent(TypeSequenceCompleted),
		RunID:     runID,
		Name:      name,
		Duration:  duration,
		Err:       err,
	}
}

// Succeeded reports whether the sequence finished without error.
func (e SequenceCompletedEvent) Succeeded() bool { return e.Err == nil }

// -----------------------------------------------------------------------------
// Watch Events
// -----------------------------------------------------------------------------

// WatchTriggeredEvent is emitted when file changes cause tasks to re-run.
type WatchTriggeredEvent struct {
	baseEvent
	Files []string
	Tasks []string
}

// NewWatchTriggeredEvent creates a WatchTriggeredEvent.
func NewWatchTriggeredEvent(files, tasks []string) WatchTriggeredEvent {
	return WatchTriggeredEvent{
		baseEvent: newBaseEvent(TypeWatchTriggered),
		Files:     files,
		Tasks:     tasks,
	}
}
