// Package event provides a pub-sub event bus that decouples the task
// orchestrator from whatever observes it.
//
// The orchestrator publishes one event when a task starts and one when it
// finishes or fails, plus a pair of events around every sequence. The
// console reporter and the Prometheus collectors subscribe; the
// orchestrator knows about neither.
//
// # Main Types
//
//   - [Event]: interface providing EventType() and Timestamp()
//   - [Bus]: synchronous dispatcher, safe for concurrent use
//   - [Handler]: func(Event)
//
// # Events
//
//   - [TaskStartedEvent], [TaskCompletedEvent], [TaskFailedEvent]
//   - [SequenceStartedEvent], [SequenceCompletedEvent]
//   - [WatchTriggeredEvent]
//
// # Thread Safety
//
// Tasks in a concurrent group publish from their own goroutines, so Publish
// runs handlers on the caller's goroutine without serialising them.
// A panicking handler is recovered and does not stop delivery to the
// remaining handlers.
//
// # Basic Usage
//
//	bus := event.NewBus()
//	bus.Subscribe(event.TypeTaskFailed, func(e event.Event) {
//	    failed := e.(event.TaskFailedEvent)
//	    log.Printf("%s failed: %v", failed.Task, failed.Err)
//	})
//	bus.Publish(event.NewTaskStartedEvent(runID, "clean"))
package event
