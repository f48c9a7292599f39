// Package events provides task lifecycle events and a simple in-memory emitter.
//
// The task controller publishes a TaskEvent whenever a task is enqueued,
// dispatched, completed, failed, or cancelled. Handlers subscribe without the
// controller knowing about them, which keeps diagnostics and UI bookkeeping
// out of the scheduler.
//
// The primary components are:
// - TaskEvent: A single lifecycle transition of one task
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
