package task

import "errors"

// Common errors returned by the Controller and TaskQueue
var (
	ErrQueueClosed        = errors.New("task queue is closed")
	ErrQueueFull          = errors.New("task queue is full")
	ErrControllerShutdown = errors.New("controller is shut down")
	ErrAlreadyStarted     = errors.New("controller already started")
	ErrNilTask            = errors.New("task is nil")
	ErrTaskReused         = errors.New("task has already been enqueued")

	// ErrBackgroundPanic wraps the value recovered from a panicking background body.
	ErrBackgroundPanic = errors.New("background body panicked")
)
