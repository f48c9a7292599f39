package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/graphfeed/internal/redact"
)

// TaskEventType names the lifecycle transition a TaskEvent describes
type TaskEventType string

// Possible task event types
const (
	TaskEnqueued   TaskEventType = "enqueued"
	TaskDispatched TaskEventType = "dispatched"
	TaskCompleted  TaskEventType = "completed"
	TaskFailed     TaskEventType = "failed"
	TaskCancelled  TaskEventType = "cancelled"
)

// TaskEvent describes one lifecycle transition of a scheduled task.
// It carries plain values so that handlers do not depend on the task package.
type TaskEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is the transition that happened
	Type TaskEventType `json:"type"`

	// TaskID identifies the task the event is about
	TaskID uuid.UUID `json:"task_id"`

	// TaskName is the optional label given to the task
	TaskName string `json:"task_name,omitempty"`

	// Owner is the string form of the task's owner key
	Owner string `json:"owner"`

	// Error holds the failure message for TaskFailed events
	Error string `json:"error,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskEvent creates a new TaskEvent of the given type.
func NewTaskEvent(eventType TaskEventType, taskID uuid.UUID, taskName, owner string) *TaskEvent {
	return &TaskEvent{
		ID:        uuid.New(),
		Type:      eventType,
		TaskID:    taskID,
		TaskName:  taskName,
		Owner:     owner,
		CreatedAt: time.Now(),
	}
}

// WithError records err on the event and returns it.
func (e *TaskEvent) WithError(err error) *TaskEvent {
	if err != nil {
		e.Error = redact.Error(err)
	}
	return e
}

// EventHandler defines an interface for components that can handle events.
// Handlers are called synchronously by the emitter and must not block.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the controller to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *TaskEvent) error
}

// HandlerFunc adapts an ordinary function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *TaskEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *TaskEvent) error {
	return f(ctx, event)
}
