package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Recorder is an EventHandler that keeps the events it receives. A zero
// Recorder keeps everything; one built with NewRecorder keeps only the most
// recent events. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	limit  int
	events []TaskEvent
}

// NewRecorder creates a recorder that retains at most limit events.
// A limit of zero or less means unbounded.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// HandleEvent implements the EventHandler interface
func (r *Recorder) HandleEvent(_ context.Context, event *TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	if r.limit > 0 && len(r.events) > r.limit {
		r.events = append(r.events[:0], r.events[len(r.events)-r.limit:]...)
	}
	return nil
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []TaskEvent {
	return r.Recent(0)
}

// Recent returns up to n of the latest events in arrival order. n <= 0 returns all.
func (r *Recorder) Recent(n int) []TaskEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	start := 0
	if n > 0 && n < len(r.events) {
		start = len(r.events) - n
	}
	out := make([]TaskEvent, len(r.events)-start)
	copy(out, r.events[start:])
	return out
}

// ForTask returns the events recorded for one task, in arrival order.
func (r *Recorder) ForTask(taskID uuid.UUID) []TaskEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []TaskEvent
	for _, e := range r.events {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}

// TypesFor returns the event types recorded for one task, in arrival order.
func (r *Recorder) TypesFor(taskID uuid.UUID) []TaskEventType {
	var types []TaskEventType
	for _, e := range r.ForTask(taskID) {
		types = append(types, e.Type)
	}
	return types
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
