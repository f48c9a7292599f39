package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Body performs the background phase of a task. It may block on I/O and must
// not touch state owned by the interactive context.
type Body func(ctx context.Context) (any, error)

// Completion consumes the result of a successful Body on the interactive context.
type Completion func(result any)

// ErrorHandler is notified on the interactive context when Body fails.
type ErrorHandler func(err error)

// Option configures a Task at construction time
type Option func(*Task)

// WithErrorHandler sets the callback used to report a background failure.
// Without one, a failure is only logged by the controller.
func WithErrorHandler(h ErrorHandler) Option {
	return func(t *Task) {
		t.onError = h
	}
}

// WithName sets a human readable label used in logs and events.
func WithName(name string) Option {
	return func(t *Task) {
		t.name = name
	}
}

// Task is a single-use unit of asynchronous work. The pointer returned by New
// is the caller's handle for cancelling and observing the task.
type Task struct {
	id         uuid.UUID
	name       string
	owner      OwnerKey
	body       Body
	completion Completion
	onError    ErrorHandler
	createdAt  time.Time

	state     stateMachine
	cancelled atomic.Bool
	queued    atomic.Bool
	done      chan struct{}

	// mu serializes finishing against Cancel and guards the fields below
	mu     sync.Mutex
	result any
	err    error

	// onPendingCancel is set by the controller holding the task in its queue
	onPendingCancel func(*Task)
}

// New constructs a task in StateCreated. It does not start it; hand it to a
// Controller with Enqueue.
func New(owner OwnerKey, body Body, completion Completion, opts ...Option) *Task {
	t := &Task{
		id:         uuid.New(),
		owner:      owner,
		body:       body,
		completion: completion,
		createdAt:  time.Now(),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// NewTyped builds a task from bodies that agree on a concrete result type.
func NewTyped[T any](
	owner OwnerKey,
	body func(ctx context.Context) (T, error),
	completion func(result T),
	opts ...Option,
) *Task {
	var b Body
	if body != nil {
		b = func(ctx context.Context) (any, error) {
			return body(ctx)
		}
	}

	var c Completion
	if completion != nil {
		c = func(result any) {
			v, _ := result.(T)
			completion(v)
		}
	}

	return New(owner, b, c, opts...)
}

// ID returns the task's unique identifier
func (t *Task) ID() uuid.UUID {
	return t.id
}

// Name returns the label set with WithName, or an empty string
func (t *Task) Name() string {
	return t.name
}

// Owner returns the key of the context that submitted the task
func (t *Task) Owner() OwnerKey {
	return t.owner
}

// CreatedAt returns when the task was constructed
func (t *Task) CreatedAt() time.Time {
	return t.createdAt
}

// State returns the current lifecycle state
func (t *Task) State() State {
	return t.state.load()
}

// Cancel flags the task as cancelled. It is safe to call from any goroutine,
// any number of times, and has no effect once the task is finished.
// A pending task is removed from its controller's queue and finishes at once.
// A background body that is already running is not interrupted; its result
// is discarded and the completion body is skipped.
func (t *Task) Cancel() {
	t.mu.Lock()
	if t.state.load() == StateFinished {
		t.mu.Unlock()
		return
	}
	t.cancelled.Store(true)
	hook := t.onPendingCancel
	t.mu.Unlock()

	if hook != nil && t.state.load() == StateCreated {
		hook(t)
	}
}

// IsCancelled reports whether Cancel took effect
func (t *Task) IsCancelled() bool {
	return t.cancelled.Load()
}

// Done returns a channel that is closed once the task reaches StateFinished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the background failure, if any. It is only meaningful after Done is closed.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Result returns the value produced by the background body. It is only
// meaningful after Done is closed and Err is nil.
func (t *Task) Result() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

func (t *Task) String() string {
	if t.name != "" {
		return fmt.Sprintf("%s(%s)", t.name, t.id)
	}
	return t.id.String()
}

// runBackground executes the body, converting a panic into an error.
func (t *Task) runBackground(ctx context.Context) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrBackgroundPanic, p)
		}
	}()

	if t.body == nil {
		return nil, nil
	}
	return t.body(ctx)
}

func (t *Task) setPendingCancelHook(hook func(*Task)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPendingCancel = hook
}

func (t *Task) setOutcome(result any, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.result = result
	t.err = err
}

// finish moves the task from the given state to StateFinished and releases
// Done waiters. It reports whether this call performed the transition.
func (t *Task) finish(from State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.transition(from, StateFinished) {
		return false
	}
	close(t.done)
	return true
}

// discard finishes a task that was never dispatched.
func (t *Task) discard() bool {
	t.cancelled.Store(true)
	return t.finish(StateCreated)
}
