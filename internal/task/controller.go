package task

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"strings"
	"sync"

	"github.com/phrazzld/graphfeed/internal/events"
	"github.com/phrazzld/graphfeed/internal/redact"
)

// PausePolicy decides what Pause and Resume act on. A controller uses one
// policy for its whole lifetime.
type PausePolicy string

// Supported pause policies
const (
	// PausePerOwner pauses only the tasks of the given owner; other owners
	// sharing the controller keep running.
	PausePerOwner PausePolicy = "owner"

	// PauseController pauses the whole controller; the owner argument of
	// Pause and Resume is ignored.
	PauseController PausePolicy = "controller"
)

// Poster posts a function to the interactive context. Functions must run one
// at a time, in posting order, on that context.
type Poster interface {
	Post(fn func()) error
}

// ControllerConfig holds configuration for the task controller
type ControllerConfig struct {
	// MaxPending caps the number of queued tasks; zero or less means unbounded
	MaxPending int

	// PausePolicy selects per-owner or controller-wide pausing
	PausePolicy PausePolicy
}

// DefaultControllerConfig returns a ControllerConfig with reasonable defaults
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		MaxPending:  0,
		PausePolicy: PausePerOwner,
	}
}

// ControllerOption configures optional Controller collaborators
type ControllerOption func(*Controller)

// WithEventEmitter publishes task lifecycle events through emitter
func WithEventEmitter(emitter events.EventEmitter) ControllerOption {
	return func(c *Controller) {
		c.emitter = emitter
	}
}

// Controller queues tasks and runs them one at a time. Background bodies run
// on a single worker goroutine and completion bodies are posted to the
// interactive context. The next task is dispatched only after the current
// one has finished, so the completion of task N always precedes the
// background body of task N+1.
type Controller struct {
	// mu guards every field below it
	mu         sync.Mutex
	queue      *TaskQueue
	current    *Task
	policy     PausePolicy
	paused     map[OwnerKey]bool
	pausedAll  bool
	started    bool
	isShutdown bool
	worker     *worker

	loop    Poster
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewController creates a controller that posts completions to loop.
// The controller does not dispatch anything until Start is called.
func NewController(loop Poster, config ControllerConfig, logger *slog.Logger, opts ...ControllerOption) *Controller {
	logger = logger.With("component", "task_controller")

	policy := config.PausePolicy
	switch policy {
	case PausePerOwner, PauseController:
	default:
		logger.Warn("invalid pause policy specified, using default",
			"specified_policy", policy,
			"default_policy", PausePerOwner)
		policy = PausePerOwner
	}

	c := &Controller{
		queue:  NewTaskQueue(config.MaxPending, logger),
		policy: policy,
		paused: make(map[OwnerKey]bool),
		loop:   loop,
		logger: logger,
	}
	c.worker = newWorker(logger, c.handleBackgroundStart, c.handleBackgroundDone)

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Start launches the background worker and dispatches any task queued so far.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.isShutdown {
		c.mu.Unlock()
		return ErrControllerShutdown
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.worker.start()
	c.mu.Unlock()

	c.logger.Info("task controller started", "pause_policy", c.policy)
	c.processNext()
	return nil
}

// Submit constructs a task and enqueues it. The returned task is the handle
// used to cancel or observe it.
func (c *Controller) Submit(owner OwnerKey, body Body, completion Completion, opts ...Option) (*Task, error) {
	t := New(owner, body, completion, opts...)
	if err := c.Enqueue(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Enqueue appends t to the pending queue and attempts a dispatch.
// Enqueueing after Shutdown, or enqueueing the same task twice, is a
// programming error and is reported without queueing anything.
func (c *Controller) Enqueue(t *Task) error {
	if t == nil {
		return ErrNilTask
	}

	c.mu.Lock()
	if c.isShutdown {
		c.mu.Unlock()
		return fmt.Errorf("enqueue %s: %w", t, ErrControllerShutdown)
	}
	if t.State() != StateCreated || !t.queued.CompareAndSwap(false, true) {
		c.mu.Unlock()
		return fmt.Errorf("enqueue %s: %w", t, ErrTaskReused)
	}
	if err := c.queue.Enqueue(t); err != nil {
		t.queued.Store(false)
		c.mu.Unlock()
		return fmt.Errorf("enqueue %s: %w", t, err)
	}
	t.setPendingCancelHook(c.discardPending)
	c.mu.Unlock()

	c.emit(events.TaskEnqueued, t, nil)

	// Cancelled before the hook was in place
	if t.IsCancelled() {
		c.discardPending(t)
	}
	c.processNext()
	return nil
}

// Pause stops dispatching tasks of owner, or of every owner under
// PauseController. A task that is already running is not affected.
func (c *Controller) Pause(owner OwnerKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.policy == PauseController {
		c.pausedAll = true
	} else {
		c.paused[owner] = true
	}
	c.logger.Debug("paused", "owner", owner.String(), "pause_policy", c.policy)
}

// Resume undoes Pause and attempts a dispatch.
func (c *Controller) Resume(owner OwnerKey) {
	c.mu.Lock()
	if c.policy == PauseController {
		c.pausedAll = false
	} else {
		delete(c.paused, owner)
	}
	c.mu.Unlock()

	c.logger.Debug("resumed", "owner", owner.String(), "pause_policy", c.policy)
	c.processNext()
}

// IsPaused reports whether tasks of owner are currently held back.
func (c *Controller) IsPaused(owner OwnerKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.policy == PauseController {
		return c.pausedAll
	}
	return c.paused[owner]
}

// CancelAll discards every pending task of owner without running it and
// flags the current task as cancelled if owner submitted it.
func (c *Controller) CancelAll(owner OwnerKey) {
	c.mu.Lock()
	removed := c.queue.RemoveOwner(owner)
	for _, t := range removed {
		t.discard()
	}
	current := c.current
	if current != nil && current.Owner() == owner {
		current.Cancel()
	} else {
		current = nil
	}
	c.mu.Unlock()

	for _, t := range removed {
		c.emit(events.TaskCancelled, t, nil)
	}
	c.logger.Debug("cancelled tasks for owner",
		"owner", owner.String(),
		"discarded", len(removed),
		"current_cancelled", current != nil)
}

// discardPending finishes a task cancelled through its handle while it was
// still queued. It runs on the goroutine that called Cancel.
func (c *Controller) discardPending(t *Task) {
	c.mu.Lock()
	removed := c.queue.Remove(t)
	if removed {
		t.discard()
	}
	c.mu.Unlock()

	if !removed {
		return
	}
	c.logger.Debug("discarded cancelled pending task",
		"task_id", t.ID(),
		"task_name", t.Name(),
		"owner", t.Owner().String())
	c.emit(events.TaskCancelled, t, nil)
}

// Pending returns the number of queued tasks that have not been dispatched
func (c *Controller) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Len()
}

// Current returns the task that is running or completing, or nil when idle.
func (c *Controller) Current() *Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.State() == StateFinished {
		return nil
	}
	return c.current
}

// Stats is a point-in-time view of a controller.
type Stats struct {
	Pending      int
	Current      *Task
	PausePolicy  PausePolicy
	PausedOwners []OwnerKey
	PausedAll    bool
	Started      bool
	Shutdown     bool
}

// Stats returns a consistent snapshot of the controller's state.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Pending:     c.queue.Len(),
		PausePolicy: c.policy,
		PausedAll:   c.pausedAll,
		Started:     c.started,
		Shutdown:    c.isShutdown,
	}
	if c.current != nil && c.current.State() != StateFinished {
		s.Current = c.current
	}
	for owner := range c.paused {
		s.PausedOwners = append(s.PausedOwners, owner)
	}
	slices.SortFunc(s.PausedOwners, func(a, b OwnerKey) int {
		return strings.Compare(a.String(), b.String())
	})
	return s
}

// Shutdown discards all pending tasks, cancels the current one, and stops
// the worker. It waits for the worker goroutine to exit or for ctx to be
// done. The controller cannot be reused afterwards. Calling Shutdown again
// has no further effect and only waits again.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	if c.isShutdown {
		c.mu.Unlock()
		return c.worker.wait(ctx)
	}
	c.isShutdown = true

	discarded := c.queue.Close()
	for _, t := range discarded {
		t.discard()
	}
	if c.current != nil {
		c.current.Cancel()
	}
	c.worker.stop()
	c.mu.Unlock()

	for _, t := range discarded {
		c.emit(events.TaskCancelled, t, nil)
	}
	c.logger.Info("task controller shutting down", "discarded", len(discarded))

	if err := c.worker.wait(ctx); err != nil {
		return fmt.Errorf("waiting for worker: %w", err)
	}
	return nil
}

// processNext dispatches the earliest eligible pending task if the
// controller is idle. It is called after enqueue, after a task finishes,
// after resume, and after start.
func (c *Controller) processNext() {
	c.mu.Lock()
	skipped := c.dispatchLocked()
	c.mu.Unlock()

	for _, t := range skipped {
		c.emit(events.TaskCancelled, t, nil)
	}
}

// dispatchLocked hands the next task to the worker and returns the tasks it
// discarded on the way.
func (c *Controller) dispatchLocked() []*Task {
	if c.isShutdown || !c.started {
		return nil
	}
	if c.current != nil && c.current.State() != StateFinished {
		return nil
	}
	c.current = nil

	if c.policy == PauseController && c.pausedAll {
		return nil
	}

	var skipped []*Task
	for {
		t := c.queue.PopEligible(c.eligibleLocked)
		if t == nil {
			return skipped
		}

		// Cancelled through its handle while pending
		if t.IsCancelled() {
			t.discard()
			skipped = append(skipped, t)
			continue
		}

		if !t.state.transition(StateCreated, StateRunning) {
			c.logger.Error("pending task was not in created state",
				"task_id", t.ID(),
				"state", t.State())
			continue
		}

		c.current = t
		if !c.worker.submit(t) {
			// Unreachable while the single-current invariant holds
			c.logger.Error("worker rejected task", "task_id", t.ID())
			t.Cancel()
			t.finish(StateRunning)
			c.current = nil
			skipped = append(skipped, t)
			continue
		}

		c.logger.Debug("task dispatched",
			"task_id", t.ID(),
			"task_name", t.Name(),
			"owner", t.Owner().String(),
			"pending", c.queue.Len())
		return skipped
	}
}

func (c *Controller) eligibleLocked(t *Task) bool {
	if c.policy == PauseController {
		return !c.pausedAll
	}
	return !c.paused[t.Owner()]
}

// handleBackgroundStart runs on the worker goroutine right before a body.
func (c *Controller) handleBackgroundStart(t *Task) {
	c.emit(events.TaskDispatched, t, nil)
}

// handleBackgroundDone runs on the worker goroutine after a body returns.
func (c *Controller) handleBackgroundDone(t *Task, result any, err error) {
	t.setOutcome(result, err)

	switch {
	case err != nil:
		t.finish(StateRunning)
		c.logger.Warn("background body failed",
			"task_id", t.ID(),
			"task_name", t.Name(),
			"owner", t.Owner().String(),
			"error", redact.Error(err))
		c.emit(events.TaskFailed, t, err)

		if t.onError != nil && !t.IsCancelled() {
			postErr := c.loop.Post(func() {
				if t.IsCancelled() {
					return
				}
				c.invoke(t, "error handler", func() { t.onError(err) })
			})
			if postErr != nil {
				c.logger.Error("failed to post error handler",
					"task_id", t.ID(),
					"error", postErr)
			}
		}

	case t.IsCancelled():
		t.finish(StateRunning)
		c.emit(events.TaskCancelled, t, nil)

	default:
		if !t.state.transition(StateRunning, StateCompleting) {
			c.logger.Error("running task could not enter completing state",
				"task_id", t.ID(),
				"state", t.State())
			break
		}
		postErr := c.loop.Post(func() { c.complete(t) })
		if postErr == nil {
			// complete advances the controller once the completion has run
			return
		}
		c.logger.Error("failed to post completion, dropping it",
			"task_id", t.ID(),
			"error", postErr)
		t.finish(StateCompleting)
		c.emit(events.TaskCancelled, t, nil)
	}

	c.processNext()
}

// complete runs on the interactive context.
func (c *Controller) complete(t *Task) {
	defer c.processNext()

	if t.IsCancelled() || t.completion == nil {
		t.finish(StateCompleting)
		if t.IsCancelled() {
			c.emit(events.TaskCancelled, t, nil)
		} else {
			c.emit(events.TaskCompleted, t, nil)
		}
		return
	}

	result := t.Result()
	c.invoke(t, "completion", func() { t.completion(result) })
	t.finish(StateCompleting)
	c.emit(events.TaskCompleted, t, nil)
}

// invoke calls caller-supplied UI code, logging instead of propagating a panic.
func (c *Controller) invoke(t *Task, what string, fn func()) {
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("task "+what+" panicked",
				"task_id", t.ID(),
				"task_name", t.Name(),
				"owner", t.Owner().String(),
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

func (c *Controller) emit(eventType events.TaskEventType, t *Task, err error) {
	if c.emitter == nil {
		return
	}
	event := events.NewTaskEvent(eventType, t.ID(), t.Name(), t.Owner().String()).WithError(err)
	if emitErr := c.emitter.EmitEvent(context.Background(), event); emitErr != nil {
		c.logger.Warn("failed to emit task event",
			"task_id", t.ID(),
			"event_type", eventType,
			"error", emitErr)
	}
}
