package task

import (
	"fmt"
	"log/slog"
	"slices"
)

// TaskQueue is the controller's FIFO of tasks that have not been dispatched.
// It is not safe for concurrent use; the Controller guards it with its mutex.
type TaskQueue struct {
	tasks  []*Task
	limit  int
	logger *slog.Logger
	closed bool
}

// NewTaskQueue creates a queue holding at most limit tasks.
// A limit of zero or less means the queue is unbounded.
func NewTaskQueue(limit int, logger *slog.Logger) *TaskQueue {
	return &TaskQueue{
		tasks:  make([]*Task, 0),
		limit:  limit,
		logger: logger,
		closed: false,
	}
}

// Enqueue appends a task to the tail of the queue
// Returns an error if the queue is full or closed
func (q *TaskQueue) Enqueue(task *Task) error {
	if q.closed {
		return ErrQueueClosed
	}

	if q.limit > 0 && len(q.tasks) >= q.limit {
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, q.limit)
	}

	q.tasks = append(q.tasks, task)
	q.logger.Debug("task enqueued",
		"task_id", task.ID(),
		"task_name", task.Name(),
		"owner", task.Owner().String(),
		"queue_len", len(q.tasks))
	return nil
}

// Len returns the number of pending tasks
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}

// PopEligible removes and returns the earliest task accepted by eligible,
// or nil if there is none. Relative order of the remaining tasks is kept.
func (q *TaskQueue) PopEligible(eligible func(*Task) bool) *Task {
	for i, t := range q.tasks {
		if eligible != nil && !eligible(t) {
			continue
		}
		q.tasks = slices.Delete(q.tasks, i, i+1)
		return t
	}
	return nil
}

// Remove takes task out of the queue and reports whether it was pending.
func (q *TaskQueue) Remove(task *Task) bool {
	i := slices.Index(q.tasks, task)
	if i < 0 {
		return false
	}
	q.tasks = slices.Delete(q.tasks, i, i+1)
	return true
}

// RemoveOwner removes every pending task belonging to owner and returns
// them in submission order.
func (q *TaskQueue) RemoveOwner(owner OwnerKey) []*Task {
	var removed []*Task
	kept := q.tasks[:0]
	for _, t := range q.tasks {
		if t.Owner() == owner {
			removed = append(removed, t)
			continue
		}
		kept = append(kept, t)
	}
	// Drop references held past the new length
	for i := len(kept); i < len(q.tasks); i++ {
		q.tasks[i] = nil
	}
	q.tasks = kept
	return removed
}

// Close closes the queue, preventing further submission, and returns the
// tasks that were still pending.
func (q *TaskQueue) Close() []*Task {
	if q.closed {
		return nil
	}
	q.closed = true
	remaining := q.tasks
	q.tasks = nil
	q.logger.Info("task queue closed", "discarded", len(remaining))
	return remaining
}

// Closed reports whether Close has been called
func (q *TaskQueue) Closed() bool {
	return q.closed
}
