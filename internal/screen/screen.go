// Package screen ties the lifecycle of a user-facing view to the tasks it
// submits.
package screen

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/phrazzld/graphfeed/internal/task"
)

// ErrDestroyed is returned when submitting work for a destroyed screen.
var ErrDestroyed = errors.New("screen is destroyed")

// Scheduler is the part of task.Controller a screen drives.
type Scheduler interface {
	Enqueue(t *task.Task) error
	Pause(owner task.OwnerKey)
	Resume(owner task.OwnerKey)
	CancelAll(owner task.OwnerKey)
}

// Screen is an owner context. Its tasks are held while it is in the
// background and dropped when it is destroyed.
type Screen struct {
	owner     task.OwnerKey
	scheduler Scheduler
	logger    *slog.Logger

	mu        sync.Mutex
	paused    bool
	destroyed bool
}

// New creates a screen named name on scheduler.
func New(name string, scheduler Scheduler, logger *slog.Logger) *Screen {
	if logger == nil {
		logger = slog.Default()
	}
	owner := task.NewOwnerKey(name)
	return &Screen{
		owner:     owner,
		scheduler: scheduler,
		logger:    logger.With("component", "screen", "owner", owner.String()),
	}
}

// Owner returns the key the screen's tasks are tagged with.
func (s *Screen) Owner() task.OwnerKey {
	return s.owner
}

// Submit builds a task owned by the screen and enqueues it.
func (s *Screen) Submit(body task.Body, completion task.Completion, opts ...task.Option) (*task.Task, error) {
	t := task.New(s.owner, body, completion, opts...)
	if err := s.Enqueue(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Enqueue schedules a task built elsewhere, for example by the request package.
// It holds the screen lock across the scheduler call so a concurrent Destroy
// either refuses the task or cancels it.
func (s *Screen) Enqueue(t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrDestroyed
	}
	return s.scheduler.Enqueue(t)
}

// Pause holds the screen's pending tasks, for when it moves to the background.
func (s *Screen) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused || s.destroyed {
		return
	}
	s.paused = true
	s.scheduler.Pause(s.owner)
	s.logger.Debug("screen paused")
}

// Resume releases held tasks, for when the screen returns to the foreground.
func (s *Screen) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused || s.destroyed {
		return
	}
	s.paused = false
	s.scheduler.Resume(s.owner)
	s.logger.Debug("screen resumed")
}

// Paused reports whether the screen is in the background.
func (s *Screen) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Destroy cancels every task of the screen and clears its pause state.
// Later submissions fail with ErrDestroyed.
func (s *Screen) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.scheduler.CancelAll(s.owner)
	if s.paused {
		s.paused = false
		s.scheduler.Resume(s.owner)
	}
	s.logger.Debug("screen destroyed")
}
