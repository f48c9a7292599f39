package looper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Common errors returned by the Looper
var (
	ErrStopped        = errors.New("looper is stopped")
	ErrAlreadyRunning = errors.New("looper is already running")
)

// Looper is an unbounded FIFO of functions drained by the goroutine that
// calls Run. Post never blocks, so code running on the looper may post
// more work to it.
type Looper struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool
	running bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	logger *slog.Logger
}

// New creates a looper. Nothing runs until Run is called.
func New(logger *slog.Logger) *Looper {
	return &Looper{
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger.With("component", "looper"),
	}
}

// Post appends fn to the queue. It returns ErrStopped once Stop has been called.
func (l *Looper) Post(fn func()) error {
	if fn == nil {
		return nil
	}

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	// Wake the loop; a pending wake-up already covers this post
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Run drains the queue on the calling goroutine until Stop is called or ctx
// is done. Functions already queued when Stop is called still run; functions
// queued when ctx is done are dropped.
func (l *Looper) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	l.running = true
	l.mu.Unlock()
	defer close(l.done)

	l.logger.Debug("looper running")
	for {
		if batch := l.take(); len(batch) > 0 {
			for _, fn := range batch {
				l.invoke(fn)
			}
			continue
		}

		select {
		case <-ctx.Done():
			l.markStopped()
			l.logger.Debug("looper context done", "dropped", l.Pending())
			return ctx.Err()
		case <-l.stop:
			for _, fn := range l.take() {
				l.invoke(fn)
			}
			l.logger.Debug("looper stopped")
			return nil
		case <-l.wake:
		}
	}
}

// Stop refuses further posts and makes Run return once the queue is drained.
// It is safe to call more than once.
func (l *Looper) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	close(l.stop)
}

// Done returns a channel that is closed when Run returns.
func (l *Looper) Done() <-chan struct{} {
	return l.done
}

// Pending returns the number of functions waiting to run.
func (l *Looper) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// PostAndWait posts fn and blocks until it has run or ctx is done.
// It must not be called from the looper goroutine.
func (l *Looper) PostAndWait(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	if err := l.Post(func() {
		defer close(ran)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Looper) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	batch := l.queue
	l.queue = nil
	return batch
}

func (l *Looper) markStopped() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.stopped {
		l.stopped = true
		close(l.stop)
	}
}

// invoke runs fn, keeping the loop alive if it panics.
func (l *Looper) invoke(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			l.logger.Error("posted function panicked",
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}
