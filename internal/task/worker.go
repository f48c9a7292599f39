package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/graphfeed/internal/platform/logger"
)

// worker runs background bodies for a single Controller, one at a time,
// on one long-lived goroutine.
type worker struct {
	// tasks carries dispatched tasks from the controller; the controller never
	// has more than one in flight, so a buffer of one never blocks
	tasks chan *Task

	// wg tracks the worker goroutine for clean shutdown
	wg sync.WaitGroup

	// ctx is passed to every background body and cancelled on stop
	ctx    context.Context
	cancel context.CancelFunc

	logger *slog.Logger

	// onStart and onDone are called on the worker goroutine around each body
	onStart func(t *Task)
	onDone  func(t *Task, result any, err error)

	started bool
	stopped bool
}

func newWorker(
	logger *slog.Logger,
	onStart func(t *Task),
	onDone func(t *Task, result any, err error),
) *worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &worker{
		tasks:   make(chan *Task, 1),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		onStart: onStart,
		onDone:  onDone,
	}
}

// start launches the worker goroutine. Callers serialize start, submit and
// stop under the controller mutex.
func (w *worker) start() {
	if w.started || w.stopped {
		return
	}
	w.started = true
	w.wg.Add(1)
	go w.loop()
}

// submit hands a task to the worker without blocking.
func (w *worker) submit(t *Task) bool {
	if w.stopped {
		return false
	}
	select {
	case w.tasks <- t:
		return true
	default:
		return false
	}
}

// stop cancels the body context and closes the task channel. A task still
// sitting in the channel is drained and handed back through onDone.
func (w *worker) stop() {
	if w.stopped {
		return
	}
	w.stopped = true
	w.cancel()
	close(w.tasks)
}

// wait blocks until the worker goroutine has exited or ctx is done.
func (w *worker) wait(ctx context.Context) error {
	exited := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(exited)
	}()

	select {
	case <-exited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *worker) loop() {
	defer w.wg.Done()

	w.logger.Debug("starting worker")
	for t := range w.tasks {
		w.process(t)
	}
	w.logger.Debug("task channel closed, stopping worker")
}

// process handles execution of a single task
func (w *worker) process(t *Task) {
	log := w.logger.With(
		"task_id", t.ID(),
		"task_name", t.Name(),
		"owner", t.Owner().String(),
	)

	if t.IsCancelled() {
		log.Debug("skipping background body of cancelled task")
		w.onDone(t, nil, nil)
		return
	}

	if w.onStart != nil {
		w.onStart(t)
	}

	log.Debug("running background body")
	start := time.Now()

	result, err := t.runBackground(logger.WithLogger(w.ctx, log))

	log.Debug("background body returned",
		"duration", time.Since(start),
		"failed", err != nil)
	w.onDone(t, result, err)
}
