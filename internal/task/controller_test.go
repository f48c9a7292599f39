package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/graphfeed/internal/events"
	"github.com/phrazzld/graphfeed/internal/looper"
	"github.com/phrazzld/graphfeed/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

// journal records the order in which things happened across goroutines
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) snapshot() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}

type testHarness struct {
	controller *Controller
	loop       *looper.Looper
	recorder   *events.Recorder
}

func newTestHarness(t *testing.T, config ControllerConfig, log *slog.Logger) *testHarness {
	t.Helper()
	if log == nil {
		log = setupTestLogger()
	}

	loop := looper.New(log)
	go func() {
		_ = loop.Run(context.Background())
	}()

	recorder := &events.Recorder{}
	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(recorder)

	c := NewController(loop, config, log, WithEventEmitter(emitter))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = c.Shutdown(ctx)
		loop.Stop()
		<-loop.Done()
	})

	return &testHarness{controller: c, loop: loop, recorder: recorder}
}

// newStartedController returns a running controller with default config
func newStartedController(t *testing.T) *testHarness {
	t.Helper()
	h := newTestHarness(t, DefaultControllerConfig(), nil)
	require.NoError(t, h.controller.Start())
	return h
}

func waitDone(t *testing.T, tasks ...*Task) {
	t.Helper()
	for _, task := range tasks {
		select {
		case <-task.Done():
		case <-time.After(testTimeout):
			t.Fatalf("task %s did not finish, state %s", task, task.State())
		}
	}
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(testTimeout):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// blocker submits a task that holds the controller until release is closed
func blocker(t *testing.T, c *Controller, owner OwnerKey) (task *Task, started, release chan struct{}) {
	t.Helper()
	started = make(chan struct{})
	release = make(chan struct{})
	task, err := c.Submit(owner, func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	}, nil, WithName("blocker"))
	require.NoError(t, err)
	return task, started, release
}

func TestNewController_Defaults(t *testing.T) {
	c := NewController(looper.New(setupTestLogger()), ControllerConfig{PausePolicy: "bogus"}, setupTestLogger())

	assert.Equal(t, PausePerOwner, c.policy)
	assert.Equal(t, 0, c.Pending())
	assert.Nil(t, c.Current())
}

func TestController_FIFOAndNoOverlap(t *testing.T) {
	h := newStartedController(t)
	c := h.controller
	owner := NewOwnerKey("feed")
	j := &journal{}

	var inflight, maxInflight atomic.Int32
	const n = 20

	tasks := make([]*Task, n)
	for i := 0; i < n; i++ {
		task, err := c.Submit(owner,
			func(ctx context.Context) (any, error) {
				cur := inflight.Add(1)
				defer inflight.Add(-1)
				if cur > maxInflight.Load() {
					maxInflight.Store(cur)
				}
				j.add("bg:%d", i)
				time.Sleep(time.Millisecond)
				return i, nil
			},
			func(result any) {
				j.add("done:%d", result.(int))
			},
		)
		require.NoError(t, err)
		tasks[i] = task
	}

	waitDone(t, tasks...)

	expected := make([]string, 0, 2*n)
	for i := 0; i < n; i++ {
		expected = append(expected, fmt.Sprintf("bg:%d", i), fmt.Sprintf("done:%d", i))
	}
	assert.Equal(t, expected, j.snapshot())
	assert.Equal(t, int32(1), maxInflight.Load())
}

func TestController_CompletionPrecedesNextBackground(t *testing.T) {
	h := newStartedController(t)
	c := h.controller
	owner := NewOwnerKey("main")
	j := &journal{}

	a, err := c.Submit(owner,
		func(ctx context.Context) (any, error) {
			j.add("A:bg")
			time.Sleep(50 * time.Millisecond)
			return 1, nil
		},
		func(result any) { j.add("A:done:%v", result) },
	)
	require.NoError(t, err)

	b, err := c.Submit(owner,
		func(ctx context.Context) (any, error) {
			j.add("B:bg")
			return 2, nil
		},
		func(result any) { j.add("B:done:%v", result) },
	)
	require.NoError(t, err)

	waitDone(t, a, b)

	assert.Equal(t, []string{"A:bg", "A:done:1", "B:bg", "B:done:2"}, j.snapshot())
	assert.Equal(t, 1, a.Result())
	assert.Equal(t, 2, b.Result())
}

func TestController_CancelAllBeforeDispatch(t *testing.T) {
	h := newStartedController(t)
	c := h.controller
	other := NewOwnerKey("other")
	owner := NewOwnerKey("main")

	hold, started, release := blocker(t, c, other)
	waitSignal(t, started, "blocker start")

	var ranBody, ranCompletion atomic.Bool
	a, err := c.Submit(owner,
		func(ctx context.Context) (any, error) {
			ranBody.Store(true)
			return nil, nil
		},
		func(any) { ranCompletion.Store(true) },
	)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Pending())

	c.CancelAll(owner)

	// Discarded tasks finish immediately without running
	waitDone(t, a)
	assert.True(t, a.IsCancelled())
	assert.Equal(t, StateFinished, a.State())
	assert.Equal(t, 0, c.Pending())

	close(release)
	waitDone(t, hold)

	assert.Eventually(t, func() bool { return c.Current() == nil }, testTimeout, 5*time.Millisecond)
	assert.False(t, ranBody.Load())
	assert.False(t, ranCompletion.Load())
	assert.Equal(t,
		[]events.TaskEventType{events.TaskEnqueued, events.TaskCancelled},
		h.recorder.TypesFor(a.ID()))
}

func TestController_CancelViaHandleWhilePending(t *testing.T) {
	h := newStartedController(t)
	c := h.controller
	owner := NewOwnerKey("main")

	hold, started, release := blocker(t, c, owner)
	waitSignal(t, started, "blocker start")

	var ranBody atomic.Bool
	a, err := c.Submit(owner, func(ctx context.Context) (any, error) {
		ranBody.Store(true)
		return nil, nil
	}, nil)
	require.NoError(t, err)

	a.Cancel()
	close(release)

	waitDone(t, hold, a)
	assert.False(t, ranBody.Load())
	assert.True(t, a.IsCancelled())
}

func TestController_CancelViaHandleWhileOwnerPaused(t *testing.T) {
	h := newTestHarness(t, ControllerConfig{MaxPending: 1, PausePolicy: PausePerOwner}, nil)
	c := h.controller
	require.NoError(t, c.Start())
	owner := NewOwnerKey("friends")
	c.Pause(owner)

	var ranBody atomic.Bool
	a, err := c.Submit(owner, func(ctx context.Context) (any, error) {
		ranBody.Store(true)
		return nil, nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Pending())

	a.Cancel()

	// Finished without waiting for dispatch or shutdown
	select {
	case <-a.Done():
	default:
		t.Fatal("cancelled pending task should finish immediately")
	}
	assert.Equal(t, StateFinished, a.State())
	assert.Equal(t, 0, c.Pending())
	assert.Equal(t,
		[]events.TaskEventType{events.TaskEnqueued, events.TaskCancelled},
		h.recorder.TypesFor(a.ID()))

	// The freed slot accepts another task
	b, err := c.Submit(owner, nil, nil)
	require.NoError(t, err)

	c.Resume(owner)
	waitDone(t, b)
	assert.False(t, ranBody.Load())

	// A second cancel is a no-op
	a.Cancel()
	assert.Equal(t,
		[]events.TaskEventType{events.TaskEnqueued, events.TaskCancelled},
		h.recorder.TypesFor(a.ID()))
}

func TestController_EnqueueAlreadyCancelledTask(t *testing.T) {
	h := newStartedController(t)
	c := h.controller

	var ranBody atomic.Bool
	a := New(NewOwnerKey("main"), func(ctx context.Context) (any, error) {
		ranBody.Store(true)
		return nil, nil
	}, nil)
	a.Cancel()

	require.NoError(t, c.Enqueue(a))
	waitDone(t, a)
	assert.False(t, ranBody.Load())
	assert.Equal(t, 0, c.Pending())
}

func TestController_CancelAllWhileRunning(t *testing.T) {
	h := newStartedController(t)
	c := h.controller
	owner := NewOwnerKey("friends")
	other := NewOwnerKey("main")

	started := make(chan struct{})
	release := make(chan struct{})
	var bodyFinished, ranCompletion atomic.Bool

	a, err := c.Submit(owner,
		func(ctx context.Context) (any, error) {
			close(started)
			<-release
			bodyFinished.Store(true)
			return "data", nil
		},
		func(any) { ranCompletion.Store(true) },
	)
	require.NoError(t, err)

	waitSignal(t, started, "body start")
	assert.Same(t, a, c.Current())

	c.CancelAll(owner)
	close(release)

	// The next task of another owner still runs normally
	var got atomic.Value
	b, err := c.Submit(other, func(ctx context.Context) (any, error) {
		return 7, nil
	}, func(result any) { got.Store(result) })
	require.NoError(t, err)

	waitDone(t, a, b)
	assert.True(t, bodyFinished.Load(), "a running body is not interrupted")
	assert.False(t, ranCompletion.Load(), "completion must be skipped after cancel")
	assert.True(t, a.IsCancelled())
	assert.Equal(t, 7, got.Load())
}

func TestController_PauseCorrectness(t *testing.T) {
	h := newStartedController(t)
	c := h.controller
	owner := NewOwnerKey("main")

	c.Pause(owner)
	assert.True(t, c.IsPaused(owner))

	startedCh := make(chan int, 3)
	gate := make(chan struct{})
	tasks := make([]*Task, 3)
	for i := range tasks {
		task, err := c.Submit(owner, func(ctx context.Context) (any, error) {
			startedCh <- i
			<-gate
			return nil, nil
		}, nil)
		require.NoError(t, err)
		tasks[i] = task
	}

	// Nothing is dispatched while paused
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, startedCh, 0)
	assert.Nil(t, c.Current())
	assert.Equal(t, 3, c.Pending())

	// Resume dispatches exactly the oldest task
	c.Resume(owner)
	select {
	case i := <-startedCh:
		assert.Equal(t, 0, i)
	case <-time.After(testTimeout):
		t.Fatal("resume did not dispatch")
	}
	assert.Same(t, tasks[0], c.Current())
	assert.Equal(t, 2, c.Pending())
	assert.Len(t, startedCh, 0)

	// The controller continues on its own from there
	close(gate)
	waitDone(t, tasks...)
	assert.Equal(t, 1, <-startedCh)
	assert.Equal(t, 2, <-startedCh)
}

func TestController_PauseDoesNotAffectRunningTask(t *testing.T) {
	h := newStartedController(t)
	c := h.controller
	owner := NewOwnerKey("main")

	var completed atomic.Bool
	started := make(chan struct{})
	release := make(chan struct{})
	a, err := c.Submit(owner, func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	}, func(any) { completed.Store(true) })
	require.NoError(t, err)

	waitSignal(t, started, "body start")
	c.Pause(owner)
	close(release)

	waitDone(t, a)
	assert.True(t, completed.Load())
}

func TestController_PausePerOwnerLetsOthersRun(t *testing.T) {
	h := newStartedController(t)
	c := h.controller
	background := NewOwnerKey("friends")
	foreground := NewOwnerKey("main")

	c.Pause(background)

	var ranPaused atomic.Bool
	paused, err := c.Submit(background, func(ctx context.Context) (any, error) {
		ranPaused.Store(true)
		return nil, nil
	}, nil)
	require.NoError(t, err)

	active, err := c.Submit(foreground, func(ctx context.Context) (any, error) {
		return nil, nil
	}, nil)
	require.NoError(t, err)

	waitDone(t, active)
	assert.False(t, ranPaused.Load())
	assert.Equal(t, StateCreated, paused.State())
	assert.False(t, c.IsPaused(foreground))

	c.Resume(background)
	waitDone(t, paused)
	assert.True(t, ranPaused.Load())
}

func TestController_PauseControllerPolicy(t *testing.T) {
	h := newTestHarness(t, ControllerConfig{PausePolicy: PauseController}, nil)
	c := h.controller
	require.NoError(t, c.Start())

	screen := NewOwnerKey("main")
	other := NewOwnerKey("friends")

	// Pausing through any key pauses every owner
	c.Pause(screen)
	assert.True(t, c.IsPaused(other))

	var ran atomic.Bool
	task, err := c.Submit(other, func(ctx context.Context) (any, error) {
		ran.Store(true)
		return nil, nil
	}, nil)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.False(t, ran.Load())

	c.Resume(other)
	waitDone(t, task)
	assert.True(t, ran.Load())
	assert.False(t, c.IsPaused(screen))
}

func TestController_FailureThenSuccess(t *testing.T) {
	h := newStartedController(t)
	c := h.controller
	owner := NewOwnerKey("main")

	errCh := make(chan error, 1)
	var aCompleted atomic.Bool
	a, err := c.Submit(owner,
		func(ctx context.Context) (any, error) {
			return nil, errors.New("network down")
		},
		func(any) { aCompleted.Store(true) },
		WithErrorHandler(func(err error) { errCh <- err }),
	)
	require.NoError(t, err)

	resultCh := make(chan any, 1)
	b, err := c.Submit(owner,
		func(ctx context.Context) (any, error) { return 7, nil },
		func(result any) { resultCh <- result },
	)
	require.NoError(t, err)

	waitDone(t, a, b)

	select {
	case err := <-errCh:
		assert.EqualError(t, err, "network down")
	case <-time.After(testTimeout):
		t.Fatal("error handler was not called")
	}
	assert.Equal(t, 7, <-resultCh)
	assert.False(t, aCompleted.Load())
	assert.EqualError(t, a.Err(), "network down")
	assert.NoError(t, b.Err())

	assert.Eventually(t, func() bool {
		types := h.recorder.TypesFor(a.ID())
		return len(types) == 3 && types[2] == events.TaskFailed
	}, testTimeout, 5*time.Millisecond)
}

func TestController_FailureWithoutErrorHandler(t *testing.T) {
	h := newStartedController(t)
	c := h.controller
	owner := NewOwnerKey("main")

	a, err := c.Submit(owner, func(ctx context.Context) (any, error) {
		return nil, errors.New("malformed response")
	}, nil)
	require.NoError(t, err)
	b, err := c.Submit(owner, func(ctx context.Context) (any, error) { return nil, nil }, nil)
	require.NoError(t, err)

	waitDone(t, a, b)
	assert.Error(t, a.Err())
}

func TestController_BackgroundPanicIsFailure(t *testing.T) {
	h := newStartedController(t)
	c := h.controller

	errCh := make(chan error, 1)
	a, err := c.Submit(NewOwnerKey("main"),
		func(ctx context.Context) (any, error) { panic("nil map") },
		nil,
		WithErrorHandler(func(err error) { errCh <- err }),
	)
	require.NoError(t, err)

	waitDone(t, a)
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrBackgroundPanic)
	case <-time.After(testTimeout):
		t.Fatal("error handler was not called")
	}
}

func TestController_CompletionPanicDoesNotStall(t *testing.T) {
	logBuf := &logger.TestLogBuffer{}
	log := slog.New(slog.NewJSONHandler(logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	h := newTestHarness(t, DefaultControllerConfig(), log)
	c := h.controller
	require.NoError(t, c.Start())
	owner := NewOwnerKey("main")

	a, err := c.Submit(owner,
		func(ctx context.Context) (any, error) { return 1, nil },
		func(any) { panic("widget gone") },
	)
	require.NoError(t, err)

	var got atomic.Value
	b, err := c.Submit(owner,
		func(ctx context.Context) (any, error) { return 2, nil },
		func(result any) { got.Store(result) },
	)
	require.NoError(t, err)

	waitDone(t, a, b)
	assert.Equal(t, 2, got.Load())
	assert.Eventually(t, func() bool {
		return containsLog(logBuf, "task completion panicked")
	}, testTimeout, 5*time.Millisecond)
}

func containsLog(buf *logger.TestLogBuffer, msg string) bool {
	entries, err := buf.Entries()
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e["msg"] == msg {
			return true
		}
	}
	return false
}

func TestController_AtMostOneNotification(t *testing.T) {
	h := newStartedController(t)
	c := h.controller
	owner := NewOwnerKey("main")

	const n = 30
	counts := make([]atomic.Int32, n)
	tasks := make([]*Task, n)
	for i := 0; i < n; i++ {
		task, err := c.Submit(owner,
			func(ctx context.Context) (any, error) { return i, nil },
			func(any) { counts[i].Add(1) },
		)
		require.NoError(t, err)
		tasks[i] = task
	}

	waitDone(t, tasks...)
	for _, task := range tasks {
		// Cancelling a finished task changes nothing
		task.Cancel()
		assert.False(t, task.IsCancelled())
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	require.NoError(t, h.loop.PostAndWait(ctx, func() {}))

	for i := range counts {
		assert.Equal(t, int32(1), counts[i].Load(), "task %d", i)
	}
}

func TestController_EventSequence(t *testing.T) {
	h := newStartedController(t)

	a, err := h.controller.Submit(NewOwnerKey("main"),
		func(ctx context.Context) (any, error) { return nil, nil },
		func(any) {},
		WithName("profile"),
	)
	require.NoError(t, err)
	waitDone(t, a)

	assert.Eventually(t, func() bool {
		return len(h.recorder.TypesFor(a.ID())) == 3
	}, testTimeout, 5*time.Millisecond)
	assert.Equal(t,
		[]events.TaskEventType{events.TaskEnqueued, events.TaskDispatched, events.TaskCompleted},
		h.recorder.TypesFor(a.ID()))
	assert.Equal(t, "profile", h.recorder.Events()[0].TaskName)
}

func TestController_EnqueueBeforeStart(t *testing.T) {
	h := newTestHarness(t, DefaultControllerConfig(), nil)
	c := h.controller

	var ran atomic.Bool
	a, err := c.Submit(NewOwnerKey("main"), func(ctx context.Context) (any, error) {
		ran.Store(true)
		return nil, nil
	}, nil)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran.Load())
	assert.Equal(t, 1, c.Pending())

	require.NoError(t, c.Start())
	assert.ErrorIs(t, c.Start(), ErrAlreadyStarted)

	waitDone(t, a)
	assert.True(t, ran.Load())
}

func TestController_EnqueueErrors(t *testing.T) {
	h := newTestHarness(t, ControllerConfig{MaxPending: 1, PausePolicy: PausePerOwner}, nil)
	c := h.controller
	owner := NewOwnerKey("main")

	assert.ErrorIs(t, c.Enqueue(nil), ErrNilTask)

	first := New(owner, nil, nil)
	require.NoError(t, c.Enqueue(first))
	assert.ErrorIs(t, c.Enqueue(first), ErrTaskReused)

	// Not started, so the first task still occupies the only slot
	second := New(owner, nil, nil)
	assert.ErrorIs(t, c.Enqueue(second), ErrQueueFull)

	// A rejected task may be enqueued again once there is room
	require.NoError(t, c.Start())
	waitDone(t, first)
	require.NoError(t, c.Enqueue(second))
	waitDone(t, second)

	// A finished task cannot be reused
	assert.ErrorIs(t, c.Enqueue(second), ErrTaskReused)
}

func TestController_ShutdownIsIdempotent(t *testing.T) {
	h := newStartedController(t)
	c := h.controller
	owner := NewOwnerKey("main")

	c.Pause(owner)
	var ran atomic.Int32
	tasks := make([]*Task, 2)
	for i := range tasks {
		task, err := c.Submit(owner, func(ctx context.Context) (any, error) {
			ran.Add(1)
			return nil, nil
		}, nil)
		require.NoError(t, err)
		tasks[i] = task
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	require.NoError(t, c.Shutdown(ctx))
	waitDone(t, tasks...)
	for _, task := range tasks {
		assert.True(t, task.IsCancelled())
	}
	eventCount := h.recorder.Len()

	// Second call has no further effect
	require.NoError(t, c.Shutdown(ctx))
	assert.Equal(t, eventCount, h.recorder.Len())
	assert.Equal(t, int32(0), ran.Load())

	_, err := c.Submit(owner, nil, nil)
	assert.ErrorIs(t, err, ErrControllerShutdown)
	assert.ErrorIs(t, c.Start(), ErrControllerShutdown)
}

func TestController_ShutdownCancelsRunningTask(t *testing.T) {
	h := newStartedController(t)
	c := h.controller

	started := make(chan struct{})
	var completed atomic.Bool
	a, err := c.Submit(NewOwnerKey("main"),
		func(ctx context.Context) (any, error) {
			close(started)
			<-ctx.Done()
			return nil, nil
		},
		func(any) { completed.Store(true) },
	)
	require.NoError(t, err)
	waitSignal(t, started, "body start")

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	require.NoError(t, c.Shutdown(ctx))

	waitDone(t, a)
	assert.True(t, a.IsCancelled())
	assert.False(t, completed.Load())
}

func TestController_ShutdownWaitRespectsContext(t *testing.T) {
	h := newStartedController(t)
	c := h.controller

	started := make(chan struct{})
	release := make(chan struct{})
	a, err := c.Submit(NewOwnerKey("main"), func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return nil, nil
	}, nil)
	require.NoError(t, err)
	waitSignal(t, started, "body start")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = c.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	waitDone(t, a)
	assert.True(t, a.IsCancelled())
}

func TestController_InteractiveContextStopped(t *testing.T) {
	log := setupTestLogger()
	loop := looper.New(log)
	loop.Stop()

	c := NewController(loop, DefaultControllerConfig(), log)
	require.NoError(t, c.Start())
	t.Cleanup(func() {
		_ = c.Shutdown(context.Background())
	})

	var completed atomic.Int32
	owner := NewOwnerKey("main")
	a, err := c.Submit(owner, func(ctx context.Context) (any, error) { return 1, nil },
		func(any) { completed.Add(1) })
	require.NoError(t, err)
	b, err := c.Submit(owner, func(ctx context.Context) (any, error) { return 2, nil },
		func(any) { completed.Add(1) })
	require.NoError(t, err)

	// The controller keeps advancing even though completions cannot be delivered
	waitDone(t, a, b)
	assert.Equal(t, int32(0), completed.Load())
}

func TestController_Stats(t *testing.T) {
	h := newTestHarness(t, DefaultControllerConfig(), nil)
	c := h.controller

	stats := c.Stats()
	assert.False(t, stats.Started)
	assert.Equal(t, PausePerOwner, stats.PausePolicy)

	require.NoError(t, c.Start())
	feed := NewOwnerKey("feed")
	friends := NewOwnerKey("friends")

	running, started, release := blocker(t, c, feed)
	waitSignal(t, started, "blocker start")

	c.Pause(friends)
	_, err := c.Submit(friends, func(context.Context) (any, error) { return nil, nil }, nil)
	require.NoError(t, err)

	stats = c.Stats()
	assert.True(t, stats.Started)
	assert.False(t, stats.Shutdown)
	assert.Equal(t, 1, stats.Pending)
	assert.Same(t, running, stats.Current)
	assert.Equal(t, []OwnerKey{friends}, stats.PausedOwners)

	close(release)
	waitDone(t, running)

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	require.NoError(t, c.Shutdown(ctx))

	stats = c.Stats()
	assert.True(t, stats.Shutdown)
	assert.Equal(t, 0, stats.Pending)
	assert.Nil(t, stats.Current)
}
