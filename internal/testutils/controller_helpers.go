package testutils

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/phrazzld/graphfeed/internal/looper"
	"github.com/phrazzld/graphfeed/internal/task"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// StartController creates and starts a controller posting to loop. It is shut
// down when the test ends, before a looper started earlier with StartLooper.
func StartController(t *testing.T, loop *looper.Looper, opts ...task.ControllerOption) *task.Controller {
	t.Helper()

	c := task.NewController(loop, task.DefaultControllerConfig(), DiscardLogger(), opts...)
	if err := c.Start(); err != nil {
		t.Fatalf("failed to start controller: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Shutdown(ctx); err != nil {
			t.Errorf("controller shutdown: %v", err)
		}
	})
	return c
}

// WaitDone waits for every task to finish.
func WaitDone(t *testing.T, tasks ...*task.Task) {
	t.Helper()
	for _, tk := range tasks {
		select {
		case <-tk.Done():
		case <-time.After(5 * time.Second):
			t.Fatalf("task %s did not finish, state %s", tk, tk.State())
		}
	}
}
