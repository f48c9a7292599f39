package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/graphfeed/internal/looper"
)

// StartLooper runs a looper on its own goroutine until the test ends.
func StartLooper(t *testing.T) *looper.Looper {
	t.Helper()

	loop := looper.New(DiscardLogger())
	go func() {
		_ = loop.Run(context.Background())
	}()

	t.Cleanup(func() {
		loop.Stop()
		select {
		case <-loop.Done():
		case <-time.After(5 * time.Second):
			t.Errorf("looper did not stop")
		}
	})
	return loop
}

// RunOnLooper runs fn on loop and waits for it to return.
func RunOnLooper(t *testing.T, loop *looper.Looper, fn func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := loop.PostAndWait(ctx, fn); err != nil {
		t.Fatalf("failed to run on looper: %v", err)
	}
}
