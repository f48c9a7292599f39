package events

import (
	"context"
	"log/slog"
)

// LogHandler writes every task event to a structured logger.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler creates a handler that logs events at debug level, and
// failures at warn level.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	return &LogHandler{logger: logger.With("component", "task_events")}
}

// HandleEvent implements the EventHandler interface
func (h *LogHandler) HandleEvent(ctx context.Context, event *TaskEvent) error {
	level := slog.LevelDebug
	if event.Type == TaskFailed {
		level = slog.LevelWarn
	}

	attrs := []any{
		"event_type", event.Type,
		"task_id", event.TaskID,
		"owner", event.Owner,
	}
	if event.TaskName != "" {
		attrs = append(attrs, "task_name", event.TaskName)
	}
	if event.Error != "" {
		attrs = append(attrs, "error", event.Error)
	}

	h.logger.Log(ctx, level, "task event", attrs...)
	return nil
}
