// Package logger provides structured logging for graphfeed.
//
// It builds on Go's standard library log/slog package: Setup creates a JSON
// logger at the configured level, and the context helpers let a background
// task body pick up the task-scoped logger attached by the scheduler.
package logger
