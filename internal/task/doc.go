// Package task schedules asynchronous work for interactive screens.
//
// A Task has two phases: a background body that runs on the controller's
// single worker goroutine and produces a result or an error, and a
// completion body that consumes the result on the interactive context.
// The Controller keeps a FIFO of pending tasks, runs at most one of them at
// a time, and only dispatches the next one after the current task has
// reached StateFinished. Tasks are grouped by OwnerKey so that a screen can
// pause, resume, or cancel everything it submitted.
package task
