// Package looper provides the interactive context: a single goroutine that
// runs posted functions one at a time, in posting order.
//
// All state that is visible to the user interface is owned by the looper
// goroutine, so code that runs on it needs no locking. Background work hands
// its results over by posting a function instead of blocking.
package looper
