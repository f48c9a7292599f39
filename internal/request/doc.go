// Package request builds scheduler tasks for the two kinds of remote work the
// client performs: Graph API calls and image downloads.
//
// Each constructor returns a *task.Task whose background body does the I/O and
// whose completion hands the typed result to the caller's callback on the
// interactive context.
package request
