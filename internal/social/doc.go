// Package social holds the client-side models loaded from the Graph API: the
// signed-in user's profile, friend list and feeds.
//
// Every model is owned by the interactive context. Load schedules a Graph
// request on the task controller the first time and reuses the loaded data
// afterwards; observers are always called on the interactive context, never
// synchronously from Load.
package social
