// Package testutils provides testing utilities for graphfeed.
//
// This package contains helpers for:
// 1. Running a fake Graph API server
// 2. Serving generated images over HTTP
// 3. Running an interactive looper for the duration of a test
//
// # Fake Graph API
//
//	server := testutils.NewGraphServer(t, "token")
//	server.JSON("/me", `{"id":"1","name":"Ada"}`)
//	server.Error("/me/feed", http.StatusBadRequest, "OAuthException", "expired")
//	client := server.Client()
//
// Requests without the expected access token are answered with a Graph
// OAuthException, and every request is counted per path.
//
// # Looper
//
//	loop := testutils.StartLooper(t)
//	// loop is stopped when the test ends
package testutils
