package testutils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// NewServer serves handler on a loopback port until the test ends.
func NewServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// UnreachableURL returns the base URL of a server that is already closed,
// so requests to it fail in the transport rather than with a status.
func UnreachableURL(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()
	return base
}
