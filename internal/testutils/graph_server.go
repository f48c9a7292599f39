package testutils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/graphfeed/internal/config"
	"github.com/phrazzld/graphfeed/internal/platform/graph"
)

// GraphServer is a fake Graph API backed by a chi router.
type GraphServer struct {
	*httptest.Server

	t      *testing.T
	token  string
	router chi.Router

	mu   sync.Mutex
	hits map[string]int
}

// NewGraphServer starts a fake Graph API that accepts only token.
func NewGraphServer(t *testing.T, token string) *GraphServer {
	t.Helper()

	gs := &GraphServer{
		t:     t,
		token: token,
		hits:  make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(gs.countHits)
	r.Use(gs.requireToken)
	gs.router = r

	gs.Server = NewServer(t, r)
	return gs
}

// Handle registers a raw handler for GET path.
func (gs *GraphServer) Handle(path string, h http.HandlerFunc) {
	gs.router.Get(path, h)
}

// JSON registers path to answer 200 with body.
func (gs *GraphServer) JSON(path string, body string) {
	gs.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(gs.t, w, http.StatusOK, body)
	})
}

// Error registers path to answer with a Graph error object.
func (gs *GraphServer) Error(path string, status int, errType, message string) {
	gs.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(gs.t, w, status, fmt.Sprintf(`{"error":{"type":%q,"message":%q}}`, errType, message))
	})
}

// Hits returns how many requests reached path.
func (gs *GraphServer) Hits(path string) int {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.hits[path]
}

// Client returns a graph client pointed at the server with the accepted token.
func (gs *GraphServer) Client() *graph.Client {
	return graph.NewClient(config.GraphConfig{
		BaseURL:     gs.URL,
		AccessToken: gs.token,
	}, nil)
}

func (gs *GraphServer) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gs.mu.Lock()
		gs.hits[r.URL.Path]++
		gs.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (gs *GraphServer) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != gs.token {
			WriteJSON(gs.t, w, http.StatusBadRequest,
				`{"error":{"type":"OAuthException","message":"Invalid OAuth access token."}}`)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		t.Logf("Warning: failed to write response body: %v", err)
	}
}
