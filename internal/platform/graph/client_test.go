package graph_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/phrazzld/graphfeed/internal/config"
	"github.com/phrazzld/graphfeed/internal/platform/graph"
	"github.com/phrazzld/graphfeed/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientGet_Success(t *testing.T) {
	server := testutils.NewGraphServer(t, "token")
	server.Handle("/me/friends", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "id,name,picture", r.URL.Query().Get("fields"))
		testutils.WriteJSON(t, w, http.StatusOK, `{"data":[{"id":"1","name":"Ada"},{"id":"2","name":"bob"}]}`)
	})

	result, err := server.Client().Get(context.Background(), "me/friends", url.Values{
		"fields": {"id,name,picture"},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Get("data.#").Int())
	assert.Equal(t, "Ada", result.Get("data.0.name").String())
	assert.Equal(t, 1, server.Hits("/me/friends"))
}

func TestClientGet_LeadingSlashAndNilParams(t *testing.T) {
	server := testutils.NewGraphServer(t, "token")
	server.JSON("/me", `{"id":"42","name":"Ada"}`)

	result, err := server.Client().Get(context.Background(), "/me", nil)

	require.NoError(t, err)
	assert.Equal(t, "42", result.Get("id").String())
}

func TestClientGet_ErrorObject(t *testing.T) {
	server := testutils.NewGraphServer(t, "token")
	server.Error("/me/feed", http.StatusBadRequest, "OAuthException", "Session has expired")

	_, err := server.Client().Get(context.Background(), "me/feed", nil)

	require.Error(t, err)
	var apiErr *graph.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "OAuthException", apiErr.Type)
	assert.Equal(t, "Session has expired", apiErr.Message)
	assert.Equal(t, "graph api error: OAuthException : Session has expired", apiErr.Error())
	assert.True(t, graph.IsAPIError(err))
}

func TestClientGet_ErrorObjectWithOKStatus(t *testing.T) {
	server := testutils.NewGraphServer(t, "token")
	server.Error("/me", http.StatusOK, "GraphMethodException", "Unsupported get request")

	_, err := server.Client().Get(context.Background(), "me", nil)

	var apiErr *graph.APIError
	require.True(t, errors.As(err, &apiErr), "error object wins over a 2xx status")
	assert.Equal(t, "GraphMethodException", apiErr.Type)
}

func TestClientGet_WrongToken(t *testing.T) {
	server := testutils.NewGraphServer(t, "token")
	server.JSON("/me", `{"id":"1"}`)

	client := graph.NewClient(config.GraphConfig{BaseURL: server.URL, AccessToken: "stale"}, nil)
	_, err := client.Get(context.Background(), "me", nil)

	var apiErr *graph.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "OAuthException", apiErr.Type)
}

func TestClientGet_Malformed(t *testing.T) {
	server := testutils.NewGraphServer(t, "token")
	server.Handle("/me", func(w http.ResponseWriter, r *http.Request) {
		testutils.WriteJSON(t, w, http.StatusOK, `{"id":`)
	})

	_, err := server.Client().Get(context.Background(), "me", nil)

	assert.ErrorIs(t, err, graph.ErrMalformedResponse)
}

func TestClientGet_StatusWithoutBody(t *testing.T) {
	server := testutils.NewGraphServer(t, "token")
	server.Handle("/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := server.Client().Get(context.Background(), "me", nil)

	var apiErr *graph.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "graph api error: status 502", apiErr.Error())
}

func TestClientGet_ContextCancelled(t *testing.T) {
	server := testutils.NewGraphServer(t, "token")
	release := make(chan struct{})
	defer close(release)
	server.Handle("/me", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := server.Client().Get(ctx, "me", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, graph.IsAPIError(err))
}

func TestClientGet_TransportErrorHidesToken(t *testing.T) {
	client := graph.NewClient(config.GraphConfig{
		BaseURL:     testutils.UnreachableURL(t),
		AccessToken: "secret-token",
	}, nil)
	_, err := client.Get(context.Background(), "me", nil)

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
	assert.Contains(t, err.Error(), "REDACTED")
}

func TestClientGet_ResponseTooLarge(t *testing.T) {
	server := testutils.NewGraphServer(t, "token")
	body := `{"id":"42","name":"Ada"}`
	server.JSON("/me", body)

	client := server.Client()
	client.MaxBodyBytes = int64(len(body)) - 1
	_, err := client.Get(context.Background(), "me", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrResponseTooLarge)
	assert.NotErrorIs(t, err, graph.ErrMalformedResponse)

	// A body exactly at the limit is accepted
	client.MaxBodyBytes = int64(len(body))
	result, err := client.Get(context.Background(), "me", nil)
	require.NoError(t, err)
	assert.Equal(t, "Ada", result.Get("name").String())
}
