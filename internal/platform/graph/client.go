package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/phrazzld/graphfeed/internal/config"
	"github.com/phrazzld/graphfeed/internal/redact"
)

// DefaultTimeout bounds a single Graph API call when no HTTPClient is supplied.
const DefaultTimeout = 30 * time.Second

// DefaultMaxBodyBytes caps a response body when Client.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 8 << 20

// Client issues authenticated GET requests against the Graph API.
type Client struct {
	BaseURL     string
	AccessToken string
	HTTPClient  *http.Client
	Logger      *slog.Logger

	// MaxBodyBytes bounds the response body; zero means DefaultMaxBodyBytes
	MaxBodyBytes int64
}

// NewClient creates a Client from the graph configuration section.
func NewClient(cfg config.GraphConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL:     cfg.BaseURL,
		AccessToken: cfg.AccessToken,
		HTTPClient:  &http.Client{Timeout: DefaultTimeout},
		Logger:      logger.With("component", "graph_client"),
	}
}

// Get requests path (for example "me/friends") with params and returns the
// parsed JSON body. The access token is added to the query string.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (gjson.Result, error) {
	endpoint, err := c.endpoint(path, params)
	if err != nil {
		return gjson.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	log := c.logger().With("path", path)
	start := time.Now()

	resp, err := httpClient.Do(req)
	if err != nil {
		// The request URL carries the access token
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = redact.URL(urlErr.URL)
		}
		return gjson.Result{}, fmt.Errorf("graph request %s failed: %w", path, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Debug("failed to close response body", "error", cerr)
		}
	}()

	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read graph response for %s: %w", path, err)
	}
	if int64(len(body)) > limit {
		return gjson.Result{}, fmt.Errorf("%w: %s exceeded %d bytes", ErrResponseTooLarge, path, limit)
	}

	log.Debug("graph request finished",
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start))

	return parseResponse(resp.StatusCode, body)
}

func (c *Client) endpoint(path string, params url.Values) (string, error) {
	base, err := url.Parse(strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid graph path %q: %w", path, err)
	}

	query := base.Query()
	for key, values := range params {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	if c.AccessToken != "" {
		query.Set("access_token", c.AccessToken)
	}
	base.RawQuery = query.Encode()
	return base.String(), nil
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// parseResponse turns a raw response into a result or an error. An "error"
// object in the body wins over the status code.
func parseResponse(status int, body []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		if status < 200 || status > 299 {
			return gjson.Result{}, &APIError{StatusCode: status}
		}
		return gjson.Result{}, ErrMalformedResponse
	}

	result := gjson.ParseBytes(body)
	if apiErr := result.Get("error"); apiErr.Exists() {
		return gjson.Result{}, &APIError{
			StatusCode: status,
			Type:       apiErr.Get("type").String(),
			Message:    apiErr.Get("message").String(),
		}
	}

	if status < 200 || status > 299 {
		return gjson.Result{}, &APIError{StatusCode: status}
	}
	return result, nil
}
