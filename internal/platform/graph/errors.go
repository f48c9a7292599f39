package graph

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse indicates the server returned a body that is not valid JSON.
var ErrMalformedResponse = errors.New("malformed graph response")

// ErrResponseTooLarge indicates the response body exceeded the client's limit.
var ErrResponseTooLarge = errors.New("graph response too large")

// APIError is a failure reported by the Graph API, either through a non-2xx
// status or an "error" object in the response body.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type == "" && e.Message == "" {
		return fmt.Sprintf("graph api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("graph api error: %s : %s", e.Type, e.Message)
}

// IsAPIError reports whether err wraps an *APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
