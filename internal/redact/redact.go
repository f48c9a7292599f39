// Package redact removes credentials from strings before they are logged or
// surfaced in errors. Graph API URLs carry the access token in the query
// string, so any error that echoes a request URL must pass through here.
package redact

import (
	"net/url"
	"regexp"
)

// Placeholders substituted for redacted values
const (
	RedactionPlaceholder    = "[REDACTED]"
	RedactedKeyPlaceholder  = "[REDACTED_KEY]"
	RedactedJWTPlaceholder  = "[REDACTED_JWT]"
	RedactedPathPlaceholder = "[REDACTED_PATH]"
)

// sensitiveParams are query parameters whose values are never shown.
var sensitiveParams = []string{"access_token", "client_secret", "appsecret_proof", "code"}

// Precompiled regex patterns
var (
	// Query-string style credentials, e.g. access_token=EAAB...
	queryTokenRegex = regexp.MustCompile(`(?i)\b(access_token|client_secret|appsecret_proof)=[^&\s"':]+`)

	// Generic key/secret assignments
	apiKeyRegex = regexp.MustCompile(
		`(?i)(api[_-]?key|secret|token)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)

	// JWT token pattern - matches the standard three-part base64url-encoded JWT token format
	jwtTokenRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)
)

// String redacts credentials from free text.
func String(input string) string {
	if input == "" {
		return input
	}

	result := jwtTokenRegex.ReplaceAllString(input, RedactedJWTPlaceholder)
	result = queryTokenRegex.ReplaceAllString(result, "${1}="+RedactionPlaceholder)
	result = apiKeyRegex.ReplaceAllString(result, RedactedKeyPlaceholder)
	return result
}

// Error redacts credentials from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// URL returns raw with the values of sensitive query parameters replaced.
// Unparseable input falls back to String.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return String(raw)
	}

	query := u.Query()
	changed := false
	for _, name := range sensitiveParams {
		if query.Has(name) {
			query.Set(name, RedactionPlaceholder)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	u.RawQuery = query.Encode()
	return u.String()
}
