package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrUnauthorized marks a response that rejected the bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMalformedBody marks a 2xx response whose body could not be decoded.
	ErrMalformedBody = errors.New("malformed response body")
)

// HTTPError represents a non-2xx response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
	URL        string
}

// Error returns the error message
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Message)
}

// Unwrap exposes ErrUnauthorized for responses that reject the session.
func (e *HTTPError) Unwrap() error {
	if e.IsAuthRejection() {
		return ErrUnauthorized
	}
	return nil
}

// IsAuthRejection reports whether the response means the token is missing, invalid or expired.
// A 403 only counts when the server says the token itself is the problem.
func (e *HTTPError) IsAuthRejection() bool {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return true
	case http.StatusForbidden:
		msg := strings.ToLower(e.Message)
		return strings.Contains(msg, "expired") || strings.Contains(msg, "invalid token")
	default:
		return false
	}
}

// NewHTTPError builds an HTTPError, extracting the server message from a {message} body.
func NewHTTPError(statusCode int, url string, body []byte) error {
	return &HTTPError{
		StatusCode: statusCode,
		URL:        url,
		Message:    ServerMessage(statusCode, body),
	}
}

// ServerMessage returns the most useful human-readable message in an error body.
func ServerMessage(statusCode int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"message", "error.message", "error"} {
			if r := gjson.GetBytes(body, path); r.Exists() && r.Type == gjson.String && r.String() != "" {
				return r.String()
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !gjson.ValidBytes(body) {
		return text
	}
	return http.StatusText(statusCode)
}

// Message returns the server message carried by err, or err.Error() otherwise.
func Message(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message
	}
	return err.Error()
}
