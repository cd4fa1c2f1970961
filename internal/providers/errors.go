package providers

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// maxErrorBodyLen limits error body in error messages to avoid log bloat.
const maxErrorBodyLen = 500

// APIError preserves the status, headers, and body of a failed provider call
// so the stage boundary can classify it (auth, rate limit, payload size,
// unknown model, server error) without the transport detail leaking further.
type APIError struct {
	Provider string
	Status   int
	Header   http.Header
	Body     []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.Status, e.Message())
}

// Message extracts the provider's error message from the response body.
// All four supported providers nest it under "error.message"; the raw body is
// the truncated fallback.
func (e *APIError) Message() string {
	if msg := gjson.GetBytes(e.Body, "error.message").String(); msg != "" {
		return msg
	}
	body := string(e.Body)
	if len(body) > maxErrorBodyLen {
		body = body[:maxErrorBodyLen] + "... (truncated)"
	}
	return body
}
