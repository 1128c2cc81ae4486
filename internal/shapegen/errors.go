package shapegen

import (
	"errors"
	"fmt"
)

// ErrNoAPIKey means the generator is not configured; callers use the fallback.
var ErrNoAPIKey = errors.New("shapegen: no API key configured")

// HTTPError is a non-200 response from the generation endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("shapegen: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRateLimited returns true for 429.
func (e *HTTPError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsRetryable returns true for rate limits and server errors.
func (e *HTTPError) IsRetryable() bool {
	return e.IsRateLimited() || e.StatusCode >= 500
}

// IsAuth returns true when the key was rejected.
func (e *HTTPError) IsAuth() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// MalformedError means the model answered with something that is not path
// data.
type MalformedError struct {
	Text string
}

func (e *MalformedError) Error() string {
	text := e.Text
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	return fmt.Sprintf("shapegen: malformed path %q", text)
}
