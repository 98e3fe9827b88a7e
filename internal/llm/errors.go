package llm

import (
	"errors"
	"fmt"
)

// APIError describes a failed model call. Status is zero when the failure
// happened before an HTTP status was received (dial, timeout, decode).
type APIError struct {
	Status    int
	Message   string
	Transient bool
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("model call failed (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("model call failed: %s", e.Message)
}

// TransientStatus classifies an HTTP status as retryable. Rate limiting and
// server-side failures are transient; other client errors are not.
func TransientStatus(status int) bool {
	return status == 429 || status == 408 || status >= 500
}

// IsTransient reports whether err is worth retrying. Errors that carry no
// APIError (raw transport failures) are treated as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient
	}
	return true
}
