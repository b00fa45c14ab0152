package backend

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnauthorized marks a 401 from the trading backend. Callers short-circuit
// on it instead of retrying.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError is any other non-2xx reply. Body is the best-effort-parsed JSON
// payload; the backend is not guaranteed to return JSON on error, so parsing
// failures degrade to an empty object.
type StatusError struct {
	Status int
	Body   map[string]any
}

func newStatusError(status int, raw []byte) *StatusError {
	body := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}
	return &StatusError{Status: status, Body: body}
}

func (e *StatusError) Error() string {
	if reason := e.Reason(); reason != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, reason)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// Reason extracts the backend's error string, if it sent one.
func (e *StatusError) Reason() string {
	for _, key := range []string{"error", "message"} {
		if v, ok := e.Body[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// UnavailableError wraps transport failures and timeouts: the backend could
// not be reached at all, so the caller may retry later.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("backend unavailable (%s): %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
