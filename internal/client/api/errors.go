package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failed API call: the HTTP status and the server-provided (or
// fallback) message. Every non-2xx response surfaces as exactly one of these.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// IsUnauthorized reports whether err is an API error with status 401.
// Expired-token handling is the caller's decision; only the session
// verification path forces a logout on it.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
