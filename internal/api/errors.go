package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the backend rejects a request with an
// authentication-failure status. Callers are expected to clear the local
// session and return to the login view.
var ErrUnauthorized = errors.New("authentication rejected by backend")

// Error is a non-auth backend error: a validation or business failure
// (insufficient stock, duplicate username, ...) or any other non-2xx
// reply. Message carries the backend's own wording when it sent one and
// is surfaced to the user verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}
