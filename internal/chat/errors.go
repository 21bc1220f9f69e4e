package chat

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that a referenced user, room or membership does not
// exist. Deletes treat it as a no-op; authorization checks treat it as denial.
var ErrNotFound = errors.New("not found")

// ValidationError rejects malformed or missing input. Nothing is written to
// the store when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthorizationError reports that the actor lacks the required role.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}
