package service

import (
	"errors"
	"fmt"
)

// ErrUnauthorized indicates the server rejected the caller's credentials
// or tokens. Wrapped by backends so callers can route the user to login.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotLoggedIn indicates an authenticated operation was attempted with
// no stored session.
var ErrNotLoggedIn = errors.New("not logged in")

// ValidationError indicates a required field is missing or malformed,
// either in user input before transmission or in a server response.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
