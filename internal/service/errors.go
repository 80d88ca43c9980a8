package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateCredential is returned when registering an email that is already taken.
	ErrDuplicateCredential = errors.New("email already registered")
	// ErrStoreUnavailable wraps credential store failures other than not-found and duplicate.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrUserNotFound is returned by profile lookups for unknown emails.
	ErrUserNotFound = errors.New("user not found")
)

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string
	Message string
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

// ValidationError reports malformed or missing request fields.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := e.Messages()
	if len(msgs) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Messages returns one "field: message" string per failure.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.String()
	}
	return msgs
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
