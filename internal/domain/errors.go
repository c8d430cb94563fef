package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the actor is not the owner of the entity.
	ErrForbidden = errors.New("forbidden")
	// ErrUserNotFound is returned by login when the username is unknown.
	ErrUserNotFound = errors.New("user not found")
	// ErrWrongPassword is returned by login when the password does not match.
	ErrWrongPassword = errors.New("wrong password")
	// ErrUserExists is returned when signing up with a taken username.
	ErrUserExists = errors.New("user already exists")
	// ErrEmailExists is returned when signing up with a taken email.
	ErrEmailExists = errors.New("email already in use")
)

// ValidationError reports bad or missing form input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AsValidationError unwraps err into a ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
