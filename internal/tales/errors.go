package tales

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenInvalid is returned when a token is unknown, malformed, already
	// consumed, or was issued for a different purpose.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired is returned when a token exists but is past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrStoryNotFound is returned when a story does not exist or is not visible.
	ErrStoryNotFound = errors.New("story not found")

	// ErrPermissionDenied is returned when an authenticated caller is neither
	// the owner nor an admin.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUnauthenticated is returned when a protected operation is called
	// without a verified caller.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrAccountExists is returned when signing up with a registered email.
	ErrAccountExists = errors.New("account already exists")

	// ErrAccountNotFound is returned when an account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidCredentials is returned when email and password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrTokenSpent accompanies a business error from a token-guarded action.
	// The token was consumed even though the action failed.
	ErrTokenSpent = errors.New("token spent")
)

// ValidationError reports malformed input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// isBusinessError reports whether err is an outcome of the guarded action
// itself rather than an infrastructure failure. Business errors still
// consume the token that authorized the attempt.
func isBusinessError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrStoryNotFound) ||
		errors.Is(err, ErrPermissionDenied)
}
