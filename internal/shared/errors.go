package shared

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. The same error is
	// returned for unknown email and wrong password so responses cannot be
	// used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrMissingToken occurs when a protected route is called without a
	// bearer token.
	ErrMissingToken = errors.New("authorization token missing")
	// ErrInvalidToken occurs when a bearer token fails verification.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrForbidden indicates the authenticated caller lacks a required
	// permission.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError carries a client-facing message for a 400 response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation builds a ValidationError.
func Validation(message string) error {
	return &ValidationError{Message: message}
}
