package httpx

import (
	"errors"
	"net/http"

	"github.com/clientdesk/clientdesk/internal/shared"
)

// RespondError maps domain errors to HTTP responses.
//
// Authentication failures deliberately share one uniform detail string so
// that unknown-email and wrong-password lookups are indistinguishable.
// Unexpected errors are reported as a generic 500; details stay in the logs.
func RespondError(w http.ResponseWriter, err error) {
	var ve *shared.ValidationError
	switch {
	case errors.As(err, &ve):
		Problem(w, http.StatusBadRequest, "Validation Failed", ve.Message)
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "Invalid credentials")
	case errors.Is(err, shared.ErrMissingToken):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "Authorization token missing")
	case errors.Is(err, shared.ErrInvalidToken):
		Problem(w, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token")
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", "Insufficient permissions")
	case errors.Is(err, shared.ErrDuplicateEmail):
		Problem(w, http.StatusConflict, "Duplicate", "Email already registered")
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", "Resource not found")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
