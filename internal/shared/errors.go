package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a unique constraint collision.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLastAdmin rejects removing the final superuser account.
	ErrLastAdmin = errors.New("cannot remove the last administrator")
	// ErrValidation indicates rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps known domain errors to a message suitable for display.
// Unknown errors collapse to a generic message so internals never leak to the UI.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found."
	case errors.Is(err, ErrDuplicate):
		return "A record with that name already exists."
	case errors.Is(err, ErrLastAdmin):
		return "The last administrator account cannot be removed or demoted."
	case errors.Is(err, ErrInvalidCredentials):
		return "Email or password is incorrect."
	case errors.Is(err, ErrValidation):
		return "Some of the submitted values were invalid."
	default:
		return "Something went wrong. Please try again."
	}
}
