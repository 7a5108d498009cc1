package errors

import (
	"errors"
	"fmt"
)

// NotAuthenticated wraps a message as a missing-identity failure
func NotAuthenticated(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotAuthenticated)
}

// InteractionRequired wraps a message as a required-interaction failure
func InteractionRequired(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInteractionRequired)
}

// Auth wraps a message as a token acquisition failure
func Auth(message string) error {
	return fmt.Errorf("%s: %w", message, ErrAuth)
}

// Network wraps a message as a transport failure
func Network(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNetwork)
}

// Backend wraps an HTTP status as a backend failure
func Backend(status int, message string) error {
	return fmt.Errorf("%s (status %d): %w", message, status, ErrBackend)
}

// Malformed wraps a message as an undecodable-payload failure
func Malformed(message string) error {
	return fmt.Errorf("%s: %w", message, ErrMalformedResponse)
}

// Category returns the taxonomy bucket name for an error, empty when the
// error does not belong to the taxonomy.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotAuthenticated):
		return "NotAuthenticated"
	case errors.Is(err, ErrInteractionRequired):
		return "InteractionRequired"
	case errors.Is(err, ErrAuth):
		return "AuthError"
	case errors.Is(err, ErrNetwork):
		return "NetworkError"
	case errors.Is(err, ErrBackend):
		return "BackendError"
	case errors.Is(err, ErrMalformedResponse):
		return "MalformedResponse"
	default:
		return ""
	}
}
