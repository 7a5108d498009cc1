package errors

import (
	"context"
	"errors"
	"strings"
)

// interactionCodes are the OAuth error codes the authorization server uses to
// say a cached grant cannot be renewed without user presence. Anything else
// returned by the token endpoint is a plain auth failure.
var interactionCodes = []string{
	"interaction_required",
	"login_required",
	"consent_required",
	"invalid_grant",
}

// IsInteractionRequired reports whether err carries a required-interaction
// condition, either as the sentinel or as a raw OAuth error code from the
// token endpoint.
func IsInteractionRequired(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInteractionRequired) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, code := range interactionCodes {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}

// UserMessage renders an error as the text shown in place of a pending
// conversation entry. Context cancellation reads as a cancelled request
// rather than a backend fault.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.Is(err, ErrNotAuthenticated):
		return "Please sign in first."
	case errors.Is(err, ErrAuth), errors.Is(err, ErrInteractionRequired):
		return "Could not acquire an access token: " + err.Error()
	case errors.Is(err, ErrNetwork):
		return "Could not reach the backend: " + err.Error()
	case errors.Is(err, ErrBackend):
		return "The backend rejected the request: " + err.Error()
	case errors.Is(err, ErrMalformedResponse):
		return "The backend returned an unexpected response: " + err.Error()
	default:
		return "Request failed: " + err.Error()
	}
}
