package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrNotAuthenticated - no active identity; the caller must sign in first
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInteractionRequired - the cached grant cannot be renewed silently;
	// only this condition triggers an interactive acquisition fallback
	ErrInteractionRequired = errors.New("interaction required")

	// ErrAuth - token acquisition failed for a reason other than required interaction
	ErrAuth = errors.New("authentication failed")

	// ErrNetwork - transport-level failure before an HTTP status was received
	ErrNetwork = errors.New("network error")

	// ErrBackend - non-success HTTP status from a backend call
	ErrBackend = errors.New("backend error")

	// ErrMalformedResponse - unexpected payload shape; normalized/defaulted
	// wherever feasible, raised only when nothing usable can be decoded
	ErrMalformedResponse = errors.New("malformed response")
)
