package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{NotAuthenticated("no active identity"), "NotAuthenticated"},
		{InteractionRequired("grant expired"), "InteractionRequired"},
		{Auth("token endpoint returned server_error"), "AuthError"},
		{Network("dial tcp refused"), "NetworkError"},
		{Backend(503, "dashboard fetch"), "BackendError"},
		{Malformed("missing response field"), "MalformedResponse"},
		{errors.New("plain"), ""},
		{nil, ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Category(tc.err))
	}
}

func TestCategorySurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("poll cycle: %w", Backend(500, "dashboard"))
	assert.Equal(t, "BackendError", Category(err))
}

func TestIsInteractionRequired(t *testing.T) {
	assert.True(t, IsInteractionRequired(InteractionRequired("silent refresh")))
	assert.True(t, IsInteractionRequired(errors.New(`token endpoint: {"error":"interaction_required"}`)))
	assert.True(t, IsInteractionRequired(errors.New("refresh failed: invalid_grant")))
	assert.True(t, IsInteractionRequired(errors.New("login_required")))
	assert.False(t, IsInteractionRequired(Auth("server_error")))
	assert.False(t, IsInteractionRequired(Network("timeout")))
	assert.False(t, IsInteractionRequired(nil))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Please sign in first.", UserMessage(NotAuthenticated("no active identity")))
	assert.Equal(t, "Request cancelled.", UserMessage(context.Canceled))
	assert.Contains(t, UserMessage(Backend(502, "query")), "rejected")
	assert.Contains(t, UserMessage(Network("connection reset")), "reach the backend")
	assert.Equal(t, "", UserMessage(nil))
}
