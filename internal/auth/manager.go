package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/opsdeck/opsdeck/internal/errors"
)

// Flow is the provider-facing half of the credential lifecycle. The real
// implementation is the OAuth flow in this package; tests inject fakes.
type Flow interface {
	// AcquireInteractive runs a user-facing authorization and returns the
	// signed-in identity with a fresh token.
	AcquireInteractive(ctx context.Context, scopes []string) (*Grant, error)
	// AcquireSilent renews a token from cached refresh material without
	// user presence.
	AcquireSilent(ctx context.Context, refreshToken string, scopes []string) (*Token, error)
	// EndSession tells the provider the session is over. Best effort.
	EndSession(ctx context.Context, subject string) error
}

// Store persists the active identity across console invocations.
type Store interface {
	Load() (*Identity, error)
	Save(*Identity) error
	Purge() error
}

// Manager owns the session identity and produces bearer tokens on demand.
// The silent-then-interactive retry policy lives here and nowhere else.
type Manager struct {
	mu       sync.Mutex
	identity *Identity

	flow  Flow
	store Store
	skew  time.Duration
	now   func() time.Time
}

func NewManager(flow Flow, store Store, skew time.Duration) *Manager {
	m := &Manager{
		flow:  flow,
		store: store,
		skew:  skew,
		now:   time.Now,
	}

	if store != nil {
		if ident, err := store.Load(); err != nil {
			slog.Debug("No cached session", "error", err)
		} else if ident != nil {
			m.identity = ident
		}
	}

	return m
}

// Identity returns a copy of the active identity, or nil when signed out.
func (m *Manager) Identity() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil
	}
	ident := *m.identity
	return &ident
}

// SignedIn reports whether an identity is active.
func (m *Manager) SignedIn() bool {
	return m.Identity() != nil
}

// GetToken returns a valid bearer token for the given scope set.
//
// Order: cached token when still valid, then silent renewal, then — only
// when the provider says the grant cannot be renewed without user
// presence — a single interactive acquisition. Any other silent failure
// surfaces as an auth error without an interactive attempt, so transient
// network trouble never turns into a popup storm.
func (m *Manager) GetToken(ctx context.Context, scopes []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.identity == nil {
		return "", errors.NotAuthenticated("no active identity")
	}

	if m.identity.Token.Valid(m.now(), m.skew, scopes) {
		return m.identity.Token.AccessToken, nil
	}

	refresh := ""
	if m.identity.Token != nil {
		refresh = m.identity.Token.RefreshToken
	}

	token, err := m.flow.AcquireSilent(ctx, refresh, scopes)
	if err == nil {
		m.identity.Token = token
		m.persistLocked()
		return token.AccessToken, nil
	}

	if !errors.IsInteractionRequired(err) {
		return "", fmt.Errorf("silent acquisition: %w: %w", errors.ErrAuth, err)
	}

	slog.Warn("Silent token renewal needs user presence, falling back to interactive", "error", err)

	grant, err := m.flow.AcquireInteractive(ctx, scopes)
	if err != nil {
		return "", fmt.Errorf("interactive acquisition: %w: %w", errors.ErrAuth, err)
	}

	m.identity = &grant.Identity
	m.identity.Token = &grant.Token
	m.persistLocked()
	return grant.Token.AccessToken, nil
}

// SignIn launches interactive authentication and sets the resulting account
// as the active identity. A no-op when already signed in.
func (m *Manager) SignIn(ctx context.Context, scopes []string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.identity != nil {
		slog.Info("Already signed in", "subject", m.identity.Subject)
		ident := *m.identity
		return &ident, nil
	}

	grant, err := m.flow.AcquireInteractive(ctx, scopes)
	if err != nil {
		return nil, fmt.Errorf("sign-in: %w: %w", errors.ErrAuth, err)
	}

	m.identity = &grant.Identity
	m.identity.Token = &grant.Token
	m.persistLocked()

	slog.Info("Signed in", "subject", m.identity.Subject, "name", m.identity.DisplayName)
	ident := *m.identity
	return &ident, nil
}

// SignOut ends the provider session best-effort and unconditionally clears
// the local identity and cached token. The remote step may fail; the
// clearing step never does.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	subject := ""
	if m.identity != nil {
		subject = m.identity.Subject
	}
	m.mu.Unlock()

	if subject != "" {
		if err := m.flow.EndSession(ctx, subject); err != nil {
			slog.Warn("Provider sign-out failed, clearing local session anyway", "error", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = nil
	if m.store != nil {
		if err := m.store.Purge(); err != nil {
			slog.Warn("Failed to purge session cache", "error", err)
		}
	}
	slog.Info("Signed out")
}

func (m *Manager) persistLocked() {
	if m.store == nil || m.identity == nil {
		return
	}
	if err := m.store.Save(m.identity); err != nil {
		slog.Warn("Failed to persist session cache", "error", err)
	}
}
