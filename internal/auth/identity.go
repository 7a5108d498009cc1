package auth

import (
	"strings"
	"time"
)

// Token is the cached bearer credential bound to a fixed scope set.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// Valid reports whether the token can still be presented for the given
// scopes. A token inside the expiry skew counts as expired so a call never
// ships a credential that dies mid-request.
func (t *Token) Valid(now time.Time, skew time.Duration, scopes []string) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	if !now.Add(skew).Before(t.ExpiresAt) {
		return false
	}
	return t.covers(scopes)
}

func (t *Token) covers(scopes []string) bool {
	for _, want := range scopes {
		found := false
		for _, have := range t.Scopes {
			if strings.EqualFold(have, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Identity is the active signed-in account plus its cached token. At most
// one identity is active at a time; it is the only state the manager owns.
type Identity struct {
	Subject     string `json:"subject"`
	DisplayName string `json:"display_name"`
	Username    string `json:"username,omitempty"`
	Token       *Token `json:"token,omitempty"`
}

// Grant is the result of an acquisition: who signed in and with what token.
type Grant struct {
	Identity Identity
	Token    Token
}
