package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/opsdeck/opsdeck/internal/errors"
)

const oauthSuccessHTML = "<!doctype html><html lang=\"en\"><head><meta charset=\"utf-8\" /><meta name=\"viewport\" content=\"width=device-width, initial-scale=1\" /><title>Sign-in successful</title></head><body><p>Sign-in successful. Return to your terminal to continue.</p></body></html>"

const maxTokenResponseBytes = 1 << 20

// OAuthConfig points the flow at the authorization server.
type OAuthConfig struct {
	AuthorizeURL string
	TokenURL     string
	LogoutURL    string
	ClientID     string
	CallbackAddr string
	RedirectURI  string
	Timeout      time.Duration
}

// OAuthFlow drives the client half of an authorization-code-with-PKCE flow:
// a local callback server, the system browser for consent, and the token
// endpoint for code exchange and silent refresh.
type OAuthFlow struct {
	cfg    OAuthConfig
	client *http.Client

	// openBrowser is swappable for tests.
	openBrowser func(url string) error
}

func NewOAuthFlow(cfg OAuthConfig, client *http.Client) *OAuthFlow {
	if client == nil {
		client = http.DefaultClient
	}
	return &OAuthFlow{
		cfg:         cfg,
		client:      client,
		openBrowser: openBrowser,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`

	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// AcquireInteractive performs the PKCE authorization-code flow.
func (f *OAuthFlow) AcquireInteractive(ctx context.Context, scopes []string) (*Grant, error) {
	verifier, challenge, err := generatePKCE()
	if err != nil {
		return nil, fmt.Errorf("pkce generation failed: %w", err)
	}

	state, err := createState()
	if err != nil {
		return nil, fmt.Errorf("state generation failed: %w", err)
	}

	codeCh := make(chan string, 1)
	server, err := f.startLocalServer(state, codeCh)
	if err != nil {
		return nil, fmt.Errorf("failed to start local server: %w", err)
	}
	defer server.Close()

	authURL := f.buildAuthorizeURL(state, challenge, scopes)
	fmt.Printf("Opening browser to: %s\n", authURL)
	if err := f.openBrowser(authURL); err != nil {
		fmt.Printf("Failed to open browser automatically. Please visit the URL above manually.\n")
	}

	fmt.Println("Waiting for authentication callback...")
	var code string
	select {
	case code = <-codeCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(f.cfg.Timeout):
		return nil, fmt.Errorf("authentication timed out")
	}

	if code == "" {
		return nil, fmt.Errorf("received empty authorization code")
	}

	resp, err := f.exchange(ctx, url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {f.cfg.ClientID},
		"code":          {code},
		"code_verifier": {verifier},
		"redirect_uri":  {f.cfg.RedirectURI},
	})
	if err != nil {
		return nil, err
	}

	subject, name, username := parseIDTokenClaims(resp.IDToken)
	return &Grant{
		Identity: Identity{
			Subject:     subject,
			DisplayName: name,
			Username:    username,
		},
		Token: resp.toToken(scopes),
	}, nil
}

// AcquireSilent renews the token with a refresh_token grant. The returned
// error carries the raw OAuth error code so the manager can distinguish a
// required-interaction condition from everything else.
func (f *OAuthFlow) AcquireSilent(ctx context.Context, refreshToken string, scopes []string) (*Token, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, errors.InteractionRequired("no refresh material cached")
	}

	resp, err := f.exchange(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {f.cfg.ClientID},
		"refresh_token": {refreshToken},
		"scope":         {strings.Join(scopes, " ")},
	})
	if err != nil {
		return nil, err
	}

	token := resp.toToken(scopes)
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return &token, nil
}

// EndSession hits the provider end-session endpoint. Callers treat failure
// as advisory only.
func (f *OAuthFlow) EndSession(ctx context.Context, subject string) error {
	if strings.TrimSpace(f.cfg.LogoutURL) == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.LogoutURL, nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return errors.Network(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Backend(resp.StatusCode, "end session")
	}
	return nil
}

func (f *OAuthFlow) exchange(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Network(err.Error())
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))

	var decoded tokenResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return nil, errors.Malformed("token response is not JSON")
	}

	if decoded.Error != "" {
		return nil, fmt.Errorf("token endpoint: %s: %s", decoded.Error, decoded.ErrorDescription)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}
	if decoded.AccessToken == "" {
		return nil, errors.Malformed("token response missing access_token")
	}

	return &decoded, nil
}

func (r *tokenResponse) toToken(scopes []string) Token {
	granted := scopes
	if s := strings.Fields(r.Scope); len(s) > 0 {
		granted = s
	}
	return Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(r.ExpiresIn) * time.Second),
		Scopes:       granted,
	}
}

func (f *OAuthFlow) buildAuthorizeURL(state, challenge string, scopes []string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", f.cfg.ClientID)
	q.Set("redirect_uri", f.cfg.RedirectURI)
	q.Set("scope", strings.Join(scopes, " "))
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	q.Set("state", state)
	return f.cfg.AuthorizeURL + "?" + q.Encode()
}

func (f *OAuthFlow) startLocalServer(expectedState string, codeCh chan<- string) (io.Closer, error) {
	callbackPath, err := callbackPathFromRedirectURI(f.cfg.RedirectURI)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		if state != expectedState {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing code", http.StatusBadRequest)
			return
		}

		select {
		case codeCh <- code:
		default:
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(oauthSuccessHTML))
	})

	ln, err := net.Listen("tcp", f.cfg.CallbackAddr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: mux}
	go func() { _ = srv.Serve(ln) }()

	return srv, nil
}

func callbackPathFromRedirectURI(redirectURI string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(redirectURI))
	if err != nil {
		return "", fmt.Errorf("parse redirect URI: %w", err)
	}
	if u.Path == "" {
		return "", fmt.Errorf("redirect URI path is empty")
	}
	return u.EscapedPath(), nil
}

func generatePKCE() (verifier, challenge string, err error) {
	rnd := make([]byte, 32)
	if _, err := rand.Read(rnd); err != nil {
		return "", "", err
	}
	verifier = base64.RawURLEncoding.EncodeToString(rnd)
	sum := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(sum[:])
	return verifier, challenge, nil
}

func createState() (string, error) {
	rnd := make([]byte, 16)
	if _, err := rand.Read(rnd); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(rnd), nil
}

// parseIDTokenClaims pulls display claims out of the ID token payload.
// Signature validation is the authorization server's trust domain, not ours;
// the claims only feed greetings and the briefing header.
func parseIDTokenClaims(idToken string) (subject, name, username string) {
	parts := strings.Split(idToken, ".")
	if len(parts) != 3 {
		return "", "", ""
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", "", ""
	}

	var claims struct {
		Sub               string `json:"sub"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
		Email             string `json:"email"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", "", ""
	}

	username = claims.PreferredUsername
	if username == "" {
		username = claims.Email
	}
	return claims.Sub, claims.Name, username
}

func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default: // "linux", "freebsd", "openbsd", "netbsd"
		cmd = "xdg-open"
	}
	args = append(args, url)
	return exec.Command(cmd, args...).Start()
}
