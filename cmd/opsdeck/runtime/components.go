package runtime

import (
	"context"
	"fmt"
	"net/http"

	"github.com/opsdeck/opsdeck/internal/advisory"
	"github.com/opsdeck/opsdeck/internal/auth"
	"github.com/opsdeck/opsdeck/internal/backend"
	"github.com/opsdeck/opsdeck/internal/config"
	"github.com/opsdeck/opsdeck/internal/conversation"
	"github.com/opsdeck/opsdeck/internal/feed"
	"github.com/opsdeck/opsdeck/internal/report"
)

type RuntimeComponents struct {
	Ctx    context.Context
	Cancel context.CancelFunc

	Config *config.Config

	Auth       *auth.Manager
	Backend    *backend.Client
	Aggregator *feed.Aggregator
	Engine     *conversation.Engine
	Advisor    *advisory.Cache
	Reports    *report.Service
}

func NewRuntimeComponents(ctx context.Context, cfg *config.Config) (*RuntimeComponents, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	components := &RuntimeComponents{
		Ctx:    ctx,
		Cancel: cancel,
		Config: cfg,
	}

	manager, err := BuildAuthManager(cfg)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("init auth: %w", err)
	}
	components.Auth = manager

	requestTimeout, err := config.DurationOrDefault(cfg.Backend.RequestTimeout, config.DefaultBackendRequestTimeout)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("init backend: %w", err)
	}
	queryTimeout, err := config.DurationOrDefault(cfg.Backend.QueryTimeout, config.DefaultBackendQueryTimeout)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("init backend: %w", err)
	}

	components.Backend = backend.NewClient(
		cfg.Backend.BaseURL,
		cfg.Backend.APIBaseURL,
		&http.Client{Timeout: requestTimeout},
		&http.Client{Timeout: queryTimeout},
		manager,
		cfg.Auth.Scopes,
	)

	intervals, err := feed.IntervalsFromConfig(cfg.Feeds)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("init feeds: %w", err)
	}
	aggregator, err := feed.NewAggregator(components.Backend, intervals)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("init feeds: %w", err)
	}
	components.Aggregator = aggregator

	components.Engine = conversation.NewEngine(components.Backend, manager.SignedIn)
	components.Advisor = advisory.NewCache(components.Backend)
	components.Reports = report.NewService(components.Backend)

	return components, nil
}

// BuildAuthManager wires the OAuth flow and the on-disk session cache.
// Shared with the standalone login/logout commands, which run without the
// full component set.
func BuildAuthManager(cfg *config.Config) (*auth.Manager, error) {
	oauthTimeout, err := config.DurationOrDefault(cfg.Auth.OAuthTimeout, config.DefaultAuthOAuthTimeout)
	if err != nil {
		return nil, err
	}
	skew, err := config.DurationOrDefault(cfg.Auth.TokenSkew, config.DefaultAuthTokenSkew)
	if err != nil {
		return nil, err
	}
	lockTimeout, err := config.DurationOrDefault(cfg.Session.LockTimeout, config.DefaultSessionLockTimeout)
	if err != nil {
		return nil, err
	}
	lockRetry, err := config.DurationOrDefault(cfg.Session.LockRetry, config.DefaultSessionLockRetry)
	if err != nil {
		return nil, err
	}

	flow := auth.NewOAuthFlow(auth.OAuthConfig{
		AuthorizeURL: cfg.Auth.AuthorizeURL,
		TokenURL:     cfg.Auth.TokenURL,
		LogoutURL:    cfg.Auth.LogoutURL,
		ClientID:     cfg.Auth.ClientID,
		CallbackAddr: cfg.Auth.CallbackAddr,
		RedirectURI:  cfg.Auth.RedirectURI,
		Timeout:      oauthTimeout,
	}, nil)

	store := auth.NewSessionCache(cfg.Session.CachePath, auth.SessionCacheConfig{
		LockTimeout:  lockTimeout,
		LockRetry:    lockRetry,
		LockMaxRetry: cfg.Session.LockMaxRetry,
	})

	return auth.NewManager(flow, store, skew), nil
}

// Start launches the feed pollers. The conversation engine needs no
// startup; it reacts to sends.
func (r *RuntimeComponents) Start() error {
	r.Aggregator.Start(r.Ctx)
	return nil
}

func (r *RuntimeComponents) Stop() {
	r.Cancel()
}
