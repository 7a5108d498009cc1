package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/opsdeck/opsdeck/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Console ConsoleConfig `koanf:"console"`
	Auth    AuthConfig    `koanf:"auth"`
	Backend BackendConfig `koanf:"backend"`
	Feeds   FeedsConfig   `koanf:"feeds"`
	Session SessionConfig `koanf:"session"`
}

type ConsoleConfig struct {
	LogLevel string `koanf:"log_level"`
	NoColor  bool   `koanf:"no_color"`
}

type AuthConfig struct {
	AuthorizeURL string   `koanf:"authorize_url"`
	TokenURL     string   `koanf:"token_url"`
	LogoutURL    string   `koanf:"logout_url"`
	ClientID     string   `koanf:"client_id"`
	Scopes       []string `koanf:"scopes"`
	CallbackAddr string   `koanf:"callback_addr"`
	RedirectURI  string   `koanf:"redirect_uri"`
	OAuthTimeout string   `koanf:"oauth_timeout"`
	TokenSkew    string   `koanf:"token_skew"`
}

type BackendConfig struct {
	BaseURL        string `koanf:"base_url"`
	APIBaseURL     string `koanf:"api_base_url"`
	RequestTimeout string `koanf:"request_timeout"`
	QueryTimeout   string `koanf:"query_timeout"`
}

// FeedsConfig holds one schedule per polling loop. Every feed takes either a
// plain interval or a standard cron expression; cron wins when both are set.
type FeedsConfig struct {
	DashboardInterval  string `koanf:"dashboard_interval"`
	UpdatesInterval    string `koanf:"updates_interval"`
	CommentaryInterval string `koanf:"commentary_interval"`
	DashboardSchedule  string `koanf:"dashboard_schedule"`
	UpdatesSchedule    string `koanf:"updates_schedule"`
	CommentarySchedule string `koanf:"commentary_schedule"`
	RFCWindow          string `koanf:"rfc_window"`
}

type SessionConfig struct {
	CachePath    string `koanf:"cache_path"`
	LockTimeout  string `koanf:"lock_timeout"`
	LockRetry    string `koanf:"lock_retry"`
	LockMaxRetry int    `koanf:"lock_max_retry"`
}

const (
	DefaultConsoleLogLevel = "info"

	DefaultAuthCallbackAddr = "127.0.0.1:52815"
	DefaultAuthRedirectURI  = "http://127.0.0.1:52815/auth/callback"
	DefaultAuthOAuthTimeout = "5m"
	DefaultAuthTokenSkew    = "30s"

	DefaultBackendBaseURL        = "http://localhost:8000"
	DefaultBackendAPIBaseURL     = "http://localhost:3978"
	DefaultBackendRequestTimeout = "15s"
	DefaultBackendQueryTimeout   = "120s"

	DefaultFeedsDashboardInterval  = "30s"
	DefaultFeedsUpdatesInterval    = "60s"
	DefaultFeedsCommentaryInterval = "5m"
	DefaultFeedsRFCWindow          = "48h"

	DefaultSessionLockTimeout  = "5s"
	DefaultSessionLockRetry    = "100ms"
	DefaultSessionLockMaxRetry = 10
)

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"console.log_level":         DefaultConsoleLogLevel,
		"console.no_color":          false,
		"auth.callback_addr":        DefaultAuthCallbackAddr,
		"auth.redirect_uri":         DefaultAuthRedirectURI,
		"auth.oauth_timeout":        DefaultAuthOAuthTimeout,
		"auth.token_skew":           DefaultAuthTokenSkew,
		"backend.base_url":          DefaultBackendBaseURL,
		"backend.api_base_url":      DefaultBackendAPIBaseURL,
		"backend.request_timeout":   DefaultBackendRequestTimeout,
		"backend.query_timeout":     DefaultBackendQueryTimeout,
		"feeds.dashboard_interval":  DefaultFeedsDashboardInterval,
		"feeds.updates_interval":    DefaultFeedsUpdatesInterval,
		"feeds.commentary_interval": DefaultFeedsCommentaryInterval,
		"feeds.rfc_window":          DefaultFeedsRFCWindow,
		"session.cache_path":        filepath.Join(os.Getenv("HOME"), ".opsdeck", "session.json"),
		"session.lock_timeout":      DefaultSessionLockTimeout,
		"session.lock_retry":        DefaultSessionLockRetry,
		"session.lock_max_retry":    DefaultSessionLockMaxRetry,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".opsdeck", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider("OPSDECK_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "OPSDECK_")), "_", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	cachePath, err := pathutil.Expand(cfg.Session.CachePath)
	if err != nil {
		return err
	}
	if cachePath != "" {
		cfg.Session.CachePath = cachePath
	}

	return nil
}
