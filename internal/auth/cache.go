package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
)

// SessionCache persists the active identity to disk so a restarted console
// resumes the same session instead of prompting again. It is the only
// state that outlives a process, and sign-out purges it.
type SessionCache struct {
	path string

	lockTimeout  time.Duration
	lockRetry    time.Duration
	lockMaxRetry int
}

type SessionCacheConfig struct {
	LockTimeout  time.Duration
	LockRetry    time.Duration
	LockMaxRetry int
}

func NewSessionCache(path string, cfg SessionCacheConfig) *SessionCache {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 5 * time.Second
	}
	if cfg.LockRetry <= 0 {
		cfg.LockRetry = 100 * time.Millisecond
	}
	if cfg.LockMaxRetry <= 0 {
		cfg.LockMaxRetry = 10
	}

	return &SessionCache{
		path:         path,
		lockTimeout:  cfg.LockTimeout,
		lockRetry:    cfg.LockRetry,
		lockMaxRetry: cfg.LockMaxRetry,
	}
}

func (c *SessionCache) Load() (*Identity, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session cache: %w", err)
	}

	var ident Identity
	if err := json.Unmarshal(data, &ident); err != nil {
		return nil, fmt.Errorf("decode session cache: %w", err)
	}
	if ident.Subject == "" {
		return nil, nil
	}
	return &ident, nil
}

func (c *SessionCache) Save(ident *Identity) error {
	if ident == nil {
		return c.Purge()
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("create session cache dir: %w", err)
	}

	release, err := c.acquireLock()
	if err != nil {
		return err
	}
	defer release()

	data, err := json.MarshalIndent(ident, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session cache: %w", err)
	}

	if err := atomic.WriteFile(c.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write session cache: %w", err)
	}
	return os.Chmod(c.path, 0o600)
}

func (c *SessionCache) Purge() error {
	release, err := c.acquireLock()
	if err != nil {
		return err
	}
	defer release()

	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session cache: %w", err)
	}
	return nil
}

func (c *SessionCache) acquireLock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return nil, fmt.Errorf("create session cache dir: %w", err)
	}

	lock := flock.New(c.path + ".lock")

	for i := 0; i < c.lockMaxRetry; i++ {
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("lock session cache: %w", err)
		}
		if ok {
			return func() { _ = lock.Unlock() }, nil
		}
		time.Sleep(c.lockRetry)
	}

	return nil, fmt.Errorf("session cache lock timed out after %d attempts", c.lockMaxRetry)
}
