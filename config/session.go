package config

import (
	"fmt"
	"strings"
	"time"
)

// SessionStoreKind selects the persistence backend for sessions.
type SessionStoreKind string

const (
	SessionStorePostgres  SessionStoreKind = "postgres"
	SessionStoreMongo     SessionStoreKind = "mongo"
	SessionStoreRedis     SessionStoreKind = "redis"
	SessionStoreMemcached SessionStoreKind = "memcached"
)

const minSessionSecretLen = 32

// SessionConfig contains session cookie and store configuration.
type SessionConfig struct {
	// Secret signs the session cookie. Required outside development.
	Secret string `env:"SECRET"`

	// Store selects the backend (postgres, mongo, redis, memcached).
	Store SessionStoreKind `env:"STORE" envDefault:"postgres"`

	// CookieName is the name of the session cookie.
	CookieName string `env:"COOKIE_NAME" envDefault:"sid"`

	// IdleTimeout is how long a session lives after its last write.
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" envDefault:"24h"`

	// CookieSecure forces the Secure attribute; TLS requests always get it.
	CookieSecure bool `env:"COOKIE_SECURE" envDefault:"false"`

	// CleanupInterval controls how often expired sessions are swept from stores without native TTL.
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"10m"`
}

// Sanitize normalises session configuration values.
func (s *SessionConfig) Sanitize() {
	s.Store = SessionStoreKind(strings.ToLower(strings.TrimSpace(string(s.Store))))
	if s.Store == "" {
		s.Store = SessionStorePostgres
	}
	s.CookieName = strings.TrimSpace(s.CookieName)
	if s.CookieName == "" {
		s.CookieName = "sid"
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = 24 * time.Hour
	}
	if s.CleanupInterval <= 0 {
		s.CleanupInterval = 10 * time.Minute
	}
}

// Validate checks the store kind and secret strength.
func (s *SessionConfig) Validate(isDev bool) error {
	switch s.Store {
	case SessionStorePostgres, SessionStoreMongo, SessionStoreRedis, SessionStoreMemcached:
	default:
		return fmt.Errorf("invalid SESSION_STORE %q (valid: postgres, mongo, redis, memcached)", s.Store)
	}
	if isDev {
		return nil
	}
	if len(s.Secret) < minSessionSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSessionSecretLen)
	}
	return nil
}
