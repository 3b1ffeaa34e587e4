package config

import (
	"errors"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Postgres and session backend connections
//   - http.go: HTTP server configuration
//   - session.go: Session cookie, idle timeout and store selection
//   - upload.go: Avatar upload limits
//   - observability.go: Logging and metrics
type AppConfig struct {
	// IsDev controls development mode behavior (template reloading, relaxed secrets).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Database configuration
	Postgres  DBConfig        `envPrefix:"DB_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Mongo     MongoConfig     `envPrefix:"MONGO_"`
	Memcached MemcachedConfig `envPrefix:"MEMCACHED_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Session configuration
	Session SessionConfig `envPrefix:"SESSION_"`

	// Upload configuration
	Upload UploadConfig `envPrefix:"UPLOAD_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Session.Sanitize()
	c.Upload.Sanitize()
	c.Memcached.Sanitize()
	c.Observability.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// Validate reports configuration that cannot be started with.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.Session.Validate(c.IsDev); err != nil {
		errs = append(errs, err)
	}
	switch c.Session.Store {
	case SessionStoreMongo:
		if strings.TrimSpace(c.Mongo.URI) == "" {
			errs = append(errs, errors.New("MONGO_URI is required when SESSION_STORE=mongo"))
		}
	case SessionStoreMemcached:
		if len(c.Memcached.Servers) == 0 {
			errs = append(errs, errors.New("MEMCACHED_SERVERS is required when SESSION_STORE=memcached"))
		}
	}
	return errors.Join(errs...)
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
