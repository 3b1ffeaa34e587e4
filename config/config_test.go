package config

import (
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_ParseDefaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.HTTP.Addr != ":3000" {
		t.Fatalf("expected default addr :3000, got %q", cfg.HTTP.Addr)
	}
	if cfg.Session.Store != SessionStorePostgres {
		t.Fatalf("expected postgres session store, got %q", cfg.Session.Store)
	}
	if cfg.Session.CookieName != "sid" {
		t.Fatalf("expected cookie name sid, got %q", cfg.Session.CookieName)
	}
	if cfg.Session.IdleTimeout != 24*time.Hour {
		t.Fatalf("expected 24h idle timeout, got %s", cfg.Session.IdleTimeout)
	}
	if cfg.Upload.MaxBytes != 5<<20 {
		t.Fatalf("expected 5MiB upload limit, got %d", cfg.Upload.MaxBytes)
	}
	expectedTypes := []string{"image/png", "image/jpg", "image/jpeg"}
	if !reflect.DeepEqual(cfg.Upload.AllowedTypes, expectedTypes) {
		t.Fatalf("unexpected allowed types: %v", cfg.Upload.AllowedTypes)
	}
}

func TestAppConfig_ParseSessionEnv(t *testing.T) {
	t.Setenv("SESSION_SECRET", strings.Repeat("k", 40))
	t.Setenv("SESSION_STORE", " Mongo ")
	t.Setenv("SESSION_COOKIE_NAME", "shop.sid")
	t.Setenv("SESSION_IDLE_TIMEOUT", "90m")
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("MONGO_DATABASE", "shop")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Session.Store != SessionStoreMongo {
		t.Fatalf("expected mongo store, got %q", cfg.Session.Store)
	}
	if cfg.Session.CookieName != "shop.sid" {
		t.Fatalf("unexpected cookie name %q", cfg.Session.CookieName)
	}
	if cfg.Session.IdleTimeout != 90*time.Minute {
		t.Fatalf("unexpected idle timeout %s", cfg.Session.IdleTimeout)
	}
	if cfg.Mongo.Database != "shop" || cfg.Mongo.Collection != "sessions" {
		t.Fatalf("unexpected mongo config: %#v", cfg.Mongo)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	tests := []struct {
		name      string
		in        HTTPConfig
		wantAddr  string
		wantLevel int
	}{
		{name: "port fallback", in: HTTPConfig{Port: "4000", CompressionLevel: 6}, wantAddr: ":4000", wantLevel: 6},
		{name: "explicit addr wins", in: HTTPConfig{Addr: "127.0.0.1:9000", Port: "4000", CompressionLevel: 0}, wantAddr: "127.0.0.1:9000", wantLevel: 1},
		{name: "empty port", in: HTTPConfig{CompressionLevel: 12}, wantAddr: ":3000", wantLevel: 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.in
			cfg.Sanitize()
			if cfg.Addr != tt.wantAddr {
				t.Errorf("addr = %q, want %q", cfg.Addr, tt.wantAddr)
			}
			if cfg.CompressionLevel != tt.wantLevel {
				t.Errorf("level = %d, want %d", cfg.CompressionLevel, tt.wantLevel)
			}
		})
	}
}

func TestSessionConfig_Validate(t *testing.T) {
	cfg := SessionConfig{Store: "sqlite"}
	if err := cfg.Validate(true); err == nil {
		t.Fatalf("expected invalid store to be rejected")
	}

	cfg = SessionConfig{Store: SessionStoreRedis, Secret: "short"}
	if err := cfg.Validate(false); err == nil {
		t.Fatalf("expected short secret to be rejected outside dev")
	}
	if err := cfg.Validate(true); err != nil {
		t.Fatalf("expected short secret to be accepted in dev, got %v", err)
	}
}

func TestAppConfig_ValidateBackendRequirements(t *testing.T) {
	cfg := AppConfig{
		IsDev:   true,
		Session: SessionConfig{Store: SessionStoreMemcached},
	}
	cfg.Memcached.Sanitize()

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "MEMCACHED_SERVERS") {
		t.Fatalf("expected memcached servers error, got %v", err)
	}
}

func TestUploadConfig_Sanitize(t *testing.T) {
	cfg := UploadConfig{MaxBytes: -1, AllowedTypes: []string{" IMAGE/PNG ", "", "image/gif"}}
	cfg.Sanitize()

	if cfg.MaxBytes != defaultUploadMaxBytes {
		t.Fatalf("expected default max bytes, got %d", cfg.MaxBytes)
	}
	if !reflect.DeepEqual(cfg.AllowedTypes, []string{"image/png", "image/gif"}) {
		t.Fatalf("unexpected allowed types %v", cfg.AllowedTypes)
	}
}

func TestObservabilityConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityConfig{
		Logging: LoggingConfig{Level: "LOUD"},
		Metrics: ObservabilityMetricsConfig{Enabled: true, Path: "metrics"},
	}
	cfg.Sanitize()

	if cfg.Logging.SlogLevel() != slog.LevelInfo {
		t.Fatalf("expected unknown level to fall back to info")
	}
	if !cfg.Metrics.IsEnabled() || cfg.Metrics.Path != "/metrics" {
		t.Fatalf("expected metrics path to be normalised, got %q", cfg.Metrics.Path)
	}

	cfg.Metrics = ObservabilityMetricsConfig{Enabled: true, Path: " "}
	cfg.Metrics.Sanitize()
	if cfg.Metrics.IsEnabled() {
		t.Fatalf("expected metrics to be disabled without a path")
	}
}
