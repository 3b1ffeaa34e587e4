package config

import (
	"os"
	"strings"
)

const defaultPort = "3000"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	// When empty the PORT variable is used (":" + PORT, default 3000).
	Addr string `env:"HTTP_ADDR" envDefault:""`

	// Port is the bare listen port, honoured when HTTP_ADDR is unset.
	Port string `env:"PORT" envDefault:"3000"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CompressionEnabled enables gzip compression for text-based responses.
	CompressionEnabled bool `env:"HTTP_COMPRESSION_ENABLED" envDefault:"true"`

	// CompressionLevel is the gzip compression level (1-9).
	// Default is 6 (standard gzip default).
	CompressionLevel int `env:"HTTP_COMPRESSION_LEVEL" envDefault:"6"`

	// ImagesDir is the on-disk directory avatars are written to and served from under /images/.
	ImagesDir string `env:"IMAGES_DIR" envDefault:"images"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	// Clamp compression level to valid gzip range (1-9)
	if h.CompressionLevel < 1 {
		h.CompressionLevel = 1
	}
	if h.CompressionLevel > 9 {
		h.CompressionLevel = 9
	}

	h.Port = strings.TrimSpace(h.Port)
	if h.Port == "" {
		h.Port = defaultPort
	}
	if strings.TrimSpace(h.Addr) == "" {
		h.Addr = ":" + h.Port
	}

	h.ImagesDir = strings.TrimSpace(h.ImagesDir)
	if h.ImagesDir == "" {
		h.ImagesDir = "images"
	}
}

// ImagesDirExists reports whether the configured images directory is present on disk.
func (h *HTTPConfig) ImagesDirExists() bool {
	info, err := os.Stat(h.ImagesDir)
	return err == nil && info.IsDir()
}
