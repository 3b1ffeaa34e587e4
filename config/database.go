package config

import (
	"strings"
	"time"
)

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	// URL, when set, takes precedence over the discrete connection fields.
	URL      string `env:"URL"                     envDefault:""`
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"courseshop"`
	Password string `env:"PASSWORD"                envDefault:"courseshop"`
	Name     string `env:"NAME"                    envDefault:"courseshop"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelPort       string   `env:"SENTINEL_PORT"        envDefault:"26379"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// MongoConfig contains MongoDB configuration for the mongo session store.
type MongoConfig struct {
	URI        string `env:"URI"        envDefault:"mongodb://localhost:27017"`
	Database   string `env:"DATABASE"   envDefault:"courseshop"`
	Collection string `env:"COLLECTION" envDefault:"sessions"`
}

// MemcachedConfig contains memcached configuration for the memcached session store.
type MemcachedConfig struct {
	Servers []string      `env:"SERVERS" envDefault:"localhost:11211"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"500ms"`
}

// Sanitize trims server entries and drops empty ones.
func (m *MemcachedConfig) Sanitize() {
	servers := m.Servers[:0]
	for _, s := range m.Servers {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	m.Servers = servers
	if m.Timeout <= 0 {
		m.Timeout = 500 * time.Millisecond
	}
}
