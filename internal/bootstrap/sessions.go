package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/courseshop/config"
	"github.com/target/courseshop/internal/adapters/memcached"
	mongostore "github.com/target/courseshop/internal/adapters/mongo"
	redisstore "github.com/target/courseshop/internal/adapters/redis"
	"github.com/target/courseshop/internal/data"
	"github.com/target/courseshop/internal/ports"
)

// SessionPurger removes every stored session. Used by the admin CLI.
type SessionPurger interface {
	Purge(ctx context.Context) (int64, error)
}

// SessionBackend is the session store selected by SESSION_STORE plus its optional capabilities.
type SessionBackend struct {
	Kind  config.SessionStoreKind
	Store ports.SessionStore
	// Cleaner is set for stores without native expiry; a sweeper must run for it.
	Cleaner ports.SessionCleaner
	// Purger is nil for stores that cannot enumerate their keys.
	Purger SessionPurger
	Pinger ports.Pinger
	closer func() error
}

// Close releases the backend's client, if it owns one.
func (b *SessionBackend) Close() error {
	if b == nil || b.closer == nil {
		return nil
	}
	return b.closer()
}

// SessionBackendConfig contains dependencies for BuildSessionBackend.
type SessionBackendConfig struct {
	Config *config.AppConfig
	// DB backs the postgres store. Required for that kind only.
	DB     *sql.DB
	Logger *slog.Logger
}

// BuildSessionBackend connects the configured session store.
func BuildSessionBackend(ctx context.Context, cfg SessionBackendConfig) (*SessionBackend, error) {
	if cfg.Config == nil {
		return nil, errors.New("session backend config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	dbCfg := DatabaseConfig{
		DBConfig:        appCfg.Postgres,
		RedisConfig:     appCfg.Redis,
		MongoConfig:     appCfg.Mongo,
		MemcachedConfig: appCfg.Memcached,
		Logger:          logger,
	}

	kind := appCfg.Session.Store
	switch kind {
	case config.SessionStorePostgres:
		if cfg.DB == nil {
			return nil, errors.New("postgres session store requires a database")
		}
		repo := data.NewSessionRepo(cfg.DB)
		return &SessionBackend{Kind: kind, Store: repo, Cleaner: repo, Purger: repo, Pinger: repo}, nil

	case config.SessionStoreRedis:
		client, err := ConnectRedis(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect redis session store: %w", err)
		}
		store := redisstore.NewSessionStore(client)
		return &SessionBackend{Kind: kind, Store: store, Purger: store, Pinger: store, closer: client.Close}, nil

	case config.SessionStoreMongo:
		client, err := ConnectMongo(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect mongo session store: %w", err)
		}
		store := mongostore.NewSessionStore(client.Database(appCfg.Mongo.Database).Collection(appCfg.Mongo.Collection))
		closer := func() error { return client.Disconnect(context.WithoutCancel(ctx)) }
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, errors.Join(err, closer())
		}
		return &SessionBackend{Kind: kind, Store: store, Purger: store, Pinger: store, closer: closer}, nil

	case config.SessionStoreMemcached:
		client, err := ConnectMemcached(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect memcached session store: %w", err)
		}
		store := memcached.NewSessionStore(client)
		return &SessionBackend{Kind: kind, Store: store, Pinger: store, closer: client.Close}, nil
	}
	return nil, fmt.Errorf("unknown session store %q", kind)
}
