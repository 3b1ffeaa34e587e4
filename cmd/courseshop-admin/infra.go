package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/target/courseshop/config"
	"github.com/target/courseshop/internal/bootstrap"
)

// withDatabase connects to Postgres for the duration of f.
func withDatabase(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *sql.DB) error,
) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return f(ctx, db)
}

// withSessionBackend connects the configured session store for the duration of f.
// Postgres is only dialled when it backs the sessions.
func withSessionBackend(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *bootstrap.SessionBackend) error,
) error {
	run := func(ctx context.Context, db *sql.DB) (err error) {
		backend, err := bootstrap.BuildSessionBackend(ctx, bootstrap.SessionBackendConfig{
			Config: &cmdCtx.Config,
			DB:     db,
			Logger: cmdCtx.Logger,
		})
		if err != nil {
			return err
		}
		defer func() {
			if cerr := backend.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close session store: %w", cerr))
			}
		}()
		return f(ctx, backend)
	}

	if cmdCtx.Config.Session.Store == config.SessionStorePostgres {
		return withDatabase(cmdCtx, timeout, run)
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return run(ctx, nil)
}
