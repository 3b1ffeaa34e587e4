package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/target/courseshop/config"
	"github.com/target/courseshop/internal/adapters/filestore"
	"github.com/target/courseshop/internal/observability/metrics"
	"github.com/target/courseshop/internal/ports"
	"golang.org/x/sync/errgroup"
)

const shutdownWaitTimeout = 10 * time.Second

// BackgroundTask runs alongside the HTTP server until the shared context ends.
type BackgroundTask struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runtime is what a successful Connect hands to the listener.
type Runtime struct {
	Handler    http.Handler
	Background []BackgroundTask
	// Close releases connections. Called after the server has stopped.
	Close func() error
}

// Startup connects the backends and only then binds the listener.
type Startup struct {
	// Connect must succeed before anything listens.
	Connect func(ctx context.Context) (*Runtime, error)
	// Listen defaults to net.Listen.
	Listen          func(network, addr string) (net.Listener, error)
	Addr            string
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Run connects, listens and serves until SIGINT, SIGTERM, ctx cancellation or a task failure.
// A Connect error is returned without binding the address.
func (s *Startup) Run(ctx context.Context) error {
	if s.Connect == nil {
		return errors.New("startup requires a Connect step")
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := s.Connect(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "startup failed; not listening", "error", err)
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		if rt.Close == nil {
			return
		}
		if cerr := rt.Close(); cerr != nil {
			logger.Error("close resources failed", "error", cerr)
		}
	}()

	listen := s.Listen
	if listen == nil {
		listen = net.Listen
	}
	addr := s.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":3000"
	}
	ln, err := listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:           rt.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server is running", "addr", ln.Addr().String())
		if serveErr := server.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", serveErr)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")
		timeout := s.ShutdownTimeout
		if timeout <= 0 {
			timeout = shutdownWaitTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), timeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			return fmt.Errorf("shutdown http: %w", shutdownErr)
		}
		logger.Info("HTTP server stopped")
		return nil
	})
	for _, task := range rt.Background {
		g.Go(func() error {
			if runErr := task.Run(gctx); runErr != nil {
				return fmt.Errorf("%s: %w", task.Name, runErr)
			}
			logger.Info(task.Name + " stopped")
			return nil
		})
	}

	return g.Wait()
}

// NewStartup wires the production Connect step for cfg: Postgres, migrations,
// the session backend, services and the HTTP handler.
func NewStartup(cfg *config.AppConfig, logger *slog.Logger) *Startup {
	if logger == nil {
		logger = slog.Default()
	}
	return &Startup{
		Addr:   cfg.HTTP.Addr,
		Logger: logger,
		Connect: func(ctx context.Context) (*Runtime, error) {
			return connect(ctx, cfg, logger)
		},
	}
}

func connect(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (rt *Runtime, err error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	defer func() {
		if err != nil {
			if cerr := closeAll(); cerr != nil {
				err = errors.Join(err, cerr)
			}
		}
	}()

	db, err := ConnectDB(ctx, DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
	if err != nil {
		return nil, err
	}
	closers = append(closers, db.Close)

	if cfg.Postgres.RunMigrationsOnStart {
		if err = RunMigrations(ctx, db, logger); err != nil {
			return nil, err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	backend, err := BuildSessionBackend(ctx, SessionBackendConfig{Config: cfg, DB: db, Logger: logger})
	if err != nil {
		return nil, err
	}
	closers = append(closers, backend.Close)

	m := metrics.New()
	services, err := NewServices(ServiceDeps{
		Config:       cfg,
		Repos:        PostgresRepositories(db),
		SessionStore: backend.Store,
		Metrics:      m,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	avatars, err := filestore.NewAvatarStore(cfg.HTTP.ImagesDir, "/images")
	if err != nil {
		return nil, err
	}

	readiness := map[string]ports.Pinger{"database": pingerFunc(db.PingContext)}
	if backend.Kind != config.SessionStorePostgres && backend.Pinger != nil {
		readiness["sessions"] = backend.Pinger
	}

	handler, err := BuildHandler(HandlerConfig{
		Config:    cfg,
		Services:  services,
		Avatars:   avatars,
		Readiness: readiness,
		Metrics:   m,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	rt = &Runtime{Handler: handler, Close: closeAll}
	sweeper, err := NewSessionSweeper(backend, cfg.Session, m, logger)
	if err != nil {
		return nil, err
	}
	if sweeper != nil {
		rt.Background = append(rt.Background, BackgroundTask{Name: "session sweeper", Run: sweeper.Run})
	}
	return rt, nil
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
