package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/courseshop/config"
	"github.com/target/courseshop/internal/data"
	"github.com/target/courseshop/internal/observability/metrics"
	"github.com/target/courseshop/internal/ports"
	"github.com/target/courseshop/internal/service"
)

// Repositories groups the storage adapters backing service ports.
type Repositories struct {
	Users   ports.UserRepository
	Courses ports.CourseRepository
	Carts   ports.CartRepository
	Orders  ports.OrderRepository
}

// PostgresRepositories builds the Postgres-backed repositories; no business rules here.
func PostgresRepositories(db *sql.DB) Repositories {
	return Repositories{
		Users:   data.NewUserRepo(db),
		Courses: data.NewCourseRepo(db),
		Carts:   data.NewCartRepo(db),
		Orders:  data.NewOrderRepo(db),
	}
}

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Sessions *service.SessionService
	Accounts *service.AccountService
	Courses  *service.CourseService
	Shop     *service.ShopService
	// Users resolves the session user for the pipeline.
	Users ports.UserReader
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config       *config.AppConfig
	Repos        Repositories
	SessionStore ports.SessionStore
	Metrics      *metrics.Registry
	Logger       *slog.Logger
	// BcryptCost overrides the password hashing cost. Zero means bcrypt's default.
	BcryptCost int
}

// NewServices wires the domain services over the given repositories.
func NewServices(deps ServiceDeps) (ServiceContainer, error) {
	if deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps missing AppConfig")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessions, err := service.NewSessionService(service.SessionServiceOptions{
		Store: deps.SessionStore,
		Config: service.SessionConfig{
			Secret:      sessionSecret(deps.Config, logger),
			IdleTimeout: deps.Config.Session.IdleTimeout,
		},
		Observability: service.SessionObservability{Logger: logger, Metrics: deps.Metrics},
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create session service: %w", err)
	}

	accounts, err := service.NewAccountService(service.AccountServiceOptions{
		Users:  deps.Repos.Users,
		Logger: logger,
		Cost:   deps.BcryptCost,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create account service: %w", err)
	}

	return ServiceContainer{
		Sessions: sessions,
		Accounts: accounts,
		Courses:  service.NewCourseService(service.CourseServiceOptions{Courses: deps.Repos.Courses}),
		Shop:     service.NewShopService(service.ShopServiceOptions{Carts: deps.Repos.Carts, Orders: deps.Repos.Orders}),
		Users:    deps.Repos.Users,
	}, nil
}

// NewSessionSweeper returns a sweeper for backends without native expiry, or nil.
func NewSessionSweeper(backend *SessionBackend, cfg config.SessionConfig, m *metrics.Registry, logger *slog.Logger) (*service.SessionSweeper, error) {
	if backend == nil || backend.Cleaner == nil {
		return nil, nil
	}
	return service.NewSessionSweeper(service.SessionSweeperOptions{
		Cleaner:  backend.Cleaner,
		Interval: cfg.CleanupInterval,
		Observe:  service.SessionObservability{Logger: logger, Metrics: m},
	})
}
