package httpx

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/target/courseshop/internal/observability/metrics"
	"github.com/target/courseshop/internal/ports"
)

// ServerServices holds all the collaborators needed by the HTTP server.
type ServerServices struct {
	Sessions SessionManager
	Users    ports.UserReader
	Accounts AccountsService
	Courses  CoursesService
	Shop     ShopService
	Avatars  AvatarStore
	Renderer PageRenderer

	// PublicFS holds the stylesheets and scripts served from "/". Optional.
	PublicFS fs.FS
	// ImagesDir is served under /images/. Optional.
	ImagesDir string
	// Readiness lists the dependencies pinged by /readyz.
	Readiness map[string]ports.Pinger

	Metrics *metrics.Registry
	Logger  *slog.Logger
}

// ServerConfig holds the tunables of the HTTP layer.
type ServerConfig struct {
	Session            SessionStageConfig
	Upload             UploadConfig
	CSRF               CSRFConfig
	Compression        CompressionConfig
	CompressionEnabled bool
	MetricsEnabled     bool
	DevMode            bool
}

// Server is the assembled HTTP handler plus the request pipeline it runs.
type Server struct {
	Handler  http.Handler
	Pipeline *Pipeline
}

// BuildPipeline returns the session-backed request pipeline in execution order.
func BuildPipeline(svc ServerServices, cfg ServerConfig) *Pipeline {
	sessCfg := cfg.Session
	sessCfg.Sessions = svc.Sessions
	if sessCfg.Logger == nil {
		sessCfg.Logger = svc.Logger
	}
	upCfg := cfg.Upload
	if upCfg.Metrics == nil {
		upCfg.Metrics = svc.Metrics
	}
	csrfCfg := cfg.CSRF
	if csrfCfg.Metrics == nil {
		csrfCfg.Metrics = svc.Metrics
	}

	return NewPipeline(
		SessionStage(sessCfg),
		UploadStage(upCfg),
		CSRFStage(csrfCfg),
		FlashStage(),
		LocalsStage(),
		UserStage(svc.Users, svc.Logger),
	)
}

// RouteGroups returns the page groups in mount order.
func RouteGroups(svc ServerServices) []RouteGroup {
	return []RouteGroup{
		HomeRoutes{Renderer: svc.Renderer},
		OrderRoutes{Shop: svc.Shop, Renderer: svc.Renderer},
		AddRoutes{Courses: svc.Courses, Renderer: svc.Renderer},
		AuthRoutes{Accounts: svc.Accounts, Renderer: svc.Renderer, Logger: svc.Logger},
		CourseRoutes{Courses: svc.Courses, Renderer: svc.Renderer},
		CardRoutes{Shop: svc.Shop, Renderer: svc.Renderer},
		ProfileRoutes{Accounts: svc.Accounts, Avatars: svc.Avatars, Renderer: svc.Renderer},
	}
}

// NewServer assembles the full handler:
// logging -> recover -> security headers -> compression -> static files -> error boundary -> pipeline -> routes.
// Health, readiness and metrics endpoints bypass the session pipeline.
func NewServer(svc ServerServices, cfg ServerConfig) *Server {
	if svc.Logger == nil {
		svc.Logger = slog.Default()
	}
	if svc.Sessions == nil || svc.Users == nil || svc.Renderer == nil {
		panic("Sessions, Users and Renderer are required")
	}

	pipeline := BuildPipeline(svc, cfg)
	router := NewRouter().Mount(RouteGroups(svc)...)
	boundary := NewErrorBoundary(ErrorBoundaryConfig{
		Renderer: svc.Renderer,
		Logger:   svc.Logger,
		Metrics:  svc.Metrics,
	})
	var pages http.Handler = boundary.Wrap(pipeline.Then(router.Handler()))
	if svc.PublicFS != nil {
		pages = StaticFallthrough(svc.PublicFS, pages)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(svc.Readiness, svc.Logger))
	if cfg.MetricsEnabled && svc.Metrics != nil {
		mux.Handle("GET /metrics", svc.Metrics.Handler())
	}
	if svc.ImagesDir != "" {
		mux.Handle("GET /images/", http.StripPrefix("/images/", noDirListing(http.FileServer(http.Dir(svc.ImagesDir)))))
	}
	mux.Handle("/", pages)

	var handler http.Handler = mux
	if cfg.CompressionEnabled {
		compression := cfg.Compression
		if compression.Logger == nil {
			compression.Logger = svc.Logger
		}
		handler = Compression(compression)(handler)
	}
	handler = SecurityHeaders(SecurityHeadersConfig{DevMode: cfg.DevMode})(handler)
	handler = Recover(svc.Logger)(handler)
	handler = Logging(LoggingConfig{Logger: svc.Logger, Metrics: svc.Metrics})(handler)

	return &Server{Handler: handler, Pipeline: pipeline}
}
