package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/target/courseshop"
	"github.com/target/courseshop/config"
	httpx "github.com/target/courseshop/internal/http"
	"github.com/target/courseshop/internal/observability/metrics"
	"github.com/target/courseshop/internal/ports"
)

const devTemplateDir = httpx.TemplatePathFromRoot

// HandlerConfig contains everything BuildHandler needs.
type HandlerConfig struct {
	Config    *config.AppConfig
	Services  ServiceContainer
	Avatars   httpx.AvatarStore
	Readiness map[string]ports.Pinger
	Metrics   *metrics.Registry
	Logger    *slog.Logger
	// TemplateFS overrides template discovery. Optional.
	TemplateFS fs.FS
}

// BuildHandler assembles the HTTP handler from the wired services.
func BuildHandler(cfg HandlerConfig) (http.Handler, error) {
	if cfg.Config == nil {
		return nil, errors.New("handler config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config

	renderer, err := httpx.NewTemplateRenderer(httpx.TemplateRendererConfig{
		TemplateFS: templateFS(cfg.TemplateFS, appCfg.IsDev, logger),
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	var metricsReg *metrics.Registry
	if appCfg.Observability.Metrics.IsEnabled() {
		metricsReg = cfg.Metrics
	}

	server := httpx.NewServer(httpx.ServerServices{
		Sessions:  cfg.Services.Sessions,
		Users:     cfg.Services.Users,
		Accounts:  cfg.Services.Accounts,
		Courses:   cfg.Services.Courses,
		Shop:      cfg.Services.Shop,
		Avatars:   cfg.Avatars,
		Renderer:  renderer,
		PublicFS:  courseshop.PublicFS(),
		ImagesDir: appCfg.HTTP.ImagesDir,
		Readiness: cfg.Readiness,
		Metrics:   cfg.Metrics,
		Logger:    logger,
	}, httpx.ServerConfig{
		Session: httpx.SessionStageConfig{
			CookieName:   appCfg.Session.CookieName,
			CookieDomain: appCfg.HTTP.CookieDomain,
			Secure:       appCfg.Session.CookieSecure,
		},
		Upload: httpx.UploadConfig{
			MaxBytes:     appCfg.Upload.MaxBytes,
			AllowedTypes: appCfg.Upload.AllowedTypes,
		},
		Compression:        httpx.CompressionConfig{Level: appCfg.HTTP.CompressionLevel, MinSize: 512},
		CompressionEnabled: appCfg.HTTP.CompressionEnabled,
		MetricsEnabled:     metricsReg != nil,
		DevMode:            appCfg.IsDev,
	})

	logger.Info("http handler assembled",
		"pipeline", server.Pipeline.Names(),
		"compression", appCfg.HTTP.CompressionEnabled,
		"metrics", metricsReg != nil,
	)
	return server.Handler, nil
}

// templateFS prefers the on-disk templates in development so edits show up without a rebuild.
//
//nolint:ireturn // fs.FS is the natural return type here.
func templateFS(override fs.FS, isDev bool, logger *slog.Logger) fs.FS {
	if override != nil {
		return override
	}
	if isDev {
		if info, err := os.Stat(devTemplateDir); err == nil && info.IsDir() {
			logger.Info("loading templates from disk", "dir", devTemplateDir)
			return os.DirFS(devTemplateDir)
		}
	}
	return courseshop.TemplateFS()
}
