// Package main is the entrypoint for the Shopwatch API server.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"github.com/shopwatch/shopwatch/internal/alert"
	"github.com/shopwatch/shopwatch/internal/cache"
	"github.com/shopwatch/shopwatch/internal/config"
	"github.com/shopwatch/shopwatch/internal/handler"
	"github.com/shopwatch/shopwatch/internal/i18n"
	"github.com/shopwatch/shopwatch/internal/metrics"
	"github.com/shopwatch/shopwatch/internal/middleware"
	"github.com/shopwatch/shopwatch/internal/repository"
	"github.com/shopwatch/shopwatch/internal/search"
	"github.com/shopwatch/shopwatch/internal/server"
	"github.com/shopwatch/shopwatch/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Separate database/sql handle for the alert queue, which relies
	// on SKIP LOCKED polling outside the pgx pool.
	alertDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to open alert database handle",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer alertDB.Close()

	metricsRecorder := metrics.NewInMemory()
	messages := i18n.NewResolver(cfg.DefaultLocale)

	alertRepo := alert.NewRepository(alertDB)
	var alertPublisher service.AlertPublisher
	if cfg.AlertsEnabled {
		alertPublisher = alert.NewPublisher(alertRepo, logger)
	}

	productService := service.NewProductService(repo, repo, repo, messages, cfg.DefaultLocale, alertPublisher, metricsRecorder)
	folderService := service.NewFolderService(repo, metricsRecorder)
	userService := service.NewUserService(repo, cacheClient, cfg.AdminSignupToken)

	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	productHandler := handler.NewProductHandler(productService, logger)
	folderHandler := handler.NewFolderHandler(folderService, logger)
	userHandler := handler.NewUserHandler(userService, logger)
	alertHandler := handler.NewAlertHandler(alertRepo, logger)
	adminHandler := handler.NewAdminHandler(repo, logger)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)

	r := setupRouter(routerDeps{
		base:    h,
		health:  healthHandler,
		product: productHandler,
		folder:  folderHandler,
		user:    userHandler,
		alert:   alertHandler,
		admin:   adminHandler,
		metrics: metricsHandler,
		cache:   cacheClient,
		cfg:     cfg,
		logger:  logger,
	})

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Background workers shut down after the HTTP server drains.
	if cfg.AlertsEnabled {
		alertWorker := alert.NewWorker(alertRepo, logger, metricsRecorder)
		workerCtx, cancelWorker := context.WithCancel(ctx)
		go func() {
			if err := alertWorker.Run(workerCtx); err != nil && err != context.Canceled {
				logger.Error("alert worker stopped", "error", err)
			}
		}()
		srv.OnShutdown("alert_worker", func(ctx context.Context) error {
			cancelWorker()
			return nil
		})
	}

	if cfg.SearchSyncEnabled() {
		searchClient := search.NewClient(cfg.SearchAPIURL, cfg.SearchTimeout)
		syncWorker := search.NewWorker(searchClient, repo, productService, cacheClient, logger, metricsRecorder)
		syncWorker.SetInterval(cfg.SearchSyncInterval)
		go func() {
			if err := syncWorker.Run(ctx); err != nil && err != context.Canceled {
				logger.Error("catalog sync worker stopped", "error", err)
			}
		}()
		srv.OnShutdown("catalog_sync_worker", syncWorker.Shutdown)
	} else {
		logger.Warn("catalog sync disabled, SEARCH_API_URL not set")
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type routerDeps struct {
	base    *handler.Handler
	health  *handler.HealthHandler
	product *handler.ProductHandler
	folder  *handler.FolderHandler
	user    *handler.UserHandler
	alert   *handler.AlertHandler
	admin   *handler.AdminHandler
	metrics *handler.MetricsHandler
	cache   *cache.Cache
	cfg     *config.Config
	logger  *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	cfg := deps.cfg
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	if origins := cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowedOrigins = origins
		r.Use(middleware.CORS(corsCfg))
	}

	// Health and info endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	r.Get("/metrics", deps.metrics.Metrics)
	r.Get("/", deps.base.Root)

	authCfg := middleware.AuthConfig{
		Logger:   deps.logger,
		Sessions: deps.cache,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:      deps.logger,
		Cache:       deps.cache,
		UserEnabled: cfg.RateLimitUserEnabled,
		UserRPM:     cfg.RateLimitUserRPM,
		UserBurst:   cfg.RateLimitUserBurst,
		IPEnabled:   cfg.RateLimitIPEnabled,
		IPRPS:       cfg.RateLimitIPRPS,
		IPBurst:     cfg.RateLimitIPBurst,
	}

	// Signup and login are unauthenticated but rate limited per IP
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.RateLimitIP(rateLimitCfg)).Post("/signup", deps.user.Signup)
		r.With(middleware.RateLimitIP(rateLimitCfg)).Post("/login", deps.user.Login)
		r.Post("/logout", deps.user.Logout)
	})

	// API v1 routes (require authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))
		r.Use(middleware.RateLimitUser(rateLimitCfg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", deps.product.List)
			r.Post("/", deps.product.Create)
			r.Patch("/{id}/myprice", deps.product.UpdateMyPrice)
			r.Post("/{id}/folders/{folderID}", deps.product.AddToFolder)
		})

		r.Route("/folders", func(r chi.Router) {
			r.Get("/", deps.folder.List)
			r.Post("/", deps.folder.Create)
			r.Get("/{folderID}/products", deps.product.ListInFolder)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", deps.alert.List)
			r.Post("/", deps.alert.Create)
			r.Patch("/{id}", deps.alert.Update)
			r.Delete("/{id}", deps.alert.Delete)
			r.Post("/{id}/rotate", deps.alert.RotateSecret)
			r.Get("/{id}/deliveries", deps.alert.ListDeliveries)
		})

		// Admin endpoints require the ADMIN role
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Get("/users", deps.admin.LookupUsers)
			r.Get("/stats", deps.admin.Stats)
		})
	})

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
