package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atrium-pm/atrium/internal/app"
	"github.com/atrium-pm/atrium/internal/auth"
	"github.com/atrium-pm/atrium/internal/observability"
	"github.com/atrium-pm/atrium/internal/platform/cache"
	"github.com/atrium-pm/atrium/internal/platform/db"
	"github.com/atrium-pm/atrium/internal/properties"
	"github.com/atrium-pm/atrium/internal/rbac"
	"github.com/atrium-pm/atrium/internal/scope"
	"github.com/atrium-pm/atrium/internal/shared"
	"github.com/atrium-pm/atrium/internal/sidebar"
	"github.com/atrium-pm/atrium/internal/users"
	"github.com/atrium-pm/atrium/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	if err := app.SeedDefaults(ctx, logger, pool); err != nil {
		logger.Error("seed defaults", slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := shared.NewSessionManager(redisClient, cfg.CookieName, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	rbacRepo := rbac.NewRepository(pool)
	rbacService := rbac.NewService(rbacRepo, redisClient, cfg.PermissionCacheTTL)
	scopeResolver := scope.NewResolver(scope.NewPGStore(pool))
	rbacMiddleware := rbac.Middleware{
		Catalog:  rbacService,
		Resolver: scopeResolver,
		Logger:   logger,
		Metrics:  metrics,
	}
	rbacHandler := rbac.NewHandler(logger, rbacService, auditLogger, rbacMiddleware)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, auditLogger, rbacMiddleware)

	sidebarRepo := sidebar.NewRepository(pool)
	sidebarService := sidebar.NewService(sidebarRepo, rbacService)
	sidebarHandler := sidebar.NewHandler(logger, sidebarService)

	propertiesRepo := properties.NewRepository(pool)
	propertiesService := properties.NewService(propertiesRepo)
	propertiesHandler := properties.NewHandler(logger, propertiesService, auditLogger, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		Pool:              pool,
		AuthHandler:       authHandler,
		RBACHandler:       rbacHandler,
		UsersHandler:      usersHandler,
		SidebarHandler:    sidebarHandler,
		PropertiesHandler: propertiesHandler,
		JobHandler:        jobHandler,
		RBACMiddleware:    rbacMiddleware,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
