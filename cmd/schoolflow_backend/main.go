package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/school_workflow_app/internal/adapters/notify"
	portsrepo "github.com/SscSPs/school_workflow_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/school_workflow_app/internal/core/ports/services"
	"github.com/SscSPs/school_workflow_app/internal/core/services"
	"github.com/SscSPs/school_workflow_app/internal/handlers"
	"github.com/SscSPs/school_workflow_app/internal/middleware"
	"github.com/SscSPs/school_workflow_app/internal/platform/config"
	"github.com/SscSPs/school_workflow_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/school_workflow_app/internal/repositories/memory"
	"github.com/SscSPs/school_workflow_app/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
)

// @title School Workflow API
// @version 1.0
// @description Approval workflows for school expenditures, financial reports and exam reports.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx := context.Background()

	repos, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize store", slog.String("driver", cfg.StoreDriver), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	var sinks []portssvc.NotificationSink
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("school-workflow-app"))
		if err != nil {
			logger.Error("Failed to connect to NATS", slog.String("url", cfg.NATSURL), slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer nc.Drain()
		sinks = append(sinks, notify.NewNATSSink(nc))
		logger.Info("Publishing notifications to NATS", slog.String("prefix", notify.SubjectPrefix))
	}

	serviceContainer := services.NewServiceContainer(cfg, repos, sinks...)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	limiterInstance, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		logger.Error("Failed to create rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.FrontendBaseURL}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "If-Match", "X-Request-ID")
	corsConfig.ExposeHeaders = []string{"ETag", "X-Request-ID", "Content-Disposition"}

	// Global middleware (logging, recovery)
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		cors.New(corsConfig),
		middleware.RateLimit(limiterInstance),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}

	// Let in-flight notifications reach their sinks before the store and NATS close.
	serviceContainer.Notifier.Wait()
	logger.Info("Server stopped")
}

// openStore returns the repositories for the configured driver along with a cleanup func.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.StoreDriver != config.StoreDriverPostgres {
		logger.Warn("Using in-memory store; data is lost on restart")
		return memory.NewRepositoryProvider(), func() {}, nil
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}

	logger.Info("Running database migrations...", slog.String("path", cfg.MigrationsPath))
	applied, err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
	if err != nil {
		dbPool.Close()
		return portsrepo.RepositoryProvider{}, nil, err
	}
	if applied {
		logger.Info("Database migrations applied successfully.")
	} else {
		logger.Info("No new migrations to apply.")
	}

	return pgsql.NewRepositoryProvider(dbPool), dbPool.Close, nil
}
