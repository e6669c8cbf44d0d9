package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/yatube/internal/auth"
	"github.com/sujalbistaa/yatube/internal/cache"
	"github.com/sujalbistaa/yatube/internal/config"
	"github.com/sujalbistaa/yatube/internal/db"
	routes "github.com/sujalbistaa/yatube/internal/http"
	"github.com/sujalbistaa/yatube/internal/log"
	"github.com/sujalbistaa/yatube/internal/media"
	"github.com/sujalbistaa/yatube/internal/metrics"
	"github.com/sujalbistaa/yatube/internal/repository"
)

func main() {
	// 1. Load configuration (.env first, then the environment)
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewSugar(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infow("Starting yatube server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	// 2. Initialize Database
	database, err := db.Open(db.Options{URL: cfg.Database.URL, LogSQL: cfg.Database.LogSQL}, logger)
	if err != nil {
		logger.Fatalw("Failed to initialize database", "error", err)
	}

	// 3. Run Migrations
	logger.Infow("Running database migrations")
	if err := db.Migrate(database); err != nil {
		logger.Fatalw("Failed to run migrations", "error", err)
	}

	// 4. Cache, metrics and collaborators
	pageCache := cache.New(cfg.Cache.RedisAddr, logger)
	defer pageCache.Close()

	metricsObj, metricsHandler, err := metrics.Setup("yatube")
	if err != nil {
		logger.Fatalw("Failed to setup metrics", "error", err)
	}

	storage := media.NewStorage(cfg.Media.Root)
	repo := repository.New(database)

	env := &routes.Env{
		Repo:          repo,
		Cache:         pageCache,
		Media:         storage,
		Auth:          auth.NewService(repo, cfg.Security.SessionTTL),
		Log:           logger,
		Metrics:       metricsObj,
		IndexTTL:      cfg.Cache.IndexCacheTTL,
		SecureCookies: cfg.IsProd(),
	}

	// 5. Initialize Gin Router
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupRoutes(router, env, routes.RouteOptions{
		CORSOrigins: cfg.Security.CORSOrigins,
		AdminToken:  cfg.Security.AdminToken,
		Metrics:     metricsHandler,
	})
	if cfg.Security.AdminToken == "" {
		logger.Infow("Admin routes disabled, YATUBE_ADMIN_TOKEN is not set")
	}

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Infow("Server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("Server failed", "error", err)
		}
	}()

	<-quit
	logger.Infow("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorw("Server forced to shutdown", "error", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Infow("Server exiting")
}
