package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/temic137/forms-sub004/internal/cache"
	"github.com/temic137/forms-sub004/internal/config"
	"github.com/temic137/forms-sub004/internal/events"
	"github.com/temic137/forms-sub004/internal/handlers"
	"github.com/temic137/forms-sub004/internal/repositories/postgres"
	"github.com/temic137/forms-sub004/internal/services"
	"github.com/temic137/forms-sub004/internal/utils"
	"github.com/temic137/forms-sub004/internal/validator"
	"github.com/temic137/forms-sub004/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.NewSlog(false).Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := utils.NewSlog(cfg.IsProduction())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	db, err := pkg.InitDatabase(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	rdb, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()
	logger.Info("Connected to redis")

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("Failed to create event publisher, falling back to mock", "error", err)
		publisher = events.NewMockEventPublisher(logger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", "error", err)
		}
	}()

	repo := postgres.NewRepository(db)
	redisCache := cache.NewRedisCache(rdb, logger)
	formCache := cache.NewFormCache(redisCache, cfg.FormCacheTTL)
	sessionStore := cache.NewSessionStore(redisCache, cfg.SessionTTL)
	v := validator.New()

	svc := handlers.Services{
		Form:       services.NewFormService(repo, formCache, sessionStore, publisher, logger, v),
		Runtime:    services.NewRuntimeService(repo, formCache, sessionStore, publisher, logger, v),
		Submission: services.NewSubmissionService(repo, logger),
	}

	appLogger := utils.NewSlogLogger(logger)

	var parser handlers.TokenParser
	if cfg.Auth.Enabled {
		parser = handlers.NewCasdoorClient(cfg.Auth)
		logger.Info("Token verification enabled", "endpoint", cfg.Auth.Endpoint)
	} else {
		logger.Warn("Token verification disabled, trusting X-User-ID header")
	}

	hm := handlers.NewHandlerManager(svc, handlers.NewAuthenticator(parser, appLogger), v, appLogger, cfg.CORSAllowedOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           hm.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ListenAndServe failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
