package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dataroom/backend/go/internal/config"
	"dataroom/backend/go/internal/rag_service/api"
	"dataroom/backend/go/pkg/logger"
	"dataroom/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, *configPath)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run starts the service and blocks until ctx is done or the HTTP server
// fails. Dependencies are always closed before it returns.
func run(ctx context.Context, configPath string) error {
	// 1. Load Configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("Failed to load config: %w", err)
	}

	// 2. Initialize Logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New(cfg.App.Name, "", "")
	appLogger.Info(fmt.Sprintf("Starting %s %s (%s)...", cfg.App.Name, cfg.App.Version, cfg.App.Environment))

	// 3. Initialize Dependencies
	deps, err := buildDependencies(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Failed to initialize dependencies: %v", err))
		return fmt.Errorf("Failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	// 4. Start Gin HTTP Server
	if cfg.App.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	var limiter ratelimiter.RateLimiter
	if cfg.Server.RateLimiter.Enabled {
		tb := cfg.Server.RateLimiter.TokenBucket
		limiter = ratelimiter.NewTokenBucket(tb.Rate, tb.Capacity)
		appLogger.Info(fmt.Sprintf("Enabling token bucket rate limiter: %.1f req/s, burst %d", tb.Rate, tb.Capacity))
	}
	router := api.NewRouter(api.NewHandler(deps.Server), api.RouterOptions{
		ServiceName: cfg.App.Name,
		Limiter:     limiter,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	deps.Register(ctx, cfg.App.Name, cfg.Server.Address)

	// 5. Graceful Shutdown
	var runErr error
	select {
	case <-ctx.Done():
		appLogger.Info("Shutting down server...")
	case err := <-serveErr:
		appLogger.Error(fmt.Sprintf("Failed to serve HTTP: %v", err))
		runErr = fmt.Errorf("Failed to serve HTTP: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	deps.Deregister(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	}
	if runErr == nil {
		appLogger.Info("Server gracefully stopped")
	}
	return runErr
}
