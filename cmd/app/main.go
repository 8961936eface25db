package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mentora/internal/api/v1/router"
	"mentora/internal/config"
	"mentora/internal/logger"
	"mentora/internal/service"

	"github.com/joho/godotenv"
)

// @title Mentora Video API
// @version 1.0
// @description Chunked lecture video upload and merge service
// @host localhost:8080
// @BasePath /
// @Schemes http https

func main() {
	logger := logger.New()

	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// 2. Resolve sensitive config values from Secret Manager when configured
	if err := service.ResolveConfigSecrets(context.Background(), cfg, logger); err != nil {
		logger.Fatal().Msgf("Failed to resolve config secrets: %v", err)
	}
	if cfg.DBConnectionString == "" {
		logger.Fatal().Msg("DB_CONNECTION_STRING is not set (directly or via DB_CONNECTION_SECRET)")
	}

	// 3. Build router (and get DB connection)
	r, db, err := router.New(cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to build router: %v", err)
	}
	defer db.Close()

	// 4. Create HTTP server. Write timeout is generous because merge
	// requests concatenate large files before responding.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Start server in a goroutine
	go func() {
		logger.Info().Msgf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Msgf("Listen: %s\n", err)
		}
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutdown signal received, exiting...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Msgf("Server forced to shutdown: %v", err)
	}
	logger.Info().Msg("Server shut down gracefully")
}
