package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leafsii/georef/internal/api"
	"github.com/leafsii/georef/internal/config"
	gdb "github.com/leafsii/georef/internal/db"
	"github.com/leafsii/georef/internal/geo"
	"github.com/leafsii/georef/internal/log"
	"github.com/leafsii/georef/internal/metrics"
	"github.com/leafsii/georef/internal/seed"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := log.NewSugar(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infow("Starting georef API server",
		"env", cfg.Env,
		"addr", cfg.HTTPAddr(),
		"driver", cfg.Database.Engine(),
	)

	// Setup metrics
	metricsObj, metricsHandler, err := metrics.Setup("georef-api")
	if err != nil {
		logger.Fatalw("Failed to setup metrics", "error", err)
	}

	// Initialize database. The memory engine registers its tables through
	// Migrate, so it is always migrated.
	database, err := gdb.NewDatabase(cfg.Database.DB(), logger)
	if err != nil {
		logger.Fatalw("Failed to create database", "error", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if cfg.Bootstrap.MigrateOnStart || cfg.Database.Engine() == "memory" {
		if err := gdb.ConnectAndMigrate(ctx, database, gdb.AllSchemas()); err != nil {
			logger.Fatalw("Failed to initialize database", "error", err)
		}
	} else if err := database.Connect(ctx); err != nil {
		logger.Fatalw("Failed to connect to database", "error", err)
	}
	logger.Infow("Database initialized")

	geoSvc := geo.NewService(logger, metricsObj)

	if cfg.Bootstrap.SeedOnStart {
		ds, err := seed.Default()
		if err != nil {
			logger.Fatalw("Failed to load seed data", "error", err)
		}
		if _, err := seed.NewRunner(geoSvc, logger).Seed(ctx, database, ds); err != nil {
			logger.Fatalw("Failed to seed database", "error", err)
		}
	}

	// Setup API handler and middleware
	handler := api.NewHandler(database, geoSvc, logger)
	middleware := api.NewMiddleware(logger, metricsObj)

	router := handler.Routes(middleware, cfg.Security.CORSAllowedOrigins, cfg.Security.RateLimitRPM, metricsHandler)

	// Log configured CORS origins for easier debugging in dev
	logger.Infow("CORS configured", "allowed_origins", cfg.Security.CORSAllowedOrigins)

	// Setup HTTP server
	server := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		logger.Infow("API server starting", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatalw("Server startup failed", "error", err)
	case sig := <-shutdown:
		logger.Infow("Shutdown signal received", "signal", sig.String())

		// Give outstanding requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Errorw("Graceful shutdown failed", "error", err)
			server.Close()
		}
		if err := database.Disconnect(ctx); err != nil {
			logger.Warnw("Failed to disconnect database", "error", err)
		}

		logger.Infow("Server stopped")
	}
}
