package main

import (
	"admin-service/internal/revocation"
	"admin-service/internal/router"
	"admin-service/internal/store"
	"admin-service/pkg/config"
	"admin-service/pkg/database"
	"admin-service/pkg/logger"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.InitLogger(cfg)
	defer log.Sync() //nolint:errcheck
	log.Info("Starting admin service...", cfg.LogConfig()...)

	db, err := database.InitDB(cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database handle", zap.Error(err))
	}
	defer sqlDB.Close()
	log.Info("Database connection established")

	opts := router.Options{
		Config: cfg,
		Logger: log,
		Store:  store.NewGormStore(db),
		DB:     sqlDB,
	}

	if cfg.Redis.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		revoked, err := revocation.Dial(ctx, cfg.Redis.URL)
		cancel()
		if err != nil {
			log.Fatal("Failed to connect to token denylist", zap.Error(err))
		}
		defer revoked.Close()
		opts.Revoked = revoked
		log.Info("Token denylist enabled")
	}

	e := router.New(opts)

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("address", cfg.Server.Address()))
		serverErrors <- e.Start(cfg.Server.Address())
	}()

	// Wait for shutdown signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := e.Shutdown(ctx); err != nil {
			log.Error("Server shutdown error", zap.Error(err))
			if err := e.Close(); err != nil {
				log.Error("Server close error", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}
}
