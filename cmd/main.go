package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"alert-service/internal/api"
	"alert-service/internal/config"
	"alert-service/internal/db"
	"alert-service/internal/logging"
	"alert-service/internal/utils"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Close()
	logger.Infof("Starting Vesper Insight API Server...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the alert store; it is provisioned by the detection process
	var store db.Store
	err = utils.Retry(ctx, logger, cfg.DB.ConnectAttempts, cfg.DB.ConnectDelay, func(ctx context.Context) error {
		s, err := db.New(ctx, cfg.DB)
		if err != nil {
			return err
		}
		store = s
		return nil
	})
	if err != nil {
		logger.Errorf("Failed to open %s store: %v", cfg.DB.Driver, err)
		logger.Close()
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Errorf("DB close failed: %v", err)
		} else {
			logger.Infof("DB connection closed")
		}
	}()

	gin.SetMode(cfg.API.Mode)
	srv := &http.Server{
		Addr:    cfg.API.Addr,
		Handler: api.NewRouter(store, logger),
	}

	go func() {
		logger.Infof("API started on %s (store: %s)", cfg.API.Addr, cfg.DB.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("API run failed: %v", err)
			stop()
		}
	}()

	// Handle graceful shutdown
	<-ctx.Done()
	logger.Infof("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API shutdown failed: %v", err)
	}
	logger.Infof("Service stopped")
}
