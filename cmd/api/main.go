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

	"github.com/joho/godotenv"

	"github.com/wolfman30/hotel-quote-bot/internal/app/bootstrap"
	appconfig "github.com/wolfman30/hotel-quote-bot/internal/config"
	"github.com/wolfman30/hotel-quote-bot/pkg/logging"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	envErr := godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("failed to read .env", "error", envErr)
	}
	logger.Info("starting hotel-quote-bot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	app, err := bootstrap.Build(context.Background(), cfg, logger, bootstrap.Options{})
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	// WriteTimeout covers the composing delay plus the relay calls of one
	// reply cycle.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ComposingDuration + cfg.DocumentDelay + 90*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
