package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cybershaman666/jobshaman.cz-sub002/internal/app"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/config"
	"github.com/cybershaman666/jobshaman.cz-sub002/internal/pkg/logging"

	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine in deployed environments; config falls back to
	// the process environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.App.LogLevel)
	defer func() {
		_ = logger.Sync()
	}()

	bootstrap, cleanup, err := app.Bootstrap(cfg, logger)
	if err != nil {
		logger.Error("failed to bootstrap app", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.Warn("cleanup error", "error", err.Error())
		}
	}()

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		logger.Error("invalid HTTP port", "error", err.Error())
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- bootstrap.Fiber.Listen(addr)
	}()
	logger.Info("server started", "addr", addr, "env", cfg.App.Environment)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := bootstrap.Fiber.ShutdownWithContext(ctx); err != nil {
			logger.Warn("shutdown error", "error", err.Error())
		}
		logger.Info("server stopped")
	}
}
