package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ruralhealth/internal/bootstrap"
	"ruralhealth/internal/config"
	"ruralhealth/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, config.LoggingConfig{}).Error("load config", "err", err)
		os.Exit(1)
	}
	log := logging.New(os.Stderr, cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := bootstrap.BuildServer(ctx, cfg, log)
	if err != nil {
		log.Error("build server", "err", err)
		os.Exit(1)
	}
	defer backend.Close()

	if err := backend.Server.SeedDemo(ctx); err != nil {
		log.Warn("seed demo users", "err", err)
	}

	log.Info("health service listening", "addr", cfg.Server.Addr, "public_url", cfg.Server.PublicURL)
	if err := backend.Server.Run(ctx); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
	log.Info("health service stopped")
}
