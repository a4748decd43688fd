package main

import (
	"os"

	"bse-announcements/internal/bse"
	"bse-announcements/internal/config"
	"bse-announcements/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Log.Level)

	client := bse.New(cfg.Upstream, logger.With("component", "bse"))
	service := NewService(cfg, client, logger.With("component", "service"))

	r := setupRouter(service)

	logger.Info("starting BSE announcements API", "addr", cfg.Server.Addr, "mode", cfg.Server.Mode)
	if err := r.Run(cfg.Server.Addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
