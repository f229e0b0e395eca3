package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/jrauso/mashup-maker/config"
	"github.com/jrauso/mashup-maker/internal/server"
)

func main() {
	port := flag.String("port", "", "Server port (defaults to the configured port)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load("./config/config.yaml")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	// Create and start server
	srv, err := server.New(cfg)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}
	srv.StartCleanupWorker()

	if *port == "" {
		*port = cfg.Server.Port
	}

	slog.Info("Starting Mashup Maker API server", "port", *port)
	if err := srv.Start(*port); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
