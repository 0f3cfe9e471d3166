// Command server runs the grade prediction API.
//
// main only reads configuration, builds the logger and hands both to the
// server package, which wires everything else.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/grade-predictor/internal/config"
	"github.com/sakif/grade-predictor/internal/logger"
	"github.com/sakif/grade-predictor/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(cfg.Log, os.Stdout)

	srv, err := server.New(cfg, log)
	if err != nil {
		log.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		log.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
