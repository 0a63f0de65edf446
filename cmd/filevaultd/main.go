package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/azureanc-hub/filevault/internal/logger"
	"github.com/azureanc-hub/filevault/internal/metrics"
	"github.com/azureanc-hub/filevault/internal/server"
	"github.com/azureanc-hub/filevault/pkg/config"
	"github.com/azureanc-hub/filevault/pkg/engine"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/filevault/config.yaml)")
	logLevel := flag.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	if err := run(*configPath, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "filevaultd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, logLevel string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logger.SetLevel(cfg.Logging.Level)

	store, err := config.CreateStore(&cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close store: %v", err)
		}
	}()
	logger.Info("registry store ready (type=%s)", cfg.Store.Type)

	eng := engine.New(store)
	srv := server.New(eng, metrics.New(), cfg.Server)

	// Serve until SIGINT/SIGTERM, then drain within the shutdown timeout.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
