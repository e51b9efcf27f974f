// Package main is the entry point for the content ingest worker. It consumes
// the publishing firehose over WebSocket and keeps the content repository in
// sync with published, updated, and unpublished items.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/croftwell/adaptivefeed/internal/config"
	"github.com/croftwell/adaptivefeed/internal/content"
	"github.com/croftwell/adaptivefeed/internal/db"
	"github.com/croftwell/adaptivefeed/internal/ingest"
	"github.com/croftwell/adaptivefeed/internal/middleware"
	"github.com/croftwell/adaptivefeed/internal/stats"
)

// statsLogInterval is how often the worker logs a processing summary.
const statsLogInterval = time.Minute

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Adaptivefeed Ingest Worker")
		fmt.Println()
		fmt.Println("Usage: ingestd [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()

	repo := content.NewPostgresRepository(dbConn)
	ingestStats := stats.NewIngestStats()
	processor := ingest.NewProcessor(repo, ingestStats, logger)

	client, err := ingest.NewClient(ingest.DefaultConfig(cfg.FirehoseURL), processor.Handle, logger)
	if err != nil {
		logger.Error("failed to create firehose client", "error", err)
		os.Exit(1)
	}

	// Periodic processing summary
	go func() {
		ticker := time.NewTicker(statsLogInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ingestStats.LogSummary(logger)
			}
		}
	}()

	logger.Info("starting ingest worker", "firehose_url", cfg.FirehoseURL, "env", cfg.Env)

	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("ingest worker stopped with error", "error", err)
		ingestStats.LogSummary(logger)
		os.Exit(1)
	}

	logger.Info("ingest worker stopped")
	ingestStats.LogSummary(logger)
}
