// Package main runs the location-tree ancestor rebuild as a one-shot job.
// Run it after bulk imports or parent reassignments so jurisdiction checks
// and descendant lookups see a consistent materialized path.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mewshq/mews/internal/config"
	"github.com/mewshq/mews/internal/db"
	"github.com/mewshq/mews/internal/location"
	"github.com/mewshq/mews/internal/middleware"
)

func main() {
	configFile := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("MEWS Ancestor Rebuild")
		fmt.Println()
		fmt.Println("Usage: rebuild-ancestors [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configFile)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	locations := location.NewPostgresRepository(conn, logger)
	result, err := location.RebuildAncestors(ctx, locations, logger)
	if err != nil {
		logger.Error("ancestor rebuild failed", "error", err)
		os.Exit(1)
	}
	logger.Info("done", "processed", result.Processed, "updated", result.Updated)
}
