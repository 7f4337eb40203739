// Package main runs the audit-log IP anonymization as a one-shot job.
// Schedule it daily so client IPs older than the retention window are
// scrubbed without breaking the tamper-evidence chain.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mewshq/mews/internal/audit"
	"github.com/mewshq/mews/internal/config"
	"github.com/mewshq/mews/internal/db"
	"github.com/mewshq/mews/internal/middleware"
)

func main() {
	configFile := flag.String("config", "", "path to optional YAML config file")
	batchSize := flag.Int("batch-size", 500, "entries to anonymize per batch")
	dryRun := flag.Bool("dry-run", false, "report without modifying entries")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("MEWS Audit IP Anonymization")
		fmt.Println()
		fmt.Println("Usage: anonymize-audit-ips [options]")
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	job := audit.NewAnonymizationJob(audit.AnonymizationJobConfig{
		Anonymizer: audit.NewPostgresRepository(conn),
		Logger:     logger,
		BatchSize:  *batchSize,
		DryRun:     *dryRun,
	})
	total, err := job.Run(ctx)
	if err != nil {
		logger.Error("anonymization failed", "error", err, "anonymized", total)
		os.Exit(1)
	}
	logger.Info("done", "anonymized", total)
}
