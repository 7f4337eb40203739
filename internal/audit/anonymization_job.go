package audit

import (
	"context"
	"log/slog"
)

// AnonymizationJobConfig configures the IP anonymization job.
type AnonymizationJobConfig struct {
	Anonymizer IPAnonymizer // Repository supporting batch anonymization
	Logger     *slog.Logger // Logger for job execution
	BatchSize  int          // Number of logs to process per batch
	DryRun     bool         // If true, only log what would be anonymized
}

// AnonymizationJob anonymizes client IPs on audit entries past the retention
// window. Run it periodically (for example from a cron-triggered process).
type AnonymizationJob struct {
	config AnonymizationJobConfig
}

// NewAnonymizationJob creates a new IP anonymization job.
func NewAnonymizationJob(config AnonymizationJobConfig) *AnonymizationJob {
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &AnonymizationJob{config: config}
}

// Run processes batches until no eligible entries remain or the context is
// cancelled. Returns the total number of entries anonymized.
func (j *AnonymizationJob) Run(ctx context.Context) (int, error) {
	cutoff := IPAnonymizationCutoff()
	j.config.Logger.InfoContext(ctx, "starting IP anonymization",
		"cutoff", cutoff,
		"batch_size", j.config.BatchSize,
		"dry_run", j.config.DryRun,
	)

	if j.config.DryRun {
		j.config.Logger.InfoContext(ctx, "dry run, no entries modified")
		return 0, nil
	}

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		updated, err := j.config.Anonymizer.AnonymizeIPsBefore(ctx, cutoff, j.config.BatchSize)
		total += updated
		if err != nil {
			j.config.Logger.ErrorContext(ctx, "anonymization batch failed",
				"error", err, "anonymized_so_far", total)
			return total, err
		}
		if updated < j.config.BatchSize {
			break
		}
	}

	j.config.Logger.InfoContext(ctx, "IP anonymization complete", "anonymized", total)
	return total, nil
}
