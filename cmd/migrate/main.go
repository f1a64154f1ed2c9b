// migrate backfills the derived scheduling metadata (lastGeneratedDate,
// nextDueDate, totalOccurrences) on a user's recurring definitions.
// Re-running is safe: records that already carry the fields only get
// their next due date refreshed.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/vkopylov/finplan/internal/clock"
	"github.com/vkopylov/finplan/internal/config"
	infraBQ "github.com/vkopylov/finplan/internal/infra/bigquery"
	"github.com/vkopylov/finplan/internal/logger"
	"github.com/vkopylov/finplan/internal/migration"
)

func main() {
	log := logger.New()

	user := flag.String("user", "", "User ID to migrate (required)")
	validate := flag.Bool("validate", false, "Only report definitions still missing metadata, change nothing")
	flag.Parse()

	if *user == "" {
		log.Fatal().Msg("Error: -user is required")
	}

	cfg := config.Load()
	if cfg.ProjectID == "" {
		log.Fatal().Msg("Error: GCP_PROJECT must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store, err := infraBQ.New(ctx, cfg.ProjectID, cfg.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery store")
	}
	defer store.Close()

	svc := migration.New(store, clock.Real{}, log)

	if *validate {
		missing, err := svc.Validate(ctx, *user)
		if err != nil {
			log.Fatal().Err(err).Msg("Validation failed")
		}
		if len(missing) == 0 {
			log.Info().Str("user_id", *user).Msg("All definitions carry scheduling metadata")
			return
		}
		log.Warn().
			Str("user_id", *user).
			Strs("definition_ids", missing).
			Msg("Definitions missing scheduling metadata")
		return
	}

	log.Info().Str("user_id", *user).Msg("Starting metadata backfill")

	report, err := svc.Migrate(ctx, *user)
	if err != nil {
		log.Fatal().Err(err).Msg("Backfill failed")
	}

	log.Info().
		Str("user_id", *user).
		Int("migrated", report.Migrated).
		Int("errors", report.Errors).
		Msg("Backfill completed")
}
