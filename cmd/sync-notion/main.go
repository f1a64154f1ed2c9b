// sync-notion pushes one user's monthly budget summary into a Notion
// database. The page is keyed by "{user} {month}", so re-running the
// sync updates the existing page.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/vkopylov/finplan/internal/aggregation"
	"github.com/vkopylov/finplan/internal/clock"
	"github.com/vkopylov/finplan/internal/config"
	"github.com/vkopylov/finplan/internal/domain"
	infraBQ "github.com/vkopylov/finplan/internal/infra/bigquery"
	"github.com/vkopylov/finplan/internal/logger"
	"github.com/vkopylov/finplan/internal/notionsync"
	"github.com/vkopylov/finplan/internal/projection"
)

func main() {
	log := logger.New()

	cfg := config.Load()

	user := flag.String("user", "", "User ID to sync (required)")
	monthStr := flag.String("month", "", "Month as YYYY-MM (defaults to the current month)")
	notionToken := flag.String("notion-token", cfg.NotionToken, "Notion API token (or set NOTION_TOKEN)")
	notionDBID := flag.String("notion-db-id", cfg.NotionDatabaseID, "Notion database ID (or set NOTION_DATABASE_ID)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	if *user == "" {
		log.Fatal().Msg("Error: -user is required")
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: -notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: -notion-db-id is required")
	}
	if cfg.ProjectID == "" {
		log.Fatal().Msg("Error: GCP_PROJECT must be set")
	}

	month := domain.MonthKeyFor(time.Now())
	if *monthStr != "" {
		parsed, err := domain.ParseMonthKey(*monthStr)
		if err != nil {
			log.Fatal().Err(err).Str("month", *monthStr).Msg("Error: invalid month, expected YYYY-MM")
		}
		month = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("user_id", *user).
		Str("month", month.String()).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	store, err := infraBQ.New(ctx, cfg.ProjectID, cfg.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery store")
	}
	defer store.Close()
	stores := store.Stores()

	generator := projection.NewGenerator(stores.Recurring, stores.Transactions)
	engine := aggregation.NewEngine(clock.Real{})

	in, err := aggregation.LoadInputs(ctx, stores, generator, *user, month)
	if err != nil {
		log.Fatal().Err(err).Msg("Loading aggregation inputs failed")
	}
	result := engine.Aggregate(ctx, *user, month, in)

	notionClient := notionsync.NewNotionClient(*notionToken)
	if err := notionsync.SyncMonthlySummary(ctx, notionClient, *notionDBID, *user, month, result, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Notion sync failed")
	}

	log.Info().Str("user_id", *user).Str("month", month.String()).Msg("Notion sync completed")
}
