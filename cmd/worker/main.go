// The worker materializes the current month's recurring occurrences for
// the configured users on a schedule, refreshes their net-worth
// snapshots, and archives the month's aggregate report to GCS when a
// bucket is configured.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/vkopylov/finplan/internal/aggregation"
	"github.com/vkopylov/finplan/internal/clock"
	"github.com/vkopylov/finplan/internal/config"
	"github.com/vkopylov/finplan/internal/crypto"
	"github.com/vkopylov/finplan/internal/domain"
	"github.com/vkopylov/finplan/internal/export"
	infraBQ "github.com/vkopylov/finplan/internal/infra/bigquery"
	"github.com/vkopylov/finplan/internal/logger"
	"github.com/vkopylov/finplan/internal/projection"
	"github.com/vkopylov/finplan/internal/store"
	storemem "github.com/vkopylov/finplan/internal/store/inmemory"
)

// services bundles the collaborators one materialization pass needs.
type services struct {
	stores       store.Stores
	generator    *projection.Generator
	engine       *aggregation.Engine
	materializer *projection.Materializer
	netWorth     *aggregation.NetWorthScheduler
	clock        clock.Clock
}

func main() {
	cfg := config.Load()

	interval := flag.Duration("interval", time.Hour, "time between materialization passes")
	flag.Parse()

	log := logger.New()
	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	if len(cfg.WorkerUsers) == 0 {
		log.Fatal().Msg("No users configured - set WORKER_USERS")
	}

	var (
		stores     store.Stores
		closeStore func() error
	)
	if cfg.ProjectID != "" {
		bq, err := infraBQ.New(ctx, cfg.ProjectID, cfg.DatasetID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery store")
		}
		stores = bq.Stores()
		closeStore = bq.Close
	} else {
		stores = storemem.New().Stores()
		closeStore = func() error { return nil }
		log.Warn().Msg("No GCP project configured - using in-memory store")
	}
	defer closeStore()

	clk := clock.Real{}
	netWorth := aggregation.NewNetWorthScheduler(stores.Assets, stores.Debts, stores.NetWorth, clk, log, aggregation.DefaultDebounce)
	defer netWorth.Close()

	svc := services{
		stores:       stores,
		generator:    projection.NewGenerator(stores.Recurring, stores.Transactions),
		engine:       aggregation.NewEngine(clk),
		materializer: projection.NewMaterializer(stores.Recurring, stores.Transactions, nil, clk, log),
		netWorth:     netWorth,
		clock:        clk,
	}

	log.Info().
		Strs("users", cfg.WorkerUsers).
		Dur("interval", *interval).
		Msg("Starting worker service")

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// First pass immediately, then on the ticker.
	runPass(ctx, cfg, svc, log)

	for {
		select {
		case <-ticker.C:
			runPass(ctx, cfg, svc, log)
		case <-quit:
			log.Info().Msg("Shutting down worker service...")
			cancel()
			return
		}
	}
}

func runPass(ctx context.Context, cfg *config.Config, svc services, log zerolog.Logger) {
	month := domain.MonthKeyFor(svc.clock.Now())

	for _, user := range cfg.WorkerUsers {
		report, err := svc.materializer.Materialize(ctx, user, month)
		if err != nil {
			log.Error().Err(err).Str("user_id", user).Msg("Materialization pass failed")
			continue
		}
		log.Info().
			Str("user_id", user).
			Str("month", month.String()).
			Int("materialized", report.Materialized).
			Int("skipped", report.Skipped).
			Int("errors", report.Errors).
			Msg("Materialization pass completed")

		if err := svc.netWorth.Recompute(ctx, user); err != nil {
			log.Error().Err(err).Str("user_id", user).Msg("Net-worth refresh failed")
		}

		if cfg.Bucket != "" {
			if err := exportReport(ctx, cfg.Bucket, svc, user, month); err != nil {
				log.Error().Err(err).Str("user_id", user).Msg("Report export failed")
				continue
			}
			log.Info().
				Str("user_id", user).
				Str("object", export.ObjectName(user, month)).
				Msg("Report exported")
		}
	}
}

// exportReport aggregates the user's month and uploads it as JSON.
func exportReport(ctx context.Context, bucket string, svc services, user string, month domain.MonthKey) error {
	in, err := aggregation.LoadInputs(ctx, svc.stores, svc.generator, user, month)
	if err != nil {
		return err
	}
	result := svc.engine.Aggregate(ctx, user, month, in)
	return export.UploadMonthlyReport(ctx, crypto.Passthrough{}, bucket, user, month, result)
}
