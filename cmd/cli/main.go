package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/vkopylov/finplan/internal/aggregation"
	"github.com/vkopylov/finplan/internal/clock"
	"github.com/vkopylov/finplan/internal/config"
	"github.com/vkopylov/finplan/internal/domain"
	infraBQ "github.com/vkopylov/finplan/internal/infra/bigquery"
	"github.com/vkopylov/finplan/internal/logger"
	"github.com/vkopylov/finplan/internal/projection"
	"github.com/vkopylov/finplan/internal/store"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "project":
		runProject(log)
	case "aggregate":
		runAggregate(log)
	case "materialize":
		runMaterialize(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finplan CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  project      Print a month's projected occurrences")
	fmt.Println("  aggregate    Print a month's budget aggregate")
	fmt.Println("  materialize  Persist the current month's occurrences")
	fmt.Println("  help         Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// openStore connects the BigQuery store; the CLI always needs real data.
func openStore(ctx context.Context, log zerolog.Logger) (store.Stores, func() error) {
	cfg := config.Load()
	if cfg.ProjectID == "" {
		log.Fatal().Msg("Error: GCP_PROJECT must be set")
	}
	bq, err := infraBQ.New(ctx, cfg.ProjectID, cfg.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery store")
	}
	return bq.Stores(), bq.Close
}

func parseUserMonth(fs *flag.FlagSet, log zerolog.Logger) (string, domain.MonthKey) {
	user := fs.String("user", "", "User ID (required)")
	monthStr := fs.String("month", "", "Target month as YYYY-MM (defaults to the current month)")
	fs.Parse(os.Args[2:])

	if *user == "" {
		log.Fatal().Msg("Error: -user is required")
	}
	if *monthStr == "" {
		return *user, domain.MonthKeyFor(time.Now())
	}
	month, err := domain.ParseMonthKey(*monthStr)
	if err != nil {
		log.Fatal().Err(err).Str("month", *monthStr).Msg("Error: invalid month, expected YYYY-MM")
	}
	return *user, month
}

func runProject(log zerolog.Logger) {
	fs := flag.NewFlagSet("project", flag.ExitOnError)
	user, month := parseUserMonth(fs, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	stores, closeStore := openStore(ctx, log)
	defer closeStore()

	generator := projection.NewGenerator(stores.Recurring, stores.Transactions)
	projected, err := generator.Project(ctx, user, month)
	if err != nil {
		log.Fatal().Err(err).Msg("Projection failed")
	}

	fmt.Printf("Projected occurrences for %s in %s:\n", user, month)
	if len(projected) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, p := range projected {
		fmt.Printf("  %s  %-8s %10s  %s\n", p.Date.Format("2006-01-02"), p.Type, p.Amount.StringFixed(2), p.Description)
	}
}

func runAggregate(log zerolog.Logger) {
	fs := flag.NewFlagSet("aggregate", flag.ExitOnError)
	user, month := parseUserMonth(fs, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	stores, closeStore := openStore(ctx, log)
	defer closeStore()

	generator := projection.NewGenerator(stores.Recurring, stores.Transactions)
	engine := aggregation.NewEngine(clock.Real{})

	in, err := aggregation.LoadInputs(ctx, stores, generator, user, month)
	if err != nil {
		log.Fatal().Err(err).Msg("Loading aggregation inputs failed")
	}
	result := engine.Aggregate(ctx, user, month, in)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Encoding aggregate failed")
	}
	fmt.Println(string(out))
}

func runMaterialize(log zerolog.Logger) {
	fs := flag.NewFlagSet("materialize", flag.ExitOnError)
	user := fs.String("user", "", "User ID (required)")
	fs.Parse(os.Args[2:])

	if *user == "" {
		log.Fatal().Msg("Error: -user is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	stores, closeStore := openStore(ctx, log)
	defer closeStore()

	clk := clock.Real{}
	materializer := projection.NewMaterializer(stores.Recurring, stores.Transactions, nil, clk, log)

	month := domain.MonthKeyFor(clk.Now())
	report, err := materializer.Materialize(ctx, *user, month)
	if err != nil {
		log.Fatal().Err(err).Msg("Materialization failed")
	}

	fmt.Printf("Materialized %d occurrence(s) for %s in %s (%d skipped, %d errors)\n",
		report.Materialized, *user, month, report.Skipped, report.Errors)
}
