package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vkopylov/finplan/internal/aggregation"
	"github.com/vkopylov/finplan/internal/api/handlers"
	"github.com/vkopylov/finplan/internal/api/middleware"
	"github.com/vkopylov/finplan/internal/clock"
	"github.com/vkopylov/finplan/internal/config"
	"github.com/vkopylov/finplan/internal/domain"
	infraBQ "github.com/vkopylov/finplan/internal/infra/bigquery"
	"github.com/vkopylov/finplan/internal/jobs"
	jobsmem "github.com/vkopylov/finplan/internal/jobs/inmemory"
	"github.com/vkopylov/finplan/internal/logger"
	"github.com/vkopylov/finplan/internal/migration"
	"github.com/vkopylov/finplan/internal/projection"
	"github.com/vkopylov/finplan/internal/store"
	storemem "github.com/vkopylov/finplan/internal/store/inmemory"
)

func main() {
	cfg := config.Load()

	port := flag.String("port", cfg.Port, "HTTP server port")
	flag.Parse()

	log := logger.New()
	ctx := context.Background()

	// Store backend: BigQuery when a project is configured, in-memory
	// otherwise (local runs).
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
		log.Info().Str("project", cfg.ProjectID).Str("dataset", cfg.DatasetID).Msg("Using BigQuery store")
	} else {
		stores = storemem.New().Stores()
		closeStore = func() error { return nil }
		log.Warn().Msg("No GCP project configured - using in-memory store")
	}
	defer closeStore()

	clk := clock.Real{}
	generator := projection.NewGenerator(stores.Recurring, stores.Transactions)
	engine := aggregation.NewEngine(clk)
	netWorth := aggregation.NewNetWorthScheduler(stores.Assets, stores.Debts, stores.NetWorth, clk, log, aggregation.DefaultDebounce)
	defer netWorth.Close()

	materializer := projection.NewMaterializer(stores.Recurring, stores.Transactions, nil, clk, log)
	migrator := migration.New(stores.Recurring, clk, log)

	// Job infrastructure for the async engine operations.
	jobStore := jobsmem.NewStore()
	jobQueue := jobsmem.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job *jobs.EngineJob) error {
		ctx = logger.WithContext(ctx, log)

		switch job.Type {
		case jobs.JobTypeMaterializeMonth:
			month, err := domain.ParseMonthKey(job.Month)
			if err != nil {
				return fmt.Errorf("parsing month %q: %w", job.Month, err)
			}
			report, err := materializer.Materialize(ctx, job.UserID, month)
			if err != nil {
				return err
			}
			log.Info().
				Str("job_id", job.JobID).
				Str("user_id", job.UserID).
				Str("month", job.Month).
				Int("materialized", report.Materialized).
				Int("skipped", report.Skipped).
				Int("errors", report.Errors).
				Msg("Materialization job completed")
			return nil

		case jobs.JobTypeMigrateUser:
			report, err := migrator.Migrate(ctx, job.UserID)
			if err != nil {
				return err
			}
			log.Info().
				Str("job_id", job.JobID).
				Str("user_id", job.UserID).
				Int("migrated", report.Migrated).
				Int("errors", report.Errors).
				Msg("Migration job completed")
			return nil

		default:
			return fmt.Errorf("unexpected job type: %s", job.Type)
		}
	}

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Handlers.
	monthsHandler := handlers.NewMonthsHandler(stores, generator, engine, log)
	recurringHandler := handlers.NewRecurringHandler(stores.Recurring, clk, log)
	engineHandler := handlers.NewEngineHandler(jobQueue, clk, log)
	netWorthHandler := handlers.NewNetWorthHandler(stores, netWorth, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/months/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		monthKey := strings.TrimPrefix(r.URL.Path, "/api/months/")
		if monthKey == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Month is required")
			return
		}
		monthsHandler.GetMonth(w, r, monthKey)
	})

	mux.HandleFunc("/api/recurring", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			recurringHandler.ListDefinitions(w, r)
		case http.MethodPost:
			recurringHandler.CreateDefinition(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/recurring/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/recurring/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Definition ID is required")
			return
		}
		switch r.Method {
		case http.MethodGet:
			recurringHandler.GetDefinition(w, r, id)
		case http.MethodPut:
			recurringHandler.UpdateDefinition(w, r, id)
		case http.MethodDelete:
			recurringHandler.DeleteDefinition(w, r, id)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/materialize", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			engineHandler.EnqueueMaterialize(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/migrate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			engineHandler.EnqueueMigrate(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/networth", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			netWorthHandler.GetNetWorth(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/assets", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			netWorthHandler.SaveAsset(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/debts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			netWorthHandler.SaveDebt(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.GetJob(w, r, jobID)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
