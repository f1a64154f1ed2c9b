// Package migration backfills the derived scheduling metadata on
// recurring definitions created before those fields existed. It is safe
// to re-run: already-migrated records are untouched except for a
// refreshed next-due date.
package migration

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vkopylov/finplan/internal/clock"
	"github.com/vkopylov/finplan/internal/domain"
	"github.com/vkopylov/finplan/internal/schedule"
	"github.com/vkopylov/finplan/internal/store"
)

// Report counts the outcome of one backfill batch. Per-record failures
// are counted and logged, never fatal to the batch.
type Report struct {
	Migrated int `json:"migrated"`
	Errors   int `json:"errors"`
}

// Service performs the metadata backfill.
type Service struct {
	recurring store.RecurringRepository
	clock     clock.Clock
	log       zerolog.Logger
}

// New creates a migration service.
func New(recurring store.RecurringRepository, clk clock.Clock, log zerolog.Logger) *Service {
	return &Service{recurring: recurring, clock: clk, log: log}
}

// Migrate backfills lastGeneratedDate, nextDueDate and
// totalOccurrences on every definition of the user that lacks them.
// Records that already carry the fields only get nextDueDate refreshed.
func (s *Service) Migrate(ctx context.Context, userID string) (Report, error) {
	var report Report

	if userID == "" {
		return report, &domain.ValidationError{Field: "user_id", Reason: "is required"}
	}

	defs, err := s.recurring.ListDefinitions(ctx, userID)
	if err != nil {
		return report, fmt.Errorf("Migrate: listing definitions: %w", err)
	}

	now := s.clock.Now().UTC()
	for _, def := range defs {
		lastGenerated := def.LastGeneratedDate
		if lastGenerated == nil {
			lastGenerated = &now
		}
		nextDue := schedule.NextDueDate(def.Frequency, now)

		if err := s.recurring.UpdateScheduleMetadata(ctx, userID, def.ID, lastGenerated, &nextDue, def.TotalOccurrences); err != nil {
			report.Errors++
			s.log.Error().Err(err).
				Str("user_id", userID).
				Str("definition_id", def.ID).
				Msg("Failed to backfill definition metadata")
			continue
		}
		report.Migrated++
	}

	s.log.Info().
		Str("user_id", userID).
		Int("migrated", report.Migrated).
		Int("errors", report.Errors).
		Msg("Metadata backfill completed")
	return report, nil
}

// Validate re-reads the user's definitions and returns the ids still
// missing derived fields. Diagnostic only; it writes nothing.
func (s *Service) Validate(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, &domain.ValidationError{Field: "user_id", Reason: "is required"}
	}

	defs, err := s.recurring.ListDefinitions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Validate: listing definitions: %w", err)
	}

	var missing []string
	for _, def := range defs {
		if def.LastGeneratedDate == nil || def.NextDueDate == nil {
			missing = append(missing, def.ID)
		}
	}
	return missing, nil
}
