package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vkopylov/finplan/internal/clock"
	"github.com/vkopylov/finplan/internal/domain"
	"github.com/vkopylov/finplan/internal/schedule"
	"github.com/vkopylov/finplan/internal/store"
)

// ReminderScheduler reschedules the bill reminder for a definition
// after its occurrence is materialized. Delivery is an external
// collaborator; failures degrade the result but never fail it.
type ReminderScheduler interface {
	Reschedule(ctx context.Context, userID, definitionID string, nextDue time.Time) error
}

// Report is the outcome of one materialization batch. Failures are
// per-definition: a failed record does not abort the batch. Degraded
// lists best-effort steps (reminder rescheduling) that failed after the
// primary write succeeded.
type Report struct {
	Materialized int      `json:"materialized"`
	Skipped      int      `json:"skipped"`
	Errors       int      `json:"errors"`
	Degraded     []string `json:"degraded,omitempty"`
}

// Materializer persists the current month's occurrences as real
// transactions. Safe to invoke concurrently for the same user/month:
// the duplicate check runs against the latest persisted state at write
// time, so re-invocation never creates duplicates.
type Materializer struct {
	recurring    store.RecurringRepository
	transactions store.TransactionRepository
	reminders    ReminderScheduler
	clock        clock.Clock
	log          zerolog.Logger
}

// NewMaterializer creates a materialization writer. reminders may be
// nil when no reminder collaborator is wired.
func NewMaterializer(recurring store.RecurringRepository, transactions store.TransactionRepository, reminders ReminderScheduler, clk clock.Clock, log zerolog.Logger) *Materializer {
	return &Materializer{
		recurring:    recurring,
		transactions: transactions,
		reminders:    reminders,
		clock:        clk,
		log:          log,
	}
}

// Materialize persists every non-suppressed occurrence of the user's
// active definitions for the month, then updates each definition's
// derived scheduling metadata. Only the current calendar month may be
// materialized; past and future months are display-only projections.
func (m *Materializer) Materialize(ctx context.Context, userID string, month domain.MonthKey) (Report, error) {
	var report Report

	if userID == "" {
		return report, &domain.ValidationError{Field: "user_id", Reason: "is required"}
	}
	if current := domain.MonthKeyFor(m.clock.Now()); month != current {
		return report, &domain.ValidationError{Field: "month", Reason: fmt.Sprintf("must be the current month %s", current)}
	}

	defs, err := m.recurring.ListActiveDefinitions(ctx, userID)
	if err != nil {
		return report, fmt.Errorf("Materialize: listing definitions: %w", err)
	}
	// Re-read actuals at write time: the dedup check, not locking, is
	// what makes concurrent invocations safe.
	actuals, err := m.transactions.ListTransactionsByMonth(ctx, userID, month)
	if err != nil {
		return report, fmt.Errorf("Materialize: listing transactions: %w", err)
	}

	for _, def := range defs {
		p, ok := projectDefinition(def, month, actuals)
		if !ok {
			report.Skipped++
			continue
		}
		if err := m.materializeOne(ctx, def, p, &report); err != nil {
			report.Errors++
			m.log.Error().Err(err).
				Str("user_id", userID).
				Str("definition_id", def.ID).
				Str("month", month.String()).
				Msg("Failed to materialize occurrence")
		}
	}

	m.log.Info().
		Str("user_id", userID).
		Str("month", month.String()).
		Int("materialized", report.Materialized).
		Int("skipped", report.Skipped).
		Int("errors", report.Errors).
		Msg("Materialization completed")
	return report, nil
}

// materializeOne persists the occurrence and updates the definition's
// metadata. If the transaction write fails, no metadata is touched and
// the occurrence stays eligible for a clean retry. Metadata fields are
// advisory, so a crash after the write but before the update is
// recovered by recomputation on the next run.
func (m *Materializer) materializeOne(ctx context.Context, def *domain.RecurringDefinition, p domain.ProjectedTransaction, report *Report) error {
	now := m.clock.Now().UTC()
	tx := &domain.Transaction{
		ID:                    uuid.New().String(),
		OwnerID:               def.OwnerID,
		Amount:                p.Amount,
		Type:                  p.Type,
		Category:              p.Category,
		Description:           p.Description,
		Date:                  p.Date,
		RecurringDefinitionID: def.ID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := m.transactions.SaveTransaction(ctx, tx); err != nil {
		return fmt.Errorf("materializeOne: saving transaction: %w", err)
	}
	report.Materialized++

	occurred := p.Date
	nextDue := schedule.NextDueDate(def.Frequency, occurred)
	if err := m.recurring.UpdateScheduleMetadata(ctx, def.OwnerID, def.ID, &occurred, &nextDue, def.TotalOccurrences+1); err != nil {
		return fmt.Errorf("materializeOne: updating metadata: %w", err)
	}

	if m.reminders != nil {
		if err := m.reminders.Reschedule(ctx, def.OwnerID, def.ID, nextDue); err != nil {
			report.Degraded = append(report.Degraded, fmt.Sprintf("reminder for %s: %v", def.ID, err))
			m.log.Warn().Err(err).
				Str("definition_id", def.ID).
				Msg("Reminder rescheduling failed; materialization unaffected")
		}
	}
	return nil
}
