package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/vkopylov/finplan/internal/store"
)

const (
	recurringTable = "recurring_definitions"
	txTable        = "transactions"
	settingsTable  = "budget_settings"
	goalsTable     = "goals"
	assetsTable    = "assets"
	debtsTable     = "debts"
	netWorthTable  = "net_worth"
)

// Store implements every store repository on a shared BigQuery client.
type Store struct {
	client     *bigquery.Client
	projectID  string
	datasetID  string
	ownsClient bool
}

// New creates a Store with its own BigQuery client. Callers must Close
// it when done.
func New(ctx context.Context, projectID, datasetID string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("New: creating client: %w", err)
	}
	s := NewWithClient(client, projectID, datasetID)
	s.ownsClient = true
	return s, nil
}

// NewWithClient creates a Store over an existing client. The caller
// retains ownership of the client.
func NewWithClient(client *bigquery.Client, projectID, datasetID string) *Store {
	return &Store{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}
}

// Close releases the underlying client if the Store created it.
func (s *Store) Close() error {
	if s.ownsClient && s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Stores bundles the Store as every repository interface.
func (s *Store) Stores() store.Stores {
	return store.Stores{
		Recurring:    s,
		Transactions: s,
		Settings:     s,
		Goals:        s,
		Assets:       s,
		Debts:        s,
		NetWorth:     s,
	}
}

// table returns the backtick-quoted fully qualified table name.
func (s *Store) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", s.projectID, s.datasetID, name)
}

// runDML executes a DML statement and waits for the job to finish.
func (s *Store) runDML(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job failed: %w", err)
	}
	return nil
}
