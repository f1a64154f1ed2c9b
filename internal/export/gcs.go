// Package export archives monthly aggregate reports to Cloud Storage.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/storage"

	"github.com/vkopylov/finplan/internal/aggregation"
	"github.com/vkopylov/finplan/internal/crypto"
	"github.com/vkopylov/finplan/internal/domain"
)

// UploadMonthlyReport writes the month's aggregate as JSON to
// gs://bucket/reports/{user}/{YYYY-MM}.json, replacing any previous
// report for the month. The payload passes through enc before it leaves
// the process; use crypto.Passthrough when at-rest encryption is
// handled by the bucket. Assumes Application Default Credentials.
func UploadMonthlyReport(ctx context.Context, enc crypto.Encryptor, bucketName, userID string, month domain.MonthKey, result aggregation.Result) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("UploadMonthlyReport: create storage client: %w", err)
	}
	defer client.Close()

	return UploadMonthlyReportWithClient(ctx, client, enc, bucketName, userID, month, result)
}

// UploadMonthlyReportWithClient is the shared-client variant.
func UploadMonthlyReportWithClient(ctx context.Context, client *storage.Client, enc crypto.Encryptor, bucketName, userID string, month domain.MonthKey, result aggregation.Result) error {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("UploadMonthlyReport: marshal report: %w", err)
	}
	payload, err = enc.Encrypt(ctx, payload)
	if err != nil {
		return fmt.Errorf("UploadMonthlyReport: encrypt report: %w", err)
	}

	objectName := ObjectName(userID, month)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return fmt.Errorf("UploadMonthlyReport: write report: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("UploadMonthlyReport: finalize upload: %w", err)
	}
	return nil
}

// ObjectName returns the bucket-relative path of a month's report.
func ObjectName(userID string, month domain.MonthKey) string {
	return fmt.Sprintf("reports/%s/%s.json", userID, month)
}
