// Package notionsync pushes monthly budget summaries into a Notion
// database. Pages are keyed by "{user} {month}" in the title property,
// so re-syncing a month updates its page instead of creating a
// duplicate.
package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/vkopylov/finplan/internal/aggregation"
	"github.com/vkopylov/finplan/internal/domain"
	"github.com/vkopylov/finplan/internal/logger"
)

// SyncMonthlySummary creates or updates the Notion page for one user's
// month using the aggregate result. When dryRun is set, no page is
// written.
func SyncMonthlySummary(ctx context.Context, svc NotionService, databaseID, userID string, month domain.MonthKey, result aggregation.Result, dryRun bool) error {
	log := logger.FromContext(ctx)

	title := fmt.Sprintf("%s %s", userID, month)
	properties := summaryProperties(title, result)

	existing, err := findSummaryPage(ctx, svc, databaseID, title)
	if err != nil {
		return fmt.Errorf("SyncMonthlySummary: %w", err)
	}

	if dryRun {
		log.Info().
			Str("title", title).
			Bool("exists", existing != nil).
			Msg("Dry run: skipping Notion write")
		return nil
	}

	if existing != nil {
		if _, err := svc.UpdatePage(ctx, string(existing.ID), properties); err != nil {
			return fmt.Errorf("SyncMonthlySummary: updating page: %w", err)
		}
		log.Info().Str("title", title).Msg("Updated monthly summary in Notion")
		return nil
	}

	if _, err := svc.CreatePage(ctx, databaseID, properties); err != nil {
		return fmt.Errorf("SyncMonthlySummary: creating page: %w", err)
	}
	log.Info().Str("title", title).Msg("Created monthly summary in Notion")
	return nil
}

// findSummaryPage locates the page whose title matches exactly.
func findSummaryPage(ctx context.Context, svc NotionService, databaseID, title string) (*notionapi.Page, error) {
	resp, err := svc.QueryDatabase(ctx, databaseID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Name",
			RichText: &notionapi.TextFilterCondition{Equals: title},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying summary pages: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

// summaryProperties maps the aggregate result onto Notion properties.
func summaryProperties(title string, result aggregation.Result) notionapi.Properties {
	return notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: title}}},
		},
		"Income":        numberProperty(result.TotalIncome.InexactFloat64()),
		"Expenses":      numberProperty(result.TotalExpenses.InexactFloat64()),
		"Net":           numberProperty(result.NetIncome.InexactFloat64()),
		"Savings":       numberProperty(result.SavingsAmount.InexactFloat64()),
		"Discretionary": numberProperty(result.DiscretionaryIncome.InexactFloat64()),
		"Debt Payoff":   numberProperty(result.DebtPayoffAmount.InexactFloat64()),
	}
}

func numberProperty(v float64) notionapi.NumberProperty {
	return notionapi.NumberProperty{Number: v}
}
