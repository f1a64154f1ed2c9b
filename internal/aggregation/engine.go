// Package aggregation computes the monthly budget view: income/expense
// totals, savings and debt-payoff allocations, financial-health ratios
// with threshold grading, and the debounced net-worth snapshot.
//
// Aggregation never fails on empty input or division by zero; totals
// and ratios are always displayable.
package aggregation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vkopylov/finplan/internal/clock"
	"github.com/vkopylov/finplan/internal/domain"
)

// Monthly-equivalent multipliers for normalizing non-monthly cadences
// to a per-month rate. Fixed approximations kept for parity with the
// historical aggregation output; quarterly and yearly definitions are
// excluded from the monthly-equivalent sum.
var (
	weeklyMonthlyEquivalent   = decimal.NewFromFloat(4.33)
	biweeklyMonthlyEquivalent = decimal.NewFromFloat(2.17)
)

var oneHundred = decimal.NewFromInt(100)

// Inputs carries everything the engine needs for one month. Projected
// transactions are included in totals only when the month is strictly
// after the current month; the current and past months speak through
// actuals alone.
type Inputs struct {
	Actual      []*domain.Transaction
	Projected   []domain.ProjectedTransaction
	Definitions []*domain.RecurringDefinition
	Goals       []*domain.Goal
	Settings    *domain.BudgetSettings
	Assets      []*domain.Asset
	Debts       []*domain.Debt
}

// Result is the aggregated monthly view.
type Result struct {
	Month domain.MonthKey `json:"month"`

	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	NetIncome     decimal.Decimal `json:"net_income"`

	SavingsAmount          decimal.Decimal `json:"savings_amount"`
	TotalGoalContributions decimal.Decimal `json:"total_goal_contributions"`
	DiscretionaryIncome    decimal.Decimal `json:"discretionary_income"`
	DebtPayoffAmount       decimal.Decimal `json:"debt_payoff_amount"`
	RemainingBalance       decimal.Decimal `json:"remaining_balance"`

	// Ratio basis: monthly-equivalent recurring cash flow plus
	// non-recurring actuals of the month.
	TotalMonthlyIncome   decimal.Decimal `json:"total_monthly_income"`
	TotalMonthlyExpenses decimal.Decimal `json:"total_monthly_expenses"`

	TotalAssets              decimal.Decimal `json:"total_assets"`
	TotalLiabilities         decimal.Decimal `json:"total_liabilities"`
	TotalMonthlyDebtPayments decimal.Decimal `json:"total_monthly_debt_payments"`

	Ratios Ratios `json:"ratios"`

	// EmergencyFundProgress is savings-type assets over six months of
	// expenses, as a percentage clamped at 100 for display.
	EmergencyFundProgress float64 `json:"emergency_fund_progress"`
}

// Engine computes monthly aggregates.
type Engine struct {
	clock clock.Clock
}

// NewEngine creates an aggregation engine.
func NewEngine(clk clock.Clock) *Engine {
	return &Engine{clock: clk}
}

// Aggregate computes the month's totals, allocations and ratios.
func (e *Engine) Aggregate(ctx context.Context, userID string, month domain.MonthKey, in Inputs) Result {
	res := Result{Month: month}

	// 1. Totals over actual (+ projected for future months only).
	includeProjected := month.After(domain.MonthKeyFor(e.clock.Now()))
	for _, tx := range in.Actual {
		if tx.Type == domain.TypeIncome {
			res.TotalIncome = res.TotalIncome.Add(tx.Amount)
		} else {
			res.TotalExpenses = res.TotalExpenses.Add(tx.Amount)
		}
	}
	if includeProjected {
		for _, p := range in.Projected {
			if p.Type == domain.TypeIncome {
				res.TotalIncome = res.TotalIncome.Add(p.Amount)
			} else {
				res.TotalExpenses = res.TotalExpenses.Add(p.Amount)
			}
		}
	}
	res.NetIncome = res.TotalIncome.Sub(res.TotalExpenses)

	// 2-6. Allocations.
	savingsPct, debtPct := decimal.Zero, decimal.Zero
	if in.Settings != nil {
		savingsPct = in.Settings.SavingsPercentage
		debtPct = in.Settings.DebtPayoffPercentage
	}
	res.SavingsAmount = res.NetIncome.Mul(savingsPct).Div(oneHundred)
	for _, g := range in.Goals {
		res.TotalGoalContributions = res.TotalGoalContributions.Add(g.MonthlyContribution)
	}
	res.DiscretionaryIncome = res.NetIncome.Sub(res.SavingsAmount).Sub(res.TotalGoalContributions)
	res.DebtPayoffAmount = res.DiscretionaryIncome.Mul(debtPct).Div(oneHundred)
	res.RemainingBalance = res.DiscretionaryIncome.Sub(res.DebtPayoffAmount)

	// 7. Ratio basis: normalized recurring plus non-recurring actuals.
	// Actuals carrying a back-reference are excluded first so the same
	// cash flow is not counted via both its generated transaction and
	// its normalized recurring estimate.
	monthlyIncome, monthlyExpenses := decimal.Zero, decimal.Zero
	for _, tx := range in.Actual {
		if tx.RecurringDefinitionID != "" {
			continue
		}
		if tx.Type == domain.TypeIncome {
			monthlyIncome = monthlyIncome.Add(tx.Amount)
		} else {
			monthlyExpenses = monthlyExpenses.Add(tx.Amount)
		}
	}
	for _, def := range in.Definitions {
		if !def.IsActive {
			continue
		}
		eq, ok := monthlyEquivalent(def)
		if !ok {
			continue
		}
		if def.Type == domain.TypeIncome {
			monthlyIncome = monthlyIncome.Add(eq)
		} else {
			monthlyExpenses = monthlyExpenses.Add(eq)
		}
	}
	res.TotalMonthlyIncome = monthlyIncome
	res.TotalMonthlyExpenses = monthlyExpenses

	// 8-9. Ratios with grading.
	for _, a := range in.Assets {
		res.TotalAssets = res.TotalAssets.Add(a.Balance)
	}
	for _, d := range in.Debts {
		res.TotalLiabilities = res.TotalLiabilities.Add(d.Balance)
		res.TotalMonthlyDebtPayments = res.TotalMonthlyDebtPayments.Add(d.MonthlyPayment)
	}
	res.Ratios = computeRatios(res.TotalAssets, res.TotalLiabilities, res.TotalMonthlyDebtPayments, monthlyIncome, monthlyExpenses)

	// 10. Emergency-fund progress.
	savingsAssets := decimal.Zero
	for _, a := range in.Assets {
		if a.Type == domain.AssetTypeSavings {
			savingsAssets = savingsAssets.Add(a.Balance)
		}
	}
	if monthlyExpenses.IsPositive() {
		target := monthlyExpenses.Mul(decimal.NewFromInt(6))
		progress, _ := savingsAssets.Div(target).Mul(oneHundred).Float64()
		if progress > 100 {
			progress = 100
		}
		res.EmergencyFundProgress = progress
	}

	return res
}

// monthlyEquivalent normalizes a definition's amount to a per-month
// rate. Quarterly and yearly cadences report ok=false.
func monthlyEquivalent(def *domain.RecurringDefinition) (decimal.Decimal, bool) {
	switch def.Frequency {
	case domain.FrequencyWeekly:
		return def.Amount.Mul(weeklyMonthlyEquivalent), true
	case domain.FrequencyBiweekly:
		return def.Amount.Mul(biweeklyMonthlyEquivalent), true
	case domain.FrequencyMonthly:
		return def.Amount, true
	}
	return decimal.Zero, false
}
