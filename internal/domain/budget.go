package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetSettings is the per-owner allocation configuration. There is one
// logical record per owner; if duplicates exist the most recently
// updated one wins.
type BudgetSettings struct {
	ID                   string          `json:"id"`
	OwnerID              string          `json:"owner_id"`
	SavingsPercentage    decimal.Decimal `json:"savings_percentage"`
	DebtPayoffPercentage decimal.Decimal `json:"debt_payoff_percentage"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// Goal is a savings target with a fixed monthly contribution.
type Goal struct {
	ID                  string          `json:"id"`
	OwnerID             string          `json:"owner_id"`
	Name                string          `json:"name"`
	TargetAmount        decimal.Decimal `json:"target_amount"`
	CurrentAmount       decimal.Decimal `json:"current_amount"`
	MonthlyContribution decimal.Decimal `json:"monthly_contribution"`
}

// AssetTypeSavings marks assets counted toward the emergency fund.
const AssetTypeSavings = "savings"

// Asset is a flat balance record consumed by the ratio engine.
type Asset struct {
	ID      string          `json:"id"`
	OwnerID string          `json:"owner_id"`
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Balance decimal.Decimal `json:"balance"`
}

// Debt is a liability with its recurring monthly payment.
type Debt struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"owner_id"`
	Name           string          `json:"name"`
	Balance        decimal.Decimal `json:"balance"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
}

// NetWorthSnapshot is the derived assets-minus-liabilities aggregate,
// recomputed (debounced) on every mutation of its inputs.
type NetWorthSnapshot struct {
	OwnerID     string          `json:"owner_id"`
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	NetWorth    decimal.Decimal `json:"net_worth"`
	ComputedAt  time.Time       `json:"computed_at"`
}
