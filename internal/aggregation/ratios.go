package aggregation

import (
	"github.com/shopspring/decimal"
)

// RatioStatus is the four-level grade of a financial-health ratio.
// Unknown marks ratios whose denominator guard fired (no data to
// grade).
type RatioStatus string

const (
	StatusPoor      RatioStatus = "Poor"
	StatusFair      RatioStatus = "Fair"
	StatusGood      RatioStatus = "Good"
	StatusExcellent RatioStatus = "Excellent"
	StatusUnknown   RatioStatus = "Unknown"
)

// Grading thresholds. Configuration constants reproduced exactly;
// changing them changes every user's displayed grade.
const (
	liquidityExcellent = 2.0
	liquidityGood      = 1.0
	liquidityFair      = 0.5

	coverageExcellentMonths = 6.0
	coverageGoodMonths      = 3.0
	coverageFairMonths      = 1.0

	debtAssetExcellent = 0.30
	debtAssetGood      = 0.50

	debtSafetyExcellent = 0.28
	debtSafetyGood      = 0.36
)

// RatioResult is one graded ratio. Infinite marks the Debt-Safety
// sentinel produced when debt payments exist but income is zero.
type RatioResult struct {
	Value    float64     `json:"value"`
	Status   RatioStatus `json:"status"`
	Infinite bool        `json:"infinite,omitempty"`
}

// Ratios holds the four financial-health ratios.
type Ratios struct {
	// Liquidity = total assets / total liabilities.
	Liquidity RatioResult `json:"liquidity"`
	// Coverage = total assets / monthly expenses, in months.
	Coverage RatioResult `json:"coverage"`
	// DebtAsset = total liabilities / total assets.
	DebtAsset RatioResult `json:"debt_asset"`
	// DebtSafety = monthly debt payments / monthly income.
	DebtSafety RatioResult `json:"debt_safety"`
}

func computeRatios(assets, liabilities, debtPayments, monthlyIncome, monthlyExpenses decimal.Decimal) Ratios {
	var r Ratios

	r.Liquidity = guardedRatio(assets, liabilities, gradeLiquidity)
	r.Coverage = guardedRatio(assets, monthlyExpenses, gradeCoverage)
	r.DebtAsset = guardedRatio(liabilities, assets, gradeDebtAsset)

	// Debt-Safety is the one ratio with an infinite sentinel: payments
	// with no income is the worst possible state, not an unknown one.
	if monthlyIncome.IsZero() {
		if debtPayments.IsPositive() {
			r.DebtSafety = RatioResult{Infinite: true, Status: StatusPoor}
		} else {
			r.DebtSafety = RatioResult{Status: StatusUnknown}
		}
	} else {
		v, _ := debtPayments.Div(monthlyIncome).Float64()
		r.DebtSafety = RatioResult{Value: v, Status: gradeDebtSafety(v)}
	}
	return r
}

// guardedRatio returns value 0 with status Unknown when the denominator
// is zero.
func guardedRatio(num, den decimal.Decimal, grade func(float64) RatioStatus) RatioResult {
	if den.IsZero() {
		return RatioResult{Status: StatusUnknown}
	}
	v, _ := num.Div(den).Float64()
	return RatioResult{Value: v, Status: grade(v)}
}

func gradeLiquidity(v float64) RatioStatus {
	switch {
	case v >= liquidityExcellent:
		return StatusExcellent
	case v >= liquidityGood:
		return StatusGood
	case v >= liquidityFair:
		return StatusFair
	}
	return StatusPoor
}

func gradeCoverage(v float64) RatioStatus {
	switch {
	case v >= coverageExcellentMonths:
		return StatusExcellent
	case v >= coverageGoodMonths:
		return StatusGood
	case v >= coverageFairMonths:
		return StatusFair
	}
	return StatusPoor
}

func gradeDebtAsset(v float64) RatioStatus {
	switch {
	case v <= debtAssetExcellent:
		return StatusExcellent
	case v <= debtAssetGood:
		return StatusGood
	}
	return StatusPoor
}

func gradeDebtSafety(v float64) RatioStatus {
	switch {
	case v <= debtSafetyExcellent:
		return StatusExcellent
	case v <= debtSafetyGood:
		return StatusGood
	}
	return StatusPoor
}
