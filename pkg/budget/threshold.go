package budget

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

type Evaluation struct {
	Warn bool
	// Ratio is spending / amount rounded half-up to two decimal places.
	Ratio decimal.Decimal
	// Skipped is set when the budget cannot be evaluated (non-positive amount or no threshold).
	Skipped bool
}

// EvaluateThreshold decides whether spending crossed the warning threshold of a budget.
func EvaluateThreshold(spending, amount decimal.Decimal, threshold decimal.NullDecimal) Evaluation {
	if !amount.IsPositive() || !threshold.Valid {
		return Evaluation{Skipped: true, Ratio: decimal.Zero}
	}
	ratio := spending.DivRound(amount, 2)
	limit := threshold.Decimal.DivRound(hundred, 2)
	return Evaluation{Warn: ratio.GreaterThanOrEqual(limit), Ratio: ratio}
}
