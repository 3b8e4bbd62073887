package event_bus

import "github.com/shopspring/decimal"

const (
	BudgetThresholdExceededType EventType = "budget.threshold.exceeded"
)

// BudgetThresholdExceeded is published when spending in a budget window reaches its warning threshold.
type BudgetThresholdExceeded struct {
	UserId          int
	UserEmail       string
	BudgetId        int
	BudgetName      string
	BudgetAmount    decimal.Decimal
	CurrentSpending decimal.Decimal
	// Ratio is CurrentSpending / BudgetAmount rounded to two decimal places.
	Ratio        decimal.Decimal
	PeriodLabel  string
	CategoryName string
}
