package notification

import (
	"fmt"
	"time"

	"github.com/finman/finman/internal/event_bus"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Notification struct {
	Id       uuid.UUID
	UserId   int
	BudgetId int
	Subject  string
	Message  string
	SentAt   time.Time
	IsRead   bool
}

var hundred = decimal.NewFromInt(100)

// Render builds the subject and message of a budget threshold warning.
func Render(e event_bus.BudgetThresholdExceeded) (subject string, message string) {
	subject = "Budget Alert: " + e.BudgetName
	message = fmt.Sprintf("Warning: You've used %s%% (%s of %s) of your %s budget for %s.",
		e.Ratio.Mul(hundred).StringFixed(2),
		e.CurrentSpending.StringFixed(2),
		e.BudgetAmount.StringFixed(2),
		e.PeriodLabel,
		e.CategoryName,
	)
	return subject, message
}
