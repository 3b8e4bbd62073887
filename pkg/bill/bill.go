package bill

import (
	"time"

	"github.com/finman/finman/internal/utils"
	"github.com/shopspring/decimal"
)

type Bill struct {
	Id     int
	UserId int
	Name   string
	Amount decimal.Decimal
	// DueDay is the day of month the bill is due, 1-31. It is not checked against the length of a month.
	DueDay       int
	IsPaid       bool
	IsRecurring  bool
	CategoryId   *int
	CategoryName string
}

// IsDue reports whether the bill is unpaid and its due day has been reached this month.
// Bills past their due day stay due; there is no separate overdue state.
func IsDue(b Bill, today time.Time) bool {
	return !b.IsPaid && b.DueDay <= today.Day()
}

// IsUpcoming reports whether an unpaid bill falls due within the next days days.
// When the window runs past the end of the month, due days at the start of the next month
// are matched by subtracting the length of the current month.
func IsUpcoming(b Bill, today time.Time, days int) bool {
	if b.IsPaid {
		return false
	}
	current := today.Day()
	last := current + days
	daysInMonth := utils.DaysInMonth(today)
	if b.DueDay >= current && b.DueDay <= last {
		return true
	}
	return last > daysInMonth && b.DueDay <= last-daysInMonth
}

// RemainingIncome is the monthly income left after the unpaid bills.
// No declared income yields zero; no unpaid bills yields the full income.
func RemainingIncome(monthlyIncome, unpaidTotal decimal.NullDecimal) decimal.Decimal {
	if !monthlyIncome.Valid {
		return decimal.Zero
	}
	if !unpaidTotal.Valid {
		return monthlyIncome.Decimal
	}
	return monthlyIncome.Decimal.Sub(unpaidTotal.Decimal)
}
