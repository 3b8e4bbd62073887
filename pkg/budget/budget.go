package budget

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodDaily   Period = "DAILY"
	PeriodWeekly  Period = "WEEKLY"
	PeriodMonthly Period = "MONTHLY"
	PeriodCustom  Period = "CUSTOM"
)

var ErrUnknownPeriod = errors.New("unknown budget period")

// ParsePeriod accepts a period name in any case and rejects anything outside the known set.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodCustom:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// Label is the lower-case name used in user facing messages.
func (p Period) Label() string {
	return strings.ToLower(string(p))
}

type Budget struct {
	ID           int
	UserId       int
	Name         string
	Amount       decimal.Decimal
	CategoryId   *int
	CategoryName string
	Period       Period
	StartDate    time.Time
	// EndDate is zero for open ended budgets.
	EndDate time.Time
	// WarningThreshold is a percentage, e.g. 80 means warn at 80% of Amount.
	WarningThreshold decimal.NullDecimal
}

// IsActiveOn reports whether day falls within the budget's date range. Only calendar dates are compared.
func (b Budget) IsActiveOn(day time.Time) bool {
	d := dateOf(day)
	if dateOf(b.StartDate).After(d) {
		return false
	}
	if !b.EndDate.IsZero() && d.After(dateOf(b.EndDate)) {
		return false
	}
	return true
}

func (b Budget) CategoryLabel() string {
	if b.CategoryId == nil || b.CategoryName == "" {
		return "all categories"
	}
	return b.CategoryName
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
