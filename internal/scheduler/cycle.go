package scheduler

import "time"

// MaxResetDay is the last day of month that exists in every month.
const MaxResetDay = 28

// BillingCycle detects the start of a new billing cycle. A cycle starts on resetDay of every month.
type BillingCycle struct {
	resetDay int
	current  time.Time
}

// NewBillingCycle starts tracking from the cycle containing now, so a restart in the middle of a
// cycle does not reset bills that were paid since the cycle started. resetDay is clamped to 1-28.
func NewBillingCycle(resetDay int, now time.Time) *BillingCycle {
	c := &BillingCycle{resetDay: min(max(resetDay, 1), MaxResetDay)}
	c.current = c.cycleStart(now)
	return c
}

// Advance reports whether now belongs to a later cycle than the last one seen and remembers it.
func (c *BillingCycle) Advance(now time.Time) bool {
	start := c.cycleStart(now)
	if !start.After(c.current) {
		return false
	}
	c.current = start
	return true
}

func (c *BillingCycle) Current() time.Time {
	return c.current
}

func (c *BillingCycle) cycleStart(now time.Time) time.Time {
	start := time.Date(now.Year(), now.Month(), c.resetDay, 0, 0, 0, 0, now.Location())
	if now.Day() < c.resetDay {
		start = start.AddDate(0, -1, 0)
	}
	return start
}
