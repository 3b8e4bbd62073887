package budget

import (
	"time"

	"github.com/finman/finman/internal/utils"
)

// Window is an inclusive time range over which spending is aggregated.
type Window struct {
	Start time.Time
	End   time.Time
}

const defaultCustomLookback = 30 * 24 * time.Hour

// ResolveWindow returns the spending window of a budget period at now.
// Calendar boundaries are computed in now's location. startDate and endDate only matter
// for custom periods, where a zero value means the anchor is absent.
func ResolveWindow(period Period, startDate, endDate, now time.Time) Window {
	var w Window
	switch period {
	case PeriodDaily:
		w = Window{Start: utils.StartOfDay(now), End: now}
	case PeriodWeekly:
		// Monday is day 0 of the ISO week
		offset := (int(now.Weekday()) + 6) % 7
		w = Window{Start: utils.StartOfDay(now).AddDate(0, 0, -offset), End: now}
	case PeriodMonthly:
		w = Window{Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), End: now}
	default:
		start := now.Add(-defaultCustomLookback)
		if !startDate.IsZero() {
			start = startDate
		}
		end := now
		if !endDate.IsZero() {
			end = utils.EndOfDay(inLocation(endDate, now.Location()))
		}
		w = Window{Start: utils.StartOfDay(inLocation(start, now.Location())), End: end}
	}
	if w.End.Before(w.Start) {
		w.End = w.Start
	}
	return w
}

// inLocation keeps the calendar date of a stored date while moving it to loc.
func inLocation(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
