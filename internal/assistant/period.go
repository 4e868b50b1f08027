package assistant

import (
	"strings"
	"time"
)

// Period is a named reporting window relative to the current time.
type Period string

// Supported periods.
const (
	PeriodLastMonth  Period = "last month"
	PeriodThisMonth  Period = "this month"
	PeriodLastWeek   Period = "last week"
	PeriodThisWeek   Period = "this week"
	PeriodLastYear   Period = "last year"
	PeriodThisYear   Period = "this year"
	PeriodLast30Days Period = "last 30 days"
)

// ExtractPeriod finds the reporting window named in a query, defaulting to
// the last 30 days.
func ExtractPeriod(query string) Period {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "last month"), strings.Contains(q, "previous month"):
		return PeriodLastMonth
	case strings.Contains(q, "this month"), strings.Contains(q, "current month"):
		return PeriodThisMonth
	case strings.Contains(q, "last week"):
		return PeriodLastWeek
	case strings.Contains(q, "this week"):
		return PeriodThisWeek
	case strings.Contains(q, "last year"):
		return PeriodLastYear
	case strings.Contains(q, "this year"):
		return PeriodThisYear
	default:
		return PeriodLast30Days
	}
}

// Range returns the inclusive [start, end] window for the period as seen at
// now. Weeks start on Monday. Closed periods end on the last second of
// their final day.
func (p Period) Range(now time.Time) (time.Time, time.Time) {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	// Monday is 0.
	weekday := (int(now.Weekday()) + 6) % 7

	switch p {
	case PeriodThisMonth:
		return monthStart, now
	case PeriodLastMonth:
		return monthStart.AddDate(0, -1, 0), monthStart.Add(-time.Second)
	case PeriodThisWeek:
		return today.AddDate(0, 0, -weekday), now
	case PeriodLastWeek:
		start := today.AddDate(0, 0, -weekday-7)
		return start, start.AddDate(0, 0, 7).Add(-time.Second)
	case PeriodThisYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc), now
	case PeriodLastYear:
		start := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0).Add(-time.Second)
	default:
		return now.AddDate(0, 0, -30), now
	}
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
