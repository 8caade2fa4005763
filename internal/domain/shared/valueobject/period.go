package valueobject

import (
	"errors"
	"time"
)

// Period is a half-open time window [Start, End).
// A zero Start or End leaves that side unbounded.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod validates and creates a period
func NewPeriod(start, end time.Time) (Period, error) {
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		return Period{}, errors.New("period start must be before end")
	}
	return Period{Start: start, End: end}, nil
}

// AllTime returns an unbounded period
func AllTime() Period {
	return Period{}
}

// MonthOf returns the calendar month containing t, in t's location
func MonthOf(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// Contains reports whether t falls inside the period
func (p Period) Contains(t time.Time) bool {
	if !p.Start.IsZero() && t.Before(p.Start) {
		return false
	}
	if !p.End.IsZero() && !t.Before(p.End) {
		return false
	}
	return true
}
