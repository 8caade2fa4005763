package pipeline

import (
	"sort"
	"time"
)

// DefaultUpcomingLimit caps the upcoming bucket when no limit is configured
const DefaultUpcomingLimit = 5

// Bucket classifies a pending follow-up relative to now
type Bucket string

const (
	BucketOverdue  Bucket = "overdue"
	BucketDueToday Bucket = "due-today"
	BucketUpcoming Bucket = "upcoming"
)

// TriageOptions tunes the triage view
type TriageOptions struct {
	// UpcomingLimit caps the upcoming bucket; values <= 0 use DefaultUpcomingLimit
	UpcomingLimit int
}

// TriageResult holds pending follow-ups split into buckets
type TriageResult struct {
	Overdue  []FollowUp `json:"overdue"`
	DueToday []FollowUp `json:"due_today"`
	Upcoming []FollowUp `json:"upcoming"`
	// UpcomingTotal is the size of the upcoming bucket before the cap
	UpcomingTotal int `json:"upcoming_total"`
}

// Ordered returns overdue, then due-today, then the capped upcoming slice
func (r TriageResult) Ordered() []FollowUp {
	out := make([]FollowUp, 0, len(r.Overdue)+len(r.DueToday)+len(r.Upcoming))
	out = append(out, r.Overdue...)
	out = append(out, r.DueToday...)
	out = append(out, r.Upcoming...)
	return out
}

// Classify places a follow-up scheduled at t into a bucket. The calendar day
// is taken in now's location.
func Classify(t, now time.Time) Bucket {
	if t.Before(now) {
		return BucketOverdue
	}
	local := t.In(now.Location())
	y1, m1, d1 := local.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return BucketDueToday
	}
	return BucketUpcoming
}

// Triage selects the pending follow-ups a user should act on next.
// Completed follow-ups are dropped; overdue and due-today are never capped.
func Triage(followUps []FollowUp, now time.Time, opts TriageOptions) TriageResult {
	limit := opts.UpcomingLimit
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}

	result := TriageResult{
		Overdue:  make([]FollowUp, 0),
		DueToday: make([]FollowUp, 0),
		Upcoming: make([]FollowUp, 0),
	}
	for _, f := range followUps {
		if f.Completed {
			continue
		}
		switch Classify(f.ScheduledAt, now) {
		case BucketOverdue:
			result.Overdue = append(result.Overdue, f)
		case BucketDueToday:
			result.DueToday = append(result.DueToday, f)
		default:
			result.Upcoming = append(result.Upcoming, f)
		}
	}

	sortBySchedule(result.Overdue)
	sortBySchedule(result.DueToday)
	sortBySchedule(result.Upcoming)

	result.UpcomingTotal = len(result.Upcoming)
	if len(result.Upcoming) > limit {
		result.Upcoming = result.Upcoming[:limit]
	}

	return result
}

// sortBySchedule orders ascending by ScheduledAt; ties fall back to creation time
func sortBySchedule(items []FollowUp) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].ScheduledAt.Equal(items[j].ScheduledAt) {
			return items[i].ScheduledAt.Before(items[j].ScheduledAt)
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
