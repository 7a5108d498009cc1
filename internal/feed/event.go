package feed

import (
	"time"
)

// Category identifies the origin feed of an event. It doubles as the
// ordering key when feeds are merged for display: primary categories sort
// before secondary ones, and backend order is preserved within one.
type Category string

const (
	CategoryMyTickets     Category = "my-tickets"
	CategoryCritical      Category = "critical"
	CategoryRFC           Category = "rfc"
	CategoryUpcomingRFC   Category = "upcoming-rfc"
	CategoryServiceHealth Category = "service-health"
	CategoryUpdates       Category = "updates"
	CategoryShortUpdates  Category = "short-updates"
)

// Categories lists every feed the aggregator mirrors.
var Categories = []Category{
	CategoryMyTickets,
	CategoryCritical,
	CategoryRFC,
	CategoryUpcomingRFC,
	CategoryServiceHealth,
	CategoryUpdates,
	CategoryShortUpdates,
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
)

// AgeBucket classifies how long an event has been sitting in its feed.
type AgeBucket string

const (
	AgeFresh AgeBucket = "fresh"
	AgeAging AgeBucket = "aging"
	AgeStale AgeBucket = "stale"
)

const (
	freshCutoff = 48 * time.Hour
	staleCutoff = 7 * 24 * time.Hour
)

// ClassifyAge buckets an event by the age of its creation instant. Events
// without a parseable instant land in the neutral fresh bucket instead of
// failing.
func ClassifyAge(createdAt *time.Time, now time.Time) AgeBucket {
	if createdAt == nil || createdAt.IsZero() {
		return AgeFresh
	}

	age := now.Sub(*createdAt)
	switch {
	case age <= freshCutoff:
		return AgeFresh
	case age <= staleCutoff:
		return AgeAging
	default:
		return AgeStale
	}
}

// Hint is the presentation cue a bucket carries into the render model.
func (b AgeBucket) Hint() string {
	switch b {
	case AgeAging:
		return "attention"
	case AgeStale:
		return "overdue"
	default:
		return "normal"
	}
}

// Event is the unified record every feed item is normalized into.
type Event struct {
	ID        string
	Title     string
	Category  Category
	CreatedAt *time.Time
	Priority  Priority
	Status    Status
	Source    string
}

// Age reports the event's age bucket relative to now.
func (e Event) Age(now time.Time) AgeBucket {
	return ClassifyAge(e.CreatedAt, now)
}
