package briefing

import (
	"fmt"
	"strings"
	"time"

	"github.com/opsdeck/opsdeck/internal/feed"
)

// Briefing is the render model for the operational briefing view. It is
// derived entirely from one feed snapshot plus the active identity's
// display name; it holds no state of its own.
type Briefing struct {
	Greeting string
	Tagline  string

	// Lines are the highlight reads: same-day assignments, upcoming
	// scheduled changes, same-day critical incidents. Empty feeds still
	// produce a line with explicit "none" phrasing.
	Lines []string

	// Notices pass through the two free-text feeds untouched, commentary
	// first.
	Notices []string
}

// Compose derives the briefing from the current snapshot. Pure: no
// network access, safe to recompute on every snapshot change.
func Compose(snap feed.Snapshot, displayName string, now time.Time) Briefing {
	return Briefing{
		Greeting: greeting(displayName, now),
		Tagline:  "Here is your operational briefing for today.",
		Lines: []string{
			assignedLine(snap.Events(feed.CategoryMyTickets), now),
			scheduledLine(snap.Events(feed.CategoryUpcomingRFC), now),
			criticalLine(snap.Events(feed.CategoryCritical), now),
		},
		Notices: noticeTexts(snap),
	}
}

func greeting(displayName string, now time.Time) string {
	part := "Evening"
	switch hour := now.Hour(); {
	case hour < 12:
		part = "Morning"
	case hour < 18:
		part = "Afternoon"
	}

	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "User"
	} else if first, _, ok := strings.Cut(name, " "); ok {
		name = first
	}

	return fmt.Sprintf("Good %s, %s", part, name)
}

func assignedLine(tickets []feed.Event, now time.Time) string {
	keys := make([]string, 0, len(tickets))
	for _, t := range tickets {
		if t.CreatedAt != nil && sameDay(*t.CreatedAt, now) {
			keys = append(keys, t.ID)
		}
	}
	if len(keys) == 0 {
		return "No tickets assigned to me today."
	}
	return fmt.Sprintf("%d tickets assigned to me today: %s", len(keys), strings.Join(keys, ", "))
}

func scheduledLine(rfcs []feed.Event, now time.Time) string {
	count := 0
	for _, r := range rfcs {
		if r.CreatedAt == nil {
			// Scheduling feed entries without an instant still count as
			// upcoming; the backend already filtered the window.
			count++
			continue
		}
		if sameDay(*r.CreatedAt, now) || sameDay(*r.CreatedAt, now.AddDate(0, 0, 1)) {
			count++
		}
	}
	if count == 0 {
		return "No scheduled changes in the next 48 hours."
	}
	return fmt.Sprintf("%d scheduled changes in the next 48 hours.", count)
}

func criticalLine(criticals []feed.Event, now time.Time) string {
	count := 0
	for _, c := range criticals {
		if c.CreatedAt == nil || sameDay(*c.CreatedAt, now) {
			count++
		}
	}
	if count == 0 {
		return "No critical incidents today."
	}
	return fmt.Sprintf("%d critical incidents today.", count)
}

func noticeTexts(snap feed.Snapshot) []string {
	merged := feed.MergeForDisplay(
		snap.Events(feed.CategoryUpdates),
		snap.Events(feed.CategoryShortUpdates),
	)
	texts := make([]string, 0, len(merged))
	for _, event := range merged {
		texts = append(texts, event.Title)
	}
	return texts
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
