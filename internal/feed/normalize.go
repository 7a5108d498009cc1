package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/opsdeck/opsdeck/internal/backend"
)

// createdAtLayouts are the timestamp shapes observed across the ticket
// system and the health feed. Anything unparseable degrades to a nil
// instant, which classifies into the neutral age bucket.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseCreatedAt(raw string) *time.Time {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	for _, layout := range createdAtLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return &ts
		}
	}
	return nil
}

func normalizePriority(raw string, fallback Priority) Priority {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return PriorityLow
	case "medium", "moderate":
		return PriorityMedium
	case "high":
		return PriorityHigh
	case "critical", "highest", "blocker":
		return PriorityCritical
	default:
		return fallback
	}
}

func normalizeStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "in progress", "in-progress", "inprogress", "active":
		return StatusInProgress
	case "resolved", "closed", "done":
		return StatusResolved
	default:
		return StatusOpen
	}
}

// NormalizeTickets maps ticket-system items into events. Missing priority
// defaults to medium; every other absent optional field degrades silently.
func NormalizeTickets(items []backend.TicketItem, category Category) []Event {
	events := make([]Event, 0, len(items))
	for i, item := range items {
		id := strings.TrimSpace(item.Key)
		if id == "" {
			id = fmt.Sprintf("%s-%d", category, i)
		}

		events = append(events, Event{
			ID:        id,
			Title:     item.Summary,
			Category:  category,
			CreatedAt: parseCreatedAt(item.Created),
			Priority:  normalizePriority(item.Priority, PriorityMedium),
			Status:    normalizeStatus(item.Status),
			Source:    item.Assignee,
		})
	}
	return events
}

// NormalizeHealth maps service-health advisories into events. Missing
// level defaults to low; the title falls back through issue name, summary
// and service.
func NormalizeHealth(items []backend.HealthItem) []Event {
	events := make([]Event, 0, len(items))
	for i, item := range items {
		id := strings.TrimSpace(item.TrackingID)
		if id == "" {
			id = fmt.Sprintf("%s-%d", CategoryServiceHealth, i)
		}

		title := strings.TrimSpace(item.IssueName)
		if title == "" {
			title = strings.TrimSpace(item.Summary)
		}
		if title == "" {
			title = strings.TrimSpace(item.Service)
		}

		events = append(events, Event{
			ID:        id,
			Title:     title,
			Category:  CategoryServiceHealth,
			CreatedAt: parseCreatedAt(item.StartTime),
			Priority:  normalizePriority(item.Level, PriorityLow),
			Status:    normalizeStatus(item.Status),
			Source:    item.Service,
		})
	}
	return events
}

// NormalizeNotices maps free-text notice items into events. Notices carry
// no timestamps; they classify into the neutral age bucket.
func NormalizeNotices(items []backend.NoticeItem, category Category) []Event {
	events := make([]Event, 0, len(items))
	for i, item := range items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		events = append(events, Event{
			ID:       fmt.Sprintf("%s-%d", category, i),
			Title:    text,
			Category: category,
			Priority: PriorityLow,
			Status:   StatusOpen,
			Source:   item.Type,
		})
	}
	return events
}

// MergeForDisplay combines two feeds for one view: every primary entry
// sorts before every secondary entry, and backend order is preserved
// within each category.
func MergeForDisplay(primary, secondary []Event) []Event {
	merged := make([]Event, 0, len(primary)+len(secondary))
	merged = append(merged, primary...)
	merged = append(merged, secondary...)
	return merged
}
