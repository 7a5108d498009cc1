package feed

import "time"

// Snapshot is an immutable view over every feed's most recent successful
// fetch. Readers get a copy of the mapping; the aggregator never mutates a
// published snapshot in place.
type Snapshot struct {
	At    time.Time
	feeds map[Category][]Event
}

// NewSnapshot builds a snapshot over the given feeds. The mapping is
// copied; callers keep ownership of theirs.
func NewSnapshot(at time.Time, feeds map[Category][]Event) Snapshot {
	copied := make(map[Category][]Event, len(feeds))
	for category, events := range feeds {
		copied[category] = events
	}
	return Snapshot{At: at, feeds: copied}
}

// Events returns the ordered records for one category; nil when the
// category has not published yet.
func (s Snapshot) Events(category Category) []Event {
	if s.feeds == nil {
		return nil
	}
	return s.feeds[category]
}

// Count returns how many records one category currently holds.
func (s Snapshot) Count(category Category) int {
	return len(s.Events(category))
}

// Total returns the record count across all categories.
func (s Snapshot) Total() int {
	n := 0
	for _, events := range s.feeds {
		n += len(events)
	}
	return n
}
