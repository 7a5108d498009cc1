package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyAgeBuckets(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		age  time.Duration
		want AgeBucket
	}{
		{"just created", 0, AgeFresh},
		{"one day", 24 * time.Hour, AgeFresh},
		{"exactly two days", 48 * time.Hour, AgeFresh},
		{"just past two days", 48*time.Hour + time.Second, AgeAging},
		{"five days", 5 * 24 * time.Hour, AgeAging},
		{"exactly seven days", 7 * 24 * time.Hour, AgeAging},
		{"just past seven days", 7*24*time.Hour + time.Second, AgeStale},
		{"a month", 30 * 24 * time.Hour, AgeStale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			createdAt := now.Add(-tt.age)
			assert.Equal(t, tt.want, ClassifyAge(&createdAt, now))
		})
	}
}

func TestClassifyAgeMissingTimestamp(t *testing.T) {
	now := time.Now()

	assert.Equal(t, AgeFresh, ClassifyAge(nil, now))

	zero := time.Time{}
	assert.Equal(t, AgeFresh, ClassifyAge(&zero, now))
}

func TestAgeBucketHint(t *testing.T) {
	assert.Equal(t, "normal", AgeFresh.Hint())
	assert.Equal(t, "attention", AgeAging.Hint())
	assert.Equal(t, "overdue", AgeStale.Hint())
}

func TestEventAge(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	createdAt := now.Add(-3 * 24 * time.Hour)

	event := Event{ID: "OPS-1", CreatedAt: &createdAt}
	assert.Equal(t, AgeAging, event.Age(now))

	assert.Equal(t, AgeFresh, Event{ID: "OPS-2"}.Age(now))
}
