package advisory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeFetcher struct {
	calls int
	text  string
	err   error
}

func (f *fakeFetcher) TicketRecommendation(ctx context.Context, ticketID string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestGetFetchesOncePerTicket(t *testing.T) {
	fetcher := &fakeFetcher{text: "restart the ingestion worker"}
	cache := NewCache(fetcher)

	assert.Equal(t, "restart the ingestion worker", cache.Get(context.Background(), "T1"))
	assert.Equal(t, "restart the ingestion worker", cache.Get(context.Background(), "T1"))
	assert.Equal(t, 1, fetcher.calls)
}

func TestGetFetchesPerDistinctTicket(t *testing.T) {
	fetcher := &fakeFetcher{text: "check the runbook"}
	cache := NewCache(fetcher)

	cache.Get(context.Background(), "T1")
	cache.Get(context.Background(), "T2")
	assert.Equal(t, 2, fetcher.calls)
}

func TestRefreshBypassesCache(t *testing.T) {
	fetcher := &fakeFetcher{text: "first advice"}
	cache := NewCache(fetcher)

	cache.Get(context.Background(), "T1")
	fetcher.text = "updated advice"

	assert.Equal(t, "updated advice", cache.Refresh(context.Background(), "T1"))
	assert.Equal(t, 2, fetcher.calls)

	// The refreshed text replaces the cached entry.
	assert.Equal(t, "updated advice", cache.Get(context.Background(), "T1"))
	assert.Equal(t, 2, fetcher.calls)
}

func TestFailureDegradesToPlaceholderAndRetries(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("backend down")}
	cache := NewCache(fetcher)

	assert.Equal(t, Placeholder, cache.Get(context.Background(), "T1"))

	// Failures are not cached; recovery is picked up on the next open.
	fetcher.err = nil
	fetcher.text = "scale out the consumer group"
	assert.Equal(t, "scale out the consumer group", cache.Get(context.Background(), "T1"))
	assert.Equal(t, 2, fetcher.calls)
}

func TestClearDropsEntries(t *testing.T) {
	fetcher := &fakeFetcher{text: "advice"}
	cache := NewCache(fetcher)

	cache.Get(context.Background(), "T1")
	cache.Clear()
	cache.Get(context.Background(), "T1")
	assert.Equal(t, 2, fetcher.calls)
}
