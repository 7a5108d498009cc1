package advisory

import (
	"context"
	"log/slog"
	"sync"
)

// Placeholder is shown when a recommendation cannot be fetched. Failures
// degrade to this text instead of surfacing an error in the detail view.
const Placeholder = "No recommendation available right now."

// Fetcher retrieves the server-side recommendation for one ticket.
type Fetcher interface {
	TicketRecommendation(ctx context.Context, ticketID string) (string, error)
}

// Cache memoizes per-ticket recommendations for the lifetime of the
// session. Opening the same ticket twice costs one backend call; Refresh
// forces a refetch and overwrites the cached text.
type Cache struct {
	fetcher Fetcher

	mu      sync.Mutex
	entries map[string]string
}

func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		entries: make(map[string]string),
	}
}

// Get returns the recommendation for ticketID, fetching it once on first
// use. A failed fetch returns the placeholder and is not cached, so the
// next open retries.
func (c *Cache) Get(ctx context.Context, ticketID string) string {
	c.mu.Lock()
	if text, ok := c.entries[ticketID]; ok {
		c.mu.Unlock()
		return text
	}
	c.mu.Unlock()

	return c.fetch(ctx, ticketID)
}

// Refresh bypasses the cache and overwrites the stored text on success.
func (c *Cache) Refresh(ctx context.Context, ticketID string) string {
	return c.fetch(ctx, ticketID)
}

// Clear drops every cached entry, typically on sign-out.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]string)
	c.mu.Unlock()
}

func (c *Cache) fetch(ctx context.Context, ticketID string) string {
	text, err := c.fetcher.TicketRecommendation(ctx, ticketID)
	if err != nil {
		slog.Warn("Recommendation fetch failed", "ticket", ticketID, "error", err)
		return Placeholder
	}

	c.mu.Lock()
	c.entries[ticketID] = text
	c.mu.Unlock()
	return text
}
