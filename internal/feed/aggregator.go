package feed

import (
	"context"
	"sync"
	"time"

	"github.com/opsdeck/opsdeck/internal/backend"
	"github.com/opsdeck/opsdeck/internal/config"
)

// Source is the slice of the backend the aggregator reads. The backend
// client satisfies this.
type Source interface {
	Dashboard(ctx context.Context) (*backend.DashboardResponse, error)
	Updates(ctx context.Context) ([]backend.NoticeItem, error)
	ShortLiveUpdates(ctx context.Context) ([]backend.NoticeItem, error)
}

// Intervals carries the resolved cadence per polling loop.
type Intervals struct {
	Dashboard  time.Duration
	Updates    time.Duration
	Commentary time.Duration

	DashboardCron  string
	UpdatesCron    string
	CommentaryCron string

	// RFCWindow bounds the upcoming-rfc category: entries scheduled
	// further out than this are not shown.
	RFCWindow time.Duration
}

// IntervalsFromConfig parses the feeds section into concrete durations.
func IntervalsFromConfig(cfg config.FeedsConfig) (Intervals, error) {
	dashboard, err := config.DurationOrDefault(cfg.DashboardInterval, config.DefaultFeedsDashboardInterval)
	if err != nil {
		return Intervals{}, err
	}
	updates, err := config.DurationOrDefault(cfg.UpdatesInterval, config.DefaultFeedsUpdatesInterval)
	if err != nil {
		return Intervals{}, err
	}
	commentary, err := config.DurationOrDefault(cfg.CommentaryInterval, config.DefaultFeedsCommentaryInterval)
	if err != nil {
		return Intervals{}, err
	}
	rfcWindow, err := config.DurationOrDefault(cfg.RFCWindow, config.DefaultFeedsRFCWindow)
	if err != nil {
		return Intervals{}, err
	}

	return Intervals{
		Dashboard:      dashboard,
		Updates:        updates,
		Commentary:     commentary,
		DashboardCron:  cfg.DashboardSchedule,
		UpdatesCron:    cfg.UpdatesSchedule,
		CommentaryCron: cfg.CommentarySchedule,
		RFCWindow:      rfcWindow,
	}, nil
}

// Aggregator mirrors the backend read endpoints into one consistent,
// atomically replaced snapshot. It is the sole owner of that state;
// everything else reads it through Snapshot().
//
// One poller per feed, each on its own cadence. A failed cycle leaves the
// previous snapshot for that category untouched and never disturbs
// sibling pollers.
type Aggregator struct {
	source    Source
	rfcWindow time.Duration

	mu    sync.RWMutex
	at    time.Time
	feeds map[Category][]Event

	subscribers []chan struct{}
	pollers     []*Poller
}

func NewAggregator(source Source, intervals Intervals) (*Aggregator, error) {
	a := &Aggregator{
		source:    source,
		rfcWindow: intervals.RFCWindow,
		feeds:     make(map[Category][]Event),
	}

	feeds := []struct {
		name     string
		interval time.Duration
		cron     string
		fetch    FetchFunc
	}{
		{"dashboard", intervals.Dashboard, intervals.DashboardCron, a.fetchDashboard},
		{"short-updates", intervals.Updates, intervals.UpdatesCron, a.fetchShortUpdates},
		{"updates", intervals.Commentary, intervals.CommentaryCron, a.fetchUpdates},
	}

	for _, s := range feeds {
		p, err := NewPoller(s.name, s.interval, s.cron, s.fetch)
		if err != nil {
			return nil, err
		}
		a.pollers = append(a.pollers, p)
	}

	return a, nil
}

// Start launches every poller. They stop when ctx is cancelled;
// outstanding fetches resolve into a cancelled publish and are discarded.
func (a *Aggregator) Start(ctx context.Context) {
	for _, p := range a.pollers {
		p.Start(ctx)
	}
}

// Snapshot returns the current consistent view. The returned value is
// safe to hold across later publishes.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	feeds := make(map[Category][]Event, len(a.feeds))
	for category, events := range a.feeds {
		feeds[category] = events
	}
	return Snapshot{At: a.at, feeds: feeds}
}

// Subscribe returns a channel that receives a (coalesced) signal after
// every successful publish.
func (a *Aggregator) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	a.mu.Lock()
	a.subscribers = append(a.subscribers, ch)
	a.mu.Unlock()
	return ch
}

// publish atomically replaces the snapshot slices for the given
// categories. Slices are owned by the snapshot from here on; callers must
// not retain them.
func (a *Aggregator) publish(ctx context.Context, updates map[Category][]Event) {
	if ctx.Err() != nil {
		// A fetch that resolved after teardown must not reappear.
		return
	}

	a.mu.Lock()
	for category, events := range updates {
		a.feeds[category] = events
	}
	a.at = time.Now()
	subscribers := a.subscribers
	a.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (a *Aggregator) fetchDashboard(ctx context.Context) error {
	dash, err := a.source.Dashboard(ctx)
	if err != nil {
		return err
	}

	upcoming := NormalizeTickets(dash.UpcomingRFCTickets, CategoryUpcomingRFC)
	a.publish(ctx, map[Category][]Event{
		CategoryMyTickets:     NormalizeTickets(dash.MyAndGroupTickets, CategoryMyTickets),
		CategoryCritical:      NormalizeTickets(dash.HighCritical, CategoryCritical),
		CategoryRFC:           NormalizeTickets(dash.MyRFCTickets, CategoryRFC),
		CategoryUpcomingRFC:   a.withinRFCWindow(upcoming),
		CategoryServiceHealth: NormalizeHealth(dash.ServiceHealth),
	})
	return nil
}

// withinRFCWindow drops upcoming changes scheduled further out than the
// configured window. Entries without an instant are kept; the backend
// already vetted them.
func (a *Aggregator) withinRFCWindow(events []Event) []Event {
	if a.rfcWindow <= 0 {
		return events
	}

	cutoff := time.Now().Add(a.rfcWindow)
	kept := make([]Event, 0, len(events))
	for _, event := range events {
		if event.CreatedAt != nil && event.CreatedAt.After(cutoff) {
			continue
		}
		kept = append(kept, event)
	}
	return kept
}

func (a *Aggregator) fetchUpdates(ctx context.Context) error {
	items, err := a.source.Updates(ctx)
	if err != nil {
		return err
	}

	a.publish(ctx, map[Category][]Event{
		CategoryUpdates: NormalizeNotices(items, CategoryUpdates),
	})
	return nil
}

func (a *Aggregator) fetchShortUpdates(ctx context.Context) error {
	items, err := a.source.ShortLiveUpdates(ctx)
	if err != nil {
		return err
	}

	a.publish(ctx, map[Category][]Event{
		CategoryShortUpdates: NormalizeNotices(items, CategoryShortUpdates),
	})
	return nil
}
