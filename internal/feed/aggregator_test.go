package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/internal/backend"
	"github.com/opsdeck/opsdeck/internal/config"
)

type fakeSource struct {
	mu        sync.Mutex
	dashboard *backend.DashboardResponse
	updates   []backend.NoticeItem
	short     []backend.NoticeItem

	dashboardErr error
}

func (f *fakeSource) Dashboard(context.Context) (*backend.DashboardResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dashboardErr != nil {
		return nil, f.dashboardErr
	}
	return f.dashboard, nil
}

func (f *fakeSource) Updates(context.Context) ([]backend.NoticeItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates, nil
}

func (f *fakeSource) ShortLiveUpdates(context.Context) ([]backend.NoticeItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.short, nil
}

func (f *fakeSource) set(fn func(*fakeSource)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func TestIntervalsFromConfigDefaults(t *testing.T) {
	intervals, err := IntervalsFromConfig(config.FeedsConfig{})
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, intervals.Dashboard)
	assert.Equal(t, 60*time.Second, intervals.Updates)
	assert.Equal(t, 5*time.Minute, intervals.Commentary)
	assert.Equal(t, 48*time.Hour, intervals.RFCWindow)
}

func TestIntervalsFromConfigRejectsGarbage(t *testing.T) {
	_, err := IntervalsFromConfig(config.FeedsConfig{DashboardInterval: "soonish"})
	assert.Error(t, err)
}

func TestAggregatorPublishesDashboardCategories(t *testing.T) {
	source := &fakeSource{
		dashboard: &backend.DashboardResponse{
			MyAndGroupTickets:  []backend.TicketItem{{Key: "OPS-1", Summary: "Disk alert"}},
			HighCritical:       []backend.TicketItem{{Key: "OPS-2", Priority: "critical"}},
			MyRFCTickets:       []backend.TicketItem{{Key: "RFC-3"}},
			UpcomingRFCTickets: []backend.TicketItem{{Key: "RFC-4"}},
			ServiceHealth:      []backend.HealthItem{{TrackingID: "INC-5", Service: "payments"}},
		},
	}

	a, err := NewAggregator(source, Intervals{Dashboard: time.Hour, Updates: time.Hour, Commentary: time.Hour})
	require.NoError(t, err)

	require.NoError(t, a.fetchDashboard(context.Background()))

	snap := a.Snapshot()
	assert.Equal(t, 1, snap.Count(CategoryMyTickets))
	assert.Equal(t, 1, snap.Count(CategoryCritical))
	assert.Equal(t, 1, snap.Count(CategoryRFC))
	assert.Equal(t, 1, snap.Count(CategoryUpcomingRFC))
	assert.Equal(t, 1, snap.Count(CategoryServiceHealth))
	assert.Equal(t, "OPS-1", snap.Events(CategoryMyTickets)[0].ID)
	assert.False(t, snap.At.IsZero())
}

func TestAggregatorBoundsUpcomingRFCWindow(t *testing.T) {
	source := &fakeSource{
		dashboard: &backend.DashboardResponse{
			UpcomingRFCTickets: []backend.TicketItem{
				{Key: "RFC-1", Created: time.Now().Add(12 * time.Hour).Format(time.RFC3339)},
				{Key: "RFC-2", Created: time.Now().Add(90 * time.Hour).Format(time.RFC3339)},
				{Key: "RFC-3"},
			},
		},
	}

	a, err := NewAggregator(source, Intervals{
		Dashboard: time.Hour, Updates: time.Hour, Commentary: time.Hour,
		RFCWindow: 48 * time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, a.fetchDashboard(context.Background()))

	events := a.Snapshot().Events(CategoryUpcomingRFC)
	require.Len(t, events, 2)
	assert.Equal(t, "RFC-1", events[0].ID)
	assert.Equal(t, "RFC-3", events[1].ID)
}

func TestAggregatorFailureKeepsPriorSnapshot(t *testing.T) {
	source := &fakeSource{
		dashboard: &backend.DashboardResponse{
			MyAndGroupTickets: []backend.TicketItem{{Key: "OPS-1"}},
		},
		short: []backend.NoticeItem{{Text: "All quiet"}},
	}

	a, err := NewAggregator(source, Intervals{Dashboard: time.Hour, Updates: time.Hour, Commentary: time.Hour})
	require.NoError(t, err)

	require.NoError(t, a.fetchDashboard(context.Background()))
	require.NoError(t, a.fetchShortUpdates(context.Background()))
	before := a.Snapshot()

	source.set(func(f *fakeSource) { f.dashboardErr = errors.New("backend down") })
	require.Error(t, a.fetchDashboard(context.Background()))

	after := a.Snapshot()
	assert.Equal(t, before.Events(CategoryMyTickets), after.Events(CategoryMyTickets))
	assert.Equal(t, before.Events(CategoryShortUpdates), after.Events(CategoryShortUpdates))
}

func TestAggregatorFeedsAreIndependent(t *testing.T) {
	source := &fakeSource{
		dashboardErr: errors.New("dashboard down"),
		updates:      []backend.NoticeItem{{Text: "Commentary still flows"}},
	}

	a, err := NewAggregator(source, Intervals{Dashboard: time.Hour, Updates: time.Hour, Commentary: time.Hour})
	require.NoError(t, err)

	require.Error(t, a.fetchDashboard(context.Background()))
	require.NoError(t, a.fetchUpdates(context.Background()))

	snap := a.Snapshot()
	assert.Equal(t, 0, snap.Count(CategoryMyTickets))
	assert.Equal(t, 1, snap.Count(CategoryUpdates))
}

func TestAggregatorSnapshotIsStable(t *testing.T) {
	source := &fakeSource{
		dashboard: &backend.DashboardResponse{
			MyAndGroupTickets: []backend.TicketItem{{Key: "OPS-1"}},
		},
	}

	a, err := NewAggregator(source, Intervals{Dashboard: time.Hour, Updates: time.Hour, Commentary: time.Hour})
	require.NoError(t, err)
	require.NoError(t, a.fetchDashboard(context.Background()))

	held := a.Snapshot()

	source.set(func(f *fakeSource) {
		f.dashboard = &backend.DashboardResponse{
			MyAndGroupTickets: []backend.TicketItem{{Key: "OPS-9"}, {Key: "OPS-10"}},
		}
	})
	require.NoError(t, a.fetchDashboard(context.Background()))

	// The earlier snapshot is untouched by the republish.
	assert.Equal(t, 1, held.Count(CategoryMyTickets))
	assert.Equal(t, "OPS-1", held.Events(CategoryMyTickets)[0].ID)
	assert.Equal(t, 2, a.Snapshot().Count(CategoryMyTickets))
}

func TestAggregatorSubscribeSignalsOnPublish(t *testing.T) {
	source := &fakeSource{updates: []backend.NoticeItem{{Text: "note"}}}

	a, err := NewAggregator(source, Intervals{Dashboard: time.Hour, Updates: time.Hour, Commentary: time.Hour})
	require.NoError(t, err)

	ch := a.Subscribe()
	require.NoError(t, a.fetchUpdates(context.Background()))

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no publish signal received")
	}
}

func TestAggregatorDropsCancelledPublish(t *testing.T) {
	source := &fakeSource{updates: []backend.NoticeItem{{Text: "late arrival"}}}

	a, err := NewAggregator(source, Intervals{Dashboard: time.Hour, Updates: time.Hour, Commentary: time.Hour})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, a.fetchUpdates(ctx))
	assert.Equal(t, 0, a.Snapshot().Count(CategoryUpdates))
}
