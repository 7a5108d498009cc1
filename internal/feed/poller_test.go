package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerRejectsBadCron(t *testing.T) {
	_, err := NewPoller("dashboard", time.Second, "not a cron line", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestPollerFiresImmediatelyThenOnInterval(t *testing.T) {
	cycles := make(chan struct{}, 16)
	p, err := NewPoller("dashboard", 5*time.Millisecond, "", func(context.Context) error {
		cycles <- struct{}{}
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	for i := 0; i < 3; i++ {
		select {
		case <-cycles:
		case <-time.After(2 * time.Second):
			t.Fatalf("cycle %d never fired", i)
		}
	}
}

func TestPollerKeepsPollingAfterFailure(t *testing.T) {
	var calls atomic.Int64
	cycles := make(chan struct{}, 16)
	p, err := NewPoller("updates", 5*time.Millisecond, "", func(context.Context) error {
		n := calls.Add(1)
		cycles <- struct{}{}
		if n == 1 {
			return errors.New("backend unavailable")
		}
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	// The failed first cycle must not stop the cadence.
	for i := 0; i < 3; i++ {
		select {
		case <-cycles:
		case <-time.After(2 * time.Second):
			t.Fatalf("cycle %d never fired", i)
		}
	}
	assert.GreaterOrEqual(t, calls.Load(), int64(3))
}

func TestPollerCoalescesOverlappingTicks(t *testing.T) {
	release := make(chan struct{})
	var inFlight atomic.Int64
	var overlapped atomic.Bool

	p, err := NewPoller("dashboard", time.Millisecond, "", func(context.Context) error {
		if inFlight.Add(1) > 1 {
			overlapped.Store(true)
		}
		defer inFlight.Add(-1)
		<-release
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	// Let several ticks fire while the first fetch is still blocked.
	time.Sleep(50 * time.Millisecond)
	close(release)
	time.Sleep(20 * time.Millisecond)

	assert.False(t, overlapped.Load(), "ticks during an in-flight fetch must coalesce")
}

func TestPollerStopsOnCancel(t *testing.T) {
	var calls atomic.Int64
	p, err := NewPoller("updates", time.Millisecond, "", func(context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()

	time.Sleep(20 * time.Millisecond)
	settled := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, calls.Load())
}
