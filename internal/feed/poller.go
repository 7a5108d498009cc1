package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/opsdeck/opsdeck/internal/concurrency"
)

// FetchFunc runs one fetch+normalize+publish cycle for a feed. A returned
// error marks the cycle as skipped; it never tears down the poller or its
// siblings.
type FetchFunc func(ctx context.Context) error

// Poller drives one feed on its own cadence: a fixed interval, or a
// standard cron expression when one is configured. Cycles are strictly
// sequential per feed — a tick that fires while the previous fetch is
// still outstanding is coalesced into a no-op.
type Poller struct {
	name     string
	interval time.Duration
	schedule cron.Schedule
	fetch    FetchFunc
	gate     concurrency.Gate
}

func NewPoller(name string, interval time.Duration, cronExpr string, fetch FetchFunc) (*Poller, error) {
	p := &Poller{
		name:     name,
		interval: interval,
		fetch:    fetch,
	}

	if cronExpr != "" {
		schedule, err := cron.ParseStandard(cronExpr)
		if err != nil {
			return nil, err
		}
		p.schedule = schedule
	}

	return p, nil
}

// Run blocks until ctx is cancelled, firing one cycle immediately and then
// on every tick. Failures are logged and the next cycle keeps its normal
// cadence; no backoff.
func (p *Poller) Run(ctx context.Context) {
	p.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.nextTick():
			p.cycle(ctx)
		}
	}
}

// Start launches Run on its own goroutine with panic recovery.
func (p *Poller) Start(ctx context.Context) {
	concurrency.SafeGo(func() { p.Run(ctx) }, nil)
}

func (p *Poller) nextTick() <-chan time.Time {
	if p.schedule != nil {
		return time.After(time.Until(p.schedule.Next(time.Now())))
	}
	return time.After(p.interval)
}

func (p *Poller) cycle(ctx context.Context) {
	if !p.gate.TryAcquire() {
		slog.Debug("Poll cycle still in flight, coalescing tick", "feed", p.name)
		return
	}

	concurrency.SafeGo(func() {
		defer p.gate.Release()

		start := time.Now()
		if err := p.fetch(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("Poll cycle skipped", "feed", p.name, "error", err)
			return
		}
		slog.Debug("Poll cycle completed", "feed", p.name, "duration", time.Since(start))
	}, nil)
}
