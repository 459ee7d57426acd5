// Package poller periodically lists a GOES bucket for new GLM granules,
// fetches and decodes ones not seen before, and appends their events to the
// event store.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jcom-dev/zmanim/internal/eventstore"
	"github.com/jcom-dev/zmanim/internal/granule"
	"github.com/jcom-dev/zmanim/internal/objectstore"
)

// DefaultInterval and MinInterval bound the poll cadence.
const (
	DefaultInterval = 60 * time.Second
	MinInterval     = 10 * time.Second
)

// DefaultLookback bounds how far back each tick lists the bucket, hour by
// hour, for new granules.
const DefaultLookback = 2 * time.Hour

// Lister is the subset of objectstore.Store the poller depends on.
type Lister interface {
	List(ctx context.Context, t time.Time) ([]objectstore.ObjectInfo, error)
}

// Fetcher is the subset of objectstore.Store the poller depends on to
// download a granule once it's been listed.
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Sink is the subset of eventstore.Store the poller appends decoded events
// to.
type Sink interface {
	Append(events []eventstore.Event, now time.Time) int
	Prune(now time.Time, keepWindow time.Duration) int
}

// OnIngested is called after each successful granule decode, letting the
// caller invalidate a tile cache or update metrics. May be nil.
type OnIngested func(key string, accepted int)

// Status is a snapshot of the poller's health, exposed by /s3/status.
type Status struct {
	LastTickTime time.Time
	LastError    string
	TicksTotal   int
	GranulesSeen int
}

// Poller runs the ticker+stop-channel background loop: every interval it
// lists the bucket, fetches and decodes granules it hasn't seen, and appends
// their events to the sink.
type Poller struct {
	lister   Lister
	fetcher  Fetcher
	sink     Sink
	interval time.Duration
	lookback time.Duration
	maxFetch int
	onIngest OnIngested

	mu     sync.RWMutex
	seen   map[string]struct{}
	status Status

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// Config configures a Poller.
type Config struct {
	Interval    time.Duration // below MinInterval (including zero) means DefaultInterval
	Lookback    time.Duration // zero means DefaultLookback
	MaxGranules int           // max granules fetched per tick; zero means unlimited
	OnIngested  OnIngested
}

// New builds a Poller. It does not start polling until Start is called.
func New(lister Lister, fetcher Fetcher, sink Sink, cfg Config) *Poller {
	interval := cfg.Interval
	if interval < MinInterval {
		interval = DefaultInterval
	}
	lookback := cfg.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}

	return &Poller{
		lister:   lister,
		fetcher:  fetcher,
		sink:     sink,
		interval: interval,
		lookback: lookback,
		maxFetch: cfg.MaxGranules,
		onIngest: cfg.OnIngested,
		seen:     make(map[string]struct{}),
		stopChan: make(chan struct{}),
	}
}

// Start launches the background polling goroutine. Safe to call once.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.worker(ctx)

	slog.Info("glm poller started",
		"interval_seconds", p.interval.Seconds(),
		"lookback_seconds", p.lookback.Seconds())
}

// Stop signals the worker to exit and waits for it to finish.
func (p *Poller) Stop() {
	slog.Info("stopping glm poller...")
	close(p.stopChan)
	p.wg.Wait()
	slog.Info("glm poller stopped")
}

// Status returns a snapshot of the poller's last-tick health.
func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Poller) worker(ctx context.Context) {
	defer p.wg.Done()

	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("glm poller shutting down: context canceled")
			return
		case <-p.stopChan:
			slog.Info("glm poller shutting down: stop requested")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick runs a single poll cycle. It scans the full lookback horizon
// hour-by-hour (mirroring httpapi.Service.ingestS3) rather than just the
// current hour, so granules that landed just before an hour boundary aren't
// missed. It never panics or exits the worker loop on transient failure —
// per-granule and per-listing errors are logged and swallowed, and the tick
// is only recorded as failed if every hour in the horizon failed to list.
func (p *Poller) tick(ctx context.Context) {
	now := time.Now()

	var objs []objectstore.ObjectInfo
	var listErr error
	listed := false

	cursor := now
	deadline := now.Add(-p.lookback)
	for cursor.After(deadline) {
		page, err := p.lister.List(ctx, cursor)
		if err != nil {
			listErr = err
			slog.Warn("glm poller: list failed", "err", err, "cursor", cursor)
		} else {
			listed = true
			objs = append(objs, page...)
		}
		cursor = cursor.Add(-time.Hour)
	}

	if !listed && listErr != nil {
		p.recordTick(now, listErr.Error(), 0)
		return
	}

	fetched := 0
	for _, obj := range objs {
		if p.maxFetch > 0 && fetched >= p.maxFetch {
			break
		}
		if p.alreadySeen(obj.Key) {
			continue
		}

		result, err := granule.ReadRemote(ctx, p.fetcher, obj.Key, now)
		if err != nil {
			slog.Warn("glm poller: granule fetch/decode failed", "key", obj.Key, "err", err)
			continue
		}

		accepted := p.sink.Append(result.Events, now)
		p.sink.Prune(now, 0)
		p.markSeen(obj.Key)
		fetched++

		if p.onIngest != nil {
			p.onIngest(obj.Key, accepted)
		}
		slog.Info("glm poller: ingested granule", "key", obj.Key, "events_accepted", accepted)
	}

	p.recordTick(now, "", fetched)
}

func (p *Poller) alreadySeen(key string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.seen[key]
	return ok
}

func (p *Poller) markSeen(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[key] = struct{}{}
}

func (p *Poller) recordTick(at time.Time, errMsg string, granulesFetched int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.LastTickTime = at
	p.status.LastError = errMsg
	p.status.TicksTotal++
	p.status.GranulesSeen += granulesFetched
}
