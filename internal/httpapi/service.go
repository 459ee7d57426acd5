// Package httpapi is a thin chi-routed adapter that gives the ingest,
// aggregation, and tile-rendering core a runnable HTTP surface. It does not
// reimplement OpenAPI, authentication, or rate limiting — those remain
// outside the scope of this service.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jcom-dev/zmanim/internal/aggregator"
	"github.com/jcom-dev/zmanim/internal/eventstore"
	"github.com/jcom-dev/zmanim/internal/granule"
	"github.com/jcom-dev/zmanim/internal/objectstore"
	"github.com/jcom-dev/zmanim/internal/poller"
	"github.com/jcom-dev/zmanim/internal/projection"
	"github.com/jcom-dev/zmanim/internal/tilecache"
	"github.com/jcom-dev/zmanim/internal/tilerender"
)

// GridConfig carries the grid-variant defaults the service renders with,
// sourced from internal/config at startup.
type GridConfig struct {
	UseABI  bool
	ABILon0 float64
}

// Service holds every core component the HTTP handlers delegate to: the
// event store, aggregator/renderer parameters, the tile cache, and an
// on-demand object-store client factory for /ingest_s3 and s3:// paths in
// /ingest_files.
type Service struct {
	store        *eventstore.Store
	cache        *tilecache.Cache
	abi          *projection.ABIFixedGrid
	grid         GridConfig
	retention    time.Duration
	fetchTimeout time.Duration
	poller       *poller.Poller

	mu      sync.Mutex
	buckets map[string]*objectstore.Store
}

// New builds a Service wired to the given event store, tile cache, and
// grid configuration. p may be nil if the background poller is disabled.
// fetchTimeout bounds every object-store request issued by bucketStore's
// clients, per spec.md §5.
func New(store *eventstore.Store, cache *tilecache.Cache, grid GridConfig, retention, fetchTimeout time.Duration, p *poller.Poller) *Service {
	return &Service{
		store:        store,
		cache:        cache,
		abi:          projection.NewABIFixedGrid(grid.ABILon0),
		grid:         grid,
		retention:    retention,
		fetchTimeout: fetchTimeout,
		poller:       p,
		buckets:      make(map[string]*objectstore.Store),
	}
}

// bucketStore returns (creating and caching, if necessary) the objectstore.Store
// for the given bucket name.
func (s *Service) bucketStore(ctx context.Context, bucket string) (*objectstore.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.buckets[bucket]; ok {
		return st, nil
	}
	st, err := objectstore.New(ctx, bucket, s.fetchTimeout, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("httpapi: open bucket %s: %w", bucket, err)
	}
	s.buckets[bucket] = st
	return st, nil
}

// ingestResult is the ingest endpoints' {accepted, rejected, total} response
// shape. For /ingest all three count events; for /ingest_files and
// /ingest_s3, accepted counts events while rejected and total count files or
// granules.
type ingestResult struct {
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

// ingestEvents validates and appends raw events, returning the tally. Any
// event failing validation is counted as rejected and dropped, per the
// drop-and-log boundary policy; the interior (eventstore.Store) trusts what
// reaches it.
func (s *Service) ingestEvents(raw []rawEvent, now time.Time) ingestResult {
	events := make([]eventstore.Event, 0, len(raw))
	rejected := 0
	for _, r := range raw {
		e, ok := r.toEvent(now)
		if !ok {
			rejected++
			continue
		}
		events = append(events, e)
	}

	accepted := s.store.Append(events, now)
	s.store.Prune(now, s.retention)
	if accepted > 0 {
		s.cache.Purge()
	}

	return ingestResult{Accepted: accepted, Rejected: rejected, Total: len(raw)}
}

// ingestGranuleEvents appends the events already decoded from one granule,
// prunes the store, and purges the tile cache if anything was appended.
func (s *Service) ingestGranuleEvents(events []eventstore.Event, now time.Time) int {
	accepted := s.store.Append(events, now)
	s.store.Prune(now, s.retention)
	if accepted > 0 {
		s.cache.Purge()
	}
	return accepted
}

// ingestPath reads one filesystem path or s3://bucket/key URI and ingests
// its events. A per-path failure is returned to the caller, which tallies
// it as rejected rather than aborting the whole batch.
func (s *Service) ingestPath(ctx context.Context, path string, now time.Time) (int, error) {
	if bucket, key, ok := parseS3URI(path); ok {
		st, err := s.bucketStore(ctx, bucket)
		if err != nil {
			return 0, err
		}
		result, err := granule.ReadRemote(ctx, st, key, now)
		if err != nil {
			return 0, err
		}
		return s.ingestGranuleEvents(result.Events, now), nil
	}

	result, err := granule.ReadFile(path, now)
	if err != nil {
		return 0, err
	}
	return s.ingestGranuleEvents(result.Events, now), nil
}

// ingestS3 lists the granules in bucket over the last hoursBack, fetching
// and ingesting up to maxGranules of them. Keys are not checked against the
// background poller's dedup set, so a granule the poller already ingested is
// ingested again.
func (s *Service) ingestS3(ctx context.Context, bucket string, hoursBack int, maxGranules int, now time.Time) (ingestResult, error) {
	st, err := s.bucketStore(ctx, bucket)
	if err != nil {
		return ingestResult{}, err
	}

	lookback := time.Duration(hoursBack) * time.Hour
	cursor := now
	deadline := now.Add(-lookback)

	var objs []objectstore.ObjectInfo
	for cursor.After(deadline) {
		page, err := st.List(ctx, cursor)
		if err != nil {
			slog.Warn("httpapi: ingest_s3 list failed", "bucket", bucket, "err", err)
		} else {
			objs = append(objs, page...)
		}
		cursor = cursor.Add(-time.Hour)
	}

	accepted, rejected := 0, 0
	fetched := 0
	for _, obj := range objs {
		if maxGranules > 0 && fetched >= maxGranules {
			break
		}
		result, err := granule.ReadRemote(ctx, st, obj.Key, now)
		if err != nil {
			slog.Warn("httpapi: ingest_s3 granule failed", "key", obj.Key, "err", err)
			rejected++
			continue
		}
		accepted += s.ingestGranuleEvents(result.Events, now)
		fetched++
	}

	return ingestResult{Accepted: accepted, Rejected: rejected, Total: len(objs)}, nil
}

// renderTile aggregates the current event snapshot over the requested
// window and encodes it, consulting and updating the tile cache. Returns
// the PNG bytes and whether the result was served from cache.
func (s *Service) renderTile(z, x, y int, params aggregator.Params, now time.Time) ([]byte, bool, error) {
	startMs, endMs := aggregator.WindowBounds(params, now)
	key := tilecache.Key{
		Z: z, X: x, Y: y,
		WindowMs: endMs - startMs,
		EndMs:    endMs,
		QCStrict: params.QCStrict,
		Geodetic: params.Variant == aggregator.GridGeodetic,
	}
	if !hasExplicitEnd(params) {
		key.EndMs = 0
	}

	if png, ok := s.cache.Get(key); ok {
		return png, true, nil
	}

	events := s.store.Query(startMs, endMs)
	grid := aggregator.Aggregate(events, params, s.abi, now)
	png, err := tilerender.Render(grid, s.abi, tilerender.Identity{Z: z, X: x, Y: y})
	if err != nil {
		return nil, false, fmt.Errorf("httpapi: render tile: %w", err)
	}

	s.cache.Put(key, png)
	return png, false, nil
}

func hasExplicitEnd(params aggregator.Params) bool {
	return !params.EndTime.IsZero()
}

// parseS3URI splits an "s3://bucket/key" URI into its parts. ok is false for
// any string that isn't of that form, signaling the caller to treat it as a
// local filesystem path instead.
func parseS3URI(path string) (bucket, key string, ok bool) {
	const prefix = "s3://"
	if !strings.HasPrefix(path, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	idx := strings.IndexByte(rest, '/')
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}
