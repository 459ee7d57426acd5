package granule

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Fetcher is the subset of objectstore.Store the reader needs to stage a
// remote granule locally before opening it.
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// ReadRemote downloads a granule object via src, stages it to a temp file,
// reads it, and removes the temp file regardless of outcome.
func ReadRemote(ctx context.Context, src Fetcher, key string, now time.Time) (Result, error) {
	body, err := src.Fetch(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("granule: fetch %s: %w", key, err)
	}

	tmp, err := os.CreateTemp("", "glm-granule-*.nc")
	if err != nil {
		return Result{}, fmt.Errorf("granule: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return Result{}, fmt.Errorf("granule: stage %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("granule: close staged file for %s: %w", key, err)
	}

	meta := ParseFilename(key, now)
	ds, err := openFile(tmpPath)
	if err != nil {
		return Result{Metadata: meta}, err
	}
	defer ds.Close()

	return Result{Metadata: meta, Events: ExtractEvents(ds, meta)}, nil
}
