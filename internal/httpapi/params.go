package httpapi

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jcom-dev/zmanim/internal/aggregator"
)

// parseWindow parses the "window" query param: an integer with suffix
// ms|s|m|h, per spec.md §6. An empty string yields aggregator.DefaultWindow.
func parseWindow(raw string) (time.Duration, error) {
	if raw == "" {
		return aggregator.DefaultWindow, nil
	}

	var multiplier time.Duration
	var numPart string
	switch {
	case strings.HasSuffix(raw, "ms"):
		multiplier = time.Millisecond
		numPart = raw[:len(raw)-2]
	case strings.HasSuffix(raw, "s"):
		multiplier = time.Second
		numPart = raw[:len(raw)-1]
	case strings.HasSuffix(raw, "m"):
		multiplier = time.Minute
		numPart = raw[:len(raw)-1]
	case strings.HasSuffix(raw, "h"):
		multiplier = time.Hour
		numPart = raw[:len(raw)-1]
	default:
		return 0, fmt.Errorf("window: unrecognized suffix in %q", raw)
	}

	n, err := strconv.Atoi(numPart)
	if err != nil {
		return 0, fmt.Errorf("window: invalid integer in %q: %w", raw, err)
	}
	return time.Duration(n) * multiplier, nil
}

// parseEndTime parses the "t" query param as an ISO-8601 UTC instant. An
// empty string yields the zero Time, meaning "now" to aggregator.Params.
func parseEndTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("t: invalid ISO-8601 instant %q: %w", raw, err)
	}
	return t.UTC(), nil
}

// parseGridVariant resolves the "grid_type" query param (auto|abi|geodetic)
// against the service's configured default when "auto" or empty.
func (s *Service) parseGridVariant(raw string) aggregator.GridVariant {
	switch raw {
	case "abi":
		return aggregator.GridABI
	case "geodetic":
		return aggregator.GridGeodetic
	default: // "auto" or unrecognized
		if s.grid.UseABI {
			return aggregator.GridABI
		}
		return aggregator.GridGeodetic
	}
}
