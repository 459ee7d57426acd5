package granule

import (
	"strings"
	"time"
)

// scaleTable maps a substring found in a units attribute to the multiplier
// that converts that variable's raw values to milliseconds. Order matters:
// "millisecond" contains "second" as a substring, so "microsecond" and
// "millisecond" must be checked before the bare "second" fallback — ported
// directly from the reference ingester's unit-sniffing loop.
var scaleTable = []struct {
	substr string
	mult   float64
}{
	{"microsecond", 1e-3},
	{"millisecond", 1.0},
	{"second", 1000.0},
}

func scaleForUnits(units string, fallback float64) float64 {
	lower := strings.ToLower(units)
	for _, entry := range scaleTable {
		if strings.Contains(lower, entry.substr) {
			return entry.mult
		}
	}
	return fallback
}

var referenceLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.999999999Z",
	time.RFC3339,
}

// parseUnitsReference parses a CF-style "<units> since <reference>" string
// and returns the reference instant in UTC.
func parseUnitsReference(units string) (time.Time, bool) {
	lower := strings.ToLower(units)
	idx := strings.Index(lower, "since")
	if idx < 0 {
		return time.Time{}, false
	}
	ref := strings.TrimSpace(units[idx+len("since"):])
	for _, layout := range referenceLayouts {
		if t, err := time.Parse(layout, ref); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// decodeTimes resolves a per-event timestamp (ms since epoch) for each of n
// events, trying event_time (CF reference+offset), then event_time_offset
// relative to the granule's time_coverage_start attribute, then falling
// back to the granule's filename-derived start time for every event.
func decodeTimes(ds Dataset, meta Metadata, n int) []int64 {
	if offsets, baseMs, ok := decodeEventTime(ds); ok {
		return scaledTimes(offsets, baseMs, n)
	}
	if offsets, baseMs, ok := decodeEventTimeOffset(ds); ok {
		return scaledTimes(offsets, baseMs, n)
	}

	fallback := meta.StartTime.UnixMilli()
	out := make([]int64, n)
	for i := range out {
		out[i] = fallback
	}
	return out
}

func decodeEventTime(ds Dataset) (offsets []float64, baseMs int64, ok bool) {
	values, found := ds.Float64Variable("event_time")
	if !found {
		return nil, 0, false
	}
	units, _ := ds.VariableUnits("event_time")
	ref, hasRef := parseUnitsReference(units)
	if !hasRef {
		return nil, 0, false
	}
	scale := scaleForUnits(units, 1000.0)
	return applyScale(values, scale), ref.UnixMilli(), true
}

func decodeEventTimeOffset(ds Dataset) (offsets []float64, baseMs int64, ok bool) {
	values, found := ds.Float64Variable("event_time_offset")
	if !found {
		return nil, 0, false
	}

	baseStr, hasBase := ds.GlobalAttr("time_coverage_start")
	if !hasBase {
		baseStr, hasBase = ds.GlobalAttr("time_coverage_start_utc")
	}
	if !hasBase {
		return nil, 0, false
	}

	var ref time.Time
	var parsed bool
	for _, layout := range []string{"2006-01-02T15:04:05.999999999Z", "2006-01-02T15:04:05Z", time.RFC3339} {
		if t, err := time.Parse(layout, baseStr); err == nil {
			ref, parsed = t.UTC(), true
			break
		}
	}
	if !parsed {
		return nil, 0, false
	}

	units, _ := ds.VariableUnits("event_time_offset")
	scale := scaleForUnits(units, 1000.0)
	return applyScale(values, scale), ref.UnixMilli(), true
}

func applyScale(values []float64, scale float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * scale
	}
	return out
}

func scaledTimes(offsets []float64, baseMs int64, n int) []int64 {
	out := make([]int64, n)
	limit := len(offsets)
	if limit > n {
		limit = n
	}
	for i := 0; i < limit; i++ {
		out[i] = baseMs + int64(offsets[i])
	}
	for i := limit; i < n; i++ {
		out[i] = baseMs
	}
	return out
}
