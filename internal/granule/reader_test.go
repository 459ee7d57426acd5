package granule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcom-dev/zmanim/internal/eventstore"
)

// fakeDataset implements Dataset directly from in-memory maps, so reader
// logic can be tested without a real NetCDF file.
type fakeDataset struct {
	floats     map[string][]float64
	ints       map[string][]int64
	units      map[string]string
	globalAttr map[string]string
}

func (f *fakeDataset) Float64Variable(names ...string) ([]float64, bool) {
	for _, n := range names {
		if v, ok := f.floats[n]; ok {
			return v, true
		}
	}
	return nil, false
}

func (f *fakeDataset) IntVariable(names ...string) ([]int64, bool) {
	for _, n := range names {
		if v, ok := f.ints[n]; ok {
			return v, true
		}
	}
	return nil, false
}

func (f *fakeDataset) VariableUnits(names ...string) (string, bool) {
	for _, n := range names {
		if v, ok := f.units[n]; ok {
			return v, true
		}
	}
	return "", false
}

func (f *fakeDataset) GlobalAttr(name string) (string, bool) {
	v, ok := f.globalAttr[name]
	return v, ok
}

func (f *fakeDataset) Close() error { return nil }

func TestExtractEventsMissingRequiredVariableYieldsEmpty(t *testing.T) {
	ds := &fakeDataset{
		floats: map[string][]float64{
			"event_lat": {10, 20},
			// event_lon deliberately absent
			"event_energy": {1, 2},
		},
	}
	events := ExtractEvents(ds, fallbackMetadata(time.Now()))
	assert.Nil(t, events)
}

func TestExtractEventsSyntheticGranuleScenario(t *testing.T) {
	base := time.Date(2025, time.August, 28, 0, 0, 0, 0, time.UTC)
	ds := &fakeDataset{
		floats: map[string][]float64{
			"event_lat":         {10, 10, 10, 10, 10},
			"event_lon":         {-75, -75, -75, -75, -75},
			"event_energy":      {1e-12, 2e-12, 3e-12, 4e-12, 5e-12},
			"event_time_offset": {0, 1000, 2000, 3000, 4000},
		},
		ints: map[string][]int64{
			"event_quality_flag": {1, 0, 1, 1, 0},
		},
		units: map[string]string{
			"event_time_offset": "seconds",
		},
		globalAttr: map[string]string{
			"time_coverage_start": "2025-08-28T00:00:00Z",
		},
	}

	events := ExtractEvents(ds, Metadata{StartTime: base})
	require.Len(t, events, 5)

	wantEnergiesFJ := []float64{1e3, 2e3, 3e3, 4e3, 5e3}
	wantQC := []eventstore.QualityFlag{
		eventstore.QualityGood,
		eventstore.QualityBad,
		eventstore.QualityGood,
		eventstore.QualityGood,
		eventstore.QualityBad,
	}
	wantTimesMs := []int64{
		base.UnixMilli(),
		base.Add(1000 * time.Second).UnixMilli(),
		base.Add(2000 * time.Second).UnixMilli(),
		base.Add(3000 * time.Second).UnixMilli(),
		base.Add(4000 * time.Second).UnixMilli(),
	}

	for i, e := range events {
		assert.InDelta(t, wantEnergiesFJ[i], e.EnergyFJ, 1e-6, "event %d energy", i)
		assert.Equal(t, wantQC[i], e.QC, "event %d qc", i)
		assert.Equal(t, wantTimesMs[i], e.TimeMs, "event %d time", i)
	}
}

func TestExtractEventsDropsInvalidCoordinatesAndNegativeEnergy(t *testing.T) {
	ds := &fakeDataset{
		floats: map[string][]float64{
			"event_lat":    {10, 200, 20},
			"event_lon":    {-75, -75, -75},
			"event_energy": {1, 1, -5},
		},
	}
	events := ExtractEvents(ds, fallbackMetadata(time.Now()))
	assert.Len(t, events, 1)
}

func TestExtractEventsFallsBackToFilenameTimeWithoutTimeVariables(t *testing.T) {
	meta := Metadata{StartTime: time.Date(2024, time.July, 31, 12, 0, 0, 0, time.UTC)}
	ds := &fakeDataset{
		floats: map[string][]float64{
			"event_lat":    {0},
			"event_lon":    {0},
			"event_energy": {1},
		},
	}
	events := ExtractEvents(ds, meta)
	require.Len(t, events, 1)
	assert.Equal(t, meta.StartTime.UnixMilli(), events[0].TimeMs)
}

func TestParseFilenameWellFormed(t *testing.T) {
	meta := ParseFilename("OR_GLM-L2-LCFA_G16_s20242131400000_e20242131400200_c20242131400230.nc", time.Now())
	assert.Equal(t, "G16", meta.Satellite)
	assert.Equal(t, 2024, meta.StartTime.Year())
	assert.Equal(t, 213, meta.StartTime.YearDay())
	assert.Equal(t, 14, meta.StartTime.Hour())
}

func TestParseFilenameMalformedFallsBack(t *testing.T) {
	now := time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC)
	meta := ParseFilename("not-a-granule.nc", now)
	assert.Equal(t, "G16", meta.Satellite)
	assert.Equal(t, now, meta.StartTime)
}

func TestScaleForUnitsPrefersMoreSpecificSubstring(t *testing.T) {
	assert.Equal(t, 1e-3, scaleForUnits("microseconds since 2020-01-01", 1.0))
	assert.Equal(t, 1.0, scaleForUnits("milliseconds since 2020-01-01", 1000.0))
	assert.Equal(t, 1000.0, scaleForUnits("seconds since 2020-01-01", 1.0))
}
