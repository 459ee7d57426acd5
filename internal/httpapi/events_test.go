package httpapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcom-dev/zmanim/internal/eventstore"
)

func floatPtr(f float64) *float64 { return &f }
func int64Ptr(i int64) *int64     { return &i }
func boolPtr(b bool) *bool        { return &b }

func TestToEventCoercesJoulesToFemtojoules(t *testing.T) {
	now := time.Now()
	r := rawEvent{Lat: 10, Lon: -75, EnergyJ: floatPtr(1e-12)}
	e, ok := r.toEvent(now)
	require.True(t, ok)
	assert.InDelta(t, 1e3, e.EnergyFJ, 1e-6)
}

func TestToEventPrefersExplicitFemtojoules(t *testing.T) {
	now := time.Now()
	r := rawEvent{Lat: 10, Lon: -75, EnergyFJ: floatPtr(42), EnergyJ: floatPtr(999)}
	e, ok := r.toEvent(now)
	require.True(t, ok)
	assert.Equal(t, 42.0, e.EnergyFJ)
}

func TestToEventRejectsOutOfRangeCoordinates(t *testing.T) {
	now := time.Now()
	r := rawEvent{Lat: 200, Lon: -75, EnergyFJ: floatPtr(1)}
	_, ok := r.toEvent(now)
	assert.False(t, ok)
}

func TestToEventRejectsMissingEnergy(t *testing.T) {
	now := time.Now()
	r := rawEvent{Lat: 10, Lon: -75}
	_, ok := r.toEvent(now)
	assert.False(t, ok)
}

func TestToEventRejectsNegativeEnergy(t *testing.T) {
	now := time.Now()
	r := rawEvent{Lat: 10, Lon: -75, EnergyFJ: floatPtr(-5)}
	_, ok := r.toEvent(now)
	assert.False(t, ok)
}

func TestToEventClampsFutureTimestamp(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour).UnixMilli()
	r := rawEvent{Lat: 10, Lon: -75, EnergyFJ: floatPtr(1), TimestampMs: int64Ptr(future)}
	e, ok := r.toEvent(now)
	require.True(t, ok)
	assert.LessOrEqual(t, e.TimeMs, now.UnixMilli())
}

func TestToEventMapsQualityFlag(t *testing.T) {
	now := time.Now()
	good, ok := rawEvent{Lat: 10, Lon: -75, EnergyFJ: floatPtr(1), QualityFlag: boolPtr(true)}.toEvent(now)
	require.True(t, ok)
	assert.Equal(t, eventstore.QualityGood, good.QC)

	bad, ok := rawEvent{Lat: 10, Lon: -75, EnergyFJ: floatPtr(1), QualityFlag: boolPtr(false)}.toEvent(now)
	require.True(t, ok)
	assert.Equal(t, eventstore.QualityBad, bad.QC)

	unknown, ok := rawEvent{Lat: 10, Lon: -75, EnergyFJ: floatPtr(1)}.toEvent(now)
	require.True(t, ok)
	assert.Equal(t, eventstore.QualityUnknown, unknown.QC)
}
