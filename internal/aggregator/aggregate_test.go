package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcom-dev/zmanim/internal/eventstore"
	"github.com/jcom-dev/zmanim/internal/projection"
)

func TestAggregateGeodeticEnergyPreserving(t *testing.T) {
	now := time.Now()
	events := []eventstore.Event{
		{Lat: 32.22, Lon: -110.97, EnergyFJ: 800, TimeMs: now.UnixMilli()},
		{Lat: 32.23, Lon: -110.96, EnergyFJ: 1200, TimeMs: now.UnixMilli()},
	}

	abi := projection.NewABIFixedGrid(-75.0)
	grid := Aggregate(events, Params{Window: DefaultWindow, Variant: GridGeodetic}, abi, now)

	assert.InDelta(t, 2000.0, grid.TotalEnergyFJ(), 1e-9)
}

func TestAggregateABIEnergyPreserving(t *testing.T) {
	now := time.Now()
	events := []eventstore.Event{
		{Lat: 0, Lon: -75, EnergyFJ: 1000, TimeMs: now.UnixMilli()},
		{Lat: 10, Lon: -75, EnergyFJ: 1500, TimeMs: now.UnixMilli()},
	}
	abi := projection.NewABIFixedGrid(-75.0)
	grid := Aggregate(events, Params{Window: DefaultWindow, Variant: GridABI}, abi, now)

	assert.InDelta(t, 2500.0, grid.TotalEnergyFJ(), 1e-9)
}

func TestAggregateDropsOffLimbEvents(t *testing.T) {
	now := time.Now()
	events := []eventstore.Event{
		{Lat: 0, Lon: 160, EnergyFJ: 1000, TimeMs: now.UnixMilli()}, // off limb for GOES-East
	}
	abi := projection.NewABIFixedGrid(-75.0)
	grid := Aggregate(events, Params{Window: DefaultWindow, Variant: GridABI}, abi, now)

	assert.Equal(t, 0.0, grid.TotalEnergyFJ())
}

func TestAggregateWindowFilterIsIdempotent(t *testing.T) {
	now := time.Now()
	events := []eventstore.Event{
		{Lat: 1, Lon: 1, EnergyFJ: 5, TimeMs: now.Add(-2 * time.Minute).UnixMilli()},
		{Lat: 1, Lon: 1, EnergyFJ: 7, TimeMs: now.Add(-10 * time.Minute).UnixMilli()},
	}
	abi := projection.NewABIFixedGrid(-75.0)
	params := Params{Window: 5 * time.Minute, EndTime: now, Variant: GridGeodetic}

	g1 := Aggregate(events, params, abi, now)
	g2 := Aggregate(events, params, abi, now)

	assert.Equal(t, g1.TotalEnergyFJ(), g2.TotalEnergyFJ())
	assert.InDelta(t, 5.0, g1.TotalEnergyFJ(), 1e-9)
}

func TestAggregateQCFilterMonotonicity(t *testing.T) {
	now := time.Now()
	events := []eventstore.Event{
		{Lat: 10, Lon: -75, EnergyFJ: 1500, TimeMs: now.UnixMilli(), QC: eventstore.QualityGood},
		{Lat: 10, Lon: -75, EnergyFJ: 1500, TimeMs: now.UnixMilli(), QC: eventstore.QualityBad},
	}
	abi := projection.NewABIFixedGrid(-75.0)

	withQC := Aggregate(events, Params{Window: DefaultWindow, QCStrict: true, Variant: GridGeodetic}, abi, now)
	withoutQC := Aggregate(events, Params{Window: DefaultWindow, QCStrict: false, Variant: GridGeodetic}, abi, now)

	assert.LessOrEqual(t, withQC.TotalEnergyFJ(), withoutQC.TotalEnergyFJ())
	assert.InDelta(t, 1500.0, withQC.TotalEnergyFJ(), 1e-9)
	assert.InDelta(t, 3000.0, withoutQC.TotalEnergyFJ(), 1e-9)
}

func TestMinWindowEnforced(t *testing.T) {
	now := time.Now()
	startMs, endMs := WindowBounds(Params{Window: 10 * time.Second}, now)
	require.Equal(t, int64(MinWindow/time.Millisecond), endMs-startMs)
}
