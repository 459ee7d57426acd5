package tilerender

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcom-dev/zmanim/internal/aggregator"
	"github.com/jcom-dev/zmanim/internal/eventstore"
	"github.com/jcom-dev/zmanim/internal/projection"
)

func countNonTransparent(t *testing.T, data []byte) int {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	bounds := img.Bounds()
	count := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a != 0 {
				count++
			}
		}
	}
	return count
}

func TestRenderEmptyGridIsValidTransparentPNG(t *testing.T) {
	abi := projection.NewABIFixedGrid(-75.0)
	grid := aggregator.Aggregate(nil, aggregator.Params{Window: aggregator.DefaultWindow, Variant: aggregator.GridGeodetic}, abi, time.Now())

	data, err := Render(grid, abi, Identity{Z: 6, X: 11, Y: 27})
	require.NoError(t, err)
	assert.Greater(t, len(data), 0)
	assert.Equal(t, 0, countNonTransparent(t, data))
}

func TestRenderScenarioProducesVisiblePixels(t *testing.T) {
	now := time.Now()
	abi := projection.NewABIFixedGrid(-75.0)
	events := []eventstore.Event{
		{Lat: 32.22, Lon: -110.97, EnergyFJ: 800, TimeMs: now.UnixMilli()},
		{Lat: 32.23, Lon: -110.96, EnergyFJ: 1200, TimeMs: now.UnixMilli()},
	}
	grid := aggregator.Aggregate(events, aggregator.Params{Window: aggregator.DefaultWindow, Variant: aggregator.GridGeodetic}, abi, now)

	data, err := Render(grid, abi, Identity{Z: 6, X: 12, Y: 25})
	require.NoError(t, err)
	assert.Greater(t, len(data), 200)
	assert.Greater(t, countNonTransparent(t, data), 0)
}

func TestRenderQCFilterMonotonicPixelCount(t *testing.T) {
	now := time.Now()
	abi := projection.NewABIFixedGrid(-75.0)
	events := []eventstore.Event{
		{Lat: 10, Lon: -75, EnergyFJ: 1500, TimeMs: now.UnixMilli(), QC: eventstore.QualityGood},
		{Lat: 10, Lon: -75, EnergyFJ: 1500, TimeMs: now.UnixMilli(), QC: eventstore.QualityBad},
	}

	gridNoQC := aggregator.Aggregate(events, aggregator.Params{Window: aggregator.DefaultWindow, Variant: aggregator.GridGeodetic, QCStrict: false}, abi, now)
	gridQC := aggregator.Aggregate(events, aggregator.Params{Window: aggregator.DefaultWindow, Variant: aggregator.GridGeodetic, QCStrict: true}, abi, now)

	tile := Identity{Z: 6, X: 18, Y: 30}
	dataA, err := Render(gridNoQC, abi, tile)
	require.NoError(t, err)
	dataB, err := Render(gridQC, abi, tile)
	require.NoError(t, err)

	assert.LessOrEqual(t, countNonTransparent(t, dataB), countNonTransparent(t, dataA))
}

func TestABIModeDilatesIntoNeighborhood(t *testing.T) {
	now := time.Now()
	abi := projection.NewABIFixedGrid(-75.0)
	events := []eventstore.Event{
		{Lat: 0, Lon: -75, EnergyFJ: 1000, TimeMs: now.UnixMilli()},
	}
	grid := aggregator.Aggregate(events, aggregator.Params{Window: aggregator.DefaultWindow, Variant: aggregator.GridABI}, abi, now)

	data, err := Render(grid, abi, Identity{Z: 4, X: 4, Y: 7})
	require.NoError(t, err)
	// A single ABI cell should paint more than one pixel thanks to the 3x3 dilation.
	assert.Greater(t, countNonTransparent(t, data), 1)
}
