package httpapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcom-dev/zmanim/internal/aggregator"
)

func TestParseWindowDefaultsTo5Minutes(t *testing.T) {
	d, err := parseWindow("")
	require.NoError(t, err)
	assert.Equal(t, aggregator.DefaultWindow, d)
}

func TestParseWindowParsesEachSuffix(t *testing.T) {
	cases := map[string]time.Duration{
		"500ms": 500 * time.Millisecond,
		"30s":   30 * time.Second,
		"5m":    5 * time.Minute,
		"2h":    2 * time.Hour,
	}
	for raw, want := range cases {
		d, err := parseWindow(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, d, raw)
	}
}

func TestParseWindowRejectsUnknownSuffix(t *testing.T) {
	_, err := parseWindow("5x")
	assert.Error(t, err)
}

func TestParseEndTimeEmptyMeansNow(t *testing.T) {
	tm, err := parseEndTime("")
	require.NoError(t, err)
	assert.True(t, tm.IsZero())
}

func TestParseEndTimeParsesRFC3339(t *testing.T) {
	tm, err := parseEndTime("2025-08-28T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 2025, tm.Year())
}

func TestParseGridVariantHonorsAutoDefault(t *testing.T) {
	s := &Service{grid: GridConfig{UseABI: true}}
	assert.Equal(t, aggregator.GridABI, s.parseGridVariant("auto"))
	assert.Equal(t, aggregator.GridABI, s.parseGridVariant(""))
	assert.Equal(t, aggregator.GridGeodetic, s.parseGridVariant("geodetic"))
	assert.Equal(t, aggregator.GridABI, s.parseGridVariant("abi"))

	s2 := &Service{grid: GridConfig{UseABI: false}}
	assert.Equal(t, aggregator.GridGeodetic, s2.parseGridVariant("auto"))
}
