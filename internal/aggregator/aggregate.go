package aggregator

import (
	"math"
	"time"

	"github.com/jcom-dev/zmanim/internal/eventstore"
)

// DefaultWindow and MinWindow bound the window query parameter per spec:
// default 5 minutes, minimum 1 minute.
const (
	DefaultWindow = 5 * time.Minute
	MinWindow     = 1 * time.Minute
)

// ABIProjector is the forward-projection half of projection.ABIFixedGrid —
// Aggregate only ever projects WGS84 into ABI meters, so it only needs this
// much of the projection's surface (the inverse is Grid.Resolve's
// ABIInverter).
type ABIProjector interface {
	Forward(lonDeg, latDeg float64) (x, y float64, err error)
}

// Params configures a single aggregation run.
type Params struct {
	Window   time.Duration // clamped to >= MinWindow by Aggregate
	EndTime  time.Time     // zero value means "now"
	QCStrict bool
	Variant  GridVariant
}

// clampWindow enforces the minimum window per spec.md §4.5.
func clampWindow(w time.Duration) time.Duration {
	if w < MinWindow {
		return MinWindow
	}
	return w
}

// Aggregate filters events to the requested time window and quality
// setting, then bins surviving events' energy onto the requested grid
// variant. The result is energy-preserving: the sum over all cells equals
// the sum over every surviving event's energy (property tested in
// aggregate_test.go).
func Aggregate(events []eventstore.Event, params Params, abi ABIProjector, now time.Time) *Grid {
	window := clampWindow(params.Window)

	end := params.EndTime
	if end.IsZero() {
		end = now
	}
	endMs := end.UnixMilli()
	startMs := end.Add(-window).UnixMilli()

	grid := newGrid(params.Variant)

	for _, e := range events {
		if e.TimeMs < startMs || e.TimeMs > endMs {
			continue
		}
		if params.QCStrict && e.QC == eventstore.QualityBad {
			continue
		}

		switch params.Variant {
		case GridGeodetic:
			if e.Lat < -90 || e.Lat > 90 || e.Lon < -180 || e.Lon > 180 {
				continue
			}
			ilat := int(math.Floor((e.Lat + 90.0) / CellSizeDegrees))
			ilon := int(math.Floor((e.Lon + 180.0) / CellSizeDegrees))
			grid.add(ilat, ilon, e.EnergyFJ)
		default: // GridABI
			x, y, err := abi.Forward(e.Lon, e.Lat)
			if err != nil || !finite(x) || !finite(y) {
				continue
			}
			gx := int(math.Floor(x / CellSizeMeters))
			gy := int(math.Floor(y / CellSizeMeters))
			grid.add(gx, gy, e.EnergyFJ)
		}
	}

	return grid
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// WindowBounds reports the [start, end] instants (ms since epoch) a Params
// resolves to against a given "now" — exposed so handlers/diagnostics can
// report the effective window without duplicating the clamp logic.
func WindowBounds(params Params, now time.Time) (startMs, endMs int64) {
	window := clampWindow(params.Window)
	end := params.EndTime
	if end.IsZero() {
		end = now
	}
	return end.Add(-window).UnixMilli(), end.UnixMilli()
}
