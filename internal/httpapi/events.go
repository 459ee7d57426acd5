package httpapi

import (
	"math"
	"time"

	"github.com/jcom-dev/zmanim/internal/eventstore"
)

// rawEvent is the wire shape POST /ingest accepts. EnergyJ and EnergyFJ are
// alternatives — spec.md §9 resolves the energy-unit ambiguity by accepting
// either and coercing to the store's internal femtojoule unit.
type rawEvent struct {
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	EnergyJ      *float64 `json:"energy_j"`
	EnergyFJ     *float64 `json:"energy_fj"`
	TimestampMs  *int64   `json:"timestamp"`
	QualityFlag  *bool    `json:"quality_flag"`
}

const joulesToFJ = 1e15

// toEvent validates and converts a rawEvent into an eventstore.Event. ok is
// false if the record fails any invariant from spec.md §3 (coordinate
// ranges, finite non-negative energy, no usable energy field at all).
func (r rawEvent) toEvent(now time.Time) (eventstore.Event, bool) {
	if r.Lat < -90 || r.Lat > 90 || r.Lon < -180 || r.Lon > 180 {
		return eventstore.Event{}, false
	}

	var energyFJ float64
	switch {
	case r.EnergyFJ != nil:
		energyFJ = *r.EnergyFJ
	case r.EnergyJ != nil:
		energyFJ = *r.EnergyJ * joulesToFJ
	default:
		return eventstore.Event{}, false
	}
	if math.IsNaN(energyFJ) || math.IsInf(energyFJ, 0) || energyFJ < 0 {
		return eventstore.Event{}, false
	}

	timeMs := now.UnixMilli()
	if r.TimestampMs != nil {
		timeMs = *r.TimestampMs
	}
	if timeMs > now.UnixMilli() {
		timeMs = now.UnixMilli()
	}

	qc := eventstore.QualityUnknown
	if r.QualityFlag != nil {
		if *r.QualityFlag {
			qc = eventstore.QualityGood
		} else {
			qc = eventstore.QualityBad
		}
	}

	return eventstore.Event{
		Lat:      r.Lat,
		Lon:      r.Lon,
		EnergyFJ: energyFJ,
		TimeMs:   timeMs,
		QC:       qc,
	}, true
}
