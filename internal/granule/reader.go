// Package granule reads GLM L2 LCFA event records out of NetCDF granule
// files, tolerating the handful of variable-naming and time-encoding
// conventions NOAA's pipeline has used across satellite generations.
package granule

import (
	"time"

	"github.com/jcom-dev/zmanim/internal/eventstore"
)

var (
	latAliases    = []string{"event_lat", "event_latitude", "lat"}
	lonAliases    = []string{"event_lon", "event_longitude", "lon"}
	energyAliases = []string{"event_energy", "event_energy_j", "energy"}
	qcAliases     = []string{"event_quality_flag", "event_quality", "event_data_quality"}
)

// joulesToFJ converts the NetCDF energy unit (Joules) to the store's
// internal femtojoule unit.
const joulesToFJ = 1e15

// ExtractEvents reads every valid event out of ds, normalizing energy to
// femtojoules and resolving per-event timestamps. Missing latitude,
// longitude, or energy variables yield an empty (not error) result, per the
// documented extraction contract. Events outside the valid lat/lon range or
// with negative energy are silently dropped.
func ExtractEvents(ds Dataset, meta Metadata) []eventstore.Event {
	lats, ok := ds.Float64Variable(latAliases...)
	if !ok {
		return nil
	}
	lons, ok := ds.Float64Variable(lonAliases...)
	if !ok {
		return nil
	}
	energiesJ, ok := ds.Float64Variable(energyAliases...)
	if !ok {
		return nil
	}

	n := len(lats)
	if len(lons) < n {
		n = len(lons)
	}
	if len(energiesJ) < n {
		n = len(energiesJ)
	}
	if n <= 0 {
		return nil
	}

	qcRaw, hasQC := ds.IntVariable(qcAliases...)
	times := decodeTimes(ds, meta, n)

	out := make([]eventstore.Event, 0, n)
	for i := 0; i < n; i++ {
		lat, lon, energyJ := lats[i], lons[i], energiesJ[i]
		if lat < -90.0 || lat > 90.0 || lon < -180.0 || lon > 180.0 {
			continue
		}
		if energyJ < 0.0 {
			continue
		}

		qc := eventstore.QualityUnknown
		if hasQC && i < len(qcRaw) {
			switch qcRaw[i] {
			case 1:
				qc = eventstore.QualityGood
			case 0:
				qc = eventstore.QualityBad
			}
		}

		out = append(out, eventstore.Event{
			Lat:      lat,
			Lon:      lon,
			EnergyFJ: energyJ * joulesToFJ,
			TimeMs:   times[i],
			QC:       qc,
		})
	}
	return out
}

// Result bundles the events extracted from one granule with its
// filename-derived metadata.
type Result struct {
	Metadata Metadata
	Events   []eventstore.Event
}

// ReadFile opens a local granule file, extracts its events, and closes the
// dataset before returning.
func ReadFile(path string, now time.Time) (Result, error) {
	meta := ParseFilename(path, now)

	ds, err := openFile(path)
	if err != nil {
		return Result{Metadata: meta}, err
	}
	defer ds.Close()

	return Result{Metadata: meta, Events: ExtractEvents(ds, meta)}, nil
}
