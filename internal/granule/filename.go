package granule

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Metadata is everything recoverable from a granule's filename:
// OR_GLM-L2-LCFA_G1x_sYYYYDDDHHMMSSs_eYYYYDDDHHMMSSs_cYYYYDDDHHMMSSs.nc
type Metadata struct {
	Satellite    string
	StartTime    time.Time
	EndTime      time.Time
	CreationTime time.Time
}

// ParseFilename extracts Metadata from a granule path. On any parse failure
// it falls back to satellite "G16" and now for every timestamp, matching the
// tolerant fallback documented for the ingester.
func ParseFilename(path string, now time.Time) Metadata {
	base := filepath.Base(path)
	parts := strings.Split(base, "_")
	if len(parts) < 6 {
		return fallbackMetadata(now)
	}

	satellite := parts[2]
	start, errStart := parseGranuleTimestamp(strings.TrimPrefix(parts[3], "s"))
	end, errEnd := parseGranuleTimestamp(strings.TrimPrefix(parts[4], "e"))

	creationField := parts[5]
	if ext := filepath.Ext(creationField); ext != "" {
		creationField = strings.TrimSuffix(creationField, ext)
	}
	creation, errCreation := parseGranuleTimestamp(strings.TrimPrefix(creationField, "c"))

	if errStart != nil || errEnd != nil || errCreation != nil {
		return fallbackMetadata(now)
	}

	return Metadata{
		Satellite:    satellite,
		StartTime:    start,
		EndTime:      end,
		CreationTime: creation,
	}
}

func fallbackMetadata(now time.Time) Metadata {
	return Metadata{Satellite: "G16", StartTime: now, EndTime: now, CreationTime: now}
}

// parseGranuleTimestamp decodes the "YYYYDDDHHMMSS" (plus a trailing tenths
// digit, ignored) fields NOAA embeds in granule filenames.
func parseGranuleTimestamp(field string) (time.Time, error) {
	if len(field) < 13 {
		return time.Time{}, fmt.Errorf("granule: timestamp field %q too short", field)
	}

	year, e1 := strconv.Atoi(field[0:4])
	doy, e2 := strconv.Atoi(field[4:7])
	hour, e3 := strconv.Atoi(field[7:9])
	minute, e4 := strconv.Atoi(field[9:11])
	second, e5 := strconv.Atoi(field[11:13])
	if e1 != nil || e2 != nil || e3 != nil || e4 != nil || e5 != nil {
		return time.Time{}, fmt.Errorf("granule: non-numeric timestamp field %q", field)
	}
	if doy < 1 {
		return time.Time{}, fmt.Errorf("granule: day-of-year out of range in %q", field)
	}

	base := time.Date(year, time.January, 1, hour, minute, second, 0, time.UTC)
	return base.AddDate(0, 0, doy-1), nil
}
