package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcom-dev/zmanim/internal/aggregator"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleHealth reports a liveness snapshot: current event/granule/cache
// counts, per spec.md §6.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	granulesCount := 0
	if s.poller != nil {
		granulesCount = s.poller.Status().GranulesSeen
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"events_count":    s.store.Len(),
		"granules_count":  granulesCount,
		"cache_size":      s.cache.Len(),
	})
}

// handleGridInfo reports the active grid variant and its geometry, per the
// supplemented grid/info diagnostic (SPEC_FULL.md §5).
func (s *Service) handleGridInfo(w http.ResponseWriter, r *http.Request) {
	gridType := "abi"
	cellSize := aggregator.CellSizeMeters
	if !s.grid.UseABI {
		gridType = "geodetic"
		cellSize = aggregator.CellSizeDegrees
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"grid_type":          gridType,
		"cell_size_m_or_deg": cellSize,
		"abi_lon0":           s.grid.ABILon0,
		"abi_enabled":        s.grid.UseABI,
	})
}

// handleStatus reports the event store and tile cache's current size plus
// the configured retention, for operational dashboards.
func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events_count": s.store.Len(),
		"cache_size":   s.cache.Len(),
		"retention":    s.retention.String(),
	})
}

// handleS3Status reports the background poller's last-tick health, per
// SPEC_FULL.md §5's /s3/status diagnostic.
func (s *Service) handleS3Status(w http.ResponseWriter, r *http.Request) {
	if s.poller == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"enabled": false,
		})
		return
	}
	status := s.poller.Status()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"enabled":        true,
		"last_tick_time": status.LastTickTime,
		"last_error":     status.LastError,
		"ticks_total":    status.TicksTotal,
		"granules_seen":  status.GranulesSeen,
	})
}

// handleTile serves GET /tiles/{z}/{x}/{y}.png.
func (s *Service) handleTile(w http.ResponseWriter, r *http.Request) {
	z, errZ := strconv.Atoi(chi.URLParam(r, "z"))
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	yRaw := strings.TrimSuffix(chi.URLParam(r, "y"), ".png")
	y, errY := strconv.Atoi(yRaw)
	if errZ != nil || errX != nil || errY != nil {
		writeError(w, http.StatusBadRequest, "invalid tile coordinates")
		return
	}

	window, err := parseWindow(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	endTime, err := parseEndTime(r.URL.Query().Get("t"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	qc, _ := strconv.ParseBool(firstNonEmpty(r.URL.Query().Get("qc"), "false"))
	variant := s.parseGridVariant(r.URL.Query().Get("grid_type"))

	params := aggregator.Params{
		Window:   window,
		EndTime:  endTime,
		QCStrict: qc,
		Variant:  variant,
	}

	now := time.Now()
	png, hit, err := s.renderTile(z, x, y, params, now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	if !endTime.IsZero() {
		w.Header().Set("Cache-Control", "public, max-age=300")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// handleIngest serves POST /ingest: a JSON array of raw events.
func (s *Service) handleIngest(w http.ResponseWriter, r *http.Request) {
	var raw []rawEvent
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result := s.ingestEvents(raw, time.Now())
	writeJSON(w, http.StatusOK, result)
}

// handleIngestFiles serves POST /ingest_files: a batch of filesystem paths
// or s3://bucket/key URIs.
func (s *Service) handleIngestFiles(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Paths []string `json:"paths"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	now := time.Now()
	result := ingestResult{Total: len(body.Paths)}
	for _, path := range body.Paths {
		n, err := s.ingestPath(r.Context(), path, now)
		if err != nil {
			result.Rejected++
			continue
		}
		result.Accepted += n
	}
	writeJSON(w, http.StatusOK, result)
}

// handleIngestS3 serves POST /ingest_s3: a bucket scan over a lookback
// window.
func (s *Service) handleIngestS3(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BucketName  string `json:"bucket_name"`
		HoursBack   int    `json:"hours_back"`
		MaxGranules int    `json:"max_granules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if body.BucketName == "" {
		body.BucketName = "noaa-goes16"
	}
	if body.HoursBack <= 0 {
		body.HoursBack = 2
	}

	result, err := s.ingestS3(r.Context(), body.BucketName, body.HoursBack, body.MaxGranules, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
