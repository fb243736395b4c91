package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/protobuf/encoding/prototext"

	"github.com/theoremus-urban-solutions/gtfsrt-locator/formatter"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/locator"
	"github.com/theoremus-urban-solutions/gtfsrt-locator/nearest"
)

type healthResponse struct {
	Status                  string     `json:"status"`
	LatestGTFSRealtimeEpoch int64      `json:"latest_gtfsrt_epoch"`
	UpdatedAt               *time.Time `json:"updated_at,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:                  "waiting",
		LatestGTFSRealtimeEpoch: int64(s.opts.State.Watermark()),
	}
	if s.opts.State.Message() != nil {
		resp.Status = "ok"
		at := s.opts.State.UpdatedAt().UTC()
		resp.UpdatedAt = &at
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleNearest returns the latest result, or resolves ?lat=&lon= against the
// latest feed message. ?format= selects json (default), xml, text, siri or
// siri-xml.
func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")

	var res locator.Result
	if q.Has("lat") || q.Has("lon") {
		ref, err := parseCoordinate(q.Get("lat"), q.Get("lon"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		fm := s.opts.State.Message()
		if fm == nil {
			writeError(w, http.StatusServiceUnavailable, "no feed message received yet")
			return
		}
		res = locator.Resolve(r.Context(), fm, ref, s.opts.Store, s.logger)
	} else {
		latest, ok := s.opts.State.Result()
		if !ok {
			writeError(w, http.StatusServiceUnavailable, "no result available yet")
			return
		}
		res = latest
	}

	body, contentType, err := s.builder.Build(formatter.WrapResult(res, s.opts.Producer, s.opts.PollInterval), format)
	switch {
	case errors.Is(err, formatter.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("failed to render nearest result", "id", res.ID, "format", format, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleFeedText(w http.ResponseWriter, r *http.Request) {
	fm := s.opts.State.Message()
	if fm == nil {
		writeError(w, http.StatusServiceUnavailable, "no feed message received yet")
		return
	}
	body, err := prototext.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(fm)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func parseCoordinate(latStr, lonStr string) (nearest.Coordinate, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nearest.Coordinate{}, errInvalidParam("lat", latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nearest.Coordinate{}, errInvalidParam("lon", lonStr)
	}
	if !isFinite(lat) {
		return nearest.Coordinate{}, errInvalidParam("lat", latStr)
	}
	if !isFinite(lon) {
		return nearest.Coordinate{}, errInvalidParam("lon", lonStr)
	}
	if lat < -90 || lat > 90 {
		return nearest.Coordinate{}, errInvalidParam("lat", latStr)
	}
	if lon < -180 || lon > 180 {
		return nearest.Coordinate{}, errInvalidParam("lon", lonStr)
	}
	return nearest.Coordinate{Latitude: lat, Longitude: lon}, nil
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

type paramError struct{ name, value string }

func (e paramError) Error() string { return "invalid " + e.name + " " + strconv.Quote(e.value) }

func errInvalidParam(name, value string) error { return paramError{name, value} }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error":     msg,
		"timestamp": time.Now().UTC(),
	})
}
