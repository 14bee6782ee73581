package handlers

import (
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-console/internal/db"
	"github.com/ukydev/fleet-console/internal/middleware"
	"github.com/ukydev/fleet-console/internal/models"
)

// Frame history page sizes.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// HistoryResponse is the body of GET /api/telemetry/{id}/history.
type HistoryResponse struct {
	VehicleID int64          `json:"vehicleId"`
	Frames    []models.Frame `json:"frames"`
}

// TelemetryHistory returns a vehicle's recorded frames, newest first.
// ?limit= caps the page.
func (s *Server) TelemetryHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.Frames == nil {
		writeError(w, http.StatusServiceUnavailable, "Telemetry history is not configured")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	limit := int64(DefaultHistoryLimit)
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.ParseInt(q, 10, 64)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, MaxHistoryLimit)
	}

	frames, err := db.RecentFrames(r.Context(), s.opts.Frames, id, limit)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"request_id": middleware.RequestID(r.Context()),
			"vehicle_id": id,
		}).Error("Failed to read telemetry history")
		writeError(w, http.StatusInternalServerError, "Failed to read telemetry history")
		return
	}
	if frames == nil {
		frames = []models.Frame{}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{VehicleID: id, Frames: frames})
}

// PurgeTelemetryHistory drops every recorded frame.
func (s *Server) PurgeTelemetryHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.Frames == nil {
		writeError(w, http.StatusServiceUnavailable, "Telemetry history is not configured")
		return
	}
	if err := s.opts.Frames.DeleteAll(r.Context()); err != nil {
		log.WithError(err).WithField("request_id", middleware.RequestID(r.Context())).
			Error("Failed to purge telemetry history")
		writeError(w, http.StatusInternalServerError, "Failed to purge telemetry history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
