package handlers

import (
	"net/http"

	"github.com/ukydev/fleet-console/internal/dashboard"
	"github.com/ukydev/fleet-console/internal/fleet"
	"github.com/ukydev/fleet-console/internal/middleware"
	"github.com/ukydev/fleet-console/internal/models"
)

// VehicleList is the vehicle collection with the store's error state.
type VehicleList struct {
	Vehicles []models.Vehicle `json:"vehicles"`
	Error    string           `json:"error,omitempty"`
}

// DashboardResponse is a role view plus the store's error state.
type DashboardResponse struct {
	dashboard.View
	Error string `json:"error,omitempty"`
}

// TelemetryResponse lists the live cards of in-use vehicles.
type TelemetryResponse struct {
	Summary dashboard.Summary `json:"summary"`
	Cards   []dashboard.Card  `json:"cards"`
	Error   string            `json:"error,omitempty"`
}

// Dashboard renders the signed-in role's dashboard.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, middleware.MsgAuthRequired)
		return
	}
	s.ensureLoaded(r.Context())

	view, err := dashboard.ViewFor(sess.Role, s.store.Snapshot())
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, DashboardResponse{View: view, Error: errText(s.store.Err())})
}

// Telemetry returns the simulated telemetry cards.
func (s *Server) Telemetry(w http.ResponseWriter, r *http.Request) {
	s.ensureLoaded(r.Context())
	vehicles := s.store.Snapshot()
	writeJSON(w, http.StatusOK, TelemetryResponse{
		Summary: dashboard.Summarize(vehicles),
		Cards:   dashboard.TelemetryCards(vehicles),
		Error:   errText(s.store.Err()),
	})
}

// ListVehicles returns the fleet. ?q= filters by number, model or
// manufacturer; ?refresh=true reloads from the backend first.
func (s *Server) ListVehicles(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "true" {
		_ = s.store.Load(r.Context())
	} else {
		s.ensureLoaded(r.Context())
	}
	vehicles := dashboard.Filter(s.store.Snapshot(), r.URL.Query().Get("q"))
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	writeJSON(w, http.StatusOK, VehicleList{Vehicles: vehicles, Error: errText(s.store.Err())})
}

// GetVehicle returns one vehicle from the store.
func (s *Server) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.ensureLoaded(r.Context())
	v, found := s.store.Get(id)
	if !found {
		writeError(w, http.StatusNotFound, "Vehicle not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// CreateVehicle creates a vehicle and returns the reloaded fleet.
func (s *Server) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var in models.VehicleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.Create(r.Context(), in); err != nil {
		writeBackendError(w, r, err, fleet.MsgSaveFailed)
		return
	}
	writeJSON(w, http.StatusCreated, VehicleList{Vehicles: s.store.Snapshot()})
}

// UpdateVehicle overwrites a vehicle and returns the reloaded fleet.
func (s *Server) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.VehicleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.Update(r.Context(), id, in); err != nil {
		writeBackendError(w, r, err, fleet.MsgSaveFailed)
		return
	}
	writeJSON(w, http.StatusOK, VehicleList{Vehicles: s.store.Snapshot()})
}

// DeleteVehicle deletes a vehicle and returns the reloaded fleet.
func (s *Server) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeBackendError(w, r, err, fleet.MsgDeleteFailed)
		return
	}
	writeJSON(w, http.StatusOK, VehicleList{Vehicles: s.store.Snapshot()})
}

// VehiclesByStatus asks the backend for the vehicles with a status.
func (s *Server) VehiclesByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := models.ParseStatus(r.PathValue("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	vehicles, err := s.backend.VehiclesByStatus(r.Context(), status)
	if err != nil {
		writeBackendError(w, r, err, "Failed to fetch vehicles.")
		return
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	writeJSON(w, http.StatusOK, VehicleList{Vehicles: vehicles})
}
