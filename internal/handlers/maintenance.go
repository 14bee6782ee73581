package handlers

import (
	"net/http"

	"github.com/ukydev/fleet-console/internal/dashboard"
)

type predictRequest struct {
	VehicleID int64 `json:"vehicleId"`
}

// PredictMaintenance asks the backend about one vehicle.
func (s *Server) PredictMaintenance(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.VehicleID <= 0 {
		writeError(w, http.StatusBadRequest, "vehicleId is required")
		return
	}
	pred, err := s.backend.PredictMaintenance(r.Context(), req.VehicleID)
	if err != nil {
		writeBackendError(w, r, err, "Failed to predict maintenance.")
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

// PredictAll returns predictions for the whole fleet.
func (s *Server) PredictAll(w http.ResponseWriter, r *http.Request) {
	preds, err := s.backend.PredictAll(r.Context())
	if err != nil {
		writeBackendError(w, r, err, "Failed to load maintenance predictions.")
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

// TrainModel retrains the backend's model.
func (s *Server) TrainModel(w http.ResponseWriter, r *http.Request) {
	res, err := s.backend.TrainModel(r.Context())
	if err != nil {
		writeBackendError(w, r, err, "Failed to train model.")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// MaintenanceVehicles returns mocked component readings and alerts for the
// fleet.
func (s *Server) MaintenanceVehicles(w http.ResponseWriter, r *http.Request) {
	s.ensureLoaded(r.Context())
	overview := dashboard.MaintenanceReadings(s.store.Snapshot(), s.opts.Source, s.opts.Now())
	writeJSON(w, http.StatusOK, MaintenanceResponse{MaintenanceOverview: overview, Error: errText(s.store.Err())})
}

// MaintenanceResponse is the body of GET /api/maintenance/vehicles.
type MaintenanceResponse struct {
	dashboard.MaintenanceOverview
	Error string `json:"error,omitempty"`
}

// RoutePlan returns the route-optimization view.
func (s *Server) RoutePlan(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dashboard.Routes())
}
