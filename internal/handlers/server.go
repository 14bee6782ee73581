// Package handlers serves the console's JSON views on top of the fleet store
// and the backend client.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-console/internal/api"
	"github.com/ukydev/fleet-console/internal/db"
	"github.com/ukydev/fleet-console/internal/metrics"
	"github.com/ukydev/fleet-console/internal/middleware"
	"github.com/ukydev/fleet-console/internal/models"
	"github.com/ukydev/fleet-console/internal/session"
	"github.com/ukydev/fleet-console/internal/telemetry"
)

// Backend is the part of the API client the handlers call directly.
type Backend interface {
	Login(ctx context.Context, req models.LoginRequest) (session.Session, error)
	Register(ctx context.Context, req models.RegisterRequest) (string, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
	UpdateMe(ctx context.Context, in models.UserUpdate) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, in models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	VehiclesByStatus(ctx context.Context, status models.Status) ([]models.Vehicle, error)
	PredictMaintenance(ctx context.Context, vehicleID int64) (*models.VehiclePrediction, error)
	PredictAll(ctx context.Context) (*models.FleetPredictions, error)
	TrainModel(ctx context.Context) (*models.TrainResult, error)
}

// VehicleStore is the fleet store as seen by the handlers.
type VehicleStore interface {
	Load(ctx context.Context) error
	Loaded() bool
	Create(ctx context.Context, in models.VehicleInput) error
	Update(ctx context.Context, id int64, in models.VehicleInput) error
	Delete(ctx context.Context, id int64) error
	Snapshot() []models.Vehicle
	Get(id int64) (models.Vehicle, bool)
	Err() error
}

// Options tunes the server.
type Options struct {
	LoginRateLimit  int
	LoginRateWindow time.Duration
	// Frames serves telemetry history; nil disables it.
	Frames db.FrameCollection
	// Source feeds the mocked maintenance readings.
	Source telemetry.Source
	Now    func() time.Time
}

// Server holds the console's HTTP handlers.
type Server struct {
	backend  Backend
	store    VehicleStore
	sessions middleware.Sessions
	auth     *middleware.AuthMiddleware
	limiter  *middleware.RateLimitMiddleware
	opts     Options
}

// NewServer creates the handlers.
func NewServer(backend Backend, store VehicleStore, sessions middleware.Sessions, opts Options) *Server {
	if opts.LoginRateLimit <= 0 {
		opts.LoginRateLimit = 10
	}
	if opts.LoginRateWindow <= 0 {
		opts.LoginRateWindow = time.Minute
	}
	if opts.Source == nil {
		opts.Source = telemetry.DefaultSource
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		backend:  backend,
		store:    store,
		sessions: sessions,
		auth:     middleware.NewAuthMiddleware(sessions),
		limiter:  middleware.NewRateLimitMiddleware(),
		opts:     opts,
	}
}

// Routes returns the console's router.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.Health)
	metrics.RegisterMetrics(mux)
	mux.Handle("POST /login", s.limiter.RateLimit(s.opts.LoginRateLimit, s.opts.LoginRateWindow)(http.HandlerFunc(s.Login)))
	mux.HandleFunc("POST /register", s.Register)
	mux.HandleFunc("POST /logout", s.Logout)

	perm := func(action string, h http.HandlerFunc) http.Handler {
		return s.auth.Authenticate(s.auth.RequirePermission(action)(h))
	}
	role := func(h http.HandlerFunc, roles ...models.Role) http.Handler {
		return s.auth.Authenticate(s.auth.RequireRole(roles...)(h))
	}

	mux.Handle("GET /api/dashboard", s.auth.Authenticate(http.HandlerFunc(s.Dashboard)))
	mux.Handle("GET /api/telemetry", perm(models.ActionViewTelemetry, s.Telemetry))
	mux.Handle("GET /api/telemetry/{id}/history", perm(models.ActionViewTelemetry, s.TelemetryHistory))
	mux.Handle("DELETE /api/telemetry/history", role(s.PurgeTelemetryHistory, models.RoleAdmin))
	mux.Handle("GET /api/routes", perm(models.ActionViewRoutes, s.RoutePlan))

	mux.Handle("GET /api/vehicles", perm(models.ActionViewVehicles, s.ListVehicles))
	mux.Handle("POST /api/vehicles", perm(models.ActionManageVehicles, s.CreateVehicle))
	mux.Handle("GET /api/vehicles/{id}", perm(models.ActionViewVehicles, s.GetVehicle))
	mux.Handle("PUT /api/vehicles/{id}", perm(models.ActionManageVehicles, s.UpdateVehicle))
	mux.Handle("DELETE /api/vehicles/{id}", perm(models.ActionManageVehicles, s.DeleteVehicle))
	mux.Handle("GET /api/vehicles/status/{status}", perm(models.ActionViewVehicles, s.VehiclesByStatus))

	mux.Handle("GET /api/profile", perm(models.ActionViewOwnProfile, s.GetProfile))
	mux.Handle("PUT /api/profile", perm(models.ActionUpdateOwnProfile, s.UpdateProfile))

	mux.Handle("GET /api/users/{id}", perm(models.ActionManageUsers, s.GetUser))
	mux.Handle("PUT /api/users/{id}", perm(models.ActionManageUsers, s.UpdateUser))
	mux.Handle("DELETE /api/users/{id}", perm(models.ActionManageUsers, s.DeleteUser))

	mux.Handle("POST /api/maintenance/predict", perm(models.ActionViewMaintenance, s.PredictMaintenance))
	mux.Handle("GET /api/maintenance", perm(models.ActionViewMaintenance, s.PredictAll))
	mux.Handle("GET /api/maintenance/vehicles", perm(models.ActionViewMaintenance, s.MaintenanceVehicles))
	mux.Handle("POST /api/maintenance/train", role(s.TrainModel, models.RoleAdmin, models.RoleManager))

	return middleware.RequestLogger(mux)
}

// Health reports liveness and whether a session is active.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"authenticated": s.sessions.Authenticated(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeBackendError maps a backend or store failure onto a response.
func writeBackendError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	log.WithError(err).WithFields(log.Fields{
		"request_id": middleware.RequestID(r.Context()),
		"path":       r.URL.Path,
	}).Warn("Backend request failed")

	var apiErr *api.APIError
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":    middleware.MsgAuthRequired,
			"redirect": api.LoginPath,
		})
	case errors.Is(err, api.ErrNotFound):
		writeError(w, http.StatusNotFound, api.UserMessage(err, "Not found"))
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		writeError(w, apiErr.Status, api.UserMessage(err, fallback))
	default:
		writeError(w, http.StatusBadGateway, api.UserMessage(err, fallback))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

// ensureLoaded fetches the fleet on first use.
func (s *Server) ensureLoaded(ctx context.Context) {
	if s.store.Loaded() {
		return
	}
	_ = s.store.Load(ctx)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
