// Package backendtest provides an in-memory stand-in for the fleet REST
// backend, for tests of the packages that consume it.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ukydev/fleet-console/internal/auth"
	"github.com/ukydev/fleet-console/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Token is the bearer token the fake backend hands out and accepts. It is a
// JWT that does not expire before 2100.
var Token = mustToken()

func mustToken() string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "backendtest",
		"exp": time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC).Unix(),
	}).SignedString([]byte("backendtest"))
	if err != nil {
		panic(err)
	}
	return token
}

type account struct {
	user models.User
	hash []byte
}

func newAccount(u models.User, password string) *account {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return &account{user: u, hash: hash}
}

func (a *account) checkPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(a.hash, []byte(password)) == nil
}

// Backend is a fake fleet backend. Its exported fields may be changed between
// requests to inject failures.
type Backend struct {
	mu       sync.Mutex
	vehicles map[int64]models.Vehicle
	accounts map[string]*account
	nextID   int64

	// Unauthorized makes every authenticated route answer 401.
	Unauthorized bool
	// FailWrites makes vehicle create, update and delete answer 500.
	FailWrites bool
	// FailList makes GET /vehicles answer 500.
	FailList bool

	requests []*http.Request
}

// New returns a backend holding the given vehicles and one account per role,
// each with username equal to the role and password "password". Passwords are
// kept as bcrypt hashes.
func New(vehicles ...models.Vehicle) *Backend {
	b := &Backend{
		vehicles: make(map[int64]models.Vehicle),
		accounts: make(map[string]*account),
		nextID:   1,
	}
	for _, v := range vehicles {
		b.vehicles[v.ID] = v.Clone()
		if v.ID >= b.nextID {
			b.nextID = v.ID + 1
		}
	}
	for i, r := range models.Roles {
		b.accounts[string(r)] = newAccount(
			models.User{ID: int64(i + 1), Username: string(r), Email: string(r) + "@neurofleetx.test", Role: r},
			"password",
		)
	}
	return b
}

// Start serves the backend until the test ends. Clients should use URL+"/api".
func (b *Backend) Start(t testing.TB) *httptest.Server {
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(srv.Close)
	return srv
}

// Vehicles returns the backend's vehicles ordered by id.
func (b *Backend) Vehicles() []models.Vehicle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sorted()
}

// Requests returns the requests received so far.
func (b *Backend) Requests() []*http.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*http.Request(nil), b.requests...)
}

func (b *Backend) sorted() []models.Vehicle {
	out := make([]models.Vehicle, 0, len(b.vehicles))
	for _, v := range b.vehicles {
		out = append(out, v.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Handler returns the backend's routes.
func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", b.login)
	mux.HandleFunc("POST /api/auth/register", b.register)

	mux.Handle("GET /api/vehicles", b.authed(b.listVehicles))
	mux.Handle("POST /api/vehicles", b.authed(b.createVehicle))
	mux.Handle("GET /api/vehicles/{id}", b.authed(b.getVehicle))
	mux.Handle("PUT /api/vehicles/{id}", b.authed(b.updateVehicle))
	mux.Handle("DELETE /api/vehicles/{id}", b.authed(b.deleteVehicle))
	mux.Handle("GET /api/vehicles/status/{status}", b.authed(b.vehiclesByStatus))

	mux.Handle("GET /api/users/me", b.authed(b.me))
	mux.Handle("PUT /api/users/me", b.authed(b.updateMe))
	mux.Handle("POST /api/users/logout", b.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Logged out"})
	}))
	mux.Handle("GET /api/users/{id}", b.authed(b.getUser))
	mux.Handle("PUT /api/users/{id}", b.authed(b.getUser))
	mux.Handle("DELETE /api/users/{id}", b.authed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	mux.Handle("POST /api/ai/predict/maintenance", b.authed(b.predict))
	mux.Handle("GET /api/ai/predict/maintenance/all", b.authed(b.predictAll))
	mux.Handle("POST /api/ai/train", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		n := len(b.vehicles)
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, models.TrainResult{
			Message:      "AI model trained successfully with " + strconv.Itoa(n) + " vehicles",
			VehicleCount: n,
		})
	}))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Clone(r.Context()))
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

func (b *Backend) authed(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		unauthorized := b.Unauthorized
		b.mu.Unlock()
		token, err := auth.ExtractTokenFromHeader(r.Header.Get("Authorization"))
		if unauthorized || err != nil || token != Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		next(w, r)
	})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Message: "Invalid JSON"})
		return
	}
	b.mu.Lock()
	acc, ok := b.accounts[req.Username]
	b.mu.Unlock()
	if !ok || !acc.checkPassword(req.Password) {
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Message: "Invalid username or password!"})
		return
	}
	if acc.user.Role != req.Role {
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Message: "User does not have the selected role!"})
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token:    Token,
		Type:     "Bearer",
		ID:       acc.user.ID,
		Username: acc.user.Username,
		Role:     string(acc.user.Role),
	})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Message: "Invalid JSON"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[req.Username]; exists {
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Message: "Error: Username is already taken!"})
		return
	}
	b.accounts[req.Username] = newAccount(
		models.User{ID: int64(len(b.accounts) + 1), Username: req.Username, Email: req.Email, Role: req.Role},
		req.Password,
	)
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "User registered successfully!"})
}

func (b *Backend) listVehicles(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailList {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, b.sorted())
}

func (b *Backend) getVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	v, found := b.vehicles[id]
	b.mu.Unlock()
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (b *Backend) createVehicle(w http.ResponseWriter, r *http.Request) {
	var in models.VehicleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Message: "Invalid JSON"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWrites {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "write failed"})
		return
	}
	v := fromInput(b.nextID, in)
	b.vehicles[v.ID] = v
	b.nextID++
	writeJSON(w, http.StatusOK, v)
}

func (b *Backend) updateVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.VehicleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Message: "Invalid JSON"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWrites {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "write failed"})
		return
	}
	if _, found := b.vehicles[id]; !found {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	v := fromInput(id, in)
	b.vehicles[id] = v
	writeJSON(w, http.StatusOK, v)
}

func (b *Backend) deleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWrites {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "write failed"})
		return
	}
	delete(b.vehicles, id)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) vehiclesByStatus(w http.ResponseWriter, r *http.Request) {
	status := models.Status(r.PathValue("status"))
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.Vehicle{}
	for _, v := range b.sorted() {
		if v.Status == status {
			out = append(out, v)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.accounts[string(models.RoleAdmin)].user)
}

func (b *Backend) updateMe(w http.ResponseWriter, r *http.Request) {
	var in models.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, models.MessageResponse{Message: "Invalid JSON"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u := &b.accounts[string(models.RoleAdmin)].user
	if in.Email != "" {
		u.Email = in.Email
	}
	if in.FirstName != "" {
		u.FirstName = in.FirstName
	}
	if in.LastName != "" {
		u.LastName = in.LastName
	}
	writeJSON(w, http.StatusOK, *u)
}

func (b *Backend) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acc := range b.accounts {
		if acc.user.ID == id {
			writeJSON(w, http.StatusOK, acc.user)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (b *Backend) predict(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VehicleID int64 `json:"vehicleId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}
	b.mu.Lock()
	v, found := b.vehicles[req.VehicleID]
	b.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Vehicle not found"})
		return
	}
	writeJSON(w, http.StatusOK, models.VehiclePrediction{VehicleID: v.ID, Prediction: Prediction(v)})
}

func (b *Backend) predictAll(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := models.FleetPredictions{Predictions: make(map[int64]models.MaintenancePrediction)}
	for id, v := range b.vehicles {
		out.Predictions[id] = Prediction(v)
	}
	out.Count = len(b.vehicles)
	writeJSON(w, http.StatusOK, out)
}

// Prediction is the canned prediction the fake backend returns for v: a
// vehicle needs maintenance when its health score is below 60.
func Prediction(v models.Vehicle) models.MaintenancePrediction {
	p := models.MaintenancePrediction{
		MaintenanceType:    "Routine Checkup",
		PredictedDays:      60,
		Probability:        0.3,
		Confidence:         0.5,
		Components:         models.ComponentHealth{Engine: "Good", Battery: "Good", Tires: "Good", Brakes: "Good"},
		RecommendedActions: []string{"Regular monitoring"},
	}
	if v.HealthScore < 60 {
		p.NeedsMaintenance = true
		p.MaintenanceType = "Comprehensive Check"
		p.PredictedDays = 7
		p.Probability = 0.9
	}
	return p
}

func fromInput(id int64, in models.VehicleInput) models.Vehicle {
	return models.Vehicle{
		ID:            id,
		VehicleNumber: in.VehicleNumber,
		Model:         in.Model,
		Manufacturer:  in.Manufacturer,
		Type:          in.Type,
		Status:        in.Status,
		BatteryLevel:  in.BatteryLevel,
		FuelLevel:     in.FuelLevel,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		HealthScore:   in.HealthScore,
		Speed:         in.Speed,
		Mileage:       in.Mileage,
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
