package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-console/internal/api"
	"github.com/ukydev/fleet-console/internal/backendtest"
	"github.com/ukydev/fleet-console/internal/fleet"
	"github.com/ukydev/fleet-console/internal/models"
	"github.com/ukydev/fleet-console/internal/session"
)

func testFleet() []models.Vehicle {
	return []models.Vehicle{
		{ID: 1, VehicleNumber: "NF-001", Manufacturer: "Tesla", Model: "Model 3", Type: models.CategorySedan,
			Status: models.StatusInUse, BatteryLevel: models.Float(50), Speed: 40, HealthScore: 90},
		{ID: 2, VehicleNumber: "NF-002", Manufacturer: "Ford", Model: "Transit", Type: models.CategoryVan,
			Status: models.StatusMaintenance, FuelLevel: models.Float(20), HealthScore: 45},
	}
}

type harness struct {
	backend *backendtest.Backend
	srv     *httptest.Server
	session *session.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, Options{LoginRateLimit: 100})
}

func newHarnessWith(t *testing.T, opts Options) *harness {
	t.Helper()
	b := backendtest.New(testFleet()...)
	bsrv := b.Start(t)

	mgr := session.NewManager(session.NewMemoryStore())
	client := api.NewClient(bsrv.URL+"/api", 2*time.Second, mgr)
	store := fleet.NewStore(client, nil, time.Second)
	t.Cleanup(store.Close)

	srv := httptest.NewServer(NewServer(client, store, mgr, opts).Routes())
	t.Cleanup(srv.Close)
	return &harness{backend: b, srv: srv, session: mgr}
}

func (h *harness) do(t *testing.T, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	return h.doWithHeader(t, method, path, body, nil)
}

func (h *harness) doWithHeader(t *testing.T, method, path string, body interface{}, header http.Header) (*http.Response, []byte) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, h.srv.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := h.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func (h *harness) login(t *testing.T, role models.Role) {
	t.Helper()
	resp, body := h.do(t, "POST", "/login", models.LoginRequest{Username: string(role), Password: "password", Role: role})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func decode(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, v), string(data))
}

func validInput() models.VehicleInput {
	return models.VehicleInput{
		VehicleNumber: "NF-010", Manufacturer: "BYD", Model: "Dolphin",
		Type: models.CategorySedan, Status: models.StatusAvailable,
		BatteryLevel: models.Float(75), HealthScore: 100,
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	resp, body := h.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var out map[string]interface{}
	decode(t, body, &out)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, false, out["authenticated"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	resp, body := h.do(t, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestGate_RedirectsToLogin(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{"/api/dashboard", "/api/vehicles", "/api/telemetry", "/api/profile"} {
		resp, body := h.do(t, "GET", path, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		var out map[string]string
		decode(t, body, &out)
		assert.Equal(t, "/login", out["redirect"])
	}
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, "POST", "/login", models.LoginRequest{Username: "manager", Password: "password", Role: models.RoleManager})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out LoginResult
	decode(t, body, &out)
	assert.Equal(t, LoginResult{ID: 2, Username: "manager", Role: models.RoleManager, Redirect: "/dashboard"}, out)

	sess, err := h.session.Current()
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, sess.Role)
}

func TestLogin_Failures(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, "POST", "/login", models.LoginRequest{Username: "admin", Password: "nope", Role: models.RoleAdmin})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "Invalid username or password!")

	resp, body = h.do(t, "POST", "/login", models.LoginRequest{Username: "admin", Password: "password", Role: models.RoleDriver})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "does not have the selected role")

	resp, _ = h.do(t, "POST", "/login", models.LoginRequest{Username: "admin", Password: "password", Role: "pilot"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.do(t, "POST", "/login", models.LoginRequest{Role: models.RoleAdmin})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.False(t, h.session.Authenticated())
}

func TestDashboard_PerRole(t *testing.T) {
	tests := []struct {
		role      models.Role
		firstMenu string
		summary   bool
	}{
		{models.RoleAdmin, "Users", true},
		{models.RoleManager, "Fleet", true},
		{models.RoleDriver, "My Schedule", false},
		{models.RoleCustomer, "Book Ride", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			h := newHarness(t)
			h.login(t, tt.role)

			resp, body := h.do(t, "GET", "/api/dashboard", nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			var out DashboardResponse
			decode(t, body, &out)
			assert.Equal(t, tt.role, out.Role)
			assert.Equal(t, tt.firstMenu, out.Menu[0].Name)
			assert.Equal(t, tt.summary, out.Summary != nil)
			assert.Empty(t, out.Error)
		})
	}
}

func TestPermissions(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.RoleCustomer)

	resp, _ := h.do(t, "GET", "/api/vehicles", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.do(t, "POST", "/api/vehicles", validInput())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = h.do(t, "GET", "/api/telemetry", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = h.do(t, "GET", "/api/users/1", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = h.do(t, "POST", "/api/maintenance/train", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestVehicleCRUD(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.RoleManager)

	resp, body := h.do(t, "POST", "/api/vehicles", validInput())
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var list VehicleList
	decode(t, body, &list)
	require.Len(t, list.Vehicles, 3)
	assert.Equal(t, "NF-010", list.Vehicles[2].VehicleNumber)

	in := validInput()
	in.Status = models.StatusInUse
	resp, body = h.do(t, "PUT", "/api/vehicles/3", in)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = h.do(t, "GET", "/api/vehicles/3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v models.Vehicle
	decode(t, body, &v)
	assert.Equal(t, models.StatusInUse, v.Status)

	resp, body = h.do(t, "DELETE", "/api/vehicles/2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, body, &list)
	assert.Len(t, list.Vehicles, 2)

	resp, _ = h.do(t, "GET", "/api/vehicles/2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = h.do(t, "GET", "/api/vehicles/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVehicleCreate_Rejects(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.RoleAdmin)

	bad := validInput()
	bad.FuelLevel = models.Float(30)
	resp, body := h.do(t, "POST", "/api/vehicles", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "exactly one")

	h.backend.FailWrites = true
	resp, body = h.do(t, "POST", "/api/vehicles", validInput())
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(body), "write failed")

	resp, body = h.do(t, "GET", "/api/vehicles", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list VehicleList
	decode(t, body, &list)
	assert.Len(t, list.Vehicles, 2)
}

func TestListVehicles_FilterAndFailure(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.RoleAdmin)

	resp, body := h.do(t, "GET", "/api/vehicles?q=ford", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list VehicleList
	decode(t, body, &list)
	require.Len(t, list.Vehicles, 1)
	assert.Equal(t, int64(2), list.Vehicles[0].ID)

	h.backend.FailList = true
	_, body = h.do(t, "GET", "/api/vehicles?refresh=true", nil)
	decode(t, body, &list)
	assert.Empty(t, list.Vehicles)
	assert.Equal(t, fleet.MsgFetchFailed, list.Error)
}

func TestBackendUnauthorizedEndsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.RoleAdmin)
	require.True(t, h.session.Authenticated())

	h.backend.Unauthorized = true
	_, body := h.do(t, "GET", "/api/vehicles?refresh=true", nil)
	var list VehicleList
	decode(t, body, &list)
	assert.Equal(t, fleet.MsgAuthRequired, list.Error)
	assert.False(t, h.session.Authenticated())

	resp, _ := h.do(t, "GET", "/api/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVehiclesByStatus(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.RoleDriver)

	resp, body := h.do(t, "GET", "/api/vehicles/status/in_use", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list VehicleList
	decode(t, body, &list)
	require.Len(t, list.Vehicles, 1)
	assert.Equal(t, int64(1), list.Vehicles[0].ID)

	resp, _ = h.do(t, "GET", "/api/vehicles/status/parked", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTelemetry(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.RoleManager)

	resp, body := h.do(t, "GET", "/api/telemetry", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out TelemetryResponse
	decode(t, body, &out)
	require.Len(t, out.Cards, 1)
	assert.Equal(t, "battery", out.Cards[0].EnergyKind)
	assert.Equal(t, 2, out.Summary.Total)
}

func TestMaintenance(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.RoleDriver)

	resp, body := h.do(t, "POST", "/api/maintenance/predict", map[string]int64{"vehicleId": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var pred models.VehiclePrediction
	decode(t, body, &pred)
	assert.True(t, pred.Prediction.NeedsMaintenance)

	resp, _ = h.do(t, "POST", "/api/maintenance/predict", map[string]int64{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = h.do(t, "POST", "/api/maintenance/predict", map[string]int64{"vehicleId": 99})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Vehicle not found")

	resp, body = h.do(t, "GET", "/api/maintenance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all models.FleetPredictions
	decode(t, body, &all)
	assert.Equal(t, 2, all.Count)

	resp, _ = h.do(t, "POST", "/api/maintenance/train", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTrainModel_Manager(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.RoleManager)

	resp, body := h.do(t, "POST", "/api/maintenance/train", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res models.TrainResult
	decode(t, body, &res)
	assert.Equal(t, 2, res.VehicleCount)
}

func TestUsersAndProfile(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.RoleAdmin)

	resp, body := h.do(t, "GET", "/api/users/3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var u models.User
	decode(t, body, &u)
	assert.Equal(t, models.RoleDriver, u.Role)

	resp, _ = h.do(t, "GET", "/api/users/42", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = h.do(t, "DELETE", "/api/users/4", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = h.do(t, "GET", "/api/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, body, &u)
	assert.Equal(t, "admin", u.Username)

	resp, body = h.do(t, "PUT", "/api/profile", models.UserUpdate{FirstName: "Ada"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, body, &u)
	assert.Equal(t, "Ada", u.FirstName)

	resp, _ = h.do(t, "PUT", "/api/profile", models.UserUpdate{Email: "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegister(t *testing.T) {
	h := newHarness(t)

	req := map[string]string{
		"username": "newbie", "email": "newbie@example.com", "password": "secret1",
		"confirmPassword": "secret2", "role": "driver",
	}
	resp, _ := h.do(t, "POST", "/register", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req["confirmPassword"] = "secret1"
	resp, body := h.do(t, "POST", "/register", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "User registered successfully!")

	resp, body = h.do(t, "POST", "/register", req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "already taken")

	resp, _ = h.do(t, "POST", "/login", models.LoginRequest{Username: "newbie", Password: "secret1", Role: models.RoleDriver})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.RoleAdmin)

	resp, _ := h.do(t, "POST", "/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, h.session.Authenticated())

	resp, _ = h.do(t, "GET", "/api/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginRateLimit(t *testing.T) {
	b := backendtest.New()
	bsrv := b.Start(t)
	mgr := session.NewManager(session.NewMemoryStore())
	client := api.NewClient(bsrv.URL+"/api", time.Second, mgr)
	srv := httptest.NewServer(NewServer(client, fleet.NewStore(client, nil, time.Second), mgr,
		Options{LoginRateLimit: 2, LoginRateWindow: time.Minute}).Routes())
	defer srv.Close()

	h := &harness{backend: b, srv: srv, session: mgr}
	bad := models.LoginRequest{Username: "admin", Password: "wrong", Role: models.RoleAdmin}
	for i := 0; i < 2; i++ {
		resp, _ := h.do(t, "POST", "/login", bad)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
	resp, _ := h.do(t, "POST", "/login", bad)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
