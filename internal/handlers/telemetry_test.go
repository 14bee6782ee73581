package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-console/internal/dashboard"
	"github.com/ukydev/fleet-console/internal/db"
	"github.com/ukydev/fleet-console/internal/models"
)

// memFrames is an in-memory frame collection, newest frame last.
type memFrames struct {
	frames  []models.Frame
	findErr error
	filters []db.FrameFilter
}

func (m *memFrames) InsertFrames(_ context.Context, frames []models.Frame) error {
	m.frames = append(m.frames, frames...)
	return nil
}

func (m *memFrames) FindFrames(_ context.Context, filter db.FrameFilter) (db.FrameCursor, error) {
	m.filters = append(m.filters, filter)
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []models.Frame
	for i := len(m.frames) - 1; i >= 0; i-- {
		if filter.VehicleID != 0 && m.frames[i].VehicleID != filter.VehicleID {
			continue
		}
		if filter.Limit > 0 && int64(len(out)) == filter.Limit {
			break
		}
		out = append(out, m.frames[i])
	}
	return &frameCursor{frames: out}, nil
}

func (m *memFrames) DeleteAll(context.Context) error {
	m.frames = nil
	return nil
}

type frameCursor struct {
	frames []models.Frame
}

func (c *frameCursor) All(_ context.Context, out interface{}) error {
	*out.(*[]models.Frame) = c.frames
	return nil
}

func (c *frameCursor) Close(context.Context) error { return nil }

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func TestTelemetryHistory(t *testing.T) {
	frames := &memFrames{frames: []models.Frame{
		{VehicleID: 1, Speed: 10},
		{VehicleID: 2, Speed: 99},
		{VehicleID: 1, Speed: 20},
		{VehicleID: 1, Speed: 30},
	}}
	h := newHarnessWith(t, Options{LoginRateLimit: 100, Frames: frames})
	h.login(t, models.RoleDriver)

	resp, body := h.do(t, "GET", "/api/telemetry/1/history?limit=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out HistoryResponse
	decode(t, body, &out)
	assert.Equal(t, int64(1), out.VehicleID)
	require.Len(t, out.Frames, 2)
	assert.Equal(t, 30.0, out.Frames[0].Speed)
	assert.Equal(t, 20.0, out.Frames[1].Speed)

	resp, body = h.do(t, "GET", "/api/telemetry/7/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"frames":[]`)

	resp, _ = h.do(t, "GET", "/api/telemetry/1/history?limit=100000", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, db.FrameFilter{VehicleID: 1, Limit: MaxHistoryLimit}, frames.filters[len(frames.filters)-1])
	assert.Equal(t, db.FrameFilter{VehicleID: 7, Limit: DefaultHistoryLimit}, frames.filters[1])

	resp, _ = h.do(t, "GET", "/api/telemetry/1/history?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = h.do(t, "GET", "/api/telemetry/x/history", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	frames.findErr = errors.New("connection reset")
	resp, body = h.do(t, "GET", "/api/telemetry/1/history", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, string(body), "connection reset")
}

func TestTelemetryHistory_NotConfigured(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.RoleAdmin)

	resp, _ := h.do(t, "GET", "/api/telemetry/1/history", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp, _ = h.do(t, "DELETE", "/api/telemetry/history", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestPurgeTelemetryHistory(t *testing.T) {
	frames := &memFrames{frames: []models.Frame{{VehicleID: 1}, {VehicleID: 2}}}
	h := newHarnessWith(t, Options{LoginRateLimit: 100, Frames: frames})

	h.login(t, models.RoleManager)
	resp, _ := h.do(t, "DELETE", "/api/telemetry/history", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Len(t, frames.frames, 2)

	h.login(t, models.RoleAdmin)
	resp, _ = h.do(t, "DELETE", "/api/telemetry/history", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, frames.frames)
}

func TestRoutePlan(t *testing.T) {
	h := newHarness(t)
	h.login(t, models.RoleDriver)

	resp, body := h.do(t, "GET", "/api/routes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var plan dashboard.RoutePlan
	decode(t, body, &plan)
	assert.Equal(t, dashboard.Routes(), plan)

	h.login(t, models.RoleCustomer)
	resp, _ = h.do(t, "GET", "/api/routes", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMaintenanceVehicles(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	h := newHarnessWith(t, Options{
		LoginRateLimit: 100,
		Source:         fixedSource(0),
		Now:            func() time.Time { return now },
	})
	h.login(t, models.RoleManager)

	resp, body := h.do(t, "GET", "/api/maintenance/vehicles", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var out MaintenanceResponse
	decode(t, body, &out)
	require.Len(t, out.Readings, 2)
	assert.Equal(t, "NF-001", out.Readings[0].VehicleNumber)
	assert.Nil(t, out.Readings[0].EngineHealth)
	require.NotNil(t, out.Readings[1].EngineHealth)
	assert.Equal(t, 40, *out.Readings[1].EngineHealth)
	assert.Equal(t, "2026-03-01", out.Readings[0].NextMaintenance)
	assert.Equal(t, dashboard.ServiceCritical, out.Readings[0].Status)
	assert.Equal(t, 2, out.DueSoon)
	assert.Equal(t, 2, out.WithAlerts)

	h.login(t, models.RoleCustomer)
	resp, _ = h.do(t, "GET", "/api/maintenance/vehicles", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestBackendErrorLogsRequestID(t *testing.T) {
	hook := logtest.NewGlobal()
	defer log.StandardLogger().ReplaceHooks(make(log.LevelHooks))

	h := newHarness(t)
	h.login(t, models.RoleAdmin)
	h.backend.FailWrites = true

	resp, _ := h.doWithHeader(t, "POST", "/api/vehicles", validInput(), http.Header{"X-Request-ID": {"req-42"}})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "Backend request failed" {
			found = true
			assert.Equal(t, "req-42", e.Data["request_id"])
			assert.Equal(t, "/api/vehicles", e.Data["path"])
		}
	}
	assert.True(t, found, "backend failure was not logged")
}
