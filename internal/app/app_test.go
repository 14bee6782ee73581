package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-console/internal/backendtest"
	"github.com/ukydev/fleet-console/internal/config"
	"github.com/ukydev/fleet-console/internal/db"
	"github.com/ukydev/fleet-console/internal/models"
	"github.com/ukydev/fleet-console/internal/telemetry"
)

func testConfig(t *testing.T, apiURL string) config.Config {
	cfg := config.Default()
	cfg.APIBaseURL = apiURL
	cfg.RequestTimeout = time.Second
	cfg.SessionDir = ""
	cfg.SimTick = time.Hour
	return cfg
}

func TestSinks_NoneConfigured(t *testing.T) {
	sinks, closeAll := Sinks(context.Background(), testConfig(t, "http://localhost/api"))
	defer closeAll()
	assert.Empty(t, sinks)
}

func TestSinks_UnreachableAreSkipped(t *testing.T) {
	cfg := testConfig(t, "http://localhost/api")
	cfg.MongoURI = "not-a-mongo-uri"
	cfg.NATSURL = "nats://127.0.0.1:1"

	sinks, closeAll := Sinks(context.Background(), cfg)
	defer closeAll()
	assert.Empty(t, sinks)
}

func TestFrameHistory(t *testing.T) {
	assert.Nil(t, FrameHistory(nil))
	assert.Nil(t, FrameHistory([]telemetry.Sink{&telemetry.NATSSink{}}))

	coll := &db.MongoCollection{}
	got := FrameHistory([]telemetry.Sink{&telemetry.NATSSink{}, &telemetry.MongoSink{Collection: coll}})
	assert.Same(t, coll, got)
}

func TestOpenSessions_Persistent(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenSessions(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("token", "abc"))
	require.NoError(t, store.Close())

	store, err = OpenSessions(dir)
	require.NoError(t, err)
	defer store.Close()
	v, err := store.Get("token")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)
}

func TestNew_LoginLoadsAndSimulates(t *testing.T) {
	b := backendtest.New(models.Vehicle{
		ID: 1, VehicleNumber: "NF-001", Type: models.CategorySedan, Status: models.StatusInUse,
		BatteryLevel: models.Float(60), Speed: 30, HealthScore: 80,
	})
	srv := b.Start(t)

	a, err := New(context.Background(), testConfig(t, srv.URL+"/api"), nil)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	_, err = a.Client.Login(ctx, models.LoginRequest{Username: "driver", Password: "password", Role: models.RoleDriver})
	require.NoError(t, err)
	require.NoError(t, a.Store.Load(ctx))

	before, ok := a.Store.Get(1)
	require.True(t, ok)
	assert.True(t, a.Simulator.Step(ctx))
	after, ok := a.Store.Get(1)
	require.True(t, ok)
	assert.False(t, after.LastUpdate.Before(before.LastUpdate))
	assert.LessOrEqual(t, *after.BatteryLevel, 60.0)
}
