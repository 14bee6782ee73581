package fleet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-console/internal/api"
	"github.com/ukydev/fleet-console/internal/backendtest"
	"github.com/ukydev/fleet-console/internal/models"
	"github.com/ukydev/fleet-console/internal/session"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).([]models.Vehicle)
	return v, args.Error(1)
}

func (m *MockBackend) CreateVehicle(ctx context.Context, in models.VehicleInput) (*models.Vehicle, error) {
	args := m.Called(ctx, in)
	v, _ := args.Get(0).(*models.Vehicle)
	return v, args.Error(1)
}

func (m *MockBackend) UpdateVehicle(ctx context.Context, id int64, in models.VehicleInput) (*models.Vehicle, error) {
	args := m.Called(ctx, id, in)
	v, _ := args.Get(0).(*models.Vehicle)
	return v, args.Error(1)
}

func (m *MockBackend) DeleteVehicle(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type chanNavigator chan string

func (c chanNavigator) Navigate(path string) { c <- path }

func fleet() []models.Vehicle {
	return []models.Vehicle{
		{ID: 1, VehicleNumber: "NF-001", Manufacturer: "Tesla", Model: "Model 3", Type: models.CategorySedan,
			Status: models.StatusInUse, BatteryLevel: models.Float(50), Speed: 40, HealthScore: 90},
		{ID: 2, VehicleNumber: "NF-002", Manufacturer: "Ford", Model: "Transit", Type: models.CategoryVan,
			Status: models.StatusMaintenance, FuelLevel: models.Float(20), HealthScore: 45},
		{ID: 3, VehicleNumber: "NF-003", Manufacturer: "Rivian", Model: "R1S", Type: models.CategorySUV,
			Status: models.StatusAvailable, BatteryLevel: models.Float(88), HealthScore: 97},
	}
}

func validInput() models.VehicleInput {
	return models.VehicleInput{
		VehicleNumber: "NF-010",
		Manufacturer:  "BYD",
		Model:         "Dolphin",
		Type:          models.CategorySedan,
		Status:        models.StatusAvailable,
		BatteryLevel:  models.Float(75),
		HealthScore:   100,
	}
}

func TestStore_LoadStampsLastUpdate(t *testing.T) {
	m := new(MockBackend)
	m.On("ListVehicles", mock.Anything).Return(fleet(), nil)

	s := NewStore(m, nil, time.Second)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Load(context.Background()))
	assert.True(t, s.Loaded())
	assert.NoError(t, s.Err())

	got := s.Snapshot()
	require.Len(t, got, 3)
	for i, v := range got {
		assert.Equal(t, fleet()[i].ID, v.ID, "backend order preserved")
		assert.Equal(t, now, v.LastUpdate)
	}
	m.AssertExpectations(t)
}

func TestStore_LoadFailureEmptiesCollection(t *testing.T) {
	m := new(MockBackend)
	m.On("ListVehicles", mock.Anything).Return(fleet(), nil).Once()
	m.On("ListVehicles", mock.Anything).Return(nil, errors.New("connection refused")).Once()

	s := NewStore(m, nil, time.Second)
	require.NoError(t, s.Load(context.Background()))
	require.Len(t, s.Snapshot(), 3)

	err := s.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgFetchFailed, err.Error())
	assert.Empty(t, s.Snapshot())
	assert.Equal(t, MsgFetchFailed, s.Err().Error())
}

func TestStore_LoadUnauthorizedRedirectsAfterDelay(t *testing.T) {
	m := new(MockBackend)
	m.On("ListVehicles", mock.Anything).Return(nil, api.ErrUnauthorized)

	nav := make(chanNavigator, 1)
	s := NewStore(m, nav, 20*time.Millisecond)
	defer s.Close()

	err := s.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgAuthRequired, err.Error())
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	select {
	case p := <-nav:
		t.Fatalf("navigated to %s before the delay", p)
	default:
	}

	select {
	case p := <-nav:
		assert.Equal(t, api.LoginPath, p)
	case <-time.After(time.Second):
		t.Fatal("expected navigation to the login view")
	}
}

func TestStore_CloseCancelsRedirect(t *testing.T) {
	m := new(MockBackend)
	m.On("ListVehicles", mock.Anything).Return(nil, api.ErrUnauthorized)

	nav := make(chanNavigator, 1)
	s := NewStore(m, nav, 50*time.Millisecond)
	_ = s.Load(context.Background())
	s.Close()

	select {
	case p := <-nav:
		t.Fatalf("unexpected navigation to %s", p)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStore_CreateReloads(t *testing.T) {
	in := validInput()
	created := append(fleet(), models.Vehicle{ID: 4, VehicleNumber: in.VehicleNumber, Status: in.Status, BatteryLevel: in.BatteryLevel})

	m := new(MockBackend)
	m.On("CreateVehicle", mock.Anything, in).Return(&created[3], nil)
	m.On("ListVehicles", mock.Anything).Return(created, nil)

	s := NewStore(m, nil, time.Second)
	require.NoError(t, s.Create(context.Background(), in))

	v, ok := s.Get(4)
	require.True(t, ok)
	assert.Equal(t, "NF-010", v.VehicleNumber)
	m.AssertExpectations(t)
}

func TestStore_CreateRejectsInvalidInput(t *testing.T) {
	m := new(MockBackend)
	s := NewStore(m, nil, time.Second)

	in := validInput()
	in.FuelLevel = models.Float(10)

	err := s.Create(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrEnergyExclusive)
	m.AssertNotCalled(t, "CreateVehicle", mock.Anything, mock.Anything)
}

func TestStore_SaveFailureKeepsCollection(t *testing.T) {
	m := new(MockBackend)
	m.On("ListVehicles", mock.Anything).Return(fleet(), nil).Once()
	m.On("UpdateVehicle", mock.Anything, int64(2), mock.Anything).Return(nil, errors.New("boom"))

	s := NewStore(m, nil, time.Second)
	require.NoError(t, s.Load(context.Background()))
	before := s.Snapshot()

	err := s.Update(context.Background(), 2, validInput())
	require.Error(t, err)
	assert.Equal(t, MsgSaveFailed, err.Error())
	assert.Equal(t, before, s.Snapshot())
	m.AssertNumberOfCalls(t, "ListVehicles", 1)
}

func TestStore_DeleteFailureKeepsCollection(t *testing.T) {
	m := new(MockBackend)
	m.On("ListVehicles", mock.Anything).Return(fleet(), nil).Once()
	m.On("DeleteVehicle", mock.Anything, int64(1)).Return(&api.APIError{Status: 500})

	s := NewStore(m, nil, time.Second)
	require.NoError(t, s.Load(context.Background()))

	err := s.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, MsgDeleteFailed, err.Error())
	assert.Len(t, s.Snapshot(), 3)
}

func TestStore_ByStatus(t *testing.T) {
	m := new(MockBackend)
	m.On("ListVehicles", mock.Anything).Return(fleet(), nil)

	s := NewStore(m, nil, time.Second)
	require.NoError(t, s.Load(context.Background()))

	inUse := s.ByStatus(models.StatusInUse)
	require.Len(t, inUse, 1)
	assert.Equal(t, int64(1), inUse[0].ID)
	assert.Empty(t, s.ByStatus(models.Status("PARKED")))
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	m := new(MockBackend)
	m.On("ListVehicles", mock.Anything).Return(fleet(), nil)

	s := NewStore(m, nil, time.Second)
	require.NoError(t, s.Load(context.Background()))

	snap := s.Snapshot()
	*snap[0].BatteryLevel = 1
	snap[0].Speed = 79

	v, _ := s.Get(1)
	assert.Equal(t, 50.0, *v.BatteryLevel)
	assert.Equal(t, 40.0, v.Speed)
}

func TestStore_ApplyRejectsResize(t *testing.T) {
	m := new(MockBackend)
	m.On("ListVehicles", mock.Anything).Return(fleet(), nil)

	s := NewStore(m, nil, time.Second)
	require.NoError(t, s.Load(context.Background()))

	got := s.Apply(func(vs []models.Vehicle) []models.Vehicle { return vs[:1] })
	assert.Len(t, got, 3)

	got = s.Apply(func(vs []models.Vehicle) []models.Vehicle {
		vs[1].Speed = 12
		return vs
	})
	assert.Equal(t, 12.0, got[1].Speed)
	v, _ := s.Get(2)
	assert.Equal(t, 12.0, v.Speed)
}

func TestStore_ConcurrentReadsDuringApply(t *testing.T) {
	m := new(MockBackend)
	m.On("ListVehicles", mock.Anything).Return(fleet(), nil)

	s := NewStore(m, nil, time.Second)
	require.NoError(t, s.Load(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Apply(func(vs []models.Vehicle) []models.Vehicle {
				for j := range vs {
					vs[j].Speed++
				}
				return vs
			})
		}()
		go func() {
			defer wg.Done()
			assert.Len(t, s.Snapshot(), 3)
		}()
	}
	wg.Wait()

	v, _ := s.Get(3)
	assert.Equal(t, 8.0, v.Speed)
}

// Round trip through the HTTP client and the fake backend.
func TestStore_DeleteThenLoadAgainstBackend(t *testing.T) {
	b := backendtest.New(fleet()...)
	srv := b.Start(t)

	c := api.NewClient(srv.URL+"/api", 2*time.Second, session.NewManager(session.NewMemoryStore()))
	_, err := c.Login(context.Background(), models.LoginRequest{Username: "manager", Password: "password", Role: models.RoleManager})
	require.NoError(t, err)

	s := NewStore(c, nil, time.Second)
	require.NoError(t, s.Load(context.Background()))
	require.Len(t, s.Snapshot(), 3)

	require.NoError(t, s.Delete(context.Background(), 2))
	_, ok := s.Get(2)
	assert.False(t, ok)
	assert.Len(t, s.Snapshot(), 2)

	require.NoError(t, s.Create(context.Background(), validInput()))
	assert.Len(t, s.Snapshot(), 3)
	assert.Len(t, b.Vehicles(), 3)

	b.FailList = true
	require.Error(t, s.Load(context.Background()))
	assert.Empty(t, s.Snapshot())
}
