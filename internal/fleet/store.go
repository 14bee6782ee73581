package fleet

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-console/internal/api"
	"github.com/ukydev/fleet-console/internal/metrics"
	"github.com/ukydev/fleet-console/internal/models"
)

// Messages surfaced in the store's error state.
const (
	MsgAuthRequired = "Authentication required. Please log in."
	MsgFetchFailed  = "Failed to fetch vehicles from the backend. Using empty list."
	MsgSaveFailed   = "Failed to save vehicle."
	MsgDeleteFailed = "Failed to delete vehicle."
)

// Backend is the part of the API client the store needs.
type Backend interface {
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
	CreateVehicle(ctx context.Context, in models.VehicleInput) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id int64, in models.VehicleInput) (*models.Vehicle, error)
	DeleteVehicle(ctx context.Context, id int64) error
}

// Error is the store's user-visible error state.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Store is a fetch-once, mutate-locally cache of the fleet for one view
// session. The backend stays authoritative: every write goes to the backend
// and is followed by a full reload.
type Store struct {
	backend       Backend
	navigator     api.Navigator
	redirectDelay time.Duration
	now           func() time.Time

	mu       sync.RWMutex
	vehicles []models.Vehicle
	err      *Error
	loaded   bool

	redirectMu sync.Mutex
	redirect   *time.Timer
}

// NewStore creates an empty store. navigator may be nil.
func NewStore(backend Backend, navigator api.Navigator, redirectDelay time.Duration) *Store {
	return &Store{
		backend:       backend,
		navigator:     navigator,
		redirectDelay: redirectDelay,
		now:           time.Now,
	}
}

// Load replaces the whole collection with the backend's. On an
// authentication failure it schedules navigation to the login view; on any
// other failure the collection is emptied.
func (s *Store) Load(ctx context.Context) error {
	vehicles, err := s.backend.ListVehicles(ctx)
	if err != nil {
		return s.loadFailed(err)
	}

	stamp := s.now()
	for i := range vehicles {
		vehicles[i].LastUpdate = stamp
	}

	s.mu.Lock()
	s.vehicles = vehicles
	s.err = nil
	s.loaded = true
	s.mu.Unlock()

	metrics.StoreLoads.WithLabelValues("ok").Inc()
	metrics.StoreVehicles.Set(float64(len(vehicles)))
	log.WithField("vehicles", len(vehicles)).Debug("Vehicle store loaded")
	return nil
}

func (s *Store) loadFailed(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		metrics.StoreLoads.WithLabelValues("unauthorized").Inc()
		s.setErr(&Error{Message: MsgAuthRequired, Err: err})
		s.scheduleLoginRedirect()
		return s.Err()
	}

	metrics.StoreLoads.WithLabelValues("error").Inc()
	log.WithError(err).Error("Error fetching vehicles")
	s.mu.Lock()
	s.vehicles = nil
	s.err = &Error{Message: MsgFetchFailed, Err: err}
	s.mu.Unlock()
	metrics.StoreVehicles.Set(0)
	return s.Err()
}

// Create creates a vehicle and reloads.
func (s *Store) Create(ctx context.Context, in models.VehicleInput) error {
	if err := in.Validate(); err != nil {
		return s.writeFailed(MsgSaveFailed, err)
	}
	if _, err := s.backend.CreateVehicle(ctx, in); err != nil {
		return s.writeFailed(MsgSaveFailed, err)
	}
	return s.Load(ctx)
}

// Update overwrites vehicle id and reloads.
func (s *Store) Update(ctx context.Context, id int64, in models.VehicleInput) error {
	if err := in.Validate(); err != nil {
		return s.writeFailed(MsgSaveFailed, err)
	}
	if _, err := s.backend.UpdateVehicle(ctx, id, in); err != nil {
		return s.writeFailed(MsgSaveFailed, err)
	}
	return s.Load(ctx)
}

// Delete removes vehicle id and reloads.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.backend.DeleteVehicle(ctx, id); err != nil {
		return s.writeFailed(MsgDeleteFailed, err)
	}
	return s.Load(ctx)
}

// writeFailed records the error and leaves the collection untouched.
func (s *Store) writeFailed(msg string, err error) error {
	log.WithError(err).Error(msg)
	s.setErr(&Error{Message: api.UserMessage(err, msg), Err: err})
	if errors.Is(err, api.ErrUnauthorized) {
		s.scheduleLoginRedirect()
	}
	return s.Err()
}

func (s *Store) setErr(e *Error) {
	s.mu.Lock()
	s.err = e
	s.mu.Unlock()
}

// scheduleLoginRedirect navigates to the login view after the redirect delay.
// Only one redirect is pending at a time.
func (s *Store) scheduleLoginRedirect() {
	if s.navigator == nil {
		return
	}
	s.redirectMu.Lock()
	defer s.redirectMu.Unlock()
	if s.redirect != nil {
		return
	}
	s.redirect = time.AfterFunc(s.redirectDelay, func() {
		s.redirectMu.Lock()
		s.redirect = nil
		s.redirectMu.Unlock()
		s.navigator.Navigate(api.LoginPath)
	})
}

// Close cancels a pending login redirect.
func (s *Store) Close() {
	s.redirectMu.Lock()
	defer s.redirectMu.Unlock()
	if s.redirect != nil {
		s.redirect.Stop()
		s.redirect = nil
	}
}

// Err returns the current error state, or nil.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err == nil {
		return nil
	}
	return s.err
}

// Loaded reports whether a load has ever succeeded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Snapshot returns a copy of the collection in backend order.
func (s *Store) Snapshot() []models.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.vehicles)
}

// Get returns vehicle id from the local collection.
func (s *Store) Get(id int64) (models.Vehicle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.vehicles {
		if v.ID == id {
			return v.Clone(), true
		}
	}
	return models.Vehicle{}, false
}

// ByStatus returns the local vehicles with the given status.
func (s *Store) ByStatus(status models.Status) []models.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Vehicle
	for _, v := range s.vehicles {
		if v.Status == status {
			out = append(out, v.Clone())
		}
	}
	return out
}

// Apply replaces the collection with fn's result under the write lock. fn
// receives a copy and must return a collection of the same length and order.
func (s *Store) Apply(fn func([]models.Vehicle) []models.Vehicle) []models.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(cloneAll(s.vehicles))
	if len(next) != len(s.vehicles) {
		log.WithFields(log.Fields{"before": len(s.vehicles), "after": len(next)}).
			Error("Store update changed the collection size, ignoring")
		return cloneAll(s.vehicles)
	}
	s.vehicles = next
	return cloneAll(next)
}

func cloneAll(in []models.Vehicle) []models.Vehicle {
	if in == nil {
		return nil
	}
	out := make([]models.Vehicle, len(in))
	for i, v := range in {
		out[i] = v.Clone()
	}
	return out
}
