package telemetry

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-console/internal/metrics"
	"github.com/ukydev/fleet-console/internal/models"
)

// ErrAlreadyStarted is returned by Start when the simulator is running.
var ErrAlreadyStarted = errors.New("simulator already started")

// Fleet is the collection the simulator advances. fleet.Store implements it.
type Fleet interface {
	Apply(fn func([]models.Vehicle) []models.Vehicle) []models.Vehicle
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithSource replaces the random source.
func WithSource(src Source) Option {
	return func(s *Simulator) { s.src = src }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithSinks sets where frames are published.
func WithSinks(sinks ...Sink) Option {
	return func(s *Simulator) { s.sinks = MultiSink(sinks) }
}

// Simulator advances the fleet on a fixed period. It is owned by its caller:
// either Start and Stop it, or hand Run to an errgroup.
type Simulator struct {
	fleet    Fleet
	interval time.Duration
	src      Source
	now      func() time.Time
	sinks    MultiSink

	stepping atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSimulator creates a simulator ticking every interval.
func NewSimulator(fleet Fleet, interval time.Duration, opts ...Option) *Simulator {
	s := &Simulator{
		fleet:    fleet,
		interval: interval,
		src:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks until ctx is cancelled. It always returns nil so that an errgroup
// does not tear down its siblings on a clean shutdown.
func (s *Simulator) Run(ctx context.Context) error {
	log.WithField("interval", s.interval).Info("Telemetry simulation started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("Telemetry simulation stopped")
			return nil
		case <-ticker.C:
			s.Step(ctx)
		}
	}
}

// Start runs the simulator in its own goroutine.
func (s *Simulator) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	return nil
}

// Stop cancels the loop and waits for it to exit. Stopping a simulator that
// is not running is a no-op.
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Step applies one tick and publishes the frames of the vehicles it moved.
// A step that starts while another is still running is skipped; Step then
// returns false.
func (s *Simulator) Step(ctx context.Context) bool {
	if !s.stepping.CompareAndSwap(false, true) {
		metrics.SimTicksSkipped.Inc()
		log.Debug("Previous simulation tick still running, skipping")
		return false
	}
	defer s.stepping.Store(false)

	now := s.now()
	var frames []models.Frame
	s.fleet.Apply(func(vehicles []models.Vehicle) []models.Vehicle {
		next := Tick(vehicles, s.src, now)
		for i := range next {
			if next[i].Status == models.StatusInUse {
				frames = append(frames, models.FrameOf(&next[i]))
			}
		}
		return next
	})

	metrics.SimTicks.Inc()
	metrics.SimVehiclesMutated.Add(float64(len(frames)))

	if len(frames) > 0 && len(s.sinks) > 0 {
		// MultiSink logs and counts each failure.
		_ = s.sinks.Publish(ctx, frames)
	}
	return true
}
