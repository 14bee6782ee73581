package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-console/internal/db"
	"github.com/ukydev/fleet-console/internal/metrics"
	"github.com/ukydev/fleet-console/internal/models"
)

// Sink receives the frames produced by one tick.
type Sink interface {
	Name() string
	Publish(ctx context.Context, frames []models.Frame) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, frames []models.Frame) error

func (f SinkFunc) Name() string { return "func" }

func (f SinkFunc) Publish(ctx context.Context, frames []models.Frame) error {
	return f(ctx, frames)
}

// MultiSink publishes to every sink. One sink failing does not stop the
// others; the failures are joined.
type MultiSink []Sink

func (m MultiSink) Name() string { return "multi" }

func (m MultiSink) Publish(ctx context.Context, frames []models.Frame) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, frames); err != nil {
			metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
			log.WithFields(log.Fields{"sink": s.Name(), "frames": len(frames)}).
				WithError(err).Warn("Failed to publish telemetry frames")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// MongoSink appends frames to the telemetry history collection.
type MongoSink struct {
	Collection db.FrameCollection
}

func (s *MongoSink) Name() string { return "mongo" }

func (s *MongoSink) Publish(ctx context.Context, frames []models.Frame) error {
	return s.Collection.InsertFrames(ctx, frames)
}

func encodeFrame(f models.Frame) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frame: %w", err)
	}
	return data, nil
}
