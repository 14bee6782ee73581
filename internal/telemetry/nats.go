package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-console/internal/models"
)

type natsPublisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes each frame to <subject>.<vehicle id>.
type NATSSink struct {
	conn    natsPublisher
	subject string
	nc      *nats.Conn
}

// NewNATSSink connects to the NATS server at url.
func NewNATSSink(url, subject string) (*NATSSink, error) {
	opts := []nats.Option{
		nats.Name("fleet-console-simulator"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSSink{conn: nc, subject: subject, nc: nc}, nil
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Publish(ctx context.Context, frames []models.Frame) error {
	if s.nc != nil && s.nc.IsClosed() {
		return errors.New("nats not connected")
	}
	var errs []error
	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := encodeFrame(f)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.conn.Publish(fmt.Sprintf("%s.%d", s.subject, f.VehicleID), payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close drains and closes the connection.
func (s *NATSSink) Close() {
	if s.nc != nil {
		_ = s.nc.Drain()
		s.nc.Close()
	}
}
