package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-console/internal/models"
)

// mqttPublisher is the part of mqtt.Client the sink uses.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSink publishes each frame to <topic>/<vehicle id>.
type MQTTSink struct {
	client  mqttPublisher
	topic   string
	timeout time.Duration
	close   func()
}

// NewMQTTSink connects to broker.
func NewMQTTSink(broker, topic string, timeout time.Duration) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("fleet-console-" + uuid.NewString()).
		SetAutoReconnect(true).
		SetConnectTimeout(timeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})
	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	log.WithField("broker", broker).Info("Connected to MQTT broker")
	return &MQTTSink{
		client:  client,
		topic:   topic,
		timeout: timeout,
		close:   func() { client.Disconnect(250) },
	}, nil
}

func (s *MQTTSink) Name() string { return "mqtt" }

func (s *MQTTSink) Publish(ctx context.Context, frames []models.Frame) error {
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
		tok := s.client.Publish(fmt.Sprintf("%s/%d", s.topic, f.VehicleID), 0, false, payload)
		if !tok.WaitTimeout(s.timeout) {
			errs = append(errs, fmt.Errorf("publish frame of vehicle %d timed out", f.VehicleID))
			continue
		}
		if err := tok.Error(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() {
	if s.close != nil {
		s.close()
	}
}
