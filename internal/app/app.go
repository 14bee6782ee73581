// Package app wires the console's components from a Config. Both the
// dashboard server and fleetctl build on it.
package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-console/internal/api"
	"github.com/ukydev/fleet-console/internal/config"
	"github.com/ukydev/fleet-console/internal/db"
	"github.com/ukydev/fleet-console/internal/fleet"
	"github.com/ukydev/fleet-console/internal/session"
	"github.com/ukydev/fleet-console/internal/telemetry"
	"go.mongodb.org/mongo-driver/mongo"
)

// App holds the wired components. Close releases them.
type App struct {
	Config    config.Config
	Sessions  session.Store
	Session   *session.Manager
	Client    *api.Client
	Store     *fleet.Store
	Simulator *telemetry.Simulator
	// Sinks are the connected telemetry sinks the simulator publishes to.
	Sinks []telemetry.Sink
	// Frames is the MongoDB frame history, nil unless MONGO_URI connected.
	Frames db.FrameCollection

	closers []func()
}

// New opens the session store and builds the client, the vehicle store and
// the simulator. nav receives login redirects; nil logs them instead.
func New(ctx context.Context, cfg config.Config, nav api.Navigator) (*App, error) {
	sessions, err := OpenSessions(cfg.SessionDir)
	if err != nil {
		return nil, err
	}
	if nav == nil {
		nav = api.NavigatorFunc(func(path string) {
			log.WithField("path", path).Info("Sign in required")
		})
	}

	a := &App{Config: cfg, Sessions: sessions}
	a.closers = append(a.closers, func() {
		if err := sessions.Close(); err != nil {
			log.WithError(err).Error("Failed to close session store")
		}
	})

	a.Session = session.NewManager(sessions)
	a.Client = api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, a.Session, api.WithNavigator(nav))
	a.Store = fleet.NewStore(a.Client, nav, cfg.LoginRedirectDelay)
	a.closers = append(a.closers, a.Store.Close)

	sinks, closeSinks := Sinks(ctx, cfg)
	a.closers = append(a.closers, closeSinks)
	a.Sinks = sinks
	a.Frames = FrameHistory(sinks)
	a.Simulator = telemetry.NewSimulator(a.Store, cfg.SimTick, telemetry.WithSinks(sinks...))
	return a, nil
}

// Close releases everything New opened, last opened first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// OpenSessions opens the Badger session store under dir, or an in-memory one
// when dir is empty.
func OpenSessions(dir string) (session.Store, error) {
	if dir == "" {
		store, err := session.NewInMemoryBadgerStore()
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		return store, nil
	}
	store, err := session.NewBadgerStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store at %s: %w", dir, err)
	}
	return store, nil
}

// Sinks connects the telemetry sinks that are configured. A sink that fails
// to connect is logged and left out; the simulation runs without it.
func Sinks(ctx context.Context, cfg config.Config) ([]telemetry.Sink, func()) {
	var (
		sinks   []telemetry.Sink
		closers []func()
	)

	if cfg.MQTTBroker != "" {
		s, err := telemetry.NewMQTTSink(cfg.MQTTBroker, cfg.MQTTTopic, cfg.RequestTimeout)
		if err != nil {
			log.WithError(err).WithField("broker", cfg.MQTTBroker).Warn("MQTT sink disabled")
		} else {
			sinks = append(sinks, s)
			closers = append(closers, s.Close)
		}
	}

	if cfg.NATSURL != "" {
		s, err := telemetry.NewNATSSink(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			log.WithError(err).WithField("url", cfg.NATSURL).Warn("NATS sink disabled")
		} else {
			sinks = append(sinks, s)
			closers = append(closers, s.Close)
		}
	}

	if cfg.MongoURI != "" {
		client, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.RequestTimeout)
		if err != nil {
			log.WithError(err).Warn("Mongo sink disabled")
		} else {
			sinks = append(sinks, &telemetry.MongoSink{Collection: db.NewFrameCollection(client, cfg.MongoDB)})
			closers = append(closers, disconnect(client))
		}
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	log.WithField("sinks", names).Debug("Telemetry sinks ready")

	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}

// FrameHistory returns the collection behind the Mongo sink, if one is
// connected.
func FrameHistory(sinks []telemetry.Sink) db.FrameCollection {
	for _, s := range sinks {
		if m, ok := s.(*telemetry.MongoSink); ok {
			return m.Collection
		}
	}
	return nil
}

func disconnect(client *mongo.Client) func() {
	return func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}
}
