package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/fleet-console/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FramesCollectionName is the collection frames are written to.
const FramesCollectionName = "telemetry_frames"

var errNilCollection = errors.New("mongo collection is nil")

// ConnectMongo connects to MongoDB at uri and pings it.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is empty")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoCollection wraps a MongoDB collection of telemetry frames.
type MongoCollection struct {
	Collection *mongo.Collection
}

// NewFrameCollection returns the frames collection of database name.
func NewFrameCollection(client *mongo.Client, name string) *MongoCollection {
	return &MongoCollection{Collection: client.Database(name).Collection(FramesCollectionName)}
}

// InsertFrames inserts a batch of frames. An empty batch is a no-op.
func (c *MongoCollection) InsertFrames(ctx context.Context, frames []models.Frame) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if len(frames) == 0 {
		return nil
	}
	docs := make([]interface{}, len(frames))
	for i, f := range frames {
		docs[i] = f
	}
	_, err := c.Collection.InsertMany(ctx, docs)
	return err
}

// mongoFrameCursor wraps a MongoDB cursor for frame queries.
type mongoFrameCursor struct {
	cursor *mongo.Cursor
}

// All retrieves all results from the cursor.
func (m *mongoFrameCursor) All(ctx context.Context, out interface{}) error {
	return m.cursor.All(ctx, out)
}

// Close closes the cursor.
func (m *mongoFrameCursor) Close(ctx context.Context) error {
	return m.cursor.Close(ctx)
}

// FindFrames queries frames newest first.
func (c *MongoCollection) FindFrames(ctx context.Context, filter FrameFilter) (FrameCursor, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	cursor, err := c.Collection.Find(ctx, filter.bson(), filter.options())
	if err != nil {
		return nil, err
	}
	return &mongoFrameCursor{cursor: cursor}, nil
}

// DeleteAll deletes all frames from the collection.
func (c *MongoCollection) DeleteAll(ctx context.Context) error {
	if c.Collection == nil {
		return errNilCollection
	}
	_, err := c.Collection.DeleteMany(ctx, bson.M{})
	return err
}

func (f FrameFilter) bson() bson.M {
	q := bson.M{}
	if f.VehicleID != 0 {
		q["vehicle_id"] = f.VehicleID
	}
	return q
}

func (f FrameFilter) options() *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	return opts
}

// RecentFrames reads up to limit frames of a vehicle, newest first.
func RecentFrames(ctx context.Context, coll FrameCollection, vehicleID int64, limit int64) ([]models.Frame, error) {
	cursor, err := coll.FindFrames(ctx, FrameFilter{VehicleID: vehicleID, Limit: limit})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var frames []models.Frame
	if err := cursor.All(ctx, &frames); err != nil {
		return nil, err
	}
	return frames, nil
}
