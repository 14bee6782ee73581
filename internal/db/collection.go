package db

import (
	"context"

	"github.com/ukydev/fleet-console/internal/models"
)

// FrameCollection stores simulated telemetry frames.
type FrameCollection interface {
	InsertFrames(ctx context.Context, frames []models.Frame) error
	FindFrames(ctx context.Context, filter FrameFilter) (FrameCursor, error)
	DeleteAll(ctx context.Context) error
}

// FrameCursor defines the interface for frame cursor operations.
type FrameCursor interface {
	All(ctx context.Context, out interface{}) error
	Close(ctx context.Context) error
}

// FrameFilter narrows a frame query. Zero values match everything.
type FrameFilter struct {
	VehicleID int64
	Limit     int64
}
