package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Frame is one simulated telemetry sample of an in-use vehicle.
type Frame struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	VehicleID    int64              `bson:"vehicle_id" json:"vehicle_id"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
	Location     Location           `bson:"location" json:"location"`
	Speed        float64            `bson:"speed" json:"speed"`
	FuelLevel    *float64           `bson:"fuel_level,omitempty" json:"fuel_level,omitempty"`
	BatteryLevel *float64           `bson:"battery_level,omitempty" json:"battery_level,omitempty"`
	Status       Status             `bson:"status" json:"status"`
}

// FrameOf captures the telemetry fields of a vehicle.
func FrameOf(v *Vehicle) Frame {
	c := v.Clone()
	return Frame{
		VehicleID:    c.ID,
		Timestamp:    c.LastUpdate,
		Location:     Location{Lat: c.Latitude, Lon: c.Longitude},
		Speed:        c.Speed,
		FuelLevel:    c.FuelLevel,
		BatteryLevel: c.BatteryLevel,
		Status:       c.Status,
	}
}
