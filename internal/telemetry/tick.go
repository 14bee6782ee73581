// Package telemetry simulates live telemetry for in-use vehicles and fans the
// resulting frames out to sinks.
package telemetry

import (
	"math/rand"
	"time"

	"github.com/ukydev/fleet-console/internal/models"
)

// Jitter bounds applied on every tick.
const (
	SpeedJitter     = 5.0
	BatteryPerSpeed = 0.02
	BatteryNoise    = 0.1
	FuelPerSpeed    = 0.015
	FuelNoise       = 0.05
	PositionJitter  = 0.0005
)

// Source supplies uniform samples in [0,1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// DefaultSource draws from the package-level generator and is safe for
// concurrent use.
var DefaultSource Source = globalSource{}

// uniform returns a sample in [lo,hi).
func uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Tick returns the next state of the fleet. The result has the same length
// and order as vehicles. Only IN_USE vehicles change; every other record is
// returned as is. vehicles is not modified.
func Tick(vehicles []models.Vehicle, src Source, now time.Time) []models.Vehicle {
	next := make([]models.Vehicle, len(vehicles))
	for i, v := range vehicles {
		next[i] = v.Clone()
		if v.Status != models.StatusInUse {
			continue
		}
		advance(&next[i], src, now)
	}
	return next
}

func advance(v *models.Vehicle, src Source, now time.Time) {
	v.Speed = clamp(v.Speed+uniform(src, -SpeedJitter, SpeedJitter), 0, models.MaxSpeed)

	switch {
	case v.BatteryLevel != nil:
		drain := BatteryPerSpeed*v.Speed + uniform(src, 0, BatteryNoise)
		*v.BatteryLevel = clamp(*v.BatteryLevel-drain, 0, models.MaxEnergy)
	case v.FuelLevel != nil:
		drain := FuelPerSpeed*v.Speed + uniform(src, 0, FuelNoise)
		*v.FuelLevel = clamp(*v.FuelLevel-drain, 0, models.MaxEnergy)
	}

	v.Latitude += uniform(src, -PositionJitter, PositionJitter)
	v.Longitude += uniform(src, -PositionJitter, PositionJitter)
	v.LastUpdate = now
}
