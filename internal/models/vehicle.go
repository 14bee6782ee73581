package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the operational status of a vehicle.
type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusInUse       Status = "IN_USE"
	StatusMaintenance Status = "MAINTENANCE"
)

// Category is the body type of a vehicle.
type Category string

const (
	CategorySedan      Category = "SEDAN"
	CategorySUV        Category = "SUV"
	CategoryVan        Category = "VAN"
	CategoryTruck      Category = "TRUCK"
	CategoryMotorcycle Category = "MOTORCYCLE"
)

var (
	ErrInvalidStatus   = errors.New("invalid vehicle status")
	ErrInvalidCategory = errors.New("invalid vehicle category")
	ErrEnergyExclusive = errors.New("exactly one of batteryLevel or fuelLevel must be set")
)

// Speed and energy bounds enforced by clamping.
const (
	MaxSpeed  = 80.0
	MaxEnergy = 100.0
	MaxHealth = 100
)

// Vehicle is a fleet vehicle as served by the backend. BatteryLevel and
// FuelLevel are mutually exclusive: electric vehicles carry a battery level,
// combustion vehicles a fuel level.
type Vehicle struct {
	ID            int64     `json:"id"`
	VehicleNumber string    `json:"vehicleNumber"`
	Model         string    `json:"model"`
	Manufacturer  string    `json:"manufacturer"`
	Type          Category  `json:"type"`
	Status        Status    `json:"status"`
	BatteryLevel  *float64  `json:"batteryLevel"`
	FuelLevel     *float64  `json:"fuelLevel"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	HealthScore   int       `json:"healthScore"`
	Speed         float64   `json:"speed"`
	Mileage       *int64    `json:"mileage,omitempty"`
	LastUpdate    time.Time `json:"lastUpdate,omitzero"`
}

// VehicleInput is the body of a create or update request. It never carries an
// id: the backend assigns it and updates address it through the path.
type VehicleInput struct {
	VehicleNumber string   `json:"vehicleNumber"`
	Model         string   `json:"model"`
	Manufacturer  string   `json:"manufacturer"`
	Type          Category `json:"type"`
	Status        Status   `json:"status"`
	BatteryLevel  *float64 `json:"batteryLevel"`
	FuelLevel     *float64 `json:"fuelLevel"`
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	HealthScore   int      `json:"healthScore"`
	Speed         float64  `json:"speed"`
	Mileage       *int64   `json:"mileage,omitempty"`
}

// Electric reports whether the vehicle runs on a battery.
func (v *Vehicle) Electric() bool {
	return v.BatteryLevel != nil
}

// EnergyLevel returns the populated energy field, battery first.
func (v *Vehicle) EnergyLevel() (float64, bool) {
	if v.BatteryLevel != nil {
		return *v.BatteryLevel, true
	}
	if v.FuelLevel != nil {
		return *v.FuelLevel, true
	}
	return 0, false
}

// Clone returns a deep copy so that callers never share the energy pointers.
func (v Vehicle) Clone() Vehicle {
	if v.BatteryLevel != nil {
		b := *v.BatteryLevel
		v.BatteryLevel = &b
	}
	if v.FuelLevel != nil {
		f := *v.FuelLevel
		v.FuelLevel = &f
	}
	if v.Mileage != nil {
		m := *v.Mileage
		v.Mileage = &m
	}
	return v
}

// Input converts a vehicle into the body used to update it.
func (v *Vehicle) Input() VehicleInput {
	c := v.Clone()
	return VehicleInput{
		VehicleNumber: c.VehicleNumber,
		Model:         c.Model,
		Manufacturer:  c.Manufacturer,
		Type:          c.Type,
		Status:        c.Status,
		BatteryLevel:  c.BatteryLevel,
		FuelLevel:     c.FuelLevel,
		Latitude:      c.Latitude,
		Longitude:     c.Longitude,
		HealthScore:   c.HealthScore,
		Speed:         c.Speed,
		Mileage:       c.Mileage,
	}
}

// Validate checks the invariants the backend relies on before a create or
// update is sent.
func (in *VehicleInput) Validate() error {
	if strings.TrimSpace(in.VehicleNumber) == "" {
		return errors.New("vehicle number is required")
	}
	if !IsValidStatus(in.Status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}
	if !IsValidCategory(in.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, in.Type)
	}
	if (in.BatteryLevel == nil) == (in.FuelLevel == nil) {
		return ErrEnergyExclusive
	}
	level := in.BatteryLevel
	if level == nil {
		level = in.FuelLevel
	}
	if *level < 0 || *level > MaxEnergy {
		return fmt.Errorf("energy level %.1f out of range [0,100]", *level)
	}
	if in.HealthScore < 0 || in.HealthScore > MaxHealth {
		return fmt.Errorf("health score %d out of range [0,100]", in.HealthScore)
	}
	if in.Speed < 0 || in.Speed > MaxSpeed {
		return fmt.Errorf("speed %.1f out of range [0,80]", in.Speed)
	}
	return nil
}

// ParseStatus accepts the backend spelling of a status, case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !IsValidStatus(st) {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// IsValidStatus checks if a status is one of the known statuses
func IsValidStatus(s Status) bool {
	switch s {
	case StatusAvailable, StatusInUse, StatusMaintenance:
		return true
	default:
		return false
	}
}

// ParseCategory accepts a vehicle category, case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !IsValidCategory(c) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// IsValidCategory checks if a category is one of the known body types
func IsValidCategory(c Category) bool {
	switch c {
	case CategorySedan, CategorySUV, CategoryVan, CategoryTruck, CategoryMotorcycle:
		return true
	default:
		return false
	}
}

// Float returns a pointer to f; handy for building energy levels.
func Float(f float64) *float64 {
	return &f
}
