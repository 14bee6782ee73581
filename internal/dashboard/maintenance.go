package dashboard

import (
	"math"
	"time"

	"github.com/ukydev/fleet-console/internal/models"
	"github.com/ukydev/fleet-console/internal/telemetry"
)

// Mock reading bounds.
const (
	DefaultReadingHealth = 80
	MaxMockMileage       = 50000
	MaintenanceWindow    = 30
	TireAlertBelow       = 80
	BatteryAlertBelow    = 65
)

// Maintenance status labels by days until the next service.
const (
	ServiceCritical = "Critical"
	ServiceDueSoon  = "Due Soon"
	ServiceHealthy  = "Healthy"
)

// Alert is one maintenance warning attached to a reading.
type Alert struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Action   string `json:"action"`
}

// Reading is the mocked component health of one vehicle. Battery and fuel
// readings mirror the vehicle's levels and are nil when it has none.
type Reading struct {
	VehicleID       int64    `json:"vehicleId"`
	VehicleNumber   string   `json:"vehicleNumber"`
	Name            string   `json:"name"`
	HealthScore     int      `json:"healthScore"`
	BatteryHealth   *float64 `json:"batteryHealth"`
	TireCondition   int      `json:"tireCondition"`
	EngineHealth    *int     `json:"engineHealth"`
	FuelSystem      *float64 `json:"fuelSystem"`
	Mileage         int64    `json:"mileage"`
	NextMaintenance string   `json:"nextMaintenance"`
	DaysUntil       int      `json:"daysUntil"`
	Status          string   `json:"status"`
	Alerts          []Alert  `json:"alerts"`
}

// MaintenanceOverview is the predictive-maintenance board.
type MaintenanceOverview struct {
	Readings   []Reading `json:"readings"`
	WithAlerts int       `json:"withAlerts"`
	DueSoon    int       `json:"dueSoon"`
}

// MaintenanceReadings builds mock readings for every vehicle, drawing from src
// in vehicle order. The same source samples and now give the same overview.
func MaintenanceReadings(vehicles []models.Vehicle, src telemetry.Source, now time.Time) MaintenanceOverview {
	out := MaintenanceOverview{Readings: make([]Reading, 0, len(vehicles))}
	for i := range vehicles {
		rd := readingOf(&vehicles[i], src, now)
		if len(rd.Alerts) > 0 {
			out.WithAlerts++
		}
		if rd.DaysUntil >= 0 && rd.DaysUntil <= 7 {
			out.DueSoon++
		}
		out.Readings = append(out.Readings, rd)
	}
	return out
}

func readingOf(v *models.Vehicle, src telemetry.Source, now time.Time) Reading {
	health := v.HealthScore
	if health == 0 {
		health = DefaultReadingHealth
	}
	rd := Reading{
		VehicleID:     v.ID,
		VehicleNumber: v.VehicleNumber,
		Name:          displayName(v),
		HealthScore:   health,
		BatteryHealth: nonZero(v.BatteryLevel),
		FuelSystem:    nonZero(v.FuelLevel),
	}
	rd.TireCondition = clampScore(health + draw(src, 20) - 10)
	if rd.FuelSystem != nil {
		engine := clampScore(health + draw(src, 15) - 5)
		rd.EngineHealth = &engine
	}
	if v.Mileage != nil && *v.Mileage != 0 {
		rd.Mileage = *v.Mileage
	} else {
		rd.Mileage = int64(draw(src, MaxMockMileage))
	}
	rd.DaysUntil = draw(src, MaintenanceWindow)
	rd.NextMaintenance = now.AddDate(0, 0, rd.DaysUntil).Format(time.DateOnly)
	rd.Status = ServiceStatus(rd.DaysUntil)
	rd.Alerts = alertsFor(&rd)
	return rd
}

// ServiceStatus labels the days left until the next service.
func ServiceStatus(days int) string {
	switch {
	case days <= 3:
		return ServiceCritical
	case days <= 7:
		return ServiceDueSoon
	default:
		return ServiceHealthy
	}
}

func alertsFor(rd *Reading) []Alert {
	alerts := []Alert{}
	if rd.BatteryHealth != nil && *rd.BatteryHealth < BatteryAlertBelow {
		alerts = append(alerts, Alert{
			Type:     "critical",
			Message:  "Battery health critically low",
			Severity: "high",
			Action:   "Replace battery pack",
		})
	}
	if rd.TireCondition < TireAlertBelow {
		alerts = append(alerts, Alert{
			Type:     "warning",
			Message:  "Tire condition degrading",
			Severity: "medium",
			Action:   "Inspect and rotate tires",
		})
	}
	if rd.DaysUntil <= 7 {
		alerts = append(alerts, Alert{
			Type:     "warning",
			Message:  "Scheduled maintenance due soon",
			Severity: "medium",
			Action:   "Schedule service appointment",
		})
	}
	return alerts
}

// draw returns an integer in [0,n).
func draw(src telemetry.Source, n int) int {
	return int(math.Floor(src.Float64() * float64(n)))
}

func clampScore(v int) int {
	return min(max(v, 0), 100)
}

func nonZero(p *float64) *float64 {
	if p == nil || *p == 0 {
		return nil
	}
	v := *p
	return &v
}
