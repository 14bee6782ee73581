// Package dashboard turns the vehicle collection into the role-specific views
// the console renders.
package dashboard

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/ukydev/fleet-console/internal/models"
)

// MaintenanceHealthThreshold is the health score below which a vehicle is
// listed as due for maintenance.
const MaintenanceHealthThreshold = 60

// Band classifies an energy level.
type Band string

const (
	BandGood     Band = "good"
	BandWarning  Band = "warning"
	BandCritical Band = "critical"
)

// MenuItem is one entry of a role's navigation menu.
type MenuItem struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Summary counts vehicles by status.
type Summary struct {
	Total          int `json:"total"`
	Available      int `json:"available"`
	InUse          int `json:"inUse"`
	Maintenance    int `json:"maintenance"`
	MaintenanceDue int `json:"maintenanceDue"`
}

// Row is a vehicle as listed in tables.
type Row struct {
	ID            int64           `json:"id"`
	VehicleNumber string          `json:"vehicleNumber"`
	Name          string          `json:"name"`
	Type          models.Category `json:"type"`
	Status        models.Status   `json:"status"`
	StatusText    string          `json:"statusText"`
	HealthScore   int             `json:"healthScore"`
}

// Card is the live telemetry card of an in-use vehicle. Numbers are rounded
// for display only.
type Card struct {
	ID            int64         `json:"id"`
	VehicleNumber string        `json:"vehicleNumber"`
	Name          string        `json:"name"`
	Status        models.Status `json:"status"`
	StatusText    string        `json:"statusText"`
	Speed         float64       `json:"speed"`
	EnergyKind    string        `json:"energyKind,omitempty"`
	Energy        float64       `json:"energy"`
	EnergyBand    Band          `json:"energyBand,omitempty"`
	Latitude      float64       `json:"latitude"`
	Longitude     float64       `json:"longitude"`
	Position      string        `json:"position"`
	LastUpdate    time.Time     `json:"lastUpdate"`
}

// View is a role dashboard. Sections a role does not see are left empty.
type View struct {
	Role            models.Role `json:"role"`
	Title           string      `json:"title"`
	Summary         *Summary    `json:"summary,omitempty"`
	MaintenanceDue  []Row       `json:"maintenanceDue,omitempty"`
	Telemetry       []Card      `json:"telemetry,omitempty"`
	Vehicles        []Row       `json:"vehicles,omitempty"`
	Recommendations []Row       `json:"recommendations,omitempty"`
	Menu            []MenuItem  `json:"menu"`
}

var menus = map[models.Role][]MenuItem{
	models.RoleAdmin: {
		{Name: "Users", Path: "/users"},
		{Name: "Vehicles", Path: "/vehicles"},
		{Name: "Bookings", Path: "/bookings"},
		{Name: "Maintenance", Path: "/maintenance"},
		{Name: "Analytics", Path: "/analytics"},
	},
	models.RoleManager: {
		{Name: "Fleet", Path: "/vehicles"},
		{Name: "Bookings", Path: "/bookings"},
		{Name: "Drivers", Path: "/drivers"},
		{Name: "Maintenance", Path: "/maintenance"},
	},
	models.RoleDriver: {
		{Name: "My Schedule", Path: "/schedule"},
		{Name: "Vehicle", Path: "/vehicle"},
		{Name: "Earnings", Path: "/earnings"},
		{Name: "Navigation", Path: "/navigation"},
	},
	models.RoleCustomer: {
		{Name: "Book Ride", Path: "/booking"},
		{Name: "My Bookings", Path: "/bookings"},
		{Name: "Vehicles", Path: "/vehicles"},
		{Name: "Profile", Path: "/profile"},
	},
}

// Menu returns the navigation menu of role.
func Menu(role models.Role) []MenuItem {
	return append([]MenuItem(nil), menus[role]...)
}

// ViewFor builds the dashboard of role from vehicles.
func ViewFor(role models.Role, vehicles []models.Vehicle) (View, error) {
	v := View{Role: role, Title: role.Title() + " Dashboard", Menu: Menu(role)}

	switch role {
	case models.RoleAdmin:
		s := Summarize(vehicles)
		v.Summary = &s
		v.MaintenanceDue = MaintenanceDue(vehicles)
		v.Vehicles = Rows(vehicles)
	case models.RoleManager:
		s := Summarize(vehicles)
		v.Summary = &s
		v.MaintenanceDue = MaintenanceDue(vehicles)
		v.Telemetry = TelemetryCards(vehicles)
	case models.RoleDriver:
		v.Vehicles = Rows(withStatus(vehicles, models.StatusInUse))
		v.Telemetry = TelemetryCards(vehicles)
	case models.RoleCustomer:
		v.Recommendations = Rows(withStatus(vehicles, models.StatusAvailable))
	default:
		return View{}, fmt.Errorf("%w: %q", models.ErrInvalidRole, role)
	}
	return v, nil
}

// StatusText is the label shown for a status.
func StatusText(s models.Status) string {
	switch s {
	case models.StatusAvailable:
		return "Available"
	case models.StatusInUse:
		return "In Use"
	case models.StatusMaintenance:
		return "Needs Service"
	default:
		return string(s)
	}
}

// LevelBand classifies a battery or fuel level.
func LevelBand(level float64) Band {
	switch {
	case level > 50:
		return BandGood
	case level > 20:
		return BandWarning
	default:
		return BandCritical
	}
}

// Summarize counts vehicles by status.
func Summarize(vehicles []models.Vehicle) Summary {
	s := Summary{Total: len(vehicles)}
	for i := range vehicles {
		switch vehicles[i].Status {
		case models.StatusAvailable:
			s.Available++
		case models.StatusInUse:
			s.InUse++
		case models.StatusMaintenance:
			s.Maintenance++
		}
		if dueForMaintenance(&vehicles[i]) {
			s.MaintenanceDue++
		}
	}
	return s
}

// MaintenanceDue lists vehicles under service or with a low health score,
// least healthy first.
func MaintenanceDue(vehicles []models.Vehicle) []Row {
	var due []models.Vehicle
	for i := range vehicles {
		if dueForMaintenance(&vehicles[i]) {
			due = append(due, vehicles[i])
		}
	}
	rows := Rows(due)
	slices.SortStableFunc(rows, func(a, b Row) int {
		return cmp.Compare(a.HealthScore, b.HealthScore)
	})
	return rows
}

func dueForMaintenance(v *models.Vehicle) bool {
	return v.Status == models.StatusMaintenance || v.HealthScore < MaintenanceHealthThreshold
}

// Rows converts vehicles to table rows in their given order.
func Rows(vehicles []models.Vehicle) []Row {
	if len(vehicles) == 0 {
		return nil
	}
	rows := make([]Row, len(vehicles))
	for i := range vehicles {
		v := &vehicles[i]
		rows[i] = Row{
			ID:            v.ID,
			VehicleNumber: v.VehicleNumber,
			Name:          displayName(v),
			Type:          v.Type,
			Status:        v.Status,
			StatusText:    StatusText(v.Status),
			HealthScore:   v.HealthScore,
		}
	}
	return rows
}

// TelemetryCards builds the cards of the in-use vehicles.
func TelemetryCards(vehicles []models.Vehicle) []Card {
	var cards []Card
	for i := range vehicles {
		v := &vehicles[i]
		if v.Status != models.StatusInUse {
			continue
		}
		cards = append(cards, CardOf(v))
	}
	return cards
}

// CardOf formats one vehicle as a telemetry card.
func CardOf(v *models.Vehicle) Card {
	c := Card{
		ID:            v.ID,
		VehicleNumber: v.VehicleNumber,
		Name:          displayName(v),
		Status:        v.Status,
		StatusText:    StatusText(v.Status),
		Speed:         Round(v.Speed, 1),
		Latitude:      Round(v.Latitude, 4),
		Longitude:     Round(v.Longitude, 4),
		LastUpdate:    v.LastUpdate,
	}
	c.Position = fmt.Sprintf("%.4f, %.4f", v.Latitude, v.Longitude)
	if level, ok := v.EnergyLevel(); ok {
		c.EnergyKind = "fuel"
		if v.Electric() {
			c.EnergyKind = "battery"
		}
		c.Energy = Round(level, 1)
		c.EnergyBand = LevelBand(level)
	}
	return c
}

// Round rounds x to places decimals.
func Round(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(x*p) / p
}

// Filter returns the vehicles whose number, model or manufacturer contains
// query, case-insensitively. An empty query matches everything.
func Filter(vehicles []models.Vehicle, query string) []models.Vehicle {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return vehicles
	}
	var out []models.Vehicle
	for _, v := range vehicles {
		if strings.Contains(strings.ToLower(v.VehicleNumber), q) ||
			strings.Contains(strings.ToLower(v.Model), q) ||
			strings.Contains(strings.ToLower(v.Manufacturer), q) {
			out = append(out, v)
		}
	}
	return out
}

func withStatus(vehicles []models.Vehicle, status models.Status) []models.Vehicle {
	var out []models.Vehicle
	for _, v := range vehicles {
		if v.Status == status {
			out = append(out, v)
		}
	}
	return out
}

func displayName(v *models.Vehicle) string {
	return strings.TrimSpace(v.Manufacturer + " " + v.Model)
}
