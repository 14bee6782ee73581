package dashboard

import "github.com/ukydev/fleet-console/internal/models"

// RouteStatus is the lifecycle state of a planned route.
type RouteStatus string

const (
	RouteActive    RouteStatus = "ACTIVE"
	RoutePlanned   RouteStatus = "PLANNED"
	RouteCompleted RouteStatus = "COMPLETED"
)

// Traffic is a congestion level.
type Traffic string

const (
	TrafficLow    Traffic = "low"
	TrafficMedium Traffic = "medium"
	TrafficHeavy  Traffic = "heavy"
)

// Alternative is a suggested detour for a route.
type Alternative struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Duration string  `json:"duration"`
	Distance string  `json:"distance"`
	Traffic  Traffic `json:"traffic"`
}

// Route is one optimized route. Distances and times are display strings.
type Route struct {
	ID            int           `json:"id"`
	Name          string        `json:"name"`
	VehicleNumber string        `json:"vehicleNumber"`
	StartTime     string        `json:"startTime"`
	EndTime       string        `json:"endTime"`
	Distance      string        `json:"distance"`
	ETA           string        `json:"eta"`
	Stops         int           `json:"stops"`
	Status        RouteStatus   `json:"status"`
	Origin        string        `json:"origin"`
	Destination   string        `json:"destination"`
	Alternatives  []Alternative `json:"alternatives"`
}

// RoutePath is the drawn polyline of a route.
type RoutePath struct {
	RouteID int               `json:"routeId"`
	Points  []models.Location `json:"points"`
	Color   string            `json:"color"`
	Traffic Traffic           `json:"traffic"`
}

// TrafficZone is a congestion marker on the map.
type TrafficZone struct {
	ID      int             `json:"id"`
	Name    string          `json:"name"`
	Traffic Traffic         `json:"traffic"`
	Center  models.Location `json:"center"`
}

// RoutePlan is the route-optimization view.
type RoutePlan struct {
	Center models.Location `json:"center"`
	Zoom   int             `json:"zoom"`
	Routes []Route         `json:"routes"`
	Paths  []RoutePath     `json:"paths"`
	Zones  []TrafficZone   `json:"zones"`
}

// Routes returns the mocked route-optimization view. No optimization runs;
// every call builds a fresh copy of the same plan.
func Routes() RoutePlan {
	return RoutePlan{
		Center: models.Location{Lat: 40.7128, Lon: -74.0060},
		Zoom:   12,
		Routes: []Route{
			{
				ID:            1,
				Name:          "Downtown Delivery Route",
				VehicleNumber: "NF-001",
				StartTime:     "09:00 AM",
				EndTime:       "11:30 AM",
				Distance:      "12.5 miles",
				ETA:           "25 min",
				Stops:         5,
				Status:        RouteActive,
				Origin:        "Manhattan, NY",
				Destination:   "Midtown, NY",
				Alternatives: []Alternative{
					{ID: 1, Name: "Via FDR Drive", Duration: "30 min", Distance: "15.2 miles", Traffic: TrafficLow},
					{ID: 2, Name: "Via West Side Hwy", Duration: "35 min", Distance: "16.8 miles", Traffic: TrafficMedium},
				},
			},
			{
				ID:            2,
				Name:          "Airport Shuttle",
				VehicleNumber: "NF-002",
				StartTime:     "10:15 AM",
				EndTime:       "01:45 PM",
				Distance:      "28.3 miles",
				ETA:           "42 min",
				Stops:         8,
				Status:        RoutePlanned,
				Origin:        "Downtown, NY",
				Destination:   "JFK Airport",
				Alternatives: []Alternative{
					{ID: 1, Name: "Via Queens Blvd", Duration: "50 min", Distance: "32.1 miles", Traffic: TrafficHeavy},
					{ID: 2, Name: "Via Belt Pkwy", Duration: "45 min", Distance: "30.5 miles", Traffic: TrafficMedium},
				},
			},
		},
		Paths: []RoutePath{
			{
				RouteID: 1,
				Points: []models.Location{
					{Lat: 40.7128, Lon: -74.0060},
					{Lat: 40.7215, Lon: -73.9992},
					{Lat: 40.7345, Lon: -73.9882},
					{Lat: 40.7452, Lon: -73.9776},
				},
				Color:   "#3B82F6",
				Traffic: TrafficLow,
			},
			{
				RouteID: 2,
				Points: []models.Location{
					{Lat: 40.7580, Lon: -73.9855},
					{Lat: 40.7614, Lon: -73.9776},
					{Lat: 40.7678, Lon: -73.9680},
					{Lat: 40.7742, Lon: -73.9584},
				},
				Color:   "#10B981",
				Traffic: TrafficMedium,
			},
		},
		Zones: []TrafficZone{
			{ID: 1, Name: "Downtown Core", Traffic: TrafficHeavy, Center: models.Location{Lat: 40.75, Lon: -73.98}},
			{ID: 2, Name: "Midtown", Traffic: TrafficMedium, Center: models.Location{Lat: 40.76, Lon: -73.97}},
			{ID: 3, Name: "Financial District", Traffic: TrafficLow, Center: models.Location{Lat: 40.71, Lon: -74.01}},
		},
	}
}
