package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ukydev/fleet-console/internal/models"
)

// ListVehicles returns every vehicle.
func (c *Client) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	var out []models.Vehicle
	if err := c.do(ctx, request{method: http.MethodGet, path: "/vehicles", out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

// GetVehicle returns one vehicle.
func (c *Client) GetVehicle(ctx context.Context, id int64) (*models.Vehicle, error) {
	var out models.Vehicle
	if err := c.do(ctx, request{method: http.MethodGet, path: vehiclePath(id), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateVehicle creates a vehicle and returns it with its assigned id.
func (c *Client) CreateVehicle(ctx context.Context, in models.VehicleInput) (*models.Vehicle, error) {
	var out models.Vehicle
	if err := c.do(ctx, request{method: http.MethodPost, path: "/vehicles", body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateVehicle overwrites a vehicle.
func (c *Client) UpdateVehicle(ctx context.Context, id int64, in models.VehicleInput) (*models.Vehicle, error) {
	var out models.Vehicle
	if err := c.do(ctx, request{method: http.MethodPut, path: vehiclePath(id), body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteVehicle deletes a vehicle.
func (c *Client) DeleteVehicle(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: vehiclePath(id)})
}

// VehiclesByStatus returns the vehicles with the given status.
func (c *Client) VehiclesByStatus(ctx context.Context, status models.Status) ([]models.Vehicle, error) {
	var out []models.Vehicle
	path := "/vehicles/status/" + url.PathEscape(string(status))
	if err := c.do(ctx, request{method: http.MethodGet, path: path, out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

func vehiclePath(id int64) string {
	return fmt.Sprintf("/vehicles/%d", id)
}
