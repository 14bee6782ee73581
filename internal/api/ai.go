package api

import (
	"context"
	"net/http"

	"github.com/ukydev/fleet-console/internal/models"
)

// PredictMaintenance asks the backend for one vehicle's maintenance outlook.
func (c *Client) PredictMaintenance(ctx context.Context, vehicleID int64) (*models.VehiclePrediction, error) {
	body := map[string]int64{"vehicleId": vehicleID}
	var out models.VehiclePrediction
	if err := c.do(ctx, request{method: http.MethodPost, path: "/ai/predict/maintenance", body: body, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// PredictAll asks for predictions covering the whole fleet.
func (c *Client) PredictAll(ctx context.Context) (*models.FleetPredictions, error) {
	var out models.FleetPredictions
	if err := c.do(ctx, request{method: http.MethodGet, path: "/ai/predict/maintenance/all", out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// TrainModel asks the backend to retrain its model on current vehicle data.
func (c *Client) TrainModel(ctx context.Context) (*models.TrainResult, error) {
	var out models.TrainResult
	if err := c.do(ctx, request{method: http.MethodPost, path: "/ai/train", out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}
