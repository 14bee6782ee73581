package models

// MaintenancePrediction is the backend's predictive-maintenance result for one
// vehicle. The console renders it and never computes it.
type MaintenancePrediction struct {
	NeedsMaintenance   bool            `json:"needsMaintenance"`
	MaintenanceType    string          `json:"maintenanceType"`
	PredictedDays      int             `json:"predictedDays"`
	Probability        float64         `json:"probability"`
	Confidence         float64         `json:"confidence"`
	Components         ComponentHealth `json:"components"`
	RecommendedActions []string        `json:"recommendedActions"`
}

// ComponentHealth holds the per-component verdicts, e.g. "Good" or "Replace Soon".
type ComponentHealth struct {
	Engine  string `json:"engine"`
	Battery string `json:"battery"`
	Tires   string `json:"tires"`
	Brakes  string `json:"brakes"`
}

// VehiclePrediction is the body of POST /ai/predict/maintenance.
type VehiclePrediction struct {
	VehicleID  int64                 `json:"vehicleId"`
	Prediction MaintenancePrediction `json:"prediction"`
}

// FleetPredictions is the body of GET /ai/predict/maintenance/all, keyed by
// vehicle id.
type FleetPredictions struct {
	Predictions map[int64]MaintenancePrediction `json:"predictions"`
	Count       int                             `json:"count"`
}

// TrainResult is the body of POST /ai/train.
type TrainResult struct {
	Message      string `json:"message"`
	VehicleCount int    `json:"vehicleCount"`
}
