package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_api_requests_total",
		Help: "Backend API requests by method and status code.",
	}, []string{"method", "code"})

	Unauthorized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleet_api_unauthorized_total",
		Help: "Backend responses that ended the session.",
	})

	StoreLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_store_loads_total",
		Help: "Vehicle store reloads by result.",
	}, []string{"result"})

	StoreVehicles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_store_vehicles",
		Help: "Vehicles currently held by the store.",
	})

	SimTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleet_sim_ticks_total",
		Help: "Simulation ticks applied.",
	})

	SimTicksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleet_sim_ticks_skipped_total",
		Help: "Simulation ticks skipped because the previous one was still running.",
	})

	SimVehiclesMutated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleet_sim_vehicles_mutated_total",
		Help: "In-use vehicles advanced by the simulation.",
	})

	SinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_sink_errors_total",
		Help: "Telemetry frames a sink failed to deliver.",
	}, []string{"sink"})
)

// RegisterMetrics registers the Prometheus handler in provided mux
func RegisterMetrics(mux *http.ServeMux) {
	mux.Handle("GET /metrics", promhttp.Handler())
}
