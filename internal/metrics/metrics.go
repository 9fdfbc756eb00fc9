package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Queries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cladari_queries_total",
			Help: "Total number of routed queries",
		},
		[]string{"category", "tier"}, // tier: endpoint name or "fallback"
	)

	InferenceCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cladari_inference_calls_total",
			Help: "Total number of inference endpoint calls",
		},
		[]string{"endpoint", "status"}, // status: success|unavailable|error
	)

	InferenceLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cladari_inference_latency_seconds",
			Help:    "Inference call latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"endpoint"},
	)

	PlantDBRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cladari_plantdb_requests_total",
			Help: "Total number of plant inventory requests",
		},
		[]string{"path", "status"}, // status: success|error|cached
	)
)

var registerOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(Queries)
		prometheus.MustRegister(InferenceCalls)
		prometheus.MustRegister(InferenceLatency)
		prometheus.MustRegister(PlantDBRequests)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
