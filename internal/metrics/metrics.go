package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchDiscountDuration tracks the latency of discount code fetches
	FetchDiscountDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "discount_fetch_duration_seconds",
			Help: "Duration of discount code fetch requests in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
				2.5,   // 2.5s
				5.0,   // 5s
				10.0,  // 10s
			},
		},
		[]string{"status"}, // success or failure
	)

	// GeneratedCodes counts pool codes created by generation jobs
	GeneratedCodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discount_generated_codes_total",
			Help: "Number of discount codes inserted into campaign pools",
		},
		[]string{"campaign_id"},
	)

	// GenerationJobsRunning gauges generation jobs currently executing
	GenerationJobsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "discount_generation_jobs_running",
			Help: "Number of bulk code generation jobs currently running",
		},
	)
)

// RecordFetchDiscountDuration records the duration of a fetch request
func RecordFetchDiscountDuration(status string, duration float64) {
	FetchDiscountDuration.WithLabelValues(status).Observe(duration)
}
