// internal/metrics/metrics.go
// Package metrics holds the daemon's Prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SendsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flapboard_sends_total",
		Help: "Frames sent to the board by content type and outcome.",
	}, []string{"type", "status"})

	ProviderErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flapboard_provider_errors_total",
		Help: "Content provider fetch failures by provider.",
	}, []string{"provider"})

	SchedulePassDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flapboard_schedule_pass_seconds",
		Help:    "Duration of one scheduler due-check pass.",
		Buckets: prometheus.DefBuckets,
	})

	BoardSendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flapboard_board_send_seconds",
		Help:    "Duration of board send calls.",
		Buckets: prometheus.DefBuckets,
	})
)

// MustRegister registers all collectors with the given registerer.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		SendsTotal,
		ProviderErrors,
		SchedulePassDuration,
		BoardSendDuration,
	)
}

// ObserveSend records one send outcome for a content type.
func ObserveSend(contentType string, ok bool) {
	status := "success"
	if !ok {
		status = "failure"
	}
	SendsTotal.WithLabelValues(contentType, status).Inc()
}
