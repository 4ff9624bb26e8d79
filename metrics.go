package sigkv

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// request outcomes, used as the "outcome" label.
const (
	outcomeOK         = "ok"
	outcomeError      = "error"
	outcomeIgnored    = "ignored"
	outcomeBadRequest = "bad_request"
)

var (
	registerOnce sync.Once

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sigkv",
			Name:      "requests_total",
			Help:      "Requests handled, by event and outcome.",
		},
		[]string{"event", "outcome"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sigkv",
			Name:      "request_duration_seconds",
			Help:      "Time from decoded request to built response.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"event"},
	)
	connectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sigkv",
			Name:      "connections_active",
			Help:      "Open websocket connections.",
		},
	)
)

func registerMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(requestsTotal, requestDuration, connectionsActive)
	})
}

func recordRequest(event, outcome string, elap time.Duration) {
	registerMetrics()
	requestsTotal.WithLabelValues(event, outcome).Inc()
	requestDuration.WithLabelValues(event).Observe(elap.Seconds())
}

func connOpened() {
	registerMetrics()
	connectionsActive.Inc()
}

func connClosed() {
	connectionsActive.Dec()
}
