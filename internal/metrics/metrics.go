package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "circl_agent"

var (
	// Link delivery metrics

	LinkDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "link_deliveries_total",
		Help:      "Deep links handed to the agent, by source and outcome (dispatched or ignored).",
	}, []string{"source", "outcome"})

	DeliveriesInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "link_deliveries_in_flight",
		Help:      "Link deliveries currently being resolved or joined.",
	})

	// Invite workflow metrics

	InviteResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invite_resolutions_total",
		Help:      "Invite token resolutions, by outcome.",
	}, []string{"outcome"})

	JoinsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circle_joins_total",
		Help:      "Circle join attempts, by outcome (requested, deferred, failed).",
	}, []string{"outcome"})

	PushRegistrationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "push_registrations_total",
		Help:      "Device token registrations, by outcome (registered, skipped, failed).",
	}, []string{"outcome"})

	PushSweepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "push_sweeps_total",
		Help:      "Scheduled pending push token sweeps, by outcome (registered, idle, failed).",
	}, []string{"outcome"})

	// Backend client

	BackendRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Latency of calls to the Circl REST backend.",
		Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"endpoint", "status"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		LinkDeliveriesTotal,
		DeliveriesInFlight,
		InviteResolutionsTotal,
		JoinsTotal,
		PushRegistrationsTotal,
		PushSweepsTotal,
		BackendRequestDuration,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// HealthReporter is what the metrics server needs from the health checker.
type HealthReporter interface {
	LivenessHandler() http.HandlerFunc
	ReadinessHandler() http.HandlerFunc
}

func NewServer(addr string, health HealthReporter) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if health != nil {
		mux.HandleFunc("/health/live", health.LivenessHandler())
		mux.HandleFunc("/health/ready", health.ReadinessHandler())
	}
	return &http.Server{Addr: addr, Handler: mux}
}
