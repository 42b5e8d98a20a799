package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Agent lifecycle
	AgentsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "branchd_agents_total",
			Help: "Total number of agents by status",
		},
		[]string{"status"},
	)

	// Webhook ingress
	WebhookRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "branchd_webhook_requests_total",
			Help: "Total number of webhook deliveries received, by outcome",
		},
		[]string{"outcome"},
	)

	WebhookRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "branchd_webhook_request_duration_seconds",
			Help:    "Time taken to handle a webhook delivery, end to end",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Push reconciliation
	PushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "branchd_pushes_total",
			Help: "Total number of push reconciliations by outcome",
		},
		[]string{"outcome"},
	)

	PushDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "branchd_push_duration_seconds",
			Help:    "Time taken to fully reconcile a push",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 60},
		},
	)

	// Startup reconciliation
	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "branchd_reconciliation_cycles_total",
			Help: "Total number of startup/liveness reconciliation cycles completed",
		},
	)

	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "branchd_reconciliation_duration_seconds",
			Help:    "Time taken for a reconciliation cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Chain client
	ChainCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "branchd_chain_calls_total",
			Help: "Total number of chain client calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	ChainCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "branchd_chain_call_duration_seconds",
			Help:    "Chain client call duration by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// Supervisor calls
	SupervisorCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "branchd_supervisor_calls_total",
			Help: "Total number of supervisor calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	SupervisorCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "branchd_supervisor_call_duration_seconds",
			Help:    "Supervisor call latency by operation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"op"},
	)

	// Worker-reported metrics ingested through the control plane
	WorkerMetricsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "branchd_worker_metrics_ingested_total",
			Help: "Total number of worker-reported decision metrics ingested, by decision",
		},
		[]string{"decision"},
	)

	WorkerTradesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "branchd_worker_trades_total",
			Help: "Total number of worker-reported trades executed",
		},
	)
)

func init() {
	prometheus.MustRegister(AgentsTotal)
	prometheus.MustRegister(WebhookRequestsTotal)
	prometheus.MustRegister(WebhookRequestDuration)
	prometheus.MustRegister(PushesTotal)
	prometheus.MustRegister(PushDuration)
	prometheus.MustRegister(ReconciliationCyclesTotal)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(ChainCallsTotal)
	prometheus.MustRegister(ChainCallDuration)
	prometheus.MustRegister(SupervisorCallsTotal)
	prometheus.MustRegister(SupervisorCallDuration)
	prometheus.MustRegister(WorkerMetricsIngestedTotal)
	prometheus.MustRegister(WorkerTradesTotal)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
