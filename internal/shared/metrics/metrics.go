package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "briefly"

var latencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

// Registry holds every collector exported by this process.
var Registry = prometheus.NewRegistry()

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   latencyBuckets,
		},
		[]string{"method", "route"},
	)
	llmCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "LLM completion calls by model, purpose and outcome",
		},
		[]string{"model", "purpose", "outcome"},
	)
	llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "LLM completion latency in seconds",
			Buckets:   latencyBuckets,
		},
		[]string{"model", "purpose"},
	)
	parseOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "summary",
			Name:      "parse_outcomes_total",
			Help:      "Model output parse results by branch",
		},
		[]string{"branch"},
	)
	summaryOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "summary",
			Name:      "operations_total",
			Help:      "Summary lifecycle operations by kind and outcome",
		},
		[]string{"op", "outcome"},
	)
	orphanBlobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "orphan_blobs_total",
			Help:      "Unreferenced blobs found by the reconciliation job",
		},
		[]string{"action"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpLatency,
		llmCalls,
		llmLatency,
		parseOutcomes,
		summaryOps,
		orphanBlobs,
	)
}

// ObserveHTTP records a finished HTTP request.
func ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveLLMCall records one completion call.
func ObserveLLMCall(model, purpose string, err error, d time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	llmCalls.WithLabelValues(model, purpose, outcome).Inc()
	llmLatency.WithLabelValues(model, purpose).Observe(d.Seconds())
}

// IncParseOutcome counts which parser branch produced a result.
func IncParseOutcome(branch string) {
	parseOutcomes.WithLabelValues(branch).Inc()
}

// IncSummaryOp counts a lifecycle operation.
func IncSummaryOp(op, outcome string) {
	summaryOps.WithLabelValues(op, outcome).Inc()
}

// AddOrphanBlobs counts blobs found (or removed) by reconciliation.
func AddOrphanBlobs(action string, n int) {
	if n <= 0 {
		return
	}
	orphanBlobs.WithLabelValues(action).Add(float64(n))
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
