package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "camp",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "camp",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "camp",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	trades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "camp",
			Subsystem: "market",
			Name:      "trades_total",
			Help:      "Total number of agent token trades executed.",
		},
		[]string{"type", "status"},
	)

	agentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "camp",
			Subsystem: "market",
			Name:      "agents_created_total",
			Help:      "Total number of agents launched on the marketplace.",
		},
	)

	priceRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "camp",
			Subsystem: "market",
			Name:      "price_refreshes_total",
			Help:      "Total number of market data refresh cycles.",
		},
		[]string{"success"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		trades,
		agentsCreated,
		priceRefreshes,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordTrade records an executed or rejected trade.
func RecordTrade(tradeType, status string) {
	trades.WithLabelValues(tradeType, status).Inc()
}

// RecordAgentCreated increments the launched-agents counter.
func RecordAgentCreated() {
	agentsCreated.Inc()
}

// RecordPriceRefresh records a market data refresh cycle.
func RecordPriceRefresh(success bool) {
	result := "false"
	if success {
		result = "true"
	}
	priceRefreshes.WithLabelValues(result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses resource ids so the path label stays low
// cardinality. /api/v1/agents/agent-123/buy becomes /api/v1/agents/:id/buy.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) < 3 || parts[0] != "api" {
		return "/" + parts[0]
	}
	// api/v1/<resource>[/<id>[/<action>]]
	out := parts[:3:3]
	if len(parts) >= 4 {
		switch parts[3] {
		case "trending", "spotlight":
			out = append(out, parts[3])
		default:
			out = append(out, ":id")
			if len(parts) >= 5 {
				out = append(out, parts[4])
			}
		}
	}
	return "/" + strings.Join(out, "/")
}
