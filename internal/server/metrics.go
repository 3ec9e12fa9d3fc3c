package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP-level instruments of the server and the handler
// serving them together with any additional gatherers (the run metrics).
type Metrics struct {
	registry       *prometheus.Registry
	requestsTotal  *prometheus.CounterVec
	activeRequests prometheus.Gauge
	handler        http.Handler
}

// NewMetrics creates the server metrics on a private registry. Go runtime
// and process collectors are registered here, so the extra gatherers must
// not register them again.
func NewMetrics(extra ...prometheus.Gatherer) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "picalc",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served, by path and status code.",
		}, []string{"path", "code"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "picalc",
			Name:      "active_requests",
			Help:      "Number of HTTP requests being served.",
		}),
	}
	reg.MustRegister(
		m.requestsTotal,
		m.activeRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gatherers := prometheus.Gatherers{reg}
	gatherers = append(gatherers, extra...)
	m.handler = promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
	return m
}

// IncrementActiveRequests increments the in-flight request gauge.
func (m *Metrics) IncrementActiveRequests() { m.activeRequests.Inc() }

// DecrementActiveRequests decrements the in-flight request gauge.
func (m *Metrics) DecrementActiveRequests() { m.activeRequests.Dec() }

// ObserveRequest counts a served request.
func (m *Metrics) ObserveRequest(path string, code int) {
	m.requestsTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
}

// WritePrometheus writes every gathered metric in the Prometheus text format.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}
