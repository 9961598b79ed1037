// Package metrics exposes Prometheus collectors for the HTTP server,
// domain events and the dashboard cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	mutations    *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	published    *prometheus.CounterVec
	suspicious   *prometheus.CounterVec
	rateLimited  prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rateio",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rateio",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rateio",
			Name:      "mutations_total",
			Help:      "Successful table-store mutations by entity and operation.",
		}, []string{"entity", "operation"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rateio",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache name and result.",
		}, []string{"cache", "result"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rateio",
			Name:      "amqp_published_total",
			Help:      "AMQP publish attempts by message type and outcome.",
		}, []string{"type", "outcome"}),
		suspicious: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rateio",
			Name:      "suspicious_requests_total",
			Help:      "Requests flagged by the detector, by reason.",
		}, []string{"reason"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rateio",
			Name:      "rate_limited_requests_total",
			Help:      "Mutating requests rejected by the per-client limit.",
		}),
	}

	reg.MustRegister(
		m.requests,
		m.duration,
		m.mutations,
		m.cacheLookups,
		m.published,
		m.suspicious,
		m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Mutation(entity, operation string) {
	m.mutations.WithLabelValues(entity, operation).Inc()
}

func (m *Metrics) Published(msgType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.published.WithLabelValues(msgType, outcome).Inc()
}

// Suspicious satisfies security.Reporter.
func (m *Metrics) Suspicious(reason string) {
	m.suspicious.WithLabelValues(reason).Inc()
}

func (m *Metrics) RateLimited() { m.rateLimited.Inc() }

// Hit and Miss satisfy cache.Observer.
func (m *Metrics) Hit(name string)  { m.cacheLookups.WithLabelValues(name, "hit").Inc() }
func (m *Metrics) Miss(name string) { m.cacheLookups.WithLabelValues(name, "miss").Inc() }

// Middleware records request count and latency. The route label is the
// ServeMux pattern so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }
