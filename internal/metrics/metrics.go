// Package metrics exposes dispatcher and HTTP metrics in the Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/events"
)

const namespace = "shiny_updates"

// LockState is what the collector samples from the coordinator on every scrape.
type LockState interface {
	Locked() bool
	Pending() []core.Job
}

// Collector holds the application's metrics in its own registry.
type Collector struct {
	registry *prometheus.Registry

	JobsQueued      *prometheus.CounterVec
	JobsDispatched  *prometheus.CounterVec
	JobsCompleted   *prometheus.CounterVec
	MessagesShown   *prometheus.CounterVec
	CountDecrements *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		JobsQueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_queued_total",
			Help:      "Jobs deferred because the dispatcher lock was held",
		}, []string{"kind"}),
		JobsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_dispatched_total",
			Help:      "Requests sent to the backend",
		}, []string{"kind"}),
		JobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_completed_total",
			Help:      "Jobs resolved, by final status",
		}, []string{"kind", "status"}),
		MessagesShown: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_shown_total",
			Help:      "Messages displayed by the throttler",
		}, []string{"severity"}),
		CountDecrements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_count_decrements_total",
			Help:      "Pending-update badge decrements",
		}, []string{"entity"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		c.JobsQueued,
		c.JobsDispatched,
		c.JobsCompleted,
		c.MessagesShown,
		c.CountDecrements,
		c.HTTPRequests,
		c.HTTPDuration,
	)
	return c
}

// JobQueued implements jobs.Observer.
func (c *Collector) JobQueued(kind core.Kind) {
	c.JobsQueued.WithLabelValues(string(kind)).Inc()
}

// JobDispatched implements jobs.Observer.
func (c *Collector) JobDispatched(kind core.Kind) {
	c.JobsDispatched.WithLabelValues(string(kind)).Inc()
}

// JobCompleted implements jobs.Observer.
func (c *Collector) JobCompleted(kind core.Kind, status core.Status) {
	c.JobsCompleted.WithLabelValues(string(kind), status.String()).Inc()
}

// Watch samples the lock and queue depth of s on every scrape.
func (c *Collector) Watch(s LockState) {
	c.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatcher_locked",
			Help:      "1 while a request is outstanding or credentials are being collected",
		}, func() float64 {
			if s.Locked() {
				return 1
			}
			return 0
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Jobs waiting for the dispatcher lock",
		}, func() float64 {
			return float64(len(s.Pending()))
		}),
	)
}

// Subscribe counts shown messages and badge decrements published on bus. It
// returns a function that stops counting.
func (c *Collector) Subscribe(bus *events.Bus) func() {
	stopShown := events.On(bus, func(ev core.MessageShown) {
		c.MessagesShown.WithLabelValues(string(ev.Message.Severity)).Inc()
	})
	stopDecrements := events.On(bus, func(ev core.CountDecremented) {
		c.CountDecrements.WithLabelValues(string(ev.Entity)).Inc()
	})
	return func() {
		stopShown()
		stopDecrements()
	}
}

// Middleware records request counts and durations by chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
