// Package metrics exposes Prometheus collectors for the HTTP API, bookings
// and the reminder scheduler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"boardroom-booking/internal/reminder"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "boardroom_booking"

// Metrics owns its registry, so several instances can live in one process
// (tests create one each).
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	bookingEvents *prometheus.CounterVec

	reminderTicks        prometheus.Counter
	reminderQueryErrors  prometheus.Counter
	reminderTickDuration prometheus.Histogram
	remindersSent        *prometheus.CounterVec
	remindersFailed      *prometheus.CounterVec
	reminderDedupPurged  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),

		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		bookingEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_events_total",
			Help:      "Count of booking lifecycle events.",
		}, []string{"event"}),

		reminderTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_ticks_total",
			Help:      "Count of reminder polling ticks.",
		}),

		reminderQueryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_query_errors_total",
			Help:      "Count of ticks whose upcoming meeting query failed.",
		}),

		reminderTickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_tick_duration_seconds",
			Help:      "Time spent in one reminder polling tick.",
			Buckets:   prometheus.DefBuckets,
		}),

		remindersSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Count of meeting reminders delivered, by path.",
		}, []string{"path"}),

		remindersFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_failed_total",
			Help:      "Count of meeting reminders that failed to send, by path.",
		}, []string{"path"}),

		reminderDedupPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_dedup_purged_total",
			Help:      "Count of expired reminder dedup entries removed.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.bookingEvents,
		m.reminderTicks,
		m.reminderQueryErrors,
		m.reminderTickDuration,
		m.remindersSent,
		m.remindersFailed,
		m.reminderDedupPurged,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request count and latency labelled by the chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) BookingEvent(event string) {
	m.bookingEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveTick(result reminder.TickResult, took time.Duration) {
	m.reminderTicks.Inc()
	m.reminderTickDuration.Observe(took.Seconds())
	m.reminderDedupPurged.Add(float64(result.Purged))
	if result.QueryErr != nil {
		m.reminderQueryErrors.Inc()
	}
}

func (m *Metrics) ReminderSent(path string) {
	m.remindersSent.WithLabelValues(path).Inc()
}

func (m *Metrics) ReminderFailed(path string) {
	m.remindersFailed.WithLabelValues(path).Inc()
}
