// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handover_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "handover_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "handover_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Ward metrics
	patientsAdmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handover_patients_admitted_total",
			Help: "Total number of patients added to a ward",
		},
		[]string{"ward"},
	)

	patientsDischarged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handover_patients_discharged_total",
			Help: "Total number of patients discharged",
		},
		[]string{"ward"},
	)

	handoverNotesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handover_notes_created_total",
			Help: "Total number of SBAR handover notes written",
		},
		[]string{"shift_type"},
	)

	reviewRequestsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handover_review_requests_created_total",
			Help: "Total number of Hospital at Night review requests raised",
		},
		[]string{"priority"},
	)

	reviewStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handover_review_status_changes_total",
			Help: "Total number of review status transitions",
		},
		[]string{"from_status", "to_status"},
	)

	reviewComments = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "handover_review_comments_total",
			Help: "Total number of comments added to review requests",
		},
	)

	auditEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "handover_audit_entries_total",
			Help: "Total number of audit entries recorded",
		},
	)

	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handover_events_published_total",
			Help: "Total number of change events handed to the publisher",
		},
		[]string{"type", "result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count, latency and in-flight requests. Paths
// are labelled by route template so ids do not explode cardinality.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}

			path := routePath(c)
			httpRequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func routePath(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return "unmatched"
}

// --- Ward metric helpers ---

func RecordPatientAdmitted(ward string) {
	patientsAdmitted.WithLabelValues(ward).Inc()
}

func RecordPatientDischarged(ward string) {
	patientsDischarged.WithLabelValues(ward).Inc()
}

func RecordHandoverNote(shiftType string) {
	handoverNotesCreated.WithLabelValues(shiftType).Inc()
}

func RecordReviewRequest(priority string) {
	reviewRequestsCreated.WithLabelValues(priority).Inc()
}

// RecordReviewStatusChange records a review status transition. Repeated
// completions of an already complete entry are counted too.
func RecordReviewStatusChange(from, to string) {
	reviewStatusChanges.WithLabelValues(from, to).Inc()
}

func RecordReviewComment() {
	reviewComments.Inc()
}

func RecordAuditEntry() {
	auditEntriesTotal.Inc()
}

// RecordEventPublished counts a publish attempt; result is "ok" or "error".
func RecordEventPublished(eventType, result string) {
	eventsPublished.WithLabelValues(eventType, result).Inc()
}
