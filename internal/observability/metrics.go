package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	authzCheckErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubdesk",
		Subsystem: "authz",
		Name:      "check_errors_total",
		Help:      "Lookup errors swallowed by the fail-closed super-admin check, by source.",
	}, []string{"source"})
	inviteRedemptions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubdesk",
		Subsystem: "invites",
		Name:      "redemptions_total",
		Help:      "Invite redemption attempts by outcome.",
	}, []string{"outcome"})
	goalCompletions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "clubdesk",
		Subsystem: "goals",
		Name:      "completions_total",
		Help:      "Goals transitioned to completed by the reconciler.",
	})
	outboxRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubdesk",
		Subsystem: "outbox",
		Name:      "retries_total",
		Help:      "Outbox replay attempts by action type and outcome.",
	}, []string{"action", "outcome"})
	dbQueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "clubdesk",
		Subsystem: "storage",
		Name:      "query_duration_seconds",
		Help:      "SQLite query latency by operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "clubdesk",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and status class.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "status"})
)

func init() {
	prometheus.MustRegister(
		authzCheckErrors,
		inviteRedemptions,
		goalCompletions,
		outboxRetries,
		dbQueryDuration,
		httpRequestDuration,
	)
}

// RecordAuthzCheckError counts a swallowed lookup failure in the
// super-admin check. The authorization decision stays fail-closed; the
// counter is how provider outages become visible.
func RecordAuthzCheckError(source string) {
	authzCheckErrors.WithLabelValues(source).Inc()
}

// RecordInviteRedemption counts a redemption attempt by outcome
// (success, not-found, not-pending, expired, email-mismatch, error).
func RecordInviteRedemption(outcome string) {
	inviteRedemptions.WithLabelValues(outcome).Inc()
}

// RecordGoalCompletion counts a goal completed by the reconciler.
func RecordGoalCompletion() {
	goalCompletions.Inc()
}

// RecordOutboxRetry counts an outbox replay attempt.
func RecordOutboxRetry(action, outcome string) {
	outboxRetries.WithLabelValues(action, outcome).Inc()
}

// RecordDBQuery observes a storage query duration.
func RecordDBQuery(op string, d time.Duration) {
	dbQueryDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordHTTPRequest observes an HTTP request duration.
func RecordHTTPRequest(route, status string, d time.Duration) {
	httpRequestDuration.WithLabelValues(route, status).Observe(d.Seconds())
}
