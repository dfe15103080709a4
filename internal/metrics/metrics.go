// Package metrics は Prometheus のコレクタをまとめて定義します。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "leitner"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	CardsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cards_created_total",
		Help:      "Number of cards created through the daily quota.",
	})

	QuotaExceededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quota_exceeded_total",
		Help:      "Number of card creations rejected by the daily limit.",
	})

	QuotaIncrementFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quota_increment_failures_total",
		Help:      "Number of cards kept although the quota counter could not be incremented.",
	})

	ReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_total",
			Help:      "Number of submitted review outcomes.",
		},
		[]string{"outcome"},
	)

	RemindersSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_sent_total",
		Help:      "Number of due-card reminders handed to the notifier.",
	})
)

// ReviewOutcome は reviews_total のラベル値を返します。
func ReviewOutcome(remembered bool) string {
	if remembered {
		return "remembered"
	}
	return "forgotten"
}
