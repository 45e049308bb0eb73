// Package metrics holds the Prometheus collectors shared by the agenda
// services.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "agenda"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		},
		[]string{"method", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		},
	)

	slotsListed = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "slots_listed",
			Help:      "Number of slots returned per availability listing.",
			Buckets:   []float64{0, 1, 5, 10, 20, 40, 80},
		},
		[]string{"service_id"},
	)

	slotsCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slots_cache_total",
			Help:      "Slot cache lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)

	checks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflict_checks_total",
			Help:      "Conflict checks by outcome (proceed, blocked).",
		},
		[]string{"outcome"},
	)

	conflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflicts_total",
			Help:      "Conflicts reported by kind and severity.",
		},
		[]string{"kind", "severity"},
	)

	bookingWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_writes_total",
			Help:      "Booking writes by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	lockContention = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_lock_contention_total",
			Help:      "Writes that found the business day already locked.",
		},
	)

	kafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_messages_total",
			Help:      "Kafka messages by topic, direction and outcome.",
		},
		[]string{"topic", "direction", "outcome"},
	)

	kafkaDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_handle_duration_seconds",
			Help:      "Time spent handling a consumed Kafka message.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
)

// Register registers all collectors with the default registry. Safe to call
// more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration, rateLimited,
			slotsListed, slotsCache, checks, conflicts,
			bookingWrites, lockContention,
			kafkaMessages, kafkaDuration,
		)
	})
}

func ObserveHTTP(method string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func IncRateLimited() {
	rateLimited.Inc()
}

func ObserveSlotsListed(serviceID string, n int) {
	slotsListed.WithLabelValues(serviceID).Observe(float64(n))
}

func IncSlotsCache(result string) {
	slotsCache.WithLabelValues(result).Inc()
}

func IncCheck(canProceed bool) {
	outcome := "blocked"
	if canProceed {
		outcome = "proceed"
	}
	checks.WithLabelValues(outcome).Inc()
}

func IncConflict(kind, severity string) {
	conflicts.WithLabelValues(kind, severity).Inc()
}

func IncBookingWrite(operation, outcome string) {
	bookingWrites.WithLabelValues(operation, outcome).Inc()
}

func IncLockContention() {
	lockContention.Inc()
}

func IncKafkaMessage(topic, direction, outcome string) {
	kafkaMessages.WithLabelValues(topic, direction, outcome).Inc()
}

func ObserveKafkaHandle(topic string, elapsed time.Duration) {
	kafkaDuration.WithLabelValues(topic).Observe(elapsed.Seconds())
}
