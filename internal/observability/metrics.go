package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the projector.
type Metrics struct {
	// --- Batch pipeline ---
	BatchesProcessed prometheus.Counter
	BatchesFailed    prometheus.Counter
	BatchesSkipped   prometheus.Counter // below first-block-height cutoff
	BatchDuration    prometheus.Histogram
	BatchInFlight    prometheus.Gauge

	// --- Handlers ---
	EventsApplied   *prometheus.CounterVec // by event type
	EventsIgnored   prometheus.Counter     // unrecognized tags, skipped by design
	HandlerDuration *prometheus.HistogramVec
	HandlerFailures *prometheus.CounterVec

	// --- Derived state ---
	ActivitiesWritten     prometheus.Counter
	LowestPriceRecomputes *prometheus.CounterVec // by trigger

	// --- Metadata resolver ---
	ResolverFetches  prometheus.Counter
	ResolverFailures *prometheus.CounterVec // by reason

	// --- Queue consumer ---
	ConsumerDeliveries prometheus.Counter
	ConsumerReconnects prometheus.Counter

	// --- Query API ---
	QueryRequests *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		BatchesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "projector_batches_processed_total",
			Help: "Batches committed successfully",
		}),
		BatchesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "projector_batches_failed_total",
			Help: "Batches aborted by a handler failure",
		}),
		BatchesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "projector_batches_skipped_total",
			Help: "Batches below the first-block-height cutoff",
		}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "projector_batch_duration_seconds",
			Help:    "Wall time to apply one batch",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		BatchInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "projector_batch_in_flight",
			Help: "Batches currently being applied (0 or 1 by contract)",
		}),
		EventsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "projector_events_applied_total",
			Help: "Events applied by handler",
		}, []string{"event_type"}),
		EventsIgnored: factory.NewCounter(prometheus.CounterOpts{
			Name: "projector_events_ignored_total",
			Help: "Events with unrecognized tags, skipped",
		}),
		HandlerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "projector_handler_duration_seconds",
			Help:    "Handler execution time",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"event_type"}),
		HandlerFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "projector_handler_failures_total",
			Help: "Handler failures by event type",
		}, []string{"event_type"}),
		ActivitiesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "projector_activities_written_total",
			Help: "Activity records appended",
		}),
		LowestPriceRecomputes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "projector_lowest_price_recomputes_total",
			Help: "Lowest-ask recomputations by trigger",
		}, []string{"trigger"}),
		ResolverFetches: factory.NewCounter(prometheus.CounterOpts{
			Name: "projector_resolver_fetches_total",
			Help: "Metadata references resolved",
		}),
		ResolverFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "projector_resolver_failures_total",
			Help: "Metadata resolution failures by reason",
		}, []string{"reason"}),
		ConsumerDeliveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "projector_consumer_deliveries_total",
			Help: "Queue messages received",
		}),
		ConsumerReconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "projector_consumer_reconnects_total",
			Help: "Queue connection rebuilds",
		}),
		QueryRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "projector_query_requests_total",
			Help: "Read API requests by route and status",
		}, []string{"route", "status"}),
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "projector_query_duration_seconds",
			Help:    "Read API latency by route",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"route"}),
	}
}
