package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fx"

// ============ Quote locks ============

// QuoteLocksCreated counts locks minted, by channel and pair.
var QuoteLocksCreated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "quote_lock",
		Name:      "created_total",
		Help:      "Total number of quote locks created",
	},
	[]string{"channel", "pair"},
)

// QuoteLockOutcomes counts terminal lock transitions and failed consume attempts.
var QuoteLockOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "quote_lock",
		Name:      "outcomes_total",
		Help:      "Quote lock consume/cancel/expire outcomes",
	},
	[]string{"outcome"}, // used, expired, cancelled, conflict, not_found
)

// SweepDuration observes how long one expiry sweep took.
var SweepDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "quote_lock",
		Name:      "sweep_duration_seconds",
		Help:      "Duration of a quote lock expiry sweep",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	},
)

// ============ Rates ============

// RateFetches counts channel rate fetches by result.
var RateFetches = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rate",
		Name:      "fetches_total",
		Help:      "Channel rate fetches",
	},
	[]string{"channel", "result"}, // ok, error, rejected
)

// RateUnavailable counts quotes refused for lack of a current rate.
var RateUnavailable = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rate",
		Name:      "unavailable_total",
		Help:      "Quotes refused because no current raw rate exists",
	},
	[]string{"pair"},
)

// ============ Orders ============

// OrderTransitions counts order status changes by target status.
var OrderTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "order",
		Name:      "transitions_total",
		Help:      "Order state machine transitions",
	},
	[]string{"to"},
)

// InvalidTransitions counts rejected edges. Non-zero means an integration is misbehaving.
var InvalidTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "order",
		Name:      "invalid_transitions_total",
		Help:      "Rejected order status transitions",
	},
	[]string{"from", "to"},
)

// ChannelCallLatency observes inquiry and execution round trips.
var ChannelCallLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "channel",
		Name:      "call_latency_seconds",
		Help:      "Channel gateway call latency",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	},
	[]string{"channel", "call"}, // inquiry, execution, fetch_rate
)

// ============ Events ============

// EventsPublished counts event bus publishes by result.
var EventsPublished = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Order events handed to the bus",
	},
	[]string{"result"}, // ok, error, dropped
)

// EventQueueDepth is the number of events waiting to be published.
var EventQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "queue_depth",
		Help:      "Events buffered for publishing",
	},
)

// ============ HTTP ============

// HTTPRequestDuration observes handler latency by route and status.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

// RateLimited counts requests rejected by the rate limiter.
var RateLimited = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	},
)
