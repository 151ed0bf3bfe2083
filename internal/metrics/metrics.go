package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chitchat_bus_events_published_total",
		Help: "The total number of envelopes published on the event bus",
	}, []string{"topic"})

	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chitchat_bus_events_dropped_total",
		Help: "Envelopes dropped because a subscriber fell behind",
	}, []string{"topic", "policy"})

	SlowConsumerDisconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chitchat_bus_slow_consumer_disconnects_total",
		Help: "Subscriptions closed by the disconnect policy after their buffer overflowed",
	}, []string{"topic"})

	DeliveryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chitchat_delivery_failures_total",
		Help: "Panics or errors recovered inside a single subscriber's delivery path",
	}, []string{"topic"})

	ActiveSubscriptions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chitchat_bus_subscriptions",
		Help: "Currently registered subscription handles",
	}, []string{"topic"})

	RelayErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chitchat_relay_errors_total",
		Help: "Failures forwarding envelopes to or from the cross-node broker",
	}, []string{"broker", "direction"})

	AggregationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chitchat_notifications_aggregation_seconds",
		Help:    "Time taken to build one notification page",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	AggregationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chitchat_notifications_source_errors_total",
		Help: "Notification source queries that failed",
	}, []string{"source"})

	PushSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chitchat_push_sent_total",
		Help: "Push notifications handed to the sender",
	})

	PushErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chitchat_push_errors_total",
		Help: "Push notifications the sender failed to deliver",
	})

	PushDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chitchat_push_dropped_total",
		Help: "Push notifications rejected because the queue was full",
	})

	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chitchat_live_connections",
		Help: "Open websocket connections",
	})
)
