package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "storefront"

var (
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Domain events written to Kafka, by topic and outcome.",
	}, []string{"topic", "outcome"})

	eventPublishSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "events",
		Name:      "publish_duration_seconds",
		Help:      "Latency of Kafka writes for domain events.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"topic"})
)

func observePublish(topic string, start time.Time, err error) {
	eventPublishSeconds.WithLabelValues(topic).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	eventsPublished.WithLabelValues(topic, outcome).Inc()
}
