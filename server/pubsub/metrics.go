package pubsub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// hubMetrics belongs to one Hub; a nil registerer leaves them unregistered
type hubMetrics struct {
	online      prometheus.Gauge
	subscribers *prometheus.GaugeVec
	published   *prometheus.CounterVec
	dropped     *prometheus.CounterVec
}

func newHubMetrics(reg prometheus.Registerer) *hubMetrics {
	factory := promauto.With(reg)
	return &hubMetrics{
		online: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "racer",
			Subsystem: "hub",
			Name:      "online_connections",
			Help:      "Open websocket connections.",
		}),
		subscribers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "racer",
			Subsystem: "hub",
			Name:      "subscribers",
			Help:      "Subscriptions per topic.",
		}, []string{"topic"}),
		published: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "racer",
			Subsystem: "hub",
			Name:      "published_messages_total",
			Help:      "Messages published per topic.",
		}, []string{"topic"}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "racer",
			Subsystem: "hub",
			Name:      "dropped_messages_total",
			Help:      "Queued messages evicted from lagging subscribers.",
		}, []string{"topic"}),
	}
}
