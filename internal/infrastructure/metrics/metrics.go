package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the realtime-session counters exposed on /metrics.
type Metrics struct {
	SessionsActive     prometheus.Gauge
	RoomsActive        prometheus.Gauge
	EventsPublished    *prometheus.CounterVec
	DeliveriesDropped  prometheus.Counter
	DedupSuppressed    prometheus.Counter
	SnapshotsDelivered prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tabshare_sessions_active",
			Help: "Number of live websocket sessions.",
		}),
		RoomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tabshare_rooms_active",
			Help: "Number of rooms with at least one live session.",
		}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tabshare_events_published_total",
			Help: "Timeline events fanned out to room subscribers.",
		}, []string{"kind"}),
		DeliveriesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabshare_deliveries_dropped_total",
			Help: "Per-session deliveries dropped because the send buffer was full.",
		}),
		DedupSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabshare_dedup_suppressed_total",
			Help: "Deliveries suppressed by the per-session dedup window.",
		}),
		SnapshotsDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "tabshare_snapshots_delivered_total",
			Help: "Historical snapshots served on session join.",
		}),
	}
}
