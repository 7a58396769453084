// Package observability aggregates runtime counters for the /metrics and
// /debug/stats surfaces.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ConnectionsActive prometheus.Gauge
	MessagesSent      prometheus.Counter
	ReadReceipts      prometheus.Counter
	CensorHits        prometheus.Counter
	EventsBroadcast   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chatwire",
			Name:      "connections_active",
			Help:      "Live websocket connections.",
		}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatwire",
			Name:      "messages_sent_total",
			Help:      "Messages accepted and persisted by the pipeline.",
		}),
		ReadReceipts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatwire",
			Name:      "read_receipts_total",
			Help:      "Effective bulk mark-read operations (no-ops excluded).",
		}),
		CensorHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatwire",
			Name:      "censor_hits_total",
			Help:      "Messages that contained at least one censored word.",
		}),
		EventsBroadcast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatwire",
			Name:      "events_broadcast_total",
			Help:      "Events delivered to sinks, by event name.",
		}, []string{"event"}),
	}
	reg.MustRegister(
		m.ConnectionsActive,
		m.MessagesSent,
		m.ReadReceipts,
		m.CensorHits,
		m.EventsBroadcast,
	)
	return m
}
