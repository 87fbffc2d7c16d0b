package interaction

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what trackers see. One instance is shared by all trackers of a process.
type Metrics struct {
	// EventsTotal counts normalized events by kind.
	EventsTotal *prometheus.CounterVec
	// EventsThrottled counts movement inputs dropped by the movement limiter.
	EventsThrottled prometheus.Counter
	// EventsEvicted counts events pushed out of a full event log.
	EventsEvicted prometheus.Counter
}

// NewMetrics registers tracker metrics with reg. A nil reg uses a private registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		EventsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "footprint_events_total",
			Help: "Total number of tracked interaction events.",
		}, []string{"kind"}),

		EventsThrottled: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "footprint_events_throttled_total",
			Help: "Movement inputs dropped by throttling.",
		}),

		EventsEvicted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "footprint_events_evicted_total",
			Help: "Events evicted from full event logs.",
		}),
	}
}
