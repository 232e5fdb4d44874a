package livelist

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the live list collectors.
type Metrics struct {
	pageFetch *prometheus.HistogramVec
}

// NewMetrics creates the live list collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pageFetch: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "livelist_page_fetch_seconds",
				Help:    "Latency of list page fetches.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"collection", "kind"},
		),
	}
	reg.MustRegister(m.pageFetch)
	return m
}

func (m *Metrics) observeFetch(collection, kind string, start time.Time) {
	if m == nil {
		return
	}
	m.pageFetch.WithLabelValues(collection, kind).Observe(time.Since(start).Seconds())
}
