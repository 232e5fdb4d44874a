package lock

import "github.com/prometheus/client_golang/prometheus"

// Operation results recorded in lock_operations_total.
const (
	resultOK      = "ok"
	resultHeld    = "held"
	resultMissing = "missing"
	resultError   = "error"
)

// Metrics holds the lock service collectors.
type Metrics struct {
	operations *prometheus.CounterVec
	swept      prometheus.Counter
}

// NewMetrics creates the lock collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lock_operations_total",
				Help: "Lock operations by operation and result.",
			},
			[]string{"op", "result"},
		),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lock_swept_total",
			Help: "Expired locks deleted by the sweeper.",
		}),
	}
	reg.MustRegister(m.operations, m.swept)
	return m
}

func (m *Metrics) observe(op, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) sweptN(n int) {
	if m == nil {
		return
	}
	m.swept.Add(float64(n))
}
