package pool

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the pool's sizing invariants (borrowedCount,
// currentSize, idle) as Prometheus gauges, turning a testable property
// into an operationally observable one.
type Metrics struct {
	once sync.Once

	currentSize   prometheus.Gauge
	borrowedCount prometheus.Gauge
	idleCount     prometheus.Gauge
	waiterCount   prometheus.Gauge
	timeouts      prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		currentSize:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "cppdbc_pool_current_size", Help: "Total live connections in the pool."}),
		borrowedCount: prometheus.NewGauge(prometheus.GaugeOpts{Name: "cppdbc_pool_borrowed_count", Help: "Connections currently checked out."}),
		idleCount:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "cppdbc_pool_idle_count", Help: "Connections currently idle."}),
		waiterCount:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "cppdbc_pool_waiter_count", Help: "Goroutines blocked on GetConnection."}),
		timeouts:      prometheus.NewCounter(prometheus.CounterOpts{Name: "cppdbc_pool_acquire_timeouts_total", Help: "Acquire attempts that failed with a timeout."}),
	}
}

// Register adds this pool's collectors to reg. Optional: a Pool built
// via New works without ever calling Register, since nothing on the
// GetConnection/release path depends on a registry being present.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.currentSize, m.borrowedCount, m.idleCount, m.waiterCount, m.timeouts} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) setCurrentSize(n int) { m.currentSize.Set(float64(n)) }
func (m *Metrics) setBorrowed(n int)    { m.borrowedCount.Set(float64(n)) }
func (m *Metrics) setIdle(n int)        { m.idleCount.Set(float64(n)) }
func (m *Metrics) recordTimeout()       { m.timeouts.Inc() }
