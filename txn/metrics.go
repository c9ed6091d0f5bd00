package txn

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics mirrors pool/metrics.go's shape for the transaction manager:
// active transaction count as a gauge, terminal outcomes as counters.
type Metrics struct {
	activeCount    prometheus.Gauge
	committed      prometheus.Counter
	rolledBack     prometheus.Counter
	timedOut       prometheus.Counter
	partialCommits prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		activeCount:    prometheus.NewGauge(prometheus.GaugeOpts{Name: "cppdbc_txn_active_count", Help: "Transactions currently ACTIVE, COMMITTING, or ROLLING_BACK."}),
		committed:      prometheus.NewCounter(prometheus.CounterOpts{Name: "cppdbc_txn_committed_total", Help: "Transactions that reached COMMITTED."}),
		rolledBack:     prometheus.NewCounter(prometheus.CounterOpts{Name: "cppdbc_txn_rolled_back_total", Help: "Transactions that reached ROLLED_BACK."}),
		timedOut:       prometheus.NewCounter(prometheus.CounterOpts{Name: "cppdbc_txn_timed_out_total", Help: "Transactions reaped for exceeding their deadline."}),
		partialCommits: prometheus.NewCounter(prometheus.CounterOpts{Name: "cppdbc_txn_partial_commits_total", Help: "Commits that failed partway through enlistment, and rollbacks in which at least one connection failed."}),
	}
}

// Register adds this manager's collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.activeCount, m.committed, m.rolledBack, m.timedOut, m.partialCommits} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) setActive(n int) { m.activeCount.Set(float64(n)) }
