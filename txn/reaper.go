package txn

import (
	"context"
	"time"
)

// runReaper scans ACTIVE records every reapInterval; records past their
// deadline are moved to TIMED_OUT and then driven through rollback,
// mirroring pool/validator.go's ticker-plus-stop-channel shape. Reaped
// records are retained for the manager's retention window
// (max(5×reapInterval, retentionFloor)) so a caller's in-flight status
// check still observes TIMED_OUT rather than "not found".
func (m *Manager) runReaper() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.reapExpired()
			m.evictReaped()
		}
	}
}

func (m *Manager) reapExpired() {
	now := time.Now()

	m.mu.RLock()
	var expired []string
	for id, rec := range m.txns {
		if rec.expired(now) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		m.mu.RLock()
		rec, ok := m.txns[id]
		m.mu.RUnlock()
		if !ok {
			continue
		}
		rec.setStatus(TimedOut)
		m.logger.Warnw("transaction timed out, rolling back", "tx_id", id)

		// Drive the reaped record's connections through rollback directly
		// (not via Rollback, which would reject a TimedOut record via
		// lookup) and leave the record itself TIMED_OUT rather than
		// overwriting it to ROLLED_BACK: TIMED_OUT is the terminal state
		// a caller should observe for this path.
		conns := rec.snapshot()
		ctx := context.Background()
		for _, ec := range conns {
			if err := ec.conn.Rollback(ctx); err != nil {
				m.logger.Warnw("reaper rollback failed", "tx_id", id, "error", err)
			}
		}
		m.returnAll(ctx, conns)
		m.metrics.setActive(m.activeCount())
		m.metrics.timedOut.Inc()
		rec.markFinished(time.Now())
	}
}

// evictReaped removes records that reached a terminal state (via commit,
// rollback, or reaping) and have sat past the retention window, keeping
// the map from growing unbounded.
func (m *Manager) evictReaped() {
	now := time.Now()
	m.mu.RLock()
	var ready []string
	for id, rec := range m.txns {
		if rec.readyForEviction(now, m.retention) {
			ready = append(ready, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range ready {
		m.evict(id)
	}
}
