// Package txn implements the Transaction Manager: named, multi-connection
// transactions that coordinate BEGIN/commit/rollback across one or more
// connection pools, with a background reaper evicting timed-out records.
package txn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sirlordt/cppdbc-go"
	"github.com/sirlordt/cppdbc-go/dberr"
	"github.com/sirlordt/cppdbc-go/log"
	"github.com/sirlordt/cppdbc-go/pool"
)

// Outcome describes what happened to one enlisted connection during a
// commit or rollback, carried on a PartialCommitErr.
type Outcome struct {
	Pool *pool.Pool
	Err  error
}

// PartialCommitErr is the structured payload reported when a mid-commit
// failure leaves some connections committed and others not: it carries
// the (connection → outcome) pairs so the caller can reconcile.
type PartialCommitErr struct {
	TxID     string
	Outcomes []Outcome
}

func (e *PartialCommitErr) Error() string {
	return fmt.Sprintf("transaction %s: partial commit across %d connections", e.TxID, len(e.Outcomes))
}

// Manager owns the id-to-record mapping and a periodic reaper. Its own
// mutex protects only the map; commit/rollback I/O against enlisted
// connections runs outside it, so a slow driver call on one transaction
// never blocks lookups or updates for any other.
type Manager struct {
	logger log.Logger

	mu   sync.RWMutex
	txns map[string]*record

	reapInterval time.Duration
	retention    time.Duration
	stop         chan struct{}
	wg           sync.WaitGroup

	metrics *Metrics
}

// retentionFloor is the minimum time a TIMED_OUT record stays in the map
// after being reaped, regardless of how fast the reaper ticks — long
// enough that a caller's in-flight status check after sleeping past the
// deadline still observes TIMED_OUT instead of "not found".
const retentionFloor = 500 * time.Millisecond

// NewManager builds a Manager and starts its reaper, which scans ACTIVE
// records every reapInterval for ones past their deadline.
func NewManager(reapInterval time.Duration, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.NoOp()
	}
	if reapInterval <= 0 {
		reapInterval = time.Second
	}
	retention := reapInterval * 5
	if retention < retentionFloor {
		retention = retentionFloor
	}
	m := &Manager{
		logger:       logger,
		txns:         make(map[string]*record),
		reapInterval: reapInterval,
		retention:    retention,
		stop:         make(chan struct{}),
		metrics:      newMetrics(),
	}
	m.wg.Add(1)
	go m.runReaper()
	return m
}

// BeginTransaction creates a Transaction Record in ACTIVE, acquires one
// connection from p, switches it to auto-commit=false, issues the
// driver's BEGIN, enlists it, and returns the new id.
func (m *Manager) BeginTransaction(ctx context.Context, p *pool.Pool, timeout time.Duration) (string, error) {
	conn, err := p.GetConnection(ctx)
	if err != nil {
		return "", dberr.Wrap(dberr.CodeDriverConnect, dberr.Resource, err, "beginTransaction: failed to acquire connection")
	}
	if err := prepareEnlisted(ctx, conn); err != nil {
		conn.Close()
		return "", err
	}

	id := uuid.NewString()
	rec := newRecord(id, timeout)
	rec.enlist(p, conn)

	m.mu.Lock()
	m.txns[id] = rec
	m.mu.Unlock()
	m.metrics.setActive(m.activeCount())

	m.logger.Infow("transaction started", "tx_id", id, "timeout", timeout)
	return id, nil
}

// prepareEnlisted switches a freshly-acquired connection to manual commit
// and issues the driver's BEGIN, the common setup BeginTransaction and
// Enlist both need.
func prepareEnlisted(ctx context.Context, conn cppdbc.Connection) error {
	if err := conn.SetAutoCommit(ctx, false); err != nil {
		return err
	}
	return conn.BeginTransaction(ctx)
}

func (m *Manager) lookup(txID string) (*record, error) {
	m.mu.RLock()
	rec, ok := m.txns[txID]
	m.mu.RUnlock()
	if !ok {
		return nil, dberr.New(dberr.CodeTxNotFound, dberr.State, "no such transaction: "+txID)
	}
	if rec.Status() == TimedOut {
		return nil, dberr.New(dberr.CodeTxTimedOut, dberr.Integrity, "transaction "+txID+" timed out")
	}
	return rec, nil
}

// Enlist acquires an additional connection from p, joins it to txId's
// transaction, and returns a handle for executing SQL on it.
func (m *Manager) Enlist(ctx context.Context, txID string, p *pool.Pool) (cppdbc.Connection, error) {
	rec, err := m.lookup(txID)
	if err != nil {
		return nil, err
	}
	if _, ok := rec.find(p); ok {
		return nil, dberr.New(dberr.CodeTxAlreadyEnlisted, dberr.State, "transaction "+txID+" already has a connection enlisted from this pool")
	}

	conn, err := p.GetConnection(ctx)
	if err != nil {
		return nil, dberr.Wrap(dberr.CodeDriverConnect, dberr.Resource, err, "enlist: failed to acquire connection")
	}
	if err := prepareEnlisted(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	rec.enlist(p, conn)
	return conn, nil
}

// GetConnection returns the already-enlisted connection for p if present,
// else behaves like Enlist.
func (m *Manager) GetConnection(ctx context.Context, txID string, p *pool.Pool) (cppdbc.Connection, error) {
	rec, err := m.lookup(txID)
	if err != nil {
		return nil, err
	}
	if conn, ok := rec.find(p); ok {
		return conn, nil
	}
	return m.Enlist(ctx, txID, p)
}

// Commit transitions the record to COMMITTING, issues commit on every
// enlisted connection in enlistment order, and on any failure rolls back
// every remaining connection and returns a *PartialCommitErr whose
// Outcomes hold the first commit error followed by the rollback results.
// Enlisted connections return to their pools regardless of outcome.
func (m *Manager) Commit(ctx context.Context, txID string) error {
	rec, err := m.lookup(txID)
	if err != nil {
		return err
	}
	rec.setStatus(Committing)

	conns := rec.snapshot()
	var outcomes []Outcome
	var firstErr error
	failedAt := -1

	for i, ec := range conns {
		if cerr := ec.conn.Commit(ctx); cerr != nil {
			firstErr = cerr
			failedAt = i
			outcomes = append(outcomes, Outcome{Pool: ec.pool, Err: cerr})
			break
		}
		outcomes = append(outcomes, Outcome{Pool: ec.pool, Err: nil})
	}

	if firstErr == nil {
		rec.setStatus(Committed)
		rec.markFinished(time.Now())
		m.returnAll(ctx, conns)
		m.metrics.setActive(m.activeCount())
		m.metrics.committed.Inc()
		m.logger.Infow("transaction committed", "tx_id", txID, "connections", len(conns), "duration", time.Since(rec.createdAt))
		return nil
	}

	// Roll back everything after the failure point; connections before it
	// already committed and cannot be undone, so this reports a partial
	// commit rather than pretending at atomicity.
	for i := failedAt + 1; i < len(conns); i++ {
		rerr := conns[i].conn.Rollback(ctx)
		outcomes = append(outcomes, Outcome{Pool: conns[i].pool, Err: rerr})
	}

	rec.setStatus(RolledBack)
	rec.markFinished(time.Now())
	m.returnAll(ctx, conns)
	m.metrics.setActive(m.activeCount())
	m.metrics.partialCommits.Inc()
	m.logger.Errorw("transaction partial commit", "tx_id", txID, "failed_at", failedAt, "error", firstErr)
	return &PartialCommitErr{TxID: txID, Outcomes: outcomes}
}

// Rollback transitions the record to ROLLING_BACK, issues rollback on
// every enlisted connection, collects individual failures, and moves the
// record to ROLLED_BACK regardless of per-connection outcome.
func (m *Manager) Rollback(ctx context.Context, txID string) error {
	rec, err := m.lookup(txID)
	if err != nil {
		return err
	}
	rec.setStatus(RollingBack)

	conns := rec.snapshot()
	var outcomes []Outcome
	var failures int
	for _, ec := range conns {
		rerr := ec.conn.Rollback(ctx)
		if rerr != nil {
			failures++
		}
		outcomes = append(outcomes, Outcome{Pool: ec.pool, Err: rerr})
	}

	rec.setStatus(RolledBack)
	rec.markFinished(time.Now())
	m.returnAll(ctx, conns)
	m.metrics.setActive(m.activeCount())
	m.logger.Infow("transaction rolled back", "tx_id", txID, "connections", len(conns), "failures", failures)

	if failures > 0 {
		m.metrics.partialCommits.Inc()
		return &PartialCommitErr{TxID: txID, Outcomes: outcomes}
	}
	m.metrics.rolledBack.Inc()
	return nil
}

// returnAll hands every enlisted connection back to its pool. The
// return algorithm (reset auto-commit/isolation) applies via the normal
// pooledConn.Close path.
func (m *Manager) returnAll(ctx context.Context, conns []*enlistedConn) {
	for _, ec := range conns {
		if err := ec.conn.Close(); err != nil {
			m.logger.Warnw("failed to return enlisted connection to pool", "error", err)
		}
	}
}

// evict removes a record from the map once it has been retained long
// enough past its terminal state for in-flight status queries to have
// had a chance to observe it.
func (m *Manager) evict(txID string) {
	m.mu.Lock()
	delete(m.txns, txID)
	m.mu.Unlock()
	m.metrics.setActive(m.activeCount())
}

// activeCount reports transactions that have not yet reached a terminal
// state, excluding retained COMMITTED/ROLLED_BACK/TIMED_OUT records still
// awaiting eviction.
func (m *Manager) activeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, rec := range m.txns {
		if rec.isActive() {
			n++
		}
	}
	return n
}

// Status reports the current state of a transaction without mutating it,
// used by callers polling after a timeout or partial commit.
func (m *Manager) Status(txID string) (Status, error) {
	m.mu.RLock()
	rec, ok := m.txns[txID]
	m.mu.RUnlock()
	if !ok {
		return 0, dberr.New(dberr.CodeTxNotFound, dberr.State, "no such transaction: "+txID)
	}
	return rec.Status(), nil
}

// Close stops the reaper. Active transactions are left as-is; callers are
// expected to commit or roll back before shutting the manager down.
func (m *Manager) Close() error {
	close(m.stop)
	m.wg.Wait()
	return nil
}
