package txn

import (
	"sync"
	"time"

	"github.com/sirlordt/cppdbc-go"
	"github.com/sirlordt/cppdbc-go/pool"
)

// Status is the Transaction Record's lifecycle state. The set is closed:
// a transaction moves forward through it and is never reused once it
// reaches a terminal state.
type Status int

const (
	Active Status = iota
	Committing
	RollingBack
	Committed
	RolledBack
	TimedOut
)

func (s Status) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case Committing:
		return "COMMITTING"
	case RollingBack:
		return "ROLLING_BACK"
	case Committed:
		return "COMMITTED"
	case RolledBack:
		return "ROLLED_BACK"
	case TimedOut:
		return "TIMED_OUT"
	default:
		return "UNKNOWN"
	}
}

// enlistedConn is one connection joined to a transaction: the pool it
// came from (keyed by pool identity for getConnection/enlist lookups)
// and the handle itself, in the order it was enlisted.
type enlistedConn struct {
	pool *pool.Pool
	conn cppdbc.Connection
}

// record is a Transaction Record: an opaque id, its ordered enlistment
// list, a status, and a deadline the reaper checks. All mutable state is
// guarded by mu so reads from status queries never race writers.
type record struct {
	id        string
	createdAt time.Time
	deadline  time.Time

	mu         sync.Mutex
	status     Status
	enlisted   []*enlistedConn
	finishedAt time.Time
}

func (s Status) terminal() bool {
	switch s {
	case Committed, RolledBack, TimedOut:
		return true
	default:
		return false
	}
}

func newRecord(id string, timeout time.Duration) *record {
	now := time.Now()
	return &record{
		id:        id,
		createdAt: now,
		deadline:  now.Add(timeout),
		status:    Active,
	}
}

func (r *record) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *record) setStatus(s Status) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}

func (r *record) findLocked(p *pool.Pool) (cppdbc.Connection, bool) {
	for _, e := range r.enlisted {
		if e.pool == p {
			return e.conn, true
		}
	}
	return nil, false
}

func (r *record) find(p *pool.Pool) (cppdbc.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(p)
}

// enlist appends conn under p, preserving enlistment order so commit and
// rollback visit connections in the order they joined the transaction.
func (r *record) enlist(p *pool.Pool, conn cppdbc.Connection) {
	r.mu.Lock()
	r.enlisted = append(r.enlisted, &enlistedConn{pool: p, conn: conn})
	r.mu.Unlock()
}

// snapshot returns the enlisted connections in enlistment order, safe to
// range over without holding r.mu during the commit/rollback I/O.
func (r *record) snapshot() []*enlistedConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*enlistedConn, len(r.enlisted))
	copy(out, r.enlisted)
	return out
}

func (r *record) expired(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status == Active && now.After(r.deadline)
}

// readyForEviction reports whether a record that reached a terminal state
// (COMMITTED, ROLLED_BACK, or TIMED_OUT) has been retained long enough
// for a caller's in-flight status query to observe it before it is
// evicted from the map.
func (r *record) readyForEviction(now time.Time, retention time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status.terminal() && !r.finishedAt.IsZero() && now.Sub(r.finishedAt) > retention
}

// markFinished stamps the time a record reached a terminal state, setting
// the eviction-retention clock running.
func (r *record) markFinished(now time.Time) {
	r.mu.Lock()
	r.finishedAt = now
	r.mu.Unlock()
}

// isActive reports whether a record has not yet reached a terminal
// state, used to report the Transaction Manager's active-transaction
// count without counting retained, already-finished records.
func (r *record) isActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.status.terminal()
}
