// Package pool implements the bounded connection pool and pooled
// connection wrapper: a set of live driver connections, borrowed or
// idle, handed out under a fair FIFO waiter discipline and reset to
// known-good state on return.
package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirlordt/cppdbc-go"
	"github.com/sirlordt/cppdbc-go/config"
	"github.com/sirlordt/cppdbc-go/dberr"
	"github.com/sirlordt/cppdbc-go/log"
)

// entry is one live connection and the bookkeeping the pool keeps about
// it: when it last went idle (for idle-reap) and whether a previous
// operation poisoned it.
type entry struct {
	conn       cppdbc.Connection
	idleSince  time.Time
	poisoned   bool
}

// Pool is a bounded set of live connections against one driver/URL,
// handed out as pooledConn wrappers. Pool must be constructed with New;
// the zero value is not usable, since wrappers need a stable *Pool
// address to hold a back-reference to.
type Pool struct {
	driver   cppdbc.Driver
	url      string
	user     string
	password string
	opts     *cppdbc.Options
	cfg      config.Pool
	logger   log.Logger

	mu          sync.Mutex
	idle        []*entry
	borrowed    map[*entry]bool
	currentSize int
	alive       atomic.Bool

	waiters *waitQueue
	metrics *Metrics

	stopValidation chan struct{}
	validationWG   sync.WaitGroup
}

// New constructs a Pool and eagerly builds its InitialSize connections.
// A failure constructing any of the initial connections is fatal: the
// whole New call fails and no partially-built pool is returned.
func New(ctx context.Context, driver cppdbc.Driver, url, user, password string, opts *cppdbc.Options, cfg config.Pool, logger log.Logger) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NoOp()
	}

	p := &Pool{
		driver:         driver,
		url:            url,
		user:           user,
		password:       password,
		opts:           opts,
		cfg:            cfg,
		logger:         logger,
		borrowed:       make(map[*entry]bool),
		waiters:        newWaitQueue(),
		metrics:        newMetrics(),
		stopValidation: make(chan struct{}),
	}
	p.alive.Store(true)

	for i := 0; i < cfg.InitialSize; i++ {
		conn, err := p.createConnection(ctx)
		if err != nil {
			return nil, dberr.Wrap(dberr.CodePoolInitFatal, dberr.Resource, err, "initial pool sizing failed")
		}
		p.idle = append(p.idle, &entry{conn: conn, idleSince: time.Now()})
		p.currentSize++
	}
	p.metrics.setCurrentSize(p.currentSize)
	p.metrics.setIdle(len(p.idle))

	p.validationWG.Add(1)
	go p.runValidation()

	logger.Infow("pool started", "url", url, "initial_size", cfg.InitialSize, "max_size", cfg.MaxSize)
	return p, nil
}

func (p *Pool) createConnection(ctx context.Context) (cppdbc.Connection, error) {
	conn, err := p.driver.Connect(ctx, p.url, p.user, p.password, p.opts)
	if err != nil {
		return nil, err
	}
	if err := conn.SetAutoCommit(ctx, p.cfg.DefaultAutoCommit); err != nil {
		conn.Close()
		return nil, err
	}
	if level, ok := parseIsolation(p.cfg.DefaultIsolation); ok {
		if err := conn.SetTransactionIsolation(ctx, level); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

// GetConnection takes an idle connection if one validates, else grows
// under maxSize, else waits FIFO for up to cfg.AcquireTimeout.
func (p *Pool) GetConnection(ctx context.Context) (cppdbc.Connection, error) {
	if !p.alive.Load() {
		return nil, dberr.New(dberr.CodePoolClosed, dberr.Resource, "pool is closed")
	}

	p.mu.Lock()
	if e := p.takeIdleLocked(); e != nil {
		p.mu.Unlock()
		if err := p.driver.Validate(ctx, e.conn); err != nil {
			p.discard(e)
			return p.GetConnection(ctx)
		}
		p.markBorrowed(e)
		return p.wrap(e), nil
	}

	if p.currentSize < p.cfg.MaxSize {
		p.mu.Unlock()
		conn, err := p.createConnection(ctx)
		if err != nil {
			return nil, dberr.Wrap(dberr.CodeDriverConnect, dberr.Driver, err, "failed to grow pool")
		}
		e := &entry{conn: conn}
		p.mu.Lock()
		p.currentSize++
		p.borrowed[e] = true
		p.metrics.setCurrentSize(p.currentSize)
		p.metrics.setBorrowed(len(p.borrowed))
		p.mu.Unlock()
		return p.wrap(e), nil
	}
	p.mu.Unlock()

	if p.cfg.AcquireTimeout <= 0 {
		return nil, dberr.New(dberr.CodePoolExhausted, dberr.Resource, "pool exhausted, acquire_timeout is zero")
	}

	waitCtx, cancel := context.WithTimeout(ctx, p.cfg.AcquireTimeout)
	defer cancel()

	p.metrics.waiterCount.Inc()
	e, err := p.waiters.wait(waitCtx)
	p.metrics.waiterCount.Dec()
	if err != nil {
		p.metrics.recordTimeout()
		return nil, dberr.New(dberr.CodePoolTimeout, dberr.Resource, "acquire timed out waiting for a connection")
	}
	p.markBorrowed(e)
	return p.wrap(e), nil
}

// takeIdleLocked pops the most recently returned idle entry (LIFO among
// idle, which favors keeping fewer connections warm) and returns nil if
// none are idle. Caller holds p.mu.
func (p *Pool) takeIdleLocked() *entry {
	n := len(p.idle)
	if n == 0 {
		return nil
	}
	e := p.idle[n-1]
	p.idle = p.idle[:n-1]
	return e
}

func (p *Pool) markBorrowed(e *entry) {
	p.mu.Lock()
	p.borrowed[e] = true
	p.metrics.setIdle(len(p.idle))
	p.metrics.setBorrowed(len(p.borrowed))
	p.mu.Unlock()
}

func (p *Pool) wrap(e *entry) cppdbc.Connection {
	return newPooledConn(p, e)
}

// discard closes e's underlying connection, decrements currentSize, and
// wakes one waiter so a replacement may be constructed. Caller must NOT
// hold p.mu.
func (p *Pool) discard(e *entry) {
	e.conn.Close()
	p.mu.Lock()
	p.currentSize--
	p.metrics.setCurrentSize(p.currentSize)
	p.mu.Unlock()
	p.wakeOrReplace()
}

// wakeOrReplace tries to hand a waiter a freshly constructed connection
// if capacity allows, otherwise does nothing — the next acquire attempt
// will simply see headroom in currentSize.
func (p *Pool) wakeOrReplace() {
	if !p.waiters.hasWaiters() {
		return
	}
	p.mu.Lock()
	if p.currentSize >= p.cfg.MaxSize {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	conn, err := p.createConnection(context.Background())
	if err != nil {
		p.logger.Warnw("failed to build replacement connection for waiter", "error", err)
		return
	}
	e := &entry{conn: conn}
	p.mu.Lock()
	p.currentSize++
	p.metrics.setCurrentSize(p.currentSize)
	p.mu.Unlock()

	if !p.waiters.handOff(e) {
		// No waiter picked it up (timed out concurrently); park it idle.
		p.mu.Lock()
		p.idle = append(p.idle, e)
		p.metrics.setIdle(len(p.idle))
		p.mu.Unlock()
	}
}

// release runs the connection-return algorithm. Called by pooledConn on
// drop or explicit Close.
func (p *Pool) release(ctx context.Context, e *entry) {
	if !p.alive.Load() {
		e.conn.Close()
		return
	}

	p.mu.Lock()
	borrowed := p.borrowed[e]
	delete(p.borrowed, e)
	p.metrics.setBorrowed(len(p.borrowed))
	p.mu.Unlock()
	if !borrowed {
		return
	}

	if e.poisoned {
		p.discard(e)
		return
	}

	if err := p.resetLocked(ctx, e); err != nil {
		p.logger.Warnw("connection failed to reset on return, poisoning", "error", err)
		p.discard(e)
		return
	}

	// First hand the connection directly to a waiter if one is present,
	// to preserve FIFO ordering without a round-trip through idle.
	if p.waiters.handOff(e) {
		return
	}

	e.idleSince = time.Now()
	p.mu.Lock()
	p.idle = append(p.idle, e)
	p.metrics.setIdle(len(p.idle))
	p.mu.Unlock()
}

func (p *Pool) resetLocked(ctx context.Context, e *entry) error {
	if e.conn.IsClosed() {
		return dberr.New(dberr.CodeConnClosed, dberr.Resource, "connection closed unexpectedly")
	}
	if err := e.conn.Rollback(ctx); err != nil {
		// No active transaction is not an error here; only a genuine
		// driver failure poisons the connection.
		if dberrErr, ok := err.(*dberr.Error); !ok || dberrErr.Tag() != dberr.CodeNoActiveTxRollback {
			return err
		}
	}
	if err := e.conn.SetAutoCommit(ctx, p.cfg.DefaultAutoCommit); err != nil {
		return err
	}
	if level, ok := parseIsolation(p.cfg.DefaultIsolation); ok {
		if err := e.conn.SetTransactionIsolation(ctx, level); err != nil {
			return err
		}
	}
	return nil
}

// Close flips the alive flag, drains and closes idle connections, and
// lets borrowed connections close themselves via their wrappers as they
// are returned.
func (p *Pool) Close() error {
	if !p.alive.CompareAndSwap(true, false) {
		return nil // idempotent
	}
	close(p.stopValidation)
	p.validationWG.Wait()

	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, e := range idle {
		e.conn.Close()
	}
	p.waiters.closeAll()
	p.logger.Infow("pool closed", "url", p.url)
	return nil
}

// Stats reports a point-in-time snapshot of the pool's counters, used by
// tests asserting the pool's sizing invariants.
type Stats struct {
	CurrentSize   int
	BorrowedCount int
	IdleCount     int
	Waiters       int
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		CurrentSize:   p.currentSize,
		BorrowedCount: len(p.borrowed),
		IdleCount:     len(p.idle),
		Waiters:       p.waiters.len(),
	}
}

func parseIsolation(s string) (cppdbc.IsolationLevel, bool) {
	switch s {
	case "READ_UNCOMMITTED":
		return cppdbc.ReadUncommitted, true
	case "READ_COMMITTED":
		return cppdbc.ReadCommitted, true
	case "REPEATABLE_READ":
		return cppdbc.RepeatableRead, true
	case "SERIALIZABLE":
		return cppdbc.Serializable, true
	default:
		return 0, false
	}
}
