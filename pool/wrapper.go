package pool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sirlordt/cppdbc-go"
	"github.com/sirlordt/cppdbc-go/dberr"
)

// pooledConn is a transparent facade: it implements cppdbc.Connection by
// delegating to the entry it owns, and on drop or explicit Close runs the
// pool's return algorithm.
//
// It holds a strong reference to its entry and a plain *Pool pointer back
// to the pool. That pointer is an ordinary strong reference, so a
// reachable wrapper also keeps its pool reachable. Whether the pool can
// still take the connection back is decided by the pool's atomic alive
// flag: once the pool is closed, the wrapper closes its connection
// instead of returning it.
type pooledConn struct {
	pool  *Pool
	entry *entry

	mu       sync.Mutex
	closed   bool
	finished atomic.Bool // true once returned/closed, guards the finalizer
}

func newPooledConn(p *Pool, e *entry) *pooledConn {
	pc := &pooledConn{pool: p, entry: e}
	// Guarantees return-on-every-exit-path even if the caller forgets to
	// call Close: finalizer runs the same drop path a deterministic
	// Close would, closing the connection outright if the pool has
	// already been closed.
	runtime.SetFinalizer(pc, (*pooledConn).drop)
	return pc
}

func (pc *pooledConn) drop() {
	if pc.finished.CompareAndSwap(false, true) {
		pc.returnToPool(context.Background())
	}
}

func (pc *pooledConn) returnToPool(ctx context.Context) {
	runtime.SetFinalizer(pc, nil)
	if pc.pool == nil || !pc.pool.alive.Load() {
		pc.entry.conn.Close()
		return
	}
	pc.pool.release(ctx, pc.entry)
}

func (pc *pooledConn) checkOpen() error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.closed {
		return dberr.New(dberr.CodeConnClosed, dberr.Resource, "connection is closed")
	}
	return nil
}

func (pc *pooledConn) PrepareStatement(ctx context.Context, query string) (cppdbc.Stmt, error) {
	if err := pc.checkOpen(); err != nil {
		return nil, err
	}
	stmt, err := pc.entry.conn.PrepareStatement(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(dberr.CodeDriverParse, dberr.Driver, err, "prepare failed")
	}
	return stmt, nil
}

func (pc *pooledConn) ExecuteQuery(ctx context.Context, query string, args ...interface{}) (cppdbc.Rows, error) {
	if err := pc.checkOpen(); err != nil {
		return nil, err
	}
	// Driver errors during execute/query never auto-poison the
	// connection: the caller decides whether to close on error or return
	// it for reuse.
	return pc.entry.conn.ExecuteQuery(ctx, query, args...)
}

func (pc *pooledConn) ExecuteUpdate(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if err := pc.checkOpen(); err != nil {
		return 0, err
	}
	return pc.entry.conn.ExecuteUpdate(ctx, query, args...)
}

func (pc *pooledConn) SetAutoCommit(ctx context.Context, autoCommit bool) error {
	if err := pc.checkOpen(); err != nil {
		return err
	}
	return pc.entry.conn.SetAutoCommit(ctx, autoCommit)
}

func (pc *pooledConn) GetAutoCommit() bool {
	return pc.entry.conn.GetAutoCommit()
}

func (pc *pooledConn) SetTransactionIsolation(ctx context.Context, level cppdbc.IsolationLevel) error {
	if err := pc.checkOpen(); err != nil {
		return err
	}
	if err := pc.entry.conn.SetTransactionIsolation(ctx, level); err != nil {
		// A failed isolation change poisons the connection rather than
		// leaving it in an ambiguous state.
		pc.entry.poisoned = true
		return err
	}
	return nil
}

func (pc *pooledConn) GetTransactionIsolation() cppdbc.IsolationLevel {
	return pc.entry.conn.GetTransactionIsolation()
}

func (pc *pooledConn) BeginTransaction(ctx context.Context) error {
	if err := pc.checkOpen(); err != nil {
		return err
	}
	return pc.entry.conn.BeginTransaction(ctx)
}

func (pc *pooledConn) Commit(ctx context.Context) error {
	if err := pc.checkOpen(); err != nil {
		return err
	}
	return pc.entry.conn.Commit(ctx)
}

func (pc *pooledConn) Rollback(ctx context.Context) error {
	if err := pc.checkOpen(); err != nil {
		return err
	}
	return pc.entry.conn.Rollback(ctx)
}

// Close is idempotent: a second call is a no-op, matching
// cppdbc.Connection's contract.
func (pc *pooledConn) Close() error {
	pc.mu.Lock()
	if pc.closed {
		pc.mu.Unlock()
		return nil
	}
	pc.closed = true
	pc.mu.Unlock()

	if pc.finished.CompareAndSwap(false, true) {
		pc.returnToPool(context.Background())
	}
	return nil
}

func (pc *pooledConn) IsClosed() bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.closed
}
