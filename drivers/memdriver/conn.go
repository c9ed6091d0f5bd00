package memdriver

import (
	"context"
	"sync"

	"github.com/sirlordt/cppdbc-go"
	"github.com/sirlordt/cppdbc-go/dberr"
)

// conn implements cppdbc.Connection against a shared in-process
// database. autoCommit/isolation are reset by the pool on return, not by
// conn itself — conn only enforces the single-open-Rows and
// no-transaction-reentrancy invariants a driver is responsible for.
type conn struct {
	db *database

	mu         sync.Mutex
	closed     bool
	autoCommit bool
	isolation  cppdbc.IsolationLevel
	inTx       bool
	rowsOpen   bool
}

func newConn(db *database) *conn {
	return &conn{db: db, autoCommit: true, isolation: cppdbc.ReadCommitted}
}

func (c *conn) PrepareStatement(ctx context.Context, query string) (cppdbc.Stmt, error) {
	if c.IsClosed() {
		return nil, dberr.New(dberr.CodeConnClosed, dberr.Resource, "connection is closed")
	}
	ps, err := parse(query)
	if err != nil {
		return nil, err
	}
	return newStmt(c, ps), nil
}

func (c *conn) ExecuteQuery(ctx context.Context, query string, args ...interface{}) (cppdbc.Rows, error) {
	if c.IsClosed() {
		return nil, dberr.New(dberr.CodeConnClosed, dberr.Resource, "connection is closed")
	}

	c.mu.Lock()
	if c.rowsOpen {
		c.mu.Unlock()
		return nil, dberr.New(dberr.CodeResultSetOpen, dberr.Driver, "a previous result set is still open on this connection")
	}
	c.mu.Unlock()

	ps, err := parse(query)
	if err != nil {
		return nil, err
	}

	switch ps.kind {
	case "select1":
		return c.openRows(newRows([]string{"1"}, [][]interface{}{{int32(1)}})), nil
	case "selectAll":
		t, ok := c.db.snapshot(ps.table)
		if !ok {
			return nil, dberr.New(dberr.CodeDriverExec, dberr.Driver, "no such table: "+ps.table)
		}
		return c.openRows(newRows(t.columns, t.rows)), nil
	case "fail":
		return nil, dberr.New(dberr.CodeDriverExec, dberr.Driver, "memdriver: forced failure: "+ps.message)
	default:
		return nil, dberr.New(dberr.CodeDriverExec, dberr.Driver, "statement does not produce rows: "+query)
	}
}

func (c *conn) openRows(r *rowsImpl) cppdbc.Rows {
	c.mu.Lock()
	c.rowsOpen = true
	c.mu.Unlock()
	r.onClose = func() {
		c.mu.Lock()
		c.rowsOpen = false
		c.mu.Unlock()
	}
	return r
}

func (c *conn) ExecuteUpdate(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if c.IsClosed() {
		return 0, dberr.New(dberr.CodeConnClosed, dberr.Resource, "connection is closed")
	}
	ps, err := parse(query)
	if err != nil {
		return 0, err
	}
	switch ps.kind {
	case "create":
		c.db.createTable(ps.table, ps.columns)
		return 0, nil
	case "insert":
		c.db.insert(ps.table, args)
		return 1, nil
	case "fail":
		return 0, dberr.New(dberr.CodeDriverExec, dberr.Driver, "memdriver: forced failure: "+ps.message)
	default:
		return 0, dberr.New(dberr.CodeDriverExec, dberr.Driver, "statement does not affect rows: "+query)
	}
}

func (c *conn) SetAutoCommit(ctx context.Context, autoCommit bool) error {
	if c.IsClosed() {
		return dberr.New(dberr.CodeConnClosed, dberr.Resource, "connection is closed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inTx && autoCommit {
		// Turning autocommit back on mid-transaction commits it first
		// (JDBC semantics).
		c.inTx = false
	}
	c.autoCommit = autoCommit
	return nil
}

func (c *conn) GetAutoCommit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoCommit
}

func (c *conn) SetTransactionIsolation(ctx context.Context, level cppdbc.IsolationLevel) error {
	if c.IsClosed() {
		return dberr.New(dberr.CodeConnClosed, dberr.Resource, "connection is closed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inTx {
		return dberr.New(dberr.CodeAlreadyInTx, dberr.State, "cannot change isolation level mid-transaction")
	}
	c.isolation = level
	return nil
}

func (c *conn) GetTransactionIsolation() cppdbc.IsolationLevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isolation
}

func (c *conn) BeginTransaction(ctx context.Context) error {
	if c.IsClosed() {
		return dberr.New(dberr.CodeConnClosed, dberr.Resource, "connection is closed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inTx {
		return dberr.New(dberr.CodeAlreadyInTx, dberr.State, "transaction already active on this connection")
	}
	c.inTx = true
	c.autoCommit = false
	return nil
}

func (c *conn) Commit(ctx context.Context) error {
	if c.IsClosed() {
		return dberr.New(dberr.CodeConnClosed, dberr.Resource, "connection is closed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inTx {
		return dberr.New(dberr.CodeNoActiveTxCommit, dberr.State, "commit called without an active transaction")
	}
	c.inTx = false
	return nil
}

func (c *conn) Rollback(ctx context.Context) error {
	if c.IsClosed() {
		return dberr.New(dberr.CodeConnClosed, dberr.Resource, "connection is closed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.inTx {
		return dberr.New(dberr.CodeNoActiveTxRollback, dberr.State, "rollback called without an active transaction")
	}
	c.inTx = false
	return nil
}

func (c *conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
