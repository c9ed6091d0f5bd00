package mysql

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/sirlordt/cppdbc-go"
	"github.com/sirlordt/cppdbc-go/dberr"
)

// conn implements cppdbc.Connection over one reserved *sql.Conn. State
// transitions mirror drivers/memdriver/conn.go's invariants exactly
// (single-open-Rows, no transaction reentrancy) since both must satisfy
// the same contract; only the actual I/O backend differs.
type conn struct {
	db  *sql.DB
	raw *sql.Conn

	mu           sync.Mutex
	tx           *sql.Tx
	pendingLevel cppdbc.IsolationLevel
	autoCommit   bool
	closed       bool
	rowsOpen     bool
}

func newConn(db *sql.DB, raw *sql.Conn) *conn {
	return &conn{db: db, raw: raw, autoCommit: true, pendingLevel: cppdbc.ReadCommitted}
}

// querier is whichever of *sql.Conn/*sql.Tx is currently live; statements
// run against the transaction once one is open, the bare connection
// otherwise.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func (c *conn) activeLocked() querier {
	if c.tx != nil {
		return c.tx
	}
	return c.raw
}

func (c *conn) PrepareStatement(ctx context.Context, query string) (cppdbc.Stmt, error) {
	if c.IsClosed() {
		return nil, dberr.New(dberr.CodeConnClosed, dberr.Resource, "mysql: connection is closed")
	}
	c.mu.Lock()
	q := c.activeLocked()
	c.mu.Unlock()

	raw, err := q.PrepareContext(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(dberr.CodeDriverParse, dberr.Driver, err, "mysql: prepare failed")
	}
	return newStmt(c, raw, strings.Count(query, "?")), nil
}

func (c *conn) ExecuteQuery(ctx context.Context, query string, args ...interface{}) (cppdbc.Rows, error) {
	if c.IsClosed() {
		return nil, dberr.New(dberr.CodeConnClosed, dberr.Resource, "mysql: connection is closed")
	}
	c.mu.Lock()
	if c.rowsOpen {
		c.mu.Unlock()
		return nil, dberr.New(dberr.CodeResultSetOpen, dberr.Driver, "a previous result set is still open on this connection")
	}
	q := c.activeLocked()
	c.mu.Unlock()

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dberr.Wrap(dberr.CodeDriverExec, dberr.Driver, err, "mysql: query failed")
	}
	return c.openRows(rows)
}

func (c *conn) openRows(raw *sql.Rows) (cppdbc.Rows, error) {
	cols, err := raw.Columns()
	if err != nil {
		raw.Close()
		return nil, dberr.Wrap(dberr.CodeDriverExec, dberr.Driver, err, "mysql: failed to read columns")
	}
	c.mu.Lock()
	c.rowsOpen = true
	c.mu.Unlock()
	return newRows(raw, cols, func() {
		c.mu.Lock()
		c.rowsOpen = false
		c.mu.Unlock()
	}), nil
}

func (c *conn) ExecuteUpdate(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if c.IsClosed() {
		return 0, dberr.New(dberr.CodeConnClosed, dberr.Resource, "mysql: connection is closed")
	}
	c.mu.Lock()
	q := c.activeLocked()
	c.mu.Unlock()

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, dberr.Wrap(dberr.CodeDriverExec, dberr.Driver, err, "mysql: exec failed")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dberr.Wrap(dberr.CodeDriverExec, dberr.Driver, err, "mysql: failed to read rows affected")
	}
	return n, nil
}

func (c *conn) SetAutoCommit(ctx context.Context, autoCommit bool) error {
	if c.IsClosed() {
		return dberr.New(dberr.CodeConnClosed, dberr.Resource, "mysql: connection is closed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx != nil && autoCommit {
		if err := c.tx.Commit(); err != nil {
			return dberr.Wrap(dberr.CodeDriverExec, dberr.Driver, err, "mysql: implicit commit on autocommit=true failed")
		}
		c.tx = nil
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
		return dberr.New(dberr.CodeConnClosed, dberr.Resource, "mysql: connection is closed")
	}
	if _, err := isolationSQL(level); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx != nil {
		return dberr.New(dberr.CodeAlreadyInTx, dberr.State, "mysql: cannot change isolation level mid-transaction")
	}
	c.pendingLevel = level
	return nil
}

func (c *conn) GetTransactionIsolation() cppdbc.IsolationLevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLevel
}

func (c *conn) BeginTransaction(ctx context.Context) error {
	if c.IsClosed() {
		return dberr.New(dberr.CodeConnClosed, dberr.Resource, "mysql: connection is closed")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx != nil {
		return dberr.New(dberr.CodeAlreadyInTx, dberr.State, "mysql: transaction already active on this connection")
	}
	level, _ := isolationSQL(c.pendingLevel)
	tx, err := c.raw.BeginTx(ctx, &sql.TxOptions{Isolation: level})
	if err != nil {
		return dberr.Wrap(dberr.CodeDriverExec, dberr.Driver, err, "mysql: BEGIN failed")
	}
	c.tx = tx
	c.autoCommit = false
	return nil
}

func (c *conn) Commit(ctx context.Context) error {
	if c.IsClosed() {
		return dberr.New(dberr.CodeConnClosed, dberr.Resource, "mysql: connection is closed")
	}
	c.mu.Lock()
	tx := c.tx
	c.mu.Unlock()
	if tx == nil {
		return dberr.New(dberr.CodeNoActiveTxCommit, dberr.State, "mysql: commit called without an active transaction")
	}
	if err := tx.Commit(); err != nil {
		return dberr.Wrap(dberr.CodeDriverExec, dberr.Driver, err, "mysql: COMMIT failed")
	}
	c.mu.Lock()
	c.tx = nil
	c.mu.Unlock()
	return nil
}

func (c *conn) Rollback(ctx context.Context) error {
	if c.IsClosed() {
		return dberr.New(dberr.CodeConnClosed, dberr.Resource, "mysql: connection is closed")
	}
	c.mu.Lock()
	tx := c.tx
	c.mu.Unlock()
	if tx == nil {
		return dberr.New(dberr.CodeNoActiveTxRollback, dberr.State, "mysql: rollback called without an active transaction")
	}
	if err := tx.Rollback(); err != nil {
		return dberr.Wrap(dberr.CodeDriverExec, dberr.Driver, err, "mysql: ROLLBACK failed")
	}
	c.mu.Lock()
	c.tx = nil
	c.mu.Unlock()
	return nil
}

func (c *conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	tx := c.tx
	c.tx = nil
	c.mu.Unlock()

	if tx != nil {
		tx.Rollback()
	}
	if err := c.raw.Close(); err != nil {
		return dberr.Wrap(dberr.CodeDriverExec, dberr.Driver, err, "mysql: failed to release connection")
	}
	return c.db.Close()
}

func (c *conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
