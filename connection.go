package cppdbc

import "context"

// Connection is one physical backend connection. Pool-borrowed callers
// see a *pool.pooledConn wrapping one of these; direct callers of a
// Driver (tests, the reference drivers) see the concrete driver type.
type Connection interface {
	// PrepareStatement compiles query for repeated execution with bound
	// parameters. The returned Stmt is owned by the caller and must be
	// closed.
	PrepareStatement(ctx context.Context, query string) (Stmt, error)

	// ExecuteQuery runs a query expected to produce rows. Only one Rows
	// may be open per Connection at a time; calling ExecuteQuery (or
	// Stmt.ExecuteQuery) again before the prior Rows is closed fails
	// with dberr.CodeResultSetOpen.
	ExecuteQuery(ctx context.Context, query string, args ...interface{}) (Rows, error)

	// ExecuteUpdate runs a query not expected to produce rows (INSERT,
	// UPDATE, DELETE, DDL) and reports the affected row count.
	ExecuteUpdate(ctx context.Context, query string, args ...interface{}) (int64, error)

	// SetAutoCommit toggles implicit per-statement commit. Turning
	// autocommit back on while a transaction is active commits that
	// transaction first, matching JDBC semantics.
	SetAutoCommit(ctx context.Context, autoCommit bool) error
	GetAutoCommit() bool

	// SetTransactionIsolation changes the isolation level used by
	// subsequent transactions. Fails with dberr.CodeAlreadyInTx if a
	// transaction is already active.
	SetTransactionIsolation(ctx context.Context, level IsolationLevel) error
	GetTransactionIsolation() IsolationLevel

	// BeginTransaction starts an explicit transaction. Fails with
	// dberr.CodeAlreadyInTx if one is already active on this connection.
	BeginTransaction(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Close releases the underlying backend resource. Idempotent; the
	// second call on an already-closed connection is a no-op.
	Close() error
	IsClosed() bool
}
