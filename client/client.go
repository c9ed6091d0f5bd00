// Package client provides DB, a convenience facade that wires together a
// driver Registry, one connection Pool per named database, and a shared
// Transaction Manager behind a single handle — one entry point for
// applications that don't need direct control over pool sizing or driver
// selection.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/sirlordt/cppdbc-go"
	"github.com/sirlordt/cppdbc-go/config"
	"github.com/sirlordt/cppdbc-go/dberr"
	"github.com/sirlordt/cppdbc-go/log"
	"github.com/sirlordt/cppdbc-go/pool"
	"github.com/sirlordt/cppdbc-go/txn"
)

// DB owns a driver registry, a set of named pools (one per
// config.Database.Name), and one transaction manager shared across all of
// them — a transaction enlists connections from however many named pools
// the caller asks it to, and commits or rolls back all of them together.
type DB struct {
	registry driverResolver
	logger   log.Logger

	mu    sync.RWMutex
	pools map[string]*pool.Pool

	txns *txn.Manager
}

// driverResolver is the subset of *registry.Registry DB depends on,
// named locally so this package doesn't force a direct import-cycle
// dependency on the registry package's exact shape beyond what's used
// here.
type driverResolver interface {
	Driver(url string) (cppdbc.Driver, error)
}

// New builds an empty DB around an already-populated driver registry and
// a reaper tick interval for the shared transaction manager. Callers
// register drivers on the registry (mysql, postgresql, sqlite, ...)
// before or after calling New; DB only resolves drivers lazily, at Open
// time.
func New(reg driverResolver, reapInterval time.Duration, logger log.Logger) *DB {
	if logger == nil {
		logger = log.NewZap()
	}
	return &DB{
		registry: reg,
		logger:   logger,
		pools:    make(map[string]*pool.Pool),
		txns:     txn.NewManager(reapInterval, logger),
	}
}

// Open resolves db.Type's driver from the registry and builds a pool
// sized per cfg, storing it under db.Name for later lookup by Pool/Query/
// Exec/BeginTransaction. Calling Open twice for the same Name replaces
// the prior pool after closing it.
func (c *DB) Open(ctx context.Context, db config.Database, cfg config.Pool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	driver, err := c.registry.Driver(db.URL())
	if err != nil {
		return err
	}

	opts := cppdbc.NewOptions()
	for k, v := range db.Options {
		opts.Set(k, v)
	}

	p, err := pool.New(ctx, driver, db.URL(), db.Username, db.Password, opts, cfg, c.logger)
	if err != nil {
		return err
	}

	c.mu.Lock()
	old := c.pools[db.Name]
	c.pools[db.Name] = p
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// Pool returns the named pool opened via Open, or CodeUnknownScheme-class
// error if no pool with that name was ever opened.
func (c *DB) Pool(name string) (*pool.Pool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.pools[name]
	if !ok {
		return nil, dberr.New(dberr.CodeUnknownScheme, dberr.Configuration, "no pool opened under name: "+name)
	}
	return p, nil
}

// Query acquires a connection from the named pool, runs query, and
// returns the resulting Rows together with the borrowed Connection so
// the caller can close Rows and then Connection (in that order).
func (c *DB) Query(ctx context.Context, poolName, query string, args ...interface{}) (cppdbc.Rows, cppdbc.Connection, error) {
	p, err := c.Pool(poolName)
	if err != nil {
		return nil, nil, err
	}
	conn, err := p.GetConnection(ctx)
	if err != nil {
		return nil, nil, err
	}
	rows, err := conn.ExecuteQuery(ctx, query, args...)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return rows, conn, nil
}

// Exec acquires a connection from the named pool, runs query, returns the
// connection to the pool, and reports the affected row count.
func (c *DB) Exec(ctx context.Context, poolName, query string, args ...interface{}) (int64, error) {
	p, err := c.Pool(poolName)
	if err != nil {
		return 0, err
	}
	conn, err := p.GetConnection(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	return conn.ExecuteUpdate(ctx, query, args...)
}

// BeginTransaction starts a named transaction enlisting its first
// connection from poolName. Further pools join the same transaction via
// Enlist.
func (c *DB) BeginTransaction(ctx context.Context, poolName string, timeout time.Duration) (string, error) {
	p, err := c.Pool(poolName)
	if err != nil {
		return "", err
	}
	return c.txns.BeginTransaction(ctx, p, timeout)
}

// Enlist joins poolName's connection to an already-open transaction,
// returning the connection the caller should issue statements against.
func (c *DB) Enlist(ctx context.Context, txID, poolName string) (cppdbc.Connection, error) {
	p, err := c.Pool(poolName)
	if err != nil {
		return nil, err
	}
	return c.txns.Enlist(ctx, txID, p)
}

// GetConnection returns the connection already enlisted in txID from
// poolName, enlisting it first if this is the pool's first use in the
// transaction.
func (c *DB) GetConnection(ctx context.Context, txID, poolName string) (cppdbc.Connection, error) {
	p, err := c.Pool(poolName)
	if err != nil {
		return nil, err
	}
	return c.txns.GetConnection(ctx, txID, p)
}

// Commit commits every connection enlisted in txID, in enlistment order.
func (c *DB) Commit(ctx context.Context, txID string) error {
	return c.txns.Commit(ctx, txID)
}

// Rollback rolls back every connection enlisted in txID.
func (c *DB) Rollback(ctx context.Context, txID string) error {
	return c.txns.Rollback(ctx, txID)
}

// TxStatus reports the current status of txID.
func (c *DB) TxStatus(txID string) (txn.Status, error) {
	return c.txns.Status(txID)
}

// Close closes the transaction manager's reaper and every open pool.
// Pools are closed even if one returns an error, and the first error
// encountered is returned.
func (c *DB) Close() error {
	c.txns.Close()

	c.mu.Lock()
	pools := make([]*pool.Pool, 0, len(c.pools))
	for _, p := range c.pools {
		pools = append(pools, p)
	}
	c.pools = make(map[string]*pool.Pool)
	c.mu.Unlock()

	var first error
	for _, p := range pools {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
