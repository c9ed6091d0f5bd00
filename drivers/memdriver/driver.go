// Package memdriver is an in-process, dependency-free cppdbc.Driver used
// to back the registry/pool/txn test suites. It is a test fixture, not a
// shipped wire driver: it keeps a handful of named in-memory tables per
// connection URL and supports just enough SQL-shaped commands
// (INSERT/SELECT/SELECT 1/FAIL) to exercise the core's concurrency and
// lifecycle invariants without a real network round trip.
//
// Shape grounded on the Genji connector/drivr/conn/stmt adapter found in
// the example pack's database/sql/driver corpus; isolation-level support
// and nested-transaction/nested-query guards grounded on
// sarathkumarsivan-go-hdb's driver/connection.go.
package memdriver

import (
	"context"
	"strings"
	"sync"

	"github.com/sirlordt/cppdbc-go"
	"github.com/sirlordt/cppdbc-go/dberr"
)

// Driver implements cppdbc.Driver for the "mem" scheme:
// cpp_dbc:mem://<name>. Connections sharing the same <name> share the
// same backing tables, so multiple pooled connections observe each
// other's writes the way multiple connections to a real database would.
type Driver struct {
	mu  sync.Mutex
	dbs map[string]*database
}

// New returns a fresh Driver with no databases yet.
func New() *Driver {
	return &Driver{dbs: make(map[string]*database)}
}

func (d *Driver) Accepts(url string) bool {
	return strings.HasPrefix(url, "cpp_dbc:mem://")
}

func (d *Driver) SupportedIsolationLevels() []cppdbc.IsolationLevel {
	return []cppdbc.IsolationLevel{
		cppdbc.ReadUncommitted,
		cppdbc.ReadCommitted,
		cppdbc.RepeatableRead,
		cppdbc.Serializable,
	}
}

func (d *Driver) Validate(ctx context.Context, conn cppdbc.Connection) error {
	rows, err := conn.ExecuteQuery(ctx, "SELECT 1")
	if err != nil {
		return err
	}
	return rows.Close()
}

func (d *Driver) Connect(ctx context.Context, url, user, password string, opts *cppdbc.Options) (cppdbc.Connection, error) {
	name := strings.TrimPrefix(url, "cpp_dbc:mem://")
	if name == "" {
		return nil, dberr.New(dberr.CodeBadURL, dberr.Configuration, "mem driver requires a non-empty database name")
	}

	d.mu.Lock()
	db, ok := d.dbs[name]
	if !ok {
		db = newDatabase()
		d.dbs[name] = db
	}
	d.mu.Unlock()

	return newConn(db), nil
}
