// Package mysql adapts MySQL, reached through database/sql and
// github.com/go-sql-driver/mysql, to the cppdbc.Driver contract. It opens
// through sql.Open("mysql", dsn) but drops database/sql's own pooling in
// favor of a single dedicated *sql.Conn per cppdbc.Connection, since
// pool.Pool already owns connection lifecycle above this layer.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/sirlordt/cppdbc-go"
	"github.com/sirlordt/cppdbc-go/dberr"
)

const scheme = "cpp_dbc:mysql://"

// Driver implements cppdbc.Driver for MySQL. A single Driver value may
// back many pools against different databases; each Connect call opens
// its own *sql.DB (database/sql dedups identical DSNs internally via the
// registered driver, but we want one dedicated *sql.Conn per
// cppdbc.Connection, not database/sql's shared pool).
type Driver struct{}

func New() *Driver { return &Driver{} }

func (d *Driver) Accepts(u string) bool {
	return strings.HasPrefix(u, scheme)
}

func (d *Driver) SupportedIsolationLevels() []cppdbc.IsolationLevel {
	return []cppdbc.IsolationLevel{
		cppdbc.ReadUncommitted,
		cppdbc.ReadCommitted,
		cppdbc.RepeatableRead,
		cppdbc.Serializable,
	}
}

// Connect parses cpp_dbc:mysql://host:port/dbname into a go-sql-driver
// DSN, opens a *sql.DB, and reserves one dedicated *sql.Conn from it —
// the unit of work cppdbc.Connection represents.
func (d *Driver) Connect(ctx context.Context, rawURL, user, password string, opts *cppdbc.Options) (cppdbc.Connection, error) {
	dsn, err := toDSN(rawURL, user, password, opts)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, dberr.Wrap(dberr.CodeDriverConnect, dberr.Driver, err, "mysql: failed to open")
	}

	raw, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, dberr.Wrap(dberr.CodeDriverConnect, dberr.Driver, err, "mysql: failed to reserve connection")
	}

	return newConn(db, raw), nil
}

// Validate runs a lightweight round-trip against the server via
// PingContext on the connection's reserved *sql.Conn.
func (d *Driver) Validate(ctx context.Context, c cppdbc.Connection) error {
	mc, ok := c.(*conn)
	if !ok {
		return dberr.New(dberr.CodeValidationFailed, dberr.Integrity, "mysql: Validate called with a non-mysql connection")
	}
	if err := mc.raw.PingContext(ctx); err != nil {
		return dberr.Wrap(dberr.CodeValidationFailed, dberr.Integrity, err, "mysql: validation ping failed")
	}
	return nil
}

// toDSN renders "cpp_dbc:mysql://host:port/dbname?opt=v" into the
// go-sql-driver DSN form "user:password@tcp(host:port)/dbname?opt=v".
func toDSN(rawURL, user, password string, opts *cppdbc.Options) (string, error) {
	if !strings.HasPrefix(rawURL, scheme) {
		return "", dberr.New(dberr.CodeBadURL, dberr.Configuration, "mysql: not a cpp_dbc:mysql:// URL: "+rawURL)
	}
	rest := strings.TrimPrefix(rawURL, scheme)

	u, err := url.Parse("mysql://" + rest)
	if err != nil {
		return "", dberr.Wrap(dberr.CodeBadURL, dberr.Configuration, err, "mysql: malformed URL")
	}

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}
	dbName := strings.TrimPrefix(u.Path, "/")

	query := ""
	v := u.Query()
	if opts != nil {
		for _, k := range opts.Keys() {
			v.Set(k, opts.GetOr(k, ""))
		}
	}
	if len(v) > 0 {
		query = "?" + v.Encode()
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s%s", user, password, host, port, dbName, query), nil
}

func isolationSQL(level cppdbc.IsolationLevel) (sql.IsolationLevel, error) {
	switch level {
	case cppdbc.ReadUncommitted:
		return sql.LevelReadUncommitted, nil
	case cppdbc.ReadCommitted:
		return sql.LevelReadCommitted, nil
	case cppdbc.RepeatableRead:
		return sql.LevelRepeatableRead, nil
	case cppdbc.Serializable:
		return sql.LevelSerializable, nil
	default:
		return 0, dberr.New(dberr.CodeUnsupportedIsolationSet, dberr.State, "mysql: unsupported isolation level: "+level.String())
	}
}
