package cppdbc

import (
	"context"
	"time"
)

// Stmt is a prepared statement bound to the Connection that created it.
// Parameter positions are 1-based, matching the JDBC lineage this
// interface is modeled on. A Stmt is single-threaded: concurrent use from
// multiple goroutines is undefined and drivers are free to detect it and
// fail.
type Stmt interface {
	SetInt(index int, v int32) error
	SetLong(index int, v int64) error
	SetFloat(index int, v float32) error
	SetDouble(index int, v float64) error
	SetString(index int, v string) error
	SetBool(index int, v bool) error
	SetBytes(index int, v []byte) error
	SetDate(index int, v time.Time) error
	SetTimestamp(index int, v time.Time) error

	// SetNull binds a null value at index, supplying t so the driver can
	// perform correct type inference server-side.
	SetNull(index int, t ParamType) error

	ExecuteQuery(ctx context.Context) (Rows, error)
	ExecuteUpdate(ctx context.Context) (int64, error)

	Close() error
	IsClosed() bool
}
