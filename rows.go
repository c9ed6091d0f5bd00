package cppdbc

import (
	"context"
	"time"
)

// Rows is a forward-only, read-only result cursor. Exactly one Rows may
// be open per Connection; Close must be called before issuing another
// query on the same connection. The initial cursor position is before
// the first row; Next must return true at least once before any Get
// call succeeds, and all Get calls fail once the cursor has advanced
// past the last row.
type Rows interface {
	// Columns reports the driver-declared column names, in select order.
	Columns() []string

	// Next advances the cursor and reports whether a row became
	// available.
	Next(ctx context.Context) (bool, error)

	GetInt(index int) (int32, error)
	GetLong(index int) (int64, error)
	GetFloat(index int) (float32, error)
	GetDouble(index int) (float64, error)
	GetString(index int) (string, error)
	GetBool(index int) (bool, error)
	GetBytes(index int) ([]byte, error)
	GetDate(index int) (time.Time, error)
	GetTimestamp(index int) (time.Time, error)

	// IsNull reports whether the column at index is null in the current
	// row. Like every Get call, it is only defined at the current row.
	IsNull(index int) (bool, error)

	// ColumnIndex resolves a case-sensitive column name to its 1-based
	// index, for callers who prefer name-based lookups; pair with the
	// typed getters above.
	ColumnIndex(name string) (int, error)

	Close() error
}
