// Package cppdbc is a JDBC-inspired, driver-agnostic database connectivity
// core: a URL-dispatched driver registry, a thread-safe connection pool
// with health validation and timeout-based borrowing, and a multi-
// connection transaction coordinator layered on top of the pool.
//
// The root package defines the capability surface every driver
// implementation must satisfy (Driver, Connection, Stmt, Rows) and the
// closed-set enums (IsolationLevel, ParamType) those capabilities are
// built from. Concrete subsystems live in sibling packages: registry
// (scheme dispatch), pool (bounded connection pooling), txn (multi-
// connection transactions), config (plain configuration records), and
// dberr (structured errors).
package cppdbc

// IsolationLevel is the closed set of transaction isolation levels a
// driver may support. Drivers declare their supported subset
// via Driver.SupportedIsolationLevels; unsupported levels either escalate
// to the nearest stronger supported level (driver-documented policy) or
// fail at Connection.SetTransactionIsolation.
type IsolationLevel int

const (
	ReadUncommitted IsolationLevel = iota
	ReadCommitted
	RepeatableRead
	Serializable
)

func (l IsolationLevel) String() string {
	switch l {
	case ReadUncommitted:
		return "READ_UNCOMMITTED"
	case ReadCommitted:
		return "READ_COMMITTED"
	case RepeatableRead:
		return "REPEATABLE_READ"
	case Serializable:
		return "SERIALIZABLE"
	default:
		return "UNKNOWN"
	}
}

// ParamType is the closed set of prepared-statement parameter types.
// setNull(index, type) uses it to supply driver type inference for a
// null value.
type ParamType int

const (
	TypeInteger ParamType = iota
	TypeLong
	TypeFloat
	TypeDouble
	TypeVarchar
	TypeDate
	TypeTimestamp
	TypeBoolean
	TypeBlob
	TypeNull
)

func (t ParamType) String() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeLong:
		return "LONG"
	case TypeFloat:
		return "FLOAT"
	case TypeDouble:
		return "DOUBLE"
	case TypeVarchar:
		return "VARCHAR"
	case TypeDate:
		return "DATE"
	case TypeTimestamp:
		return "TIMESTAMP"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeBlob:
		return "BLOB"
	case TypeNull:
		return "NULL"
	default:
		return "UNKNOWN"
	}
}

// Options is the ordered string-to-string mapping passed from a
// connection URL's query parameters (or a Config record) down to a
// driver's Connect call. Order is preserved because some drivers treat
// option order as significant (e.g. a first-match failover list).
type Options struct {
	keys   []string
	values map[string]string
}

// NewOptions builds an empty ordered option map.
func NewOptions() *Options {
	return &Options{values: make(map[string]string)}
}

// Set appends or overwrites a key, preserving first-insertion order.
func (o *Options) Set(key, value string) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns a key's value and whether it was present.
func (o *Options) Get(key string) (string, bool) {
	v, ok := o.values[key]
	return v, ok
}

// GetOr returns a key's value, or fallback if absent.
func (o *Options) GetOr(key, fallback string) string {
	if v, ok := o.values[key]; ok {
		return v
	}
	return fallback
}

// Keys returns option keys in insertion order.
func (o *Options) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len reports how many options are set.
func (o *Options) Len() int { return len(o.keys) }
