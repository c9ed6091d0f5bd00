package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirlordt/cppdbc-go/dberr"
)

// rowsImpl adapts *sql.Rows to cppdbc.Rows. database/sql hands back
// driver-native Go types through Scan(&interface{}) — int64, float64,
// bool, []byte, string, time.Time, or nil — so the typed getters below
// do a best-effort conversion rather than a driver-level type switch.
type rowsImpl struct {
	raw     *sql.Rows
	columns []string
	current []interface{}
	closed  bool
	onClose func()
}

func newRows(raw *sql.Rows, columns []string, onClose func()) *rowsImpl {
	return &rowsImpl{raw: raw, columns: columns, onClose: onClose}
}

func (r *rowsImpl) Columns() []string { return r.columns }

func (r *rowsImpl) Next(ctx context.Context) (bool, error) {
	if r.closed {
		return false, dberr.New(dberr.CodeConnClosed, dberr.Resource, "result set is closed")
	}
	if !r.raw.Next() {
		if err := r.raw.Err(); err != nil {
			return false, dberr.Wrap(dberr.CodeDriverExec, dberr.Driver, err, "mysql: row iteration failed")
		}
		return false, nil
	}

	dest := make([]interface{}, len(r.columns))
	ptrs := make([]interface{}, len(r.columns))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := r.raw.Scan(ptrs...); err != nil {
		return false, dberr.Wrap(dberr.CodeDriverExec, dberr.Driver, err, "mysql: scan failed")
	}
	r.current = dest
	return true, nil
}

func (r *rowsImpl) ColumnIndex(name string) (int, error) {
	for i, c := range r.columns {
		if c == name {
			return i + 1, nil
		}
	}
	return 0, dberr.New(dberr.CodeBadParamIndex, dberr.State, "no such column: "+name)
}

func (r *rowsImpl) valueAt(index int) (interface{}, error) {
	if r.current == nil {
		return nil, dberr.New(dberr.CodeDriverExec, dberr.Driver, "no current row: call Next before Get")
	}
	if index < 1 || index > len(r.current) {
		return nil, dberr.New(dberr.CodeBadParamIndex, dberr.State, "column index out of range")
	}
	return r.current[index-1], nil
}

func (r *rowsImpl) GetInt(index int) (int32, error) {
	v, err := r.valueAt(index)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return int32(n), nil
	case int32:
		return n, nil
	case nil:
		return 0, nil
	default:
		return 0, dberr.New(dberr.CodeDriverExec, dberr.Driver, "value is not an integer")
	}
}

func (r *rowsImpl) GetLong(index int) (int64, error) {
	v, err := r.valueAt(index)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case nil:
		return 0, nil
	default:
		return 0, dberr.New(dberr.CodeDriverExec, dberr.Driver, "value is not an integer")
	}
}

func (r *rowsImpl) GetFloat(index int) (float32, error) {
	v, err := r.valueAt(index)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return float32(n), nil
	case float32:
		return n, nil
	case nil:
		return 0, nil
	default:
		return 0, dberr.New(dberr.CodeDriverExec, dberr.Driver, "value is not a float")
	}
}

func (r *rowsImpl) GetDouble(index int) (float64, error) {
	v, err := r.valueAt(index)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case nil:
		return 0, nil
	default:
		return 0, dberr.New(dberr.CodeDriverExec, dberr.Driver, "value is not a double")
	}
}

func (r *rowsImpl) GetString(index int) (string, error) {
	v, err := r.valueAt(index)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case nil:
		return "", nil
	default:
		return "", dberr.New(dberr.CodeDriverExec, dberr.Driver, "value is not string-convertible")
	}
}

func (r *rowsImpl) GetBool(index int) (bool, error) {
	v, err := r.valueAt(index)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	case nil:
		return false, nil
	default:
		return false, dberr.New(dberr.CodeDriverExec, dberr.Driver, "value is not a boolean")
	}
}

func (r *rowsImpl) GetBytes(index int) ([]byte, error) {
	v, err := r.valueAt(index)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, dberr.New(dberr.CodeDriverExec, dberr.Driver, "value is not bytes")
	}
	return b, nil
}

func (r *rowsImpl) GetDate(index int) (time.Time, error) {
	v, err := r.valueAt(index)
	if err != nil {
		return time.Time{}, err
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, dberr.New(dberr.CodeDriverExec, dberr.Driver, "value is not a date")
	}
}

func (r *rowsImpl) GetTimestamp(index int) (time.Time, error) {
	v, err := r.valueAt(index)
	if err != nil {
		return time.Time{}, err
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, dberr.New(dberr.CodeDriverExec, dberr.Driver, "value is not a timestamp")
	}
}

func (r *rowsImpl) IsNull(index int) (bool, error) {
	v, err := r.valueAt(index)
	if err != nil {
		return false, err
	}
	return v == nil, nil
}

func (r *rowsImpl) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.raw.Close()
	if r.onClose != nil {
		r.onClose()
	}
	return err
}
