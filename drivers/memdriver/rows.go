package memdriver

import (
	"context"
	"time"

	"github.com/sirlordt/cppdbc-go/dberr"
)

// rowsImpl is a forward-only cursor over an in-memory snapshot: initial
// position is before the first row, Next advances, and all Get calls fail
// once the cursor is exhausted.
type rowsImpl struct {
	columns []string
	data    [][]interface{}
	pos     int // -1 before first row
	started bool
	closed  bool
	onClose func()
}

func newRows(columns []string, data [][]interface{}) *rowsImpl {
	return &rowsImpl{columns: columns, data: data, pos: -1}
}

func (r *rowsImpl) Columns() []string { return r.columns }

func (r *rowsImpl) Next(ctx context.Context) (bool, error) {
	if r.closed {
		return false, dberr.New(dberr.CodeConnClosed, dberr.Resource, "result set is closed")
	}
	r.pos++
	r.started = true
	return r.pos < len(r.data), nil
}

func (r *rowsImpl) current() ([]interface{}, error) {
	if !r.started || r.pos < 0 || r.pos >= len(r.data) {
		return nil, dberr.New(dberr.CodeDriverExec, dberr.Driver, "no current row: call Next before Get")
	}
	return r.data[r.pos], nil
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
	row, err := r.current()
	if err != nil {
		return nil, err
	}
	if index < 1 || index > len(row) {
		return nil, dberr.New(dberr.CodeBadParamIndex, dberr.State, "column index out of range")
	}
	return row[index-1], nil
}

func (r *rowsImpl) GetInt(index int) (int32, error) {
	v, err := r.valueAt(index)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	i, ok := v.(int32)
	if !ok {
		return 0, dberr.New(dberr.CodeDriverExec, dberr.Driver, "value is not an integer")
	}
	return i, nil
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
	if v == nil {
		return 0, nil
	}
	f, ok := v.(float32)
	if !ok {
		return 0, dberr.New(dberr.CodeDriverExec, dberr.Driver, "value is not a float")
	}
	return f, nil
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
	if v == nil {
		return "", nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", dberr.New(dberr.CodeDriverExec, dberr.Driver, "value is not a string")
}

func (r *rowsImpl) GetBool(index int) (bool, error) {
	v, err := r.valueAt(index)
	if err != nil {
		return false, err
	}
	if v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, dberr.New(dberr.CodeDriverExec, dberr.Driver, "value is not a boolean")
	}
	return b, nil
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
	if v == nil {
		return time.Time{}, nil
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, dberr.New(dberr.CodeDriverExec, dberr.Driver, "value is not a date")
	}
	return t, nil
}

func (r *rowsImpl) GetTimestamp(index int) (time.Time, error) {
	v, err := r.valueAt(index)
	if err != nil {
		return time.Time{}, err
	}
	if v == nil {
		return time.Time{}, nil
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, dberr.New(dberr.CodeDriverExec, dberr.Driver, "value is not a timestamp")
	}
	return t, nil
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
	if r.onClose != nil {
		r.onClose()
	}
	return nil
}
