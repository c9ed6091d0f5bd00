package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirlordt/cppdbc-go"
	"github.com/sirlordt/cppdbc-go/dberr"
)

// stmt wraps a *sql.Stmt, collecting parameters by 1-based index the same
// way drivers/memdriver/stmt.go does, then replaying them positionally —
// database/sql already speaks positional "?" placeholders natively, so
// this is a thin index-to-slice bridge rather than a real binding layer.
type stmt struct {
	conn       *conn
	raw        *sql.Stmt
	paramCount int // number of "?" placeholders in the prepared query text

	mu     sync.Mutex
	params map[int]interface{}
	closed bool
}

func newStmt(c *conn, raw *sql.Stmt, paramCount int) *stmt {
	return &stmt{conn: c, raw: raw, paramCount: paramCount, params: make(map[int]interface{})}
}

func (s *stmt) set(index int, v interface{}) error {
	if index < 1 || index > s.paramCount {
		return dberr.New(dberr.CodeBadParamIndex, dberr.State, fmt.Sprintf("bad index: %d (statement has %d parameter(s))", index, s.paramCount))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return dberr.New(dberr.CodeAlreadyClosedStmt, dberr.State, "statement is closed")
	}
	s.params[index] = v
	return nil
}

func (s *stmt) SetInt(index int, v int32) error           { return s.set(index, v) }
func (s *stmt) SetLong(index int, v int64) error          { return s.set(index, v) }
func (s *stmt) SetFloat(index int, v float32) error       { return s.set(index, v) }
func (s *stmt) SetDouble(index int, v float64) error      { return s.set(index, v) }
func (s *stmt) SetString(index int, v string) error       { return s.set(index, v) }
func (s *stmt) SetBool(index int, v bool) error           { return s.set(index, v) }
func (s *stmt) SetBytes(index int, v []byte) error        { return s.set(index, v) }
func (s *stmt) SetDate(index int, v time.Time) error      { return s.set(index, v) }
func (s *stmt) SetTimestamp(index int, v time.Time) error { return s.set(index, v) }
func (s *stmt) SetNull(index int, t cppdbc.ParamType) error {
	return s.set(index, nil)
}

func (s *stmt) ordered() []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.params)
	out := make([]interface{}, n)
	for i := 1; i <= n; i++ {
		out[i-1] = s.params[i]
	}
	return out
}

func (s *stmt) ExecuteQuery(ctx context.Context) (cppdbc.Rows, error) {
	if s.IsClosed() {
		return nil, dberr.New(dberr.CodeAlreadyClosedStmt, dberr.State, "statement is closed")
	}
	s.conn.mu.Lock()
	open := s.conn.rowsOpen
	s.conn.mu.Unlock()
	if open {
		return nil, dberr.New(dberr.CodeResultSetOpen, dberr.Driver, "a previous result set is still open on this connection")
	}
	raw, err := s.raw.QueryContext(ctx, s.ordered()...)
	if err != nil {
		return nil, dberr.Wrap(dberr.CodeDriverExec, dberr.Driver, err, "mysql: prepared query failed")
	}
	return s.conn.openRows(raw)
}

func (s *stmt) ExecuteUpdate(ctx context.Context) (int64, error) {
	if s.IsClosed() {
		return 0, dberr.New(dberr.CodeAlreadyClosedStmt, dberr.State, "statement is closed")
	}
	res, err := s.raw.ExecContext(ctx, s.ordered()...)
	if err != nil {
		return 0, dberr.Wrap(dberr.CodeDriverExec, dberr.Driver, err, "mysql: prepared exec failed")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dberr.Wrap(dberr.CodeDriverExec, dberr.Driver, err, "mysql: failed to read rows affected")
	}
	return n, nil
}

func (s *stmt) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.raw.Close()
}

func (s *stmt) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
