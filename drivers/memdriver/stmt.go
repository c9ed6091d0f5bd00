package memdriver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirlordt/cppdbc-go"
	"github.com/sirlordt/cppdbc-go/dberr"
)

// stmt is a prepared statement bound to conn. Parameters are collected
// by 1-based index, then replayed positionally when the statement
// executes.
type stmt struct {
	conn  *conn
	stmt  *parsedStatement
	query string

	mu     sync.Mutex
	params map[int]interface{}
	closed bool
}

func newStmt(c *conn, ps *parsedStatement) *stmt {
	return &stmt{conn: c, stmt: ps, params: make(map[int]interface{})}
}

func (s *stmt) set(index int, v interface{}) error {
	if index < 1 || index > s.stmt.paramCount {
		return dberr.New(dberr.CodeBadParamIndex, dberr.State, fmt.Sprintf("bad index: %d (statement has %d parameter(s))", index, s.stmt.paramCount))
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
	switch s.stmt.kind {
	case "select1":
		return s.conn.openRows(newRows([]string{"1"}, [][]interface{}{{int32(1)}})), nil
	case "selectAll":
		t, ok := s.conn.db.snapshot(s.stmt.table)
		if !ok {
			return nil, dberr.New(dberr.CodeDriverExec, dberr.Driver, "no such table: "+s.stmt.table)
		}
		return s.conn.openRows(newRows(t.columns, t.rows)), nil
	default:
		return nil, dberr.New(dberr.CodeDriverExec, dberr.Driver, "prepared statement does not produce rows")
	}
}

func (s *stmt) ExecuteUpdate(ctx context.Context) (int64, error) {
	if s.IsClosed() {
		return 0, dberr.New(dberr.CodeAlreadyClosedStmt, dberr.State, "statement is closed")
	}
	switch s.stmt.kind {
	case "create":
		s.conn.db.createTable(s.stmt.table, s.stmt.columns)
		return 0, nil
	case "insert":
		s.conn.db.insert(s.stmt.table, s.ordered())
		return 1, nil
	default:
		return 0, dberr.New(dberr.CodeDriverExec, dberr.Driver, "prepared statement does not affect rows")
	}
}

func (s *stmt) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *stmt) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
