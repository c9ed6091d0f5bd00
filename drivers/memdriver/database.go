package memdriver

import "sync"

// database is the shared backing store for every connection opened
// against the same cpp_dbc:mem://<name> URL, standing in for a real
// server process that multiple connections dial into.
type database struct {
	mu     sync.Mutex
	tables map[string]*table
}

type table struct {
	columns []string
	rows    [][]interface{}
}

func newDatabase() *database {
	return &database{tables: make(map[string]*table)}
}

func (db *database) createTable(name string, columns []string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, exists := db.tables[name]; !exists {
		db.tables[name] = &table{columns: columns}
	}
}

func (db *database) insert(name string, row []interface{}) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t := db.tables[name]
	if t == nil {
		return
	}
	t.rows = append(t.rows, row)
}

func (db *database) snapshot(name string) (*table, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, ok := db.tables[name]
	if !ok {
		return nil, false
	}
	cp := &table{columns: append([]string(nil), t.columns...)}
	for _, row := range t.rows {
		cp.rows = append(cp.rows, append([]interface{}(nil), row...))
	}
	return cp, true
}
