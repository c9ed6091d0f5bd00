package memdriver

import (
	"regexp"
	"strings"

	"github.com/sirlordt/cppdbc-go/dberr"
)

// This is a deliberately tiny command language, not a SQL parser — the
// core's Non-goals explicitly exclude SQL parsing/rewriting, and this
// driver only needs enough surface to exercise ExecuteQuery/
// ExecuteUpdate/Stmt against a real (if trivial) backing store.
//
// Supported forms:
//   SELECT 1
//   CREATE TABLE <name> (<col>, <col>, ...)
//   INSERT INTO <name> VALUES (?, ?, ...)
//   SELECT * FROM <name>
//   FAIL <message>                -- forces a simulated driver failure

var (
	createTableRe = regexp.MustCompile(`(?i)^CREATE TABLE\s+(\w+)\s*\(([^)]*)\)$`)
	insertRe      = regexp.MustCompile(`(?i)^INSERT INTO\s+(\w+)\s*VALUES\s*\(([^)]*)\)$`)
	selectAllRe   = regexp.MustCompile(`(?i)^SELECT \* FROM\s+(\w+)$`)
)

type parsedStatement struct {
	kind       string // "select1" | "create" | "insert" | "selectAll" | "fail"
	table      string
	columns    []string
	message    string
	paramCount int // number of "?" placeholders in the original query text
}

func parse(query string) (*parsedStatement, error) {
	q := strings.TrimSpace(query)
	paramCount := strings.Count(q, "?")

	switch {
	case strings.EqualFold(q, "SELECT 1"):
		return &parsedStatement{kind: "select1", paramCount: paramCount}, nil

	case strings.HasPrefix(strings.ToUpper(q), "FAIL"):
		return &parsedStatement{kind: "fail", message: strings.TrimSpace(q[4:]), paramCount: paramCount}, nil

	case createTableRe.MatchString(q):
		m := createTableRe.FindStringSubmatch(q)
		cols := splitTrim(m[2])
		return &parsedStatement{kind: "create", table: m[1], columns: cols, paramCount: paramCount}, nil

	case insertRe.MatchString(q):
		m := insertRe.FindStringSubmatch(q)
		return &parsedStatement{kind: "insert", table: m[1], paramCount: paramCount}, nil

	case selectAllRe.MatchString(q):
		m := selectAllRe.FindStringSubmatch(q)
		return &parsedStatement{kind: "selectAll", table: m[1], paramCount: paramCount}, nil

	default:
		return nil, dberr.New(dberr.CodeDriverParse, dberr.Driver, "memdriver: unrecognized statement: "+query)
	}
}

func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
