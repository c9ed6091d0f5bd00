package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirlordt/cppdbc-go"
)

type stubDriver struct {
	scheme string
	opened int
}

func (d *stubDriver) Accepts(url string) bool {
	scheme, err := Scheme(url)
	return err == nil && scheme == d.scheme
}

func (d *stubDriver) Connect(ctx context.Context, url, user, password string, opts *cppdbc.Options) (cppdbc.Connection, error) {
	d.opened++
	return nil, nil
}

func (d *stubDriver) SupportedIsolationLevels() []cppdbc.IsolationLevel {
	return []cppdbc.IsolationLevel{cppdbc.ReadCommitted}
}

func (d *stubDriver) Validate(ctx context.Context, conn cppdbc.Connection) error { return nil }

func TestSchemeParsing(t *testing.T) {
	scheme, err := Scheme("cpp_dbc:mysql://localhost:3306/app")
	require.NoError(t, err)
	assert.Equal(t, "mysql", scheme)

	_, err = Scheme("not-a-url")
	assert.Error(t, err)
}

func TestRegisterIsIdempotentByScheme(t *testing.T) {
	reg := New()
	first := &stubDriver{scheme: "mysql"}
	second := &stubDriver{scheme: "mysql"}

	reg.Register("mysql", first)
	reg.Register("mysql", second)

	resolved, err := reg.Driver("cpp_dbc:mysql://localhost/app")
	require.NoError(t, err)
	assert.Same(t, second, resolved)
}

func TestGetConnectionUnknownScheme(t *testing.T) {
	reg := New()
	reg.Register("mysql", &stubDriver{scheme: "mysql"})

	_, err := reg.GetConnection(context.Background(), "cpp_dbc:sqlite://:memory:", "", "", nil)
	require.Error(t, err)
}

func TestGetConnectionFirstMatchWins(t *testing.T) {
	reg := New()
	mysqlDriver := &stubDriver{scheme: "mysql"}
	sqliteDriver := &stubDriver{scheme: "sqlite"}
	reg.Register("mysql", mysqlDriver)
	reg.Register("sqlite", sqliteDriver)

	_, err := reg.GetConnection(context.Background(), "cpp_dbc:sqlite:///tmp/app.db", "u", "p", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, sqliteDriver.opened)
	assert.Equal(t, 0, mysqlDriver.opened)
}
