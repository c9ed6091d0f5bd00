package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseURL(t *testing.T) {
	db := Database{Type: "mysql", Host: "localhost", Port: 3306, DatabaseName: "app"}
	assert.Equal(t, "cpp_dbc:mysql://localhost:3306/app", db.URL())
}

func TestDatabaseURLFileBacked(t *testing.T) {
	db := Database{Type: "sqlite", Host: "/var/data", DatabaseName: "app.db"}
	assert.Equal(t, "cpp_dbc:sqlite:///var/data/app.db", db.URL())
}

func TestPoolValidateRejectsZeroMaxSize(t *testing.T) {
	p := DefaultPool()
	p.MaxSize = 0
	require.Error(t, p.Validate())
}

func TestPoolValidateRejectsInitialExceedingMax(t *testing.T) {
	p := DefaultPool()
	p.MaxSize = 2
	p.InitialSize = 5
	require.Error(t, p.Validate())
}

func TestPoolValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, DefaultPool().Validate())
}

func TestLoadYAML(t *testing.T) {
	raw := []byte(`
database:
  name: primary
  type: mysql
  host: localhost
  port: 3306
  database: app
  username: u
  password: p
connection_pool:
  initial_size: 2
  min_idle: 2
  max_size: 10
  acquire_timeout_millis: 5000
  idle_timeout_millis: 600000
  validation_interval_millis: 30000
  validation_query: "SELECT 1"
  default_isolation: READ_COMMITTED
  default_auto_commit: true
`)
	db, pool, err := Load(raw)
	require.NoError(t, err)
	assert.Equal(t, "mysql", db.Type)
	assert.Equal(t, 10, pool.MaxSize)
	require.NoError(t, pool.Validate())
}
