package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirlordt/cppdbc-go/config"
	"github.com/sirlordt/cppdbc-go/drivers/memdriver"
	"github.com/sirlordt/cppdbc-go/log"
	"github.com/sirlordt/cppdbc-go/registry"
)

func testPoolConfig() config.Pool {
	cfg := config.DefaultPool()
	cfg.InitialSize = 1
	cfg.MinIdle = 1
	cfg.MaxSize = 2
	cfg.AcquireTimeout = time.Second
	cfg.ValidationInterval = time.Hour
	return cfg
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	reg := registry.New()
	reg.Register("mem", memdriver.New())
	return New(reg, time.Hour, log.NewZap())
}

func TestOpenQueryAndExec(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()

	err := db.Open(ctx, config.Database{Name: "primary", Type: "mem", DatabaseName: "app"}, testPoolConfig())
	require.NoError(t, err)

	_, err = db.Exec(ctx, "primary", "CREATE TABLE widgets (id)")
	require.NoError(t, err)

	n, err := db.Exec(ctx, "primary", "INSERT INTO widgets VALUES (1)")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, conn, err := db.Query(ctx, "primary", "SELECT * FROM widgets")
	require.NoError(t, err)
	defer conn.Close()
	defer rows.Close()

	hasRow, err := rows.Next(ctx)
	require.NoError(t, err)
	assert.True(t, hasRow)
}

func TestQueryUnknownPoolFails(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()

	_, _, err := db.Query(ctx, "missing", "SELECT 1")
	assert.Error(t, err)
}

func TestTransactionAcrossTwoPools(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	defer db.Close()

	cfg := testPoolConfig()
	require.NoError(t, db.Open(ctx, config.Database{Name: "p1", Type: "mem", DatabaseName: "db1"}, cfg))
	require.NoError(t, db.Open(ctx, config.Database{Name: "p2", Type: "mem", DatabaseName: "db2"}, cfg))

	txID, err := db.BeginTransaction(ctx, "p1", time.Minute)
	require.NoError(t, err)

	c1, err := db.GetConnection(ctx, txID, "p1")
	require.NoError(t, err)
	_, err = c1.ExecuteUpdate(ctx, "CREATE TABLE widgets (id)")
	require.NoError(t, err)
	_, err = c1.ExecuteUpdate(ctx, "INSERT INTO widgets VALUES (1)")
	require.NoError(t, err)

	c2, err := db.Enlist(ctx, txID, "p2")
	require.NoError(t, err)
	_, err = c2.ExecuteUpdate(ctx, "CREATE TABLE widgets (id)")
	require.NoError(t, err)
	_, err = c2.ExecuteUpdate(ctx, "INSERT INTO widgets VALUES (2)")
	require.NoError(t, err)

	require.NoError(t, db.Commit(ctx, txID))

	status, err := db.TxStatus(txID)
	require.NoError(t, err)
	assert.Equal(t, "COMMITTED", status.String())
}
