package memdriver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSharesDatabaseByName(t *testing.T) {
	d := New()
	ctx := context.Background()

	c1, err := d.Connect(ctx, "cpp_dbc:mem://shared", "", "", nil)
	require.NoError(t, err)
	c2, err := d.Connect(ctx, "cpp_dbc:mem://shared", "", "", nil)
	require.NoError(t, err)

	_, err = c1.ExecuteUpdate(ctx, "CREATE TABLE accounts (id, balance)")
	require.NoError(t, err)
	_, err = c1.ExecuteUpdate(ctx, "INSERT INTO accounts VALUES (?, ?)", int32(1), int32(100))
	require.NoError(t, err)

	rows, err := c2.ExecuteQuery(ctx, "SELECT * FROM accounts")
	require.NoError(t, err)
	defer rows.Close()

	has, err := rows.Next(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	balance, err := rows.GetInt(2)
	require.NoError(t, err)
	assert.Equal(t, int32(100), balance)
}

func TestExecuteQueryWhileOpenFails(t *testing.T) {
	d := New()
	ctx := context.Background()
	c, err := d.Connect(ctx, "cpp_dbc:mem://x", "", "", nil)
	require.NoError(t, err)

	rows, err := c.ExecuteQuery(ctx, "SELECT 1")
	require.NoError(t, err)
	defer rows.Close()

	_, err = c.ExecuteQuery(ctx, "SELECT 1")
	require.Error(t, err)
}

func TestBeginTransactionRejectsReentry(t *testing.T) {
	d := New()
	ctx := context.Background()
	c, err := d.Connect(ctx, "cpp_dbc:mem://y", "", "", nil)
	require.NoError(t, err)

	require.NoError(t, c.BeginTransaction(ctx))
	require.Error(t, c.BeginTransaction(ctx))
	require.NoError(t, c.Rollback(ctx))
}

func TestCommitWithoutTransactionFails(t *testing.T) {
	d := New()
	ctx := context.Background()
	c, err := d.Connect(ctx, "cpp_dbc:mem://z", "", "", nil)
	require.NoError(t, err)

	require.Error(t, c.Commit(ctx))
}

func TestCloseIsIdempotent(t *testing.T) {
	d := New()
	ctx := context.Background()
	c, err := d.Connect(ctx, "cpp_dbc:mem://w", "", "", nil)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.True(t, c.IsClosed())
}

func TestPreparedStatementRejectsOutOfRangeIndex(t *testing.T) {
	d := New()
	ctx := context.Background()
	c, err := d.Connect(ctx, "cpp_dbc:mem://params", "", "", nil)
	require.NoError(t, err)

	stmt, err := c.PrepareStatement(ctx, "INSERT INTO widgets VALUES (?, ?)")
	require.NoError(t, err)
	defer stmt.Close()

	require.NoError(t, stmt.SetInt(1, 1))
	require.NoError(t, stmt.SetInt(2, 2))

	err = stmt.SetInt(3, 3)
	require.Error(t, err)
	err = stmt.SetInt(0, 3)
	require.Error(t, err)
}

func TestTypedGetterRejectsTypeMismatch(t *testing.T) {
	d := New()
	ctx := context.Background()
	c, err := d.Connect(ctx, "cpp_dbc:mem://mismatch", "", "", nil)
	require.NoError(t, err)

	_, err = c.ExecuteUpdate(ctx, "CREATE TABLE widgets (name)")
	require.NoError(t, err)
	_, err = c.ExecuteUpdate(ctx, "INSERT INTO widgets VALUES (?)", "hello")
	require.NoError(t, err)

	rows, err := c.ExecuteQuery(ctx, "SELECT * FROM widgets")
	require.NoError(t, err)
	defer rows.Close()

	has, err := rows.Next(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	_, err = rows.GetInt(1)
	require.Error(t, err)
}

func TestDateAndTimestampRoundTrip(t *testing.T) {
	d := New()
	ctx := context.Background()
	c, err := d.Connect(ctx, "cpp_dbc:mem://dates", "", "", nil)
	require.NoError(t, err)

	_, err = c.ExecuteUpdate(ctx, "CREATE TABLE events (happened_on, logged_at)")
	require.NoError(t, err)

	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	instant := time.Date(2024, time.March, 1, 13, 30, 0, 0, time.UTC)

	stmt, err := c.PrepareStatement(ctx, "INSERT INTO events VALUES (?, ?)")
	require.NoError(t, err)
	require.NoError(t, stmt.SetDate(1, day))
	require.NoError(t, stmt.SetTimestamp(2, instant))
	_, err = stmt.ExecuteUpdate(ctx)
	require.NoError(t, err)
	require.NoError(t, stmt.Close())

	rows, err := c.ExecuteQuery(ctx, "SELECT * FROM events")
	require.NoError(t, err)
	defer rows.Close()

	has, err := rows.Next(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	gotDay, err := rows.GetDate(1)
	require.NoError(t, err)
	assert.True(t, gotDay.Equal(day))

	gotInstant, err := rows.GetTimestamp(2)
	require.NoError(t, err)
	assert.True(t, gotInstant.Equal(instant))
}
