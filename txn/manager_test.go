package txn

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirlordt/cppdbc-go/config"
	"github.com/sirlordt/cppdbc-go/drivers/memdriver"
	"github.com/sirlordt/cppdbc-go/pool"
)

func testPool(t *testing.T, name string) *pool.Pool {
	t.Helper()
	d := memdriver.New()
	cfg := config.DefaultPool()
	cfg.InitialSize = 1
	cfg.MinIdle = 1
	cfg.MaxSize = 2
	cfg.AcquireTimeout = time.Second
	cfg.ValidationInterval = time.Hour

	p, err := pool.New(context.Background(), d, "cpp_dbc:mem://"+name, "", "", nil, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestBeginCommitHappyPathAcrossTwoPools(t *testing.T) {
	p1 := testPool(t, "txn-commit-p1")
	p2 := testPool(t, "txn-commit-p2")
	ctx := context.Background()
	m := NewManager(time.Hour, nil)
	defer m.Close()

	txID, err := m.BeginTransaction(ctx, p1, 10*time.Second)
	require.NoError(t, err)

	c1, err := m.GetConnection(ctx, txID, p1)
	require.NoError(t, err)
	_, err = c1.ExecuteUpdate(ctx, "CREATE TABLE t (id)")
	require.NoError(t, err)
	_, err = c1.ExecuteUpdate(ctx, "INSERT INTO t VALUES (?)", int32(1))
	require.NoError(t, err)

	c2, err := m.Enlist(ctx, txID, p2)
	require.NoError(t, err)
	_, err = c2.ExecuteUpdate(ctx, "CREATE TABLE t (id)")
	require.NoError(t, err)
	_, err = c2.ExecuteUpdate(ctx, "INSERT INTO t VALUES (?)", int32(2))
	require.NoError(t, err)

	require.NoError(t, m.Commit(ctx, txID))

	status, err := m.Status(txID)
	require.NoError(t, err)
	assert.Equal(t, Committed, status)

	// Both connections went back to their pools reset to pool defaults.
	stats1 := p1.Stats()
	stats2 := p2.Stats()
	assert.Equal(t, 0, stats1.BorrowedCount)
	assert.Equal(t, 0, stats2.BorrowedCount)

	back1, err := p1.GetConnection(ctx)
	require.NoError(t, err)
	defer back1.Close()
	assert.True(t, back1.GetAutoCommit())
}

func TestGetConnectionReusesEnlistedHandle(t *testing.T) {
	p1 := testPool(t, "txn-reuse")
	ctx := context.Background()
	m := NewManager(time.Hour, nil)
	defer m.Close()

	txID, err := m.BeginTransaction(ctx, p1, 10*time.Second)
	require.NoError(t, err)

	first, err := m.GetConnection(ctx, txID, p1)
	require.NoError(t, err)
	second, err := m.GetConnection(ctx, txID, p1)
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.NoError(t, m.Rollback(ctx, txID))
}

func TestRollbackOnPartialFailure(t *testing.T) {
	p1 := testPool(t, "txn-rollback-p1")
	p2 := testPool(t, "txn-rollback-p2")
	ctx := context.Background()
	m := NewManager(time.Hour, nil)
	defer m.Close()

	txID, err := m.BeginTransaction(ctx, p1, 10*time.Second)
	require.NoError(t, err)

	c1, err := m.GetConnection(ctx, txID, p1)
	require.NoError(t, err)
	_, err = c1.ExecuteUpdate(ctx, "CREATE TABLE t (id)")
	require.NoError(t, err)

	c2, err := m.Enlist(ctx, txID, p2)
	require.NoError(t, err)
	_, err = c2.ExecuteQuery(ctx, "FAIL boom")
	require.Error(t, err)

	require.NoError(t, m.Rollback(ctx, txID))

	status, err := m.Status(txID)
	require.NoError(t, err)
	assert.Equal(t, RolledBack, status)

	stats1 := p1.Stats()
	stats2 := p2.Stats()
	assert.Equal(t, 0, stats1.BorrowedCount)
	assert.Equal(t, 0, stats2.BorrowedCount)
}

func TestCommitPartialFailureReportsPartialCommitErr(t *testing.T) {
	p1 := testPool(t, "txn-partial-p1")
	p2 := testPool(t, "txn-partial-p2")
	ctx := context.Background()
	m := NewManager(time.Hour, nil)
	defer m.Close()

	txID, err := m.BeginTransaction(ctx, p1, 10*time.Second)
	require.NoError(t, err)

	c2, err := m.Enlist(ctx, txID, p2)
	require.NoError(t, err)

	// Roll back c2's underlying transaction out from under the manager, so
	// the manager's later Commit on it fails — exercising the mid-commit
	// partial-failure path without a faulty driver.
	require.NoError(t, c2.Rollback(ctx))

	err = m.Commit(ctx, txID)
	require.Error(t, err)

	var partial *PartialCommitErr
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, txID, partial.TxID)
	assert.Len(t, partial.Outcomes, 2)
	assert.NoError(t, partial.Outcomes[0].Err)
	assert.Error(t, partial.Outcomes[1].Err)
}

func TestTransactionTimeoutIsReapedAndReported(t *testing.T) {
	p1 := testPool(t, "txn-timeout")
	ctx := context.Background()
	m := NewManager(20*time.Millisecond, nil)
	defer m.Close()

	txID, err := m.BeginTransaction(ctx, p1, 30*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)

	_, err = m.GetConnection(ctx, txID, p1)
	require.Error(t, err)

	status, statusErr := m.Status(txID)
	require.NoError(t, statusErr)
	assert.Equal(t, TimedOut, status)

	stats := p1.Stats()
	assert.Equal(t, 0, stats.BorrowedCount)
}

func TestEnlistSamePoolTwiceFails(t *testing.T) {
	p1 := testPool(t, "txn-double-enlist")
	ctx := context.Background()
	m := NewManager(time.Hour, nil)
	defer m.Close()

	txID, err := m.BeginTransaction(ctx, p1, 10*time.Second)
	require.NoError(t, err)

	_, err = m.Enlist(ctx, txID, p1)
	require.Error(t, err)

	require.NoError(t, m.Rollback(ctx, txID))
}

func TestCommitUnknownTransactionFails(t *testing.T) {
	m := NewManager(time.Hour, nil)
	defer m.Close()
	err := m.Commit(context.Background(), "does-not-exist")
	require.Error(t, err)
}
