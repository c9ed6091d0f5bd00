package pool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirlordt/cppdbc-go/config"
	"github.com/sirlordt/cppdbc-go/drivers/memdriver"
)

func testPool(t *testing.T, maxSize int, acquireTimeout time.Duration) *Pool {
	t.Helper()
	d := memdriver.New()
	cfg := config.DefaultPool()
	cfg.InitialSize = 1
	cfg.MinIdle = 1
	cfg.MaxSize = maxSize
	cfg.AcquireTimeout = acquireTimeout
	cfg.ValidationInterval = time.Hour // keep the background task quiet during tests

	p, err := New(context.Background(), d, "cpp_dbc:mem://pooltest", "", "", nil, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestBasicBorrowAndReturn(t *testing.T) {
	p := testPool(t, 1, time.Second)
	ctx := context.Background()

	c1, err := p.GetConnection(ctx)
	require.NoError(t, err)
	rows, err := c1.ExecuteQuery(ctx, "SELECT 1")
	require.NoError(t, err)
	ok, err := rows.Next(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	rows.Close()
	require.NoError(t, c1.Close())

	c2, err := p.GetConnection(ctx)
	require.NoError(t, err)
	defer c2.Close()

	stats := p.Stats()
	assert.Equal(t, 1, stats.CurrentSize)
	assert.Equal(t, 1, stats.BorrowedCount)
	assert.Equal(t, 0, stats.IdleCount)
}

func TestAcquireTimeoutWhenExhausted(t *testing.T) {
	p := testPool(t, 1, 100*time.Millisecond)
	ctx := context.Background()

	c1, err := p.GetConnection(ctx)
	require.NoError(t, err)
	defer c1.Close()

	start := time.Now()
	_, err = p.GetConnection(ctx)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
}

func TestFIFOFairness(t *testing.T) {
	p := testPool(t, 1, 2*time.Second)
	ctx := context.Background()

	c1, err := p.GetConnection(ctx)
	require.NoError(t, err)

	order := make(chan int, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		c, err := p.GetConnection(ctx)
		if err == nil {
			order <- 2
			c.Close()
		}
	}()
	time.Sleep(20 * time.Millisecond)
	go func() {
		defer wg.Done()
		c, err := p.GetConnection(ctx)
		if err == nil {
			order <- 3
			c.Close()
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c1.Close())
	wg.Wait()
	close(order)

	var got []int
	for v := range order {
		got = append(got, v)
	}
	require.Len(t, got, 2)
	assert.Equal(t, []int{2, 3}, got)
}

func TestBorrowedPlusIdleEqualsCurrentSize(t *testing.T) {
	p := testPool(t, 3, time.Second)
	ctx := context.Background()

	var conns []interface {
		Close() error
	}
	for i := 0; i < 3; i++ {
		c, err := p.GetConnection(ctx)
		require.NoError(t, err)
		conns = append(conns, c)
	}

	stats := p.Stats()
	assert.Equal(t, stats.CurrentSize, stats.BorrowedCount+stats.IdleCount)
	assert.Equal(t, 3, stats.BorrowedCount)
	assert.LessOrEqual(t, stats.BorrowedCount, 3)

	for _, c := range conns {
		require.NoError(t, c.Close())
	}
	stats = p.Stats()
	assert.Equal(t, stats.CurrentSize, stats.BorrowedCount+stats.IdleCount)
	assert.Equal(t, 0, stats.BorrowedCount)
}

func TestPoolCloseIsIdempotent(t *testing.T) {
	p := testPool(t, 1, time.Second)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}

func TestReturnThenAcquireYieldsResetState(t *testing.T) {
	p := testPool(t, 1, time.Second)
	ctx := context.Background()

	c1, err := p.GetConnection(ctx)
	require.NoError(t, err)
	require.NoError(t, c1.SetAutoCommit(ctx, false))
	require.NoError(t, c1.Close())

	c2, err := p.GetConnection(ctx)
	require.NoError(t, err)
	defer c2.Close()
	assert.True(t, c2.GetAutoCommit())
}
