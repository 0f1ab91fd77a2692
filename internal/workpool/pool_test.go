package workpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_PreservesOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}

	results := Map(context.Background(), items, 3, func(_ context.Context, n int) (int, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10, nil
	})

	require.Len(t, results, len(items))
	for i, n := range items {
		assert.NoError(t, results[i].Err)
		assert.Equal(t, n*10, results[i].Value)
	}
}

func TestMap_IsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	items := []string{"AAPL", "FAIL", "MSFT"}

	results := Map(context.Background(), items, 2, func(_ context.Context, s string) (string, error) {
		if s == "FAIL" {
			return "", boom
		}
		return s, nil
	})

	assert.Equal(t, "AAPL", results[0].Value)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.Equal(t, "MSFT", results[2].Value)
}

func TestMap_FailureDoesNotCancelLaterItems(t *testing.T) {
	var calls int32
	items := []string{"FAIL", "AAPL", "MSFT", "NVDA"}

	results := Map(context.Background(), items, 1, func(ctx context.Context, s string) (string, error) {
		atomic.AddInt32(&calls, 1)
		if s == "FAIL" {
			return "", errors.New("chart unavailable")
		}
		return s, ctx.Err()
	})

	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.Error(t, results[0].Err)
	for i, s := range items[1:] {
		assert.NoError(t, results[i+1].Err)
		assert.Equal(t, s, results[i+1].Value)
	}
}

func TestMap_BoundsWorkers(t *testing.T) {
	var active, peak int32
	items := make([]int, 20)

	Map(context.Background(), items, 4, func(_ context.Context, _ int) (struct{}, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(4))
}

func TestMap_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	results := Map(ctx, []int{1, 2, 3}, 2, func(_ context.Context, n int) (int, error) {
		atomic.AddInt32(&calls, 1)
		return n, nil
	})

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestMap_Empty(t *testing.T) {
	results := Map(context.Background(), []int(nil), 0, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	assert.Empty(t, results)
}
