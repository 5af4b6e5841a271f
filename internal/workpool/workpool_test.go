package workpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/pactl/types"
)

func TestPool_RunVisitsEveryIndexOnce(t *testing.T) {
	p := New(Config{Workers: 4, BatchTarget: time.Millisecond, InitialChunk: 3, MaxChunk: 64})

	const n = 10_000
	seen := make([]atomic.Int32, n)
	err := p.Run(context.Background(), n, func(_ context.Context, i int) error {
		seen[i].Add(1)
		return nil
	})
	require.NoError(t, err)

	for i := range seen {
		require.Equal(t, int32(1), seen[i].Load(), "index %d", i)
	}
}

func TestPool_ChunkGrowsForCheapWork(t *testing.T) {
	p := New(Config{Workers: 1, BatchTarget: time.Second, InitialChunk: 1, MaxChunk: 32})

	err := p.Run(context.Background(), 1000, func(context.Context, int) error { return nil })
	require.NoError(t, err)
	require.Equal(t, 32, p.ChunkSize())
}

func TestPool_ChunkShrinksForSlowWork(t *testing.T) {
	p := New(Config{Workers: 1, BatchTarget: time.Microsecond, InitialChunk: 8, MaxChunk: 8})

	err := p.Run(context.Background(), 16, func(context.Context, int) error {
		time.Sleep(100 * time.Microsecond)
		return nil
	})
	require.NoError(t, err)
	require.Less(t, p.ChunkSize(), 8)
}

func TestPool_StopsOnError(t *testing.T) {
	p := New(Config{Workers: 2, BatchTarget: time.Millisecond, InitialChunk: 1, MaxChunk: 1})
	boom := errors.New("boom")

	var calls atomic.Int64
	err := p.Run(context.Background(), 1000, func(_ context.Context, i int) error {
		calls.Add(1)
		if i == 5 {
			return boom
		}
		time.Sleep(100 * time.Microsecond)

		return nil
	})
	require.ErrorIs(t, err, boom)
	require.Less(t, calls.Load(), int64(1000))
}

func TestPool_Cancelled(t *testing.T) {
	p := New(Config{Workers: 2, InitialChunk: 1, MaxChunk: 4})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx, 10, func(context.Context, int) error { return nil })
	require.ErrorIs(t, err, context.Canceled)

	require.ErrorIs(t, p.Run(ctx, 0, nil), context.Canceled)
}

func TestForEach(t *testing.T) {
	p := New(Config{Workers: 3, InitialChunk: 2, MaxChunk: 8})
	items := []int{1, 2, 3, 4, 5}

	var sum atomic.Int64
	err := ForEach(context.Background(), p, items, func(_ context.Context, v int) error {
		sum.Add(int64(v))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(15), sum.Load())
}

func TestPool_PanicBecomesError(t *testing.T) {
	p := New(Config{Workers: 3, InitialChunk: 2, MaxChunk: 8})

	var done atomic.Int32
	err := ForEach(context.Background(), p, []string{"a", "b", "boom", "c"}, func(_ context.Context, item string) error {
		if item == "boom" {
			panic("bad item")
		}
		done.Add(1)

		return nil
	})
	require.ErrorIs(t, err, types.ErrInvariantViolation)
	require.ErrorContains(t, err, "work item 2 panicked: bad item")
	require.LessOrEqual(t, done.Load(), int32(3))
}
