// Package workpool runs index-based work on a fixed set of goroutines.
//
// Workers claim chunks of consecutive indices from a shared cursor. The chunk
// size adapts after every chunk: it doubles while chunks finish well under the
// target duration and halves when they overrun it, so cheap items are batched
// and expensive items spread evenly.
package workpool

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/pactl/types"
)

// Config configures a Pool.
type Config struct {
	// Workers is the number of goroutines; values below 1 mean 1.
	Workers int

	// BatchTarget is the desired wall time of one chunk.
	BatchTarget time.Duration

	// InitialChunk is the chunk size used before the first measurement.
	InitialChunk int

	// MaxChunk bounds the chunk size.
	MaxChunk int
}

// Pool executes work items in parallel with a feedback-controlled chunk size.
//
// A Pool may be reused for many Run calls; the chunk size carries over so later
// passes start from the last measured value. It is safe for concurrent use.
type Pool struct {
	workers  int
	target   time.Duration
	maxChunk int64
	chunk    atomic.Int64
}

// New creates a pool from cfg.
func New(cfg Config) *Pool {
	p := &Pool{
		workers:  max(cfg.Workers, 1),
		target:   cfg.BatchTarget,
		maxChunk: int64(max(cfg.MaxChunk, 1)),
	}
	if p.target <= 0 {
		p.target = time.Millisecond
	}
	p.chunk.Store(min(int64(max(cfg.InitialChunk, 1)), p.maxChunk))

	return p
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// ChunkSize returns the current chunk size.
func (p *Pool) ChunkSize() int {
	return int(p.chunk.Load())
}

// Run calls fn for every index in [0, n) and returns the first error.
//
// After an error or a cancelled ctx no new chunks are started. A panic in fn
// stops its worker and is returned as ErrInvariantViolation.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}

	var cursor atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for range min(p.workers, n) {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}

				size := p.chunk.Load()
				start := cursor.Add(size) - size
				if start >= int64(n) {
					return nil
				}
				end := min(start+size, int64(n))

				began := time.Now()
				for i := start; i < end; i++ {
					if err := call(gctx, fn, int(i)); err != nil {
						return err
					}
				}
				p.adjust(size, end-start, time.Since(began))
			}
		})
	}

	return g.Wait()
}

func call(ctx context.Context, fn func(ctx context.Context, i int) error, i int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: work item %d panicked: %v", types.ErrInvariantViolation, i, r)
		}
	}()

	return fn(ctx, i)
}

// adjust updates the shared chunk size from one measurement.
func (p *Pool) adjust(claimed int64, done int64, elapsed time.Duration) {
	// partial tail chunks say nothing about the right size
	if done < claimed {
		return
	}

	next := claimed
	switch {
	case elapsed < p.target/2:
		next = min(claimed*2, p.maxChunk)
	case elapsed > p.target*2:
		next = max(claimed/2, 1)
	}
	if next != claimed {
		p.chunk.CompareAndSwap(claimed, next)
	}
}

// ForEach calls fn for every element of items on the pool.
func ForEach[T any](ctx context.Context, p *Pool, items []T, fn func(ctx context.Context, item T) error) error {
	return p.Run(ctx, len(items), func(ctx context.Context, i int) error {
		return fn(ctx, items[i])
	})
}
