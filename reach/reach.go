// Package reach computes symbolic forward and backward reachability over a
// color-guarded graph.
//
// Reachable colors are accumulated per state in a concurrent map. Each pass
// processes the current frontier of dirty states on a work pool; a state whose
// accumulated colors grew becomes dirty for the next pass.
package reach

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/pactl/internal/metrics"
	"github.com/arloliu/pactl/internal/workpool"
	"github.com/arloliu/pactl/solver"
	"github.com/arloliu/pactl/types"
)

// Reacher runs reachability passes over one graph.
//
// It is safe for concurrent use; the solver is wrapped with
// solver.Synchronized before the workers share it.
type Reacher[C any] struct {
	graph   types.Graph[C]
	solver  types.Solver[C]
	pool    *workpool.Pool
	metrics types.MetricsCollector
}

// Option configures a Reacher.
type Option func(*options)

type options struct {
	metrics types.MetricsCollector
}

// WithMetrics records the duration of every pass.
func WithMetrics(m types.MetricsCollector) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// New creates a Reacher. A nil pool runs passes on a single worker.
func New[C any](g types.Graph[C], s types.Solver[C], pool *workpool.Pool, opts ...Option) *Reacher[C] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNop()
	}
	if pool == nil {
		pool = workpool.New(workpool.Config{Workers: 1, InitialChunk: 64, MaxChunk: 64})
	}

	return &Reacher[C]{
		graph:   g,
		solver:  solver.NewSynchronized(s),
		pool:    pool,
		metrics: o.metrics,
	}
}

// Forward returns, per state, the colors for which it is reachable from
// initial. Initial values are part of the result. When guard is non-nil, only
// states and colors inside guard are entered.
func (r *Reacher[C]) Forward(ctx context.Context, initial, guard types.StateMap[C]) (types.StateMap[C], error) {
	return r.run(ctx, "forward", true, initial, guard)
}

// Backward returns, per state, the colors for which it can reach initial.
// When guard is non-nil, only states and colors inside guard are entered.
func (r *Reacher[C]) Backward(ctx context.Context, initial, guard types.StateMap[C]) (types.StateMap[C], error) {
	return r.run(ctx, "backward", false, initial, guard)
}

func (r *Reacher[C]) run(ctx context.Context, direction string, future bool, initial, guard types.StateMap[C]) (types.StateMap[C], error) {
	started := time.Now()
	sv := r.solver

	acc := xsync.NewMap[types.State, C]()
	dirty := make([]types.State, 0, len(initial))
	for _, s := range slices.Sorted(maps.Keys(initial)) {
		if v := initial[s]; !sv.IsEmpty(v) {
			acc.Store(s, v)
			dirty = append(dirty, s)
		}
	}

	for len(dirty) > 0 {
		next := xsync.NewMap[types.State, struct{}]()
		err := workpool.ForEach(ctx, r.pool, dirty, func(_ context.Context, s types.State) error {
			v, _ := acc.Load(s)
			for _, t := range r.graph.Step(s, future) {
				w := sv.And(v, t.Bound)
				if guard != nil {
					w = sv.And(w, guard.Get(t.Target, sv))
				}
				if sv.IsEmpty(w) {
					continue
				}
				if r.merge(acc, t.Target, w) {
					next.Store(t.Target, struct{}{})
				}
			}

			return nil
		})
		if err != nil {
			return nil, err
		}

		dirty = dirty[:0]
		next.Range(func(s types.State, _ struct{}) bool {
			dirty = append(dirty, s)
			return true
		})
		slices.Sort(dirty)
	}

	out := make(types.StateMap[C], acc.Size())
	acc.Range(func(s types.State, v C) bool {
		out[s] = v
		return true
	})
	r.metrics.RecordReachPass(direction, time.Since(started).Seconds())

	return out, nil
}

// merge unions w into the accumulator at s and reports whether it grew.
func (r *Reacher[C]) merge(acc *xsync.Map[types.State, C], s types.State, w C) bool {
	sv := r.solver
	grew := false
	acc.Compute(s, func(old C, loaded bool) (C, xsync.ComputeOp) {
		if !loaded {
			grew = true
			return w, xsync.UpdateOp
		}
		if sv.IsEmpty(sv.AndNot(w, old)) {
			return old, xsync.CancelOp
		}
		grew = true

		return sv.Minimize(sv.Or(old, w)), xsync.UpdateOp
	})

	return grew
}
