// Package attractor decomposes a color-guarded graph into its terminal strongly
// connected components, for every color at once.
//
// The decomposition is pivot based: a universe of states is split by the
// component of a set of pivot states (one pivot per color), which is reported
// where nothing else is reachable from it, and the remaining parts are queued
// as new universes. Every universe is closed under successors, so a component
// that is terminal within its universe is terminal in the whole graph.
package attractor

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/pactl/internal/logging"
	"github.com/arloliu/pactl/internal/metrics"
	"github.com/arloliu/pactl/internal/workpool"
	"github.com/arloliu/pactl/reach"
	"github.com/arloliu/pactl/solver"
	"github.com/arloliu/pactl/types"
)

// ComponentFunc receives one terminal component: the states of the component
// for every color in which it is terminal. The map must not be modified.
type ComponentFunc[C any] func(component types.StateMap[C]) error

// Decomposer finds terminal components of one graph.
type Decomposer[C any] struct {
	graph   types.Graph[C]
	solver  types.Solver[C]
	pool    *workpool.Pool
	reach   *reach.Reacher[C]
	logger  types.Logger
	metrics types.MetricsCollector
}

// Option configures a Decomposer.
type Option func(*options)

type options struct {
	pool    *workpool.Pool
	logger  types.Logger
	metrics types.MetricsCollector
}

// WithPool sets the work pool used for reachability, sink detection and pivot selection.
func WithPool(p *workpool.Pool) Option {
	return func(o *options) { o.pool = p }
}

// WithLogger sets a logger.
func WithLogger(l types.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets a metrics collector.
func WithMetrics(m types.MetricsCollector) Option {
	return func(o *options) { o.metrics = m }
}

// NewDecomposer creates a Decomposer for g.
//
// Example:
//
//	d := attractor.NewDecomposer(g, solver, attractor.WithPool(pool))
//	err := d.FindComponents(ctx, func(c types.StateMap[C]) error {
//	    components = append(components, c)
//	    return nil
//	})
func NewDecomposer[C any](g types.Graph[C], s types.Solver[C], opts ...Option) *Decomposer[C] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pool == nil {
		o.pool = workpool.New(workpool.Config{Workers: 1, InitialChunk: 64, MaxChunk: 64})
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.metrics == nil {
		o.metrics = metrics.NewNop()
	}
	sv := solver.NewSynchronized(s)

	return &Decomposer[C]{
		graph:   g,
		solver:  sv,
		pool:    o.pool,
		reach:   reach.New(g, sv, o.pool, reach.WithMetrics(o.metrics)),
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// FindComponents calls onComponent once per terminal component.
//
// Sink states are reported first, each as its own component. A callback error
// stops the decomposition and is returned wrapped in types.ErrCallbackFailed.
func (d *Decomposer[C]) FindComponents(ctx context.Context, onComponent ComponentFunc[C]) error {
	sinks, err := d.sinks(ctx)
	if err != nil {
		return err
	}
	for _, s := range slices.Sorted(maps.Keys(sinks)) {
		if err := d.report(types.StateMap[C]{s: sinks[s]}, onComponent); err != nil {
			return err
		}
	}

	canReachSink, err := d.reach.Backward(ctx, sinks, nil)
	if err != nil {
		return err
	}

	all := make(types.StateMap[C], d.graph.StateCount())
	for s := range d.graph.StateCount() {
		all[types.State(s)] = d.solver.True() //nolint:gosec // state count fits in uint32
	}

	queue := []types.StateMap[C]{d.subtract(all, canReachSink)}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		universe := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if len(universe) == 0 {
			continue
		}

		pivots, err := d.findPivots(ctx, universe)
		if err != nil {
			return err
		}
		forward, err := d.reach.Forward(ctx, pivots, universe)
		if err != nil {
			return err
		}
		current, err := d.reach.Backward(ctx, pivots, forward)
		if err != nil {
			return err
		}

		reachable := d.subtract(forward, current)
		if terminal := d.solver.Not(d.colors(reachable)); !d.solver.IsEmpty(terminal) {
			if component := d.restrict(current, terminal); len(component) > 0 {
				if err := d.report(component, onComponent); err != nil {
					return err
				}
			}
		}

		basin, err := d.reach.Backward(ctx, forward, universe)
		if err != nil {
			return err
		}
		if unreachable := d.subtract(universe, basin); len(unreachable) > 0 {
			queue = append(queue, unreachable)
		}
		if len(reachable) > 0 {
			queue = append(queue, reachable)
		}
		d.logger.Debug("universe split",
			"universe", len(universe),
			"pivots", len(pivots),
			"component", len(current),
			"queued", len(queue))
	}

	return nil
}

func (d *Decomposer[C]) report(component types.StateMap[C], onComponent ComponentFunc[C]) error {
	d.metrics.RecordComponent(len(component))
	if err := onComponent(component); err != nil {
		return fmt.Errorf("%w: %w", types.ErrCallbackFailed, err)
	}

	return nil
}

// sinks returns, per state, the colors for which it has no enabled outgoing edge.
func (d *Decomposer[C]) sinks(ctx context.Context) (types.StateMap[C], error) {
	sv := d.solver
	found := xsync.NewMap[types.State, C]()
	err := d.pool.Run(ctx, d.graph.StateCount(), func(_ context.Context, i int) error {
		s := types.State(i) //nolint:gosec // state count fits in uint32
		enabled := sv.False()
		for _, t := range d.graph.Step(s, true) {
			enabled = sv.Or(enabled, t.Bound)
		}
		if dead := sv.Not(enabled); !sv.IsEmpty(dead) {
			found.Store(s, dead)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make(types.StateMap[C], found.Size())
	found.Range(func(s types.State, v C) bool {
		out[s] = v
		return true
	})

	return out, nil
}

// findPivots picks, for every color present in universe, exactly one state.
// States covering the most still uncovered colors are taken first.
func (d *Decomposer[C]) findPivots(ctx context.Context, universe types.StateMap[C]) (types.StateMap[C], error) {
	sv := d.solver
	pivots := make(types.StateMap[C])
	candidates := universe
	for len(candidates) > 0 {
		best, bestSize := types.State(0), -1.0
		for _, s := range slices.Sorted(maps.Keys(candidates)) {
			if size := sv.Cardinality(candidates[s]); size > bestSize {
				best, bestSize = s, size
			}
		}
		picked := candidates[best]
		pivots[best] = picked

		// drop the picked colors from every remaining candidate
		remaining := xsync.NewMap[types.State, C]()
		states := slices.Collect(maps.Keys(candidates))
		err := workpool.ForEach(ctx, d.pool, states, func(_ context.Context, s types.State) error {
			if s == best {
				return nil
			}
			if v := sv.AndNot(candidates[s], picked); !sv.IsEmpty(v) {
				remaining.Store(s, v)
			}

			return nil
		})
		if err != nil {
			return nil, err
		}

		candidates = make(types.StateMap[C], remaining.Size())
		remaining.Range(func(s types.State, v C) bool {
			candidates[s] = v
			return true
		})
	}

	return pivots, nil
}

// colors returns the union of all values of m.
func (d *Decomposer[C]) colors(m types.StateMap[C]) C {
	out := d.solver.False()
	for _, v := range m {
		out = d.solver.Or(out, v)
	}

	return out
}

// subtract returns a − b, dropping empty states.
func (d *Decomposer[C]) subtract(a, b types.StateMap[C]) types.StateMap[C] {
	out := make(types.StateMap[C], len(a))
	for s, v := range a {
		if w, ok := b[s]; ok {
			v = d.solver.AndNot(v, w)
		}
		if !d.solver.IsEmpty(v) {
			out[s] = v
		}
	}

	return out
}

// restrict returns m ∧ colors, dropping empty states.
func (d *Decomposer[C]) restrict(m types.StateMap[C], colors C) types.StateMap[C] {
	out := make(types.StateMap[C], len(m))
	for s, v := range m {
		if w := d.solver.And(v, colors); !d.solver.IsEmpty(w) {
			out[s] = w
		}
	}

	return out
}
