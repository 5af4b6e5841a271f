package graph

import (
	"fmt"
	"maps"
	"slices"

	"github.com/arloliu/pactl/types"
)

// Builder accumulates edges and propositions for an Explicit system.
//
// A Builder is not safe for concurrent use.
type Builder[C any] struct {
	solver types.Solver[C]
	states int
	succ   [][]types.Transition[C]
	pred   [][]types.Transition[C]
	props  map[string]types.StateMap[C]
	err    error
}

// NewBuilder creates a builder for a system with states [0, states).
//
// The solver is used to merge parallel edges and repeated proposition values.
func NewBuilder[C any](solver types.Solver[C], states int) *Builder[C] {
	b := &Builder[C]{
		solver: solver,
		states: max(states, 0),
		props:  make(map[string]types.StateMap[C]),
	}
	b.succ = make([][]types.Transition[C], b.states)
	b.pred = make([][]types.Transition[C], b.states)

	return b
}

// AddEdge adds the edge from → to, labelled with dir and valid for bound.
//
// Edges with the same endpoints and direction are merged by union of their bounds.
// Empty bounds are dropped. The first invalid call is reported by Build.
func (b *Builder[C]) AddEdge(from, to types.State, dir types.DirectionAtom, bound C) *Builder[C] {
	if b.err != nil {
		return b
	}
	if !b.valid(from) || !b.valid(to) {
		b.err = fmt.Errorf("%w: edge %d -> %d in a system of %d states", types.ErrStateOutOfRange, from, to, b.states)
		return b
	}
	if b.solver.IsEmpty(bound) {
		return b
	}

	b.succ[from] = b.merge(b.succ[from], types.Transition[C]{Target: to, Direction: dir, Bound: bound})
	b.pred[to] = b.merge(b.pred[to], types.Transition[C]{Target: from, Direction: dir, Bound: bound})

	return b
}

// SetProposition adds colors to the value of proposition name at state.
func (b *Builder[C]) SetProposition(name string, state types.State, colors C) *Builder[C] {
	if b.err != nil {
		return b
	}
	if !b.valid(state) {
		b.err = fmt.Errorf("%w: proposition %q at state %d", types.ErrStateOutOfRange, name, state)
		return b
	}

	m, ok := b.props[name]
	if !ok {
		m = make(types.StateMap[C])
		b.props[name] = m
	}
	if old, ok := m[state]; ok {
		colors = b.solver.Or(old, colors)
	}
	if !b.solver.IsEmpty(colors) {
		m[state] = colors
	}

	return b
}

// DeclareProposition registers name without any satisfying state.
func (b *Builder[C]) DeclareProposition(name string) *Builder[C] {
	if _, ok := b.props[name]; !ok {
		b.props[name] = make(types.StateMap[C])
	}

	return b
}

// Build returns the finished system, or the first error recorded by the builder.
func (b *Builder[C]) Build() (*Explicit[C], error) {
	if b.err != nil {
		return nil, b.err
	}

	g := &Explicit[C]{
		solver: b.solver,
		states: b.states,
		succ:   b.succ,
		pred:   b.pred,
		props:  b.props,
	}
	// the builder must not mutate a published system
	b.succ = nil
	b.pred = nil
	b.props = nil
	b.err = fmt.Errorf("%w: builder already used", types.ErrInvalidConfig)

	return g, nil
}

func (b *Builder[C]) valid(s types.State) bool {
	return int(s) < b.states
}

func (b *Builder[C]) merge(edges []types.Transition[C], edge types.Transition[C]) []types.Transition[C] {
	for i := range edges {
		if edges[i].Target == edge.Target && edges[i].Direction == edge.Direction {
			edges[i].Bound = b.solver.Or(edges[i].Bound, edge.Bound)
			return edges
		}
	}

	return append(edges, edge)
}

// Explicit is an immutable in-memory transition system.
type Explicit[C any] struct {
	solver types.Solver[C]
	states int
	succ   [][]types.Transition[C]
	pred   [][]types.Transition[C]
	props  map[string]types.StateMap[C]
}

var _ types.Graph[int] = (*Explicit[int])(nil)

// StateCount implements types.Graph.
func (g *Explicit[C]) StateCount() int {
	return g.states
}

// Step implements types.Graph. States outside the system have no edges.
func (g *Explicit[C]) Step(state types.State, future bool) []types.Transition[C] {
	if int(state) >= g.states {
		return nil
	}
	if future {
		return g.succ[state]
	}

	return g.pred[state]
}

// Solver returns the solver the system's colors belong to.
func (g *Explicit[C]) Solver() types.Solver[C] {
	return g.solver
}

// Propositions returns the sorted names of all declared propositions.
func (g *Explicit[C]) Propositions() []string {
	return slices.Sorted(maps.Keys(g.props))
}

// Eval returns the value of proposition name at every state.
func (g *Explicit[C]) Eval(name string) (types.StateMap[C], error) {
	m, ok := g.props[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownProposition, name)
	}

	return maps.Clone(m), nil
}

// Fragment returns the view of partition id under pf.
func (g *Explicit[C]) Fragment(id types.PartitionID, pf types.PartitionFunction) (*Fragment[C], error) {
	if id < 0 || int(id) >= pf.Size() {
		return nil, fmt.Errorf("%w: partition %d of %d", types.ErrFragmentMismatch, id, pf.Size())
	}

	return &Fragment[C]{graph: g, id: id, pf: pf}, nil
}

// Fragments returns one fragment per partition of pf, indexed by partition id.
func (g *Explicit[C]) Fragments(pf types.PartitionFunction) ([]types.Fragment[C], error) {
	out := make([]types.Fragment[C], pf.Size())
	for i := range out {
		f, err := g.Fragment(types.PartitionID(i), pf)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}

	return out, nil
}
