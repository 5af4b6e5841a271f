package graph

import (
	"github.com/arloliu/pactl/types"
)

// Fragment is one partition's view of an Explicit system.
type Fragment[C any] struct {
	graph *Explicit[C]
	id    types.PartitionID
	pf    types.PartitionFunction
}

var _ types.Fragment[int] = (*Fragment[int])(nil)

func (f *Fragment[C]) StateCount() int { return f.graph.StateCount() }

func (f *Fragment[C]) Step(state types.State, future bool) []types.Transition[C] {
	return f.graph.Step(state, future)
}

func (f *Fragment[C]) ID() types.PartitionID              { return f.id }
func (f *Fragment[C]) Partition() types.PartitionFunction { return f.pf }
func (f *Fragment[C]) Owns(state types.State) bool        { return f.pf.Owner(state) == f.id }

// Eval returns the proposition restricted to the states this fragment owns.
func (f *Fragment[C]) Eval(name string) (types.StateMap[C], error) {
	all, err := f.graph.Eval(name)
	if err != nil {
		return nil, err
	}
	for s := range all {
		if !f.Owns(s) {
			delete(all, s)
		}
	}

	return all, nil
}
