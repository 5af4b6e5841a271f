package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/pactl/partition"
	"github.com/arloliu/pactl/solver/bitset"
	"github.com/arloliu/pactl/types"
)

var up = types.DirectionAtom{Name: "x", Facet: types.Positive}

func buildTriangle(t *testing.T, s *bitset.Solver) *Explicit[bitset.Colors] {
	t.Helper()
	b := NewBuilder[bitset.Colors](s, 3)
	b.AddEdge(0, 1, up, s.Of(0))
	b.AddEdge(0, 1, up, s.Of(1))
	b.AddEdge(1, 2, up, s.True())
	b.AddEdge(2, 0, types.DirectionAtom{}, s.Of(2))
	b.AddEdge(2, 2, types.DirectionAtom{}, s.False())
	b.SetProposition("p", 2, s.Of(0))
	b.SetProposition("p", 2, s.Of(3))
	b.SetProposition("p", 0, s.True())
	b.DeclareProposition("never")

	g, err := b.Build()
	require.NoError(t, err)

	return g
}

func TestBuilder(t *testing.T) {
	s := bitset.New(4)
	g := buildTriangle(t, s)

	t.Run("parallel edges merge", func(t *testing.T) {
		succ := g.Step(0, true)
		require.Len(t, succ, 1)
		require.Equal(t, types.State(1), succ[0].Target)
		require.Equal(t, []uint{0, 1}, s.Members(succ[0].Bound))
	})

	t.Run("predecessors mirror successors", func(t *testing.T) {
		pred := g.Step(0, false)
		require.Len(t, pred, 1)
		require.Equal(t, types.State(2), pred[0].Target)
		require.True(t, pred[0].Direction.IsLoop())
	})

	t.Run("empty bounds are dropped", func(t *testing.T) {
		require.Len(t, g.Step(2, true), 1)
	})

	t.Run("out of range state has no edges", func(t *testing.T) {
		require.Nil(t, g.Step(10, true))
	})

	t.Run("propositions", func(t *testing.T) {
		p, err := g.Eval("p")
		require.NoError(t, err)
		require.Equal(t, []uint{0, 3}, s.Members(p[2]))
		require.Equal(t, []uint{0, 1, 2, 3}, s.Members(p[0]))

		never, err := g.Eval("never")
		require.NoError(t, err)
		require.Empty(t, never)

		_, err = g.Eval("missing")
		require.ErrorIs(t, err, types.ErrUnknownProposition)

		require.Equal(t, []string{"never", "p"}, g.Propositions())
	})
}

func TestBuilder_Errors(t *testing.T) {
	s := bitset.New(2)

	_, err := NewBuilder[bitset.Colors](s, 2).AddEdge(0, 5, up, s.True()).Build()
	require.ErrorIs(t, err, types.ErrStateOutOfRange)

	_, err = NewBuilder[bitset.Colors](s, 2).SetProposition("p", 2, s.True()).Build()
	require.ErrorIs(t, err, types.ErrStateOutOfRange)

	b := NewBuilder[bitset.Colors](s, 1)
	_, err = b.Build()
	require.NoError(t, err)
	_, err = b.Build()
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestFragments(t *testing.T) {
	s := bitset.New(4)
	g := buildTriangle(t, s)
	pf, err := partition.NewRoundRobin(2)
	require.NoError(t, err)

	frags, err := g.Fragments(pf)
	require.NoError(t, err)
	require.Len(t, frags, 2)

	for i, f := range frags {
		require.Equal(t, types.PartitionID(i), f.ID())
		require.Equal(t, 3, f.StateCount())
	}
	require.Equal(t, []types.State{0, 2}, types.OwnedStates(frags[0]))
	require.Equal(t, []types.State{1}, types.OwnedStates(frags[1]))

	// Eval only reports owned states
	p0, err := frags[0].Eval("p")
	require.NoError(t, err)
	require.Len(t, p0, 2)
	p1, err := frags[1].Eval("p")
	require.NoError(t, err)
	require.Empty(t, p1)

	// remote edges stay visible
	require.Len(t, frags[1].Step(1, true), 1)
	require.Equal(t, types.State(2), frags[1].Step(1, true)[0].Target)

	_, err = g.Fragment(2, pf)
	require.ErrorIs(t, err, types.ErrFragmentMismatch)
}
