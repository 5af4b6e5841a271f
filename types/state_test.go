package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirectionAtomString(t *testing.T) {
	tests := []struct {
		atom DirectionAtom
		want string
	}{
		{DirectionAtom{Name: "x", Facet: Positive}, "x+"},
		{DirectionAtom{Name: "y", Facet: Negative}, "y-"},
		{DirectionAtom{}, "loop"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, tt.atom.String())
		})
	}
}

func TestFacetString(t *testing.T) {
	require.Equal(t, "+", Positive.String())
	require.Equal(t, "-", Negative.String())
	require.Equal(t, "?", Facet(7).String())
}

type modPartition int

func (m modPartition) Owner(s State) PartitionID { return PartitionID(int(s) % int(m)) }
func (m modPartition) Size() int                 { return int(m) }

type stubFragment struct {
	id PartitionID
	pf PartitionFunction
	n  int
}

func (f stubFragment) StateCount() int                     { return f.n }
func (f stubFragment) Step(State, bool) []Transition[bool] { return nil }
func (f stubFragment) ID() PartitionID                     { return f.id }
func (f stubFragment) Partition() PartitionFunction        { return f.pf }
func (f stubFragment) Eval(string) (StateMap[bool], error) { return nil, nil }

func TestOwnedStates(t *testing.T) {
	frag := stubFragment{id: 1, pf: modPartition(3), n: 10}
	require.Equal(t, []State{1, 4, 7}, OwnedStates[bool](frag))
}
