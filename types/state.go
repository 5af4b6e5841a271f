package types

import "fmt"

// State identifies a vertex of the transition system.
//
// States are dense integers in [0, StateCount).
type State uint32

// PartitionID identifies one partition (fragment) of the state space.
//
// Partition IDs are dense integers in [0, PartitionFunction.Size()).
type PartitionID int

// Facet is the polarity of a direction atom.
type Facet int8

const (
	// Positive marks a transition that increases the named variable.
	Positive Facet = iota

	// Negative marks a transition that decreases the named variable.
	Negative
)

// String returns the conventional suffix used for the facet.
func (f Facet) String() string {
	switch f {
	case Positive:
		return "+"
	case Negative:
		return "-"
	default:
		return "?"
	}
}

// DirectionAtom labels a transition with the variable it changes and in which way.
//
// The zero value (empty Name) labels an undirected edge such as a self-loop; it only
// matches the trivially true direction formula.
type DirectionAtom struct {
	Name  string
	Facet Facet
}

// IsLoop reports whether the atom labels an undirected edge.
func (d DirectionAtom) IsLoop() bool {
	return d.Name == ""
}

// String returns the atom in "name+" / "name-" form, or "loop" for the zero atom.
func (d DirectionAtom) String() string {
	if d.IsLoop() {
		return "loop"
	}

	return fmt.Sprintf("%s%s", d.Name, d.Facet)
}

// Transition is one edge of the transition system as seen from a source state.
//
// The edge is only valid for the colors in Bound. When returned by a backward
// step, Target is the predecessor and the edge runs from Target to the queried state.
type Transition[C any] struct {
	Target    State
	Direction DirectionAtom
	Bound     C
}

// StateMap is a partial function from states to colors.
//
// An absent state is equivalent to the empty color set. A map is read-only once it
// has been published as the result of an evaluation.
type StateMap[C any] map[State]C

// Get returns the colors stored for s, or the solver's empty set when s is absent.
func (m StateMap[C]) Get(s State, solver Solver[C]) C {
	if c, ok := m[s]; ok {
		return c
	}

	return solver.False()
}
