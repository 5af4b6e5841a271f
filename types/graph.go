package types

// Graph enumerates the edges of a color-guarded transition system.
type Graph[C any] interface {
	// StateCount returns the number of states; valid states are [0, StateCount).
	StateCount() int

	// Step returns the successors of state when future is true and its predecessors
	// otherwise. Edges to or from states owned by other partitions are included.
	Step(state State, future bool) []Transition[C]
}

// PartitionFunction assigns every state to exactly one partition.
//
// Implementations must be pure and must agree across all partitions of a session.
type PartitionFunction interface {
	// Owner returns the partition that owns state.
	Owner(state State) PartitionID

	// Size returns the number of partitions.
	Size() int
}

// Fragment is one partition's view of the transition system.
type Fragment[C any] interface {
	Graph[C]

	// ID returns the partition this fragment represents.
	ID() PartitionID

	// Partition returns the global partition function.
	Partition() PartitionFunction

	// Eval evaluates an atomic proposition.
	//
	// The result is only exact for states owned by this fragment; callers must not
	// read it for any other state.
	Eval(proposition string) (StateMap[C], error)
}

// OwnedStates returns the states of f owned by its partition, in increasing order.
func OwnedStates[C any](f Fragment[C]) []State {
	pf := f.Partition()
	id := f.ID()
	n := f.StateCount()

	out := make([]State, 0, n/max(pf.Size(), 1)+1)
	for s := range n {
		if pf.Owner(State(s)) == id { //nolint:gosec // state count fits in uint32
			out = append(out, State(s)) //nolint:gosec // state count fits in uint32
		}
	}

	return out
}
