// Package fixpoint evaluates the temporal operators of the logic on one
// partition of a distributed state space.
//
// Every operator is a monotone fixed point over a per-state color map. The
// engine keeps the values of owned states in data and the last known values of
// peer states in remote. Whenever a value grows, the state is queued and the
// operator reacts once to the new value: it updates locally owned predecessors
// directly and schedules the state for the owner of every remote predecessor.
// After the local worklist is drained the partition joins a comm round; states
// received from peers are replayed through the same update path. The fixed point
// is reached in the first round in which no partition receives anything.
//
// Operators come in two polarities. Accumulate operators (EX, AX, EF, EU, AF,
// AU) grow the answer itself. Eliminate operators (EG, AG) grow the set of
// counterexamples, seeded from the complement of their argument, and negate it
// at the end.
package fixpoint
