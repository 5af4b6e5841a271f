// Package solver provides color-set solver implementations and wrappers.
//
// A solver implements types.Solver over an opaque color representation. Two
// implementations are shipped:
//
//   - bitset: explicit parameter valuations, one bit per valuation
//   - bdd: symbolic parameter sets backed by binary decision diagrams
//
// Solvers are not safe for concurrent use unless stated otherwise. Synchronized
// serializes access to any solver so it can be shared by the parallel
// reachability passes.
package solver
