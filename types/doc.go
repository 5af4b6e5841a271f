// Package types provides core type definitions and interfaces for the pactl library.
//
// This package contains shared types that are used across multiple packages in the
// pactl library. By keeping these types in a separate package, we avoid import cycles
// between the root pactl package and the engine packages (fixpoint, comm, reach,
// attractor) that implement it.
//
// Key types:
//   - State: Integer state identifier
//   - Transition: Color-guarded, direction-labelled edge
//   - StateMap: Partial function from states to colors
//   - Solver: Boolean algebra over opaque color sets
//   - Graph, Fragment, PartitionFunction: Partitioned view of the state space
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
