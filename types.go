package pactl

import "github.com/arloliu/pactl/types"

// Re-export types from the types package.
//
// This file provides a stable public API for the library's core types and
// interfaces. Internal packages depend on `types` without depending on the root
// `pactl` package, while users get the convenient `pactl.State`, `pactl.Logger`,
// etc.
type (
	State         = types.State
	PartitionID   = types.PartitionID
	Facet         = types.Facet
	DirectionAtom = types.DirectionAtom
)

// Generic aliases for the color-parametrized types.
type (
	Transition[C any] = types.Transition[C]
	StateMap[C any]   = types.StateMap[C]
	Solver[C any]     = types.Solver[C]
	Graph[C any]      = types.Graph[C]
	Fragment[C any]   = types.Fragment[C]
)

// Re-export interfaces from the types package for convenience.
type (
	PartitionFunction = types.PartitionFunction
	MetricsCollector  = types.MetricsCollector
	Logger            = types.Logger
	Hooks             = types.Hooks
)

// Re-export Facet constants from the types package.
const (
	Positive = types.Positive
	Negative = types.Negative
)
