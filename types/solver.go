package types

// Solver is a Boolean algebra over opaque color sets.
//
// Colors created by one solver must only be passed back to the same solver;
// use TransferTo to move a value into another solver instance.
//
// Concurrency: a Solver instance is used by exactly one goroutine at a time unless
// the implementation states otherwise. Wrap it with solver.Synchronized before
// handing it to parallel primitives.
type Solver[C any] interface {
	// True returns the set of all colors.
	True() C

	// False returns the empty set.
	False() C

	// And returns the intersection of a and b.
	And(a, b C) C

	// Or returns the union of a and b.
	Or(a, b C) C

	// Not returns the complement of a relative to True.
	Not(a C) C

	// AndNot returns a ∧ ¬b. An empty result means b already contains a.
	AndNot(a, b C) C

	// IsEmpty reports whether a is the empty set.
	IsEmpty(a C) bool

	// Equal reports whether a and b denote the same set.
	Equal(a, b C) bool

	// Minimize returns a canonical representation of a.
	//
	// Fixed-point iteration repeatedly unions values; Minimize bounds the growth
	// of their representation. The returned value denotes the same set.
	Minimize(a C) C

	// Cardinality returns a measure of the size of a, used to rank pivot candidates.
	Cardinality(a C) float64

	// ByteSize returns the number of bytes Encode appends for a.
	ByteSize(a C) int

	// Encode appends the serialized form of a to dst and returns the extended slice.
	Encode(dst []byte, a C) []byte

	// Decode parses a value produced by Encode of a solver with the same parameter space.
	Decode(b []byte) (C, error)

	// TransferTo re-homes a into the other solver's internal structures.
	TransferTo(a C, other Solver[C]) (C, error)
}
