// Package bitset implements a color solver over an explicit, finite parameter space.
//
// Each of the n parameter valuations is one bit; a color set is a bitset of
// length n. The solver holds no mutable state, so it is safe for concurrent use.
package bitset

import (
	"fmt"

	bits "github.com/bits-and-blooms/bitset"

	"github.com/arloliu/pactl/types"
)

// Colors is the color representation used by Solver.
type Colors = *bits.BitSet

// Solver is a types.Solver over n explicit parameter valuations.
type Solver struct {
	n   uint
	all Colors
}

var _ types.Solver[Colors] = (*Solver)(nil)

// New creates a solver for n parameter valuations.
//
// Example:
//
//	s := bitset.New(4)
//	low := s.Of(0, 1)
//	s.Cardinality(s.Not(low)) // 2
func New(n uint) *Solver {
	all := bits.New(n)
	all.FlipRange(0, n)

	return &Solver{n: n, all: all}
}

// Size returns the number of parameter valuations.
func (s *Solver) Size() uint {
	return s.n
}

// Of returns the color set containing exactly the given valuations.
// Valuations outside [0, Size) are ignored.
func (s *Solver) Of(valuations ...uint) Colors {
	c := bits.New(s.n)
	for _, v := range valuations {
		if v < s.n {
			c.Set(v)
		}
	}

	return c
}

// Members returns the valuations contained in a in increasing order.
func (s *Solver) Members(a Colors) []uint {
	out := make([]uint, 0, a.Count())
	for i, ok := a.NextSet(0); ok; i, ok = a.NextSet(i + 1) {
		out = append(out, i)
	}

	return out
}

func (s *Solver) True() Colors  { return s.all.Clone() }
func (s *Solver) False() Colors { return bits.New(s.n) }

func (s *Solver) And(a, b Colors) Colors    { return a.Intersection(b) }
func (s *Solver) Or(a, b Colors) Colors     { return a.Union(b) }
func (s *Solver) Not(a Colors) Colors       { return s.all.Difference(a) }
func (s *Solver) AndNot(a, b Colors) Colors { return a.Difference(b) }

func (s *Solver) IsEmpty(a Colors) bool        { return a.None() }
func (s *Solver) Equal(a, b Colors) bool       { return a.SymmetricDifferenceCardinality(b) == 0 }
func (s *Solver) Minimize(a Colors) Colors     { return a }
func (s *Solver) Cardinality(a Colors) float64 { return float64(a.Count()) }

// ByteSize returns the encoded size of a.
func (s *Solver) ByteSize(a Colors) int {
	return a.BinaryStorageSize()
}

// Encode appends the binary form of a to dst.
func (s *Solver) Encode(dst []byte, a Colors) []byte {
	buf, err := a.MarshalBinary()
	if err != nil {
		// in-memory marshaling cannot fail
		panic(fmt.Sprintf("bitset: marshal color set: %v", err))
	}

	return append(dst, buf...)
}

// Decode parses a color set produced by Encode of a solver of the same size.
func (s *Solver) Decode(b []byte) (Colors, error) {
	c := &bits.BitSet{}
	if err := c.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("%w: bitset: %w", types.ErrMalformedMessage, err)
	}
	if c.Len() != s.n {
		return nil, fmt.Errorf("%w: bitset: length %d, expected %d", types.ErrMalformedMessage, c.Len(), s.n)
	}

	return c, nil
}

// TransferTo copies a into other. Color sets are immutable values for this
// solver, so a same-sized bitset solver receives a clone.
func (s *Solver) TransferTo(a Colors, other types.Solver[Colors]) (Colors, error) {
	if o, ok := other.(*Solver); ok {
		if o.n != s.n {
			return nil, fmt.Errorf("%w: bitset: transfer between sizes %d and %d", types.ErrInvalidConfig, s.n, o.n)
		}

		return a.Clone(), nil
	}

	return other.Decode(s.Encode(nil, a))
}
