// Package bdd implements a symbolic color solver backed by binary decision diagrams.
//
// Colors are BDD nodes over k boolean parameter variables; the parameter space
// has 2^k valuations. Each Solver owns one BDD instance, which is not safe for
// concurrent use; wrap the solver with solver.NewSynchronized when it is shared
// between goroutines.
package bdd

import (
	"fmt"
	"math/big"

	"github.com/dalzilio/rudd"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/arloliu/pactl/types"
)

// Colors is the color representation used by Solver.
type Colors = rudd.Node

// literal values of a cube entry as reported by Allsat
const (
	litFalse    = 0
	litTrue     = 1
	litDontCare = 2
)

// engine is the subset of the rudd API the solver relies on.
type engine interface {
	Error() string
	True() rudd.Node
	False() rudd.Node
	Ithvar(i int) rudd.Node
	NIthvar(i int) rudd.Node
	Not(n rudd.Node) rudd.Node
	And(n ...rudd.Node) rudd.Node
	Or(n ...rudd.Node) rudd.Node
	Equal(a, b rudd.Node) bool
	Satcount(n rudd.Node) *big.Int
	Allsat(f func([]int) error, n rudd.Node) error
}

// Solver is a types.Solver whose colors are BDD nodes.
type Solver struct {
	vars int
	eng  engine
}

var _ types.Solver[Colors] = (*Solver)(nil)

// New creates a solver over vars boolean parameter variables.
//
// Parameters:
//   - vars: Number of parameter variables, at least 1
//
// Returns:
//   - *Solver: Solver with a fresh BDD instance
//   - error: ErrInvalidConfig if vars < 1 or the BDD cannot be allocated
func New(vars int) (*Solver, error) {
	if vars < 1 {
		return nil, fmt.Errorf("%w: bdd solver needs at least one variable, got %d", types.ErrInvalidConfig, vars)
	}
	eng, err := rudd.New(vars)
	if err != nil {
		return nil, fmt.Errorf("%w: allocate bdd: %w", types.ErrInvalidConfig, err)
	}

	return &Solver{vars: vars, eng: eng}, nil
}

// Vars returns the number of parameter variables.
func (s *Solver) Vars() int {
	return s.vars
}

// Var returns the colors where parameter variable i is true.
func (s *Solver) Var(i int) Colors {
	return s.eng.Ithvar(i)
}

// NVar returns the colors where parameter variable i is false.
func (s *Solver) NVar(i int) Colors {
	return s.eng.NIthvar(i)
}

// Valuation returns the single color whose variables take the given values.
// Variables beyond len(values) are left unconstrained.
func (s *Solver) Valuation(values ...bool) Colors {
	lits := make([]rudd.Node, 0, len(values))
	for i, v := range values {
		if i >= s.vars {
			break
		}
		if v {
			lits = append(lits, s.eng.Ithvar(i))
		} else {
			lits = append(lits, s.eng.NIthvar(i))
		}
	}

	return s.eng.And(lits...)
}

func (s *Solver) True() Colors  { return s.eng.True() }
func (s *Solver) False() Colors { return s.eng.False() }

func (s *Solver) And(a, b Colors) Colors    { return s.eng.And(a, b) }
func (s *Solver) Or(a, b Colors) Colors     { return s.eng.Or(a, b) }
func (s *Solver) Not(a Colors) Colors       { return s.eng.Not(a) }
func (s *Solver) AndNot(a, b Colors) Colors { return s.eng.And(a, s.eng.Not(b)) }

func (s *Solver) IsEmpty(a Colors) bool  { return s.eng.Equal(a, s.eng.False()) }
func (s *Solver) Equal(a, b Colors) bool { return s.eng.Equal(a, b) }

// Minimize returns a unchanged; reduced ordered BDDs are canonical.
func (s *Solver) Minimize(a Colors) Colors { return a }

// Cardinality returns the number of parameter valuations in a.
func (s *Solver) Cardinality(a Colors) float64 {
	f, _ := new(big.Float).SetInt(s.eng.Satcount(a)).Float64()
	return f
}

// ByteSize returns the number of bytes Encode appends for a.
func (s *Solver) ByteSize(a Colors) int {
	cubes := 0
	_ = s.eng.Allsat(func([]int) error {
		cubes++
		return nil
	}, a)

	return protowire.SizeVarint(uint64(s.vars)) + //nolint:gosec // vars is positive
		protowire.SizeVarint(uint64(cubes)) + cubes*s.vars
}

// Encode appends a as a disjunction of cubes: the variable count, the cube count,
// then one byte per variable and cube (0 false, 1 true, 2 don't care).
func (s *Solver) Encode(dst []byte, a Colors) []byte {
	var cubes [][]byte
	_ = s.eng.Allsat(func(vals []int) error {
		cube := make([]byte, s.vars)
		for i, v := range vals {
			switch v {
			case 0:
				cube[i] = litFalse
			case 1:
				cube[i] = litTrue
			default:
				cube[i] = litDontCare
			}
		}
		cubes = append(cubes, cube)

		return nil
	}, a)

	dst = protowire.AppendVarint(dst, uint64(s.vars)) //nolint:gosec // vars is positive
	dst = protowire.AppendVarint(dst, uint64(len(cubes)))
	for _, cube := range cubes {
		dst = append(dst, cube...)
	}

	return dst
}

// Decode rebuilds a color set encoded by a solver with the same variable count.
func (s *Solver) Decode(b []byte) (Colors, error) {
	vars, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return nil, fmt.Errorf("%w: bdd: variable count: %w", types.ErrMalformedMessage, protowire.ParseError(n))
	}
	if vars != uint64(s.vars) { //nolint:gosec // vars is positive
		return nil, fmt.Errorf("%w: bdd: %d variables, expected %d", types.ErrMalformedMessage, vars, s.vars)
	}
	b = b[n:]

	count, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return nil, fmt.Errorf("%w: bdd: cube count: %w", types.ErrMalformedMessage, protowire.ParseError(n))
	}
	b = b[n:]
	if count > uint64(len(b)) || uint64(len(b)) != count*vars {
		return nil, fmt.Errorf("%w: bdd: %d bytes for %d cubes", types.ErrMalformedMessage, len(b), count)
	}

	out := s.eng.False()
	lits := make([]rudd.Node, 0, s.vars)
	for c := range int(count) { //nolint:gosec // bounded by len(b)
		cube := b[c*s.vars : (c+1)*s.vars]
		lits = lits[:0]
		for i, v := range cube {
			switch v {
			case litFalse:
				lits = append(lits, s.eng.NIthvar(i))
			case litTrue:
				lits = append(lits, s.eng.Ithvar(i))
			case litDontCare:
			default:
				return nil, fmt.Errorf("%w: bdd: literal %d", types.ErrMalformedMessage, v)
			}
		}
		out = s.eng.Or(out, s.eng.And(lits...))
	}
	if msg := s.eng.Error(); msg != "" {
		return nil, fmt.Errorf("%w: bdd: %s", types.ErrMalformedMessage, msg)
	}

	return out, nil
}

// TransferTo re-encodes a into other's BDD instance.
func (s *Solver) TransferTo(a Colors, other types.Solver[Colors]) (Colors, error) {
	if o, ok := other.(*Solver); ok && o == s {
		return a, nil
	}

	return other.Decode(s.Encode(nil, a))
}
