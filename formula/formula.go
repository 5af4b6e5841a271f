package formula

import (
	"strconv"

	"github.com/arloliu/pactl/types"
)

// Formula is a node of the temporal-logic AST.
type Formula interface {
	isFormula()

	// String returns the canonical textual form of the formula.
	String() string
}

// Quantifier selects between existential and universal path quantification.
type Quantifier int8

const (
	// Existential quantifies over some path (E).
	Existential Quantifier = iota

	// Universal quantifies over all paths (A).
	Universal
)

// String returns "E" or "A".
func (q Quantifier) String() string {
	if q == Universal {
		return "A"
	}

	return "E"
}

// Flow is the direction of time a temporal operator looks in.
type Flow int8

const (
	// FlowFuture follows transitions forward.
	FlowFuture Flow = iota

	// FlowPast follows transitions backward.
	FlowPast
)

// True holds everywhere for every color.
type True struct{}

// False holds nowhere.
type False struct{}

// Proposition is an atomic proposition evaluated by the fragment.
type Proposition struct {
	Name string
}

// Reference is a hybrid state variable; it holds exactly at the state bound to Name.
type Reference struct {
	Name string
}

// Location holds exactly at State. Substitute turns a bound Reference into a Location.
type Location struct {
	State types.State
}

// Not is the negation of Inner.
type Not struct {
	Inner Formula
}

// And is the conjunction of two formulas.
type And struct {
	Left, Right Formula
}

// Or is the disjunction of two formulas.
type Or struct {
	Left, Right Formula
}

// Implies is the implication Left ⇒ Right.
type Implies struct {
	Left, Right Formula
}

// Equals is the equivalence Left ⇔ Right.
type Equals struct {
	Left, Right Formula
}

// Next is EX / AX.
type Next struct {
	Quantifier Quantifier
	Flow       Flow
	Direction  DirFormula
	Inner      Formula
}

// Future is EF / AF.
type Future struct {
	Quantifier Quantifier
	Flow       Flow
	Direction  DirFormula
	Inner      Formula
}

// Globally is EG / AG.
type Globally struct {
	Quantifier Quantifier
	Flow       Flow
	Direction  DirFormula
	Inner      Formula
}

// Until is E[Path U Reach] / A[Path U Reach].
type Until struct {
	Quantifier Quantifier
	Flow       Flow
	Direction  DirFormula
	Path       Formula
	Reach      Formula
}

// Bind evaluates Inner at every state s with Name bound to s (↓x.φ).
type Bind struct {
	Name  string
	Inner Formula
}

// At evaluates Inner at the state bound to Name and holds everywhere it holds there (@x.φ).
type At struct {
	Name  string
	Inner Formula
}

// AtState is At with the variable already resolved to State.
type AtState struct {
	State types.State
	Inner Formula
}

// Exists holds where Inner holds for some state bound to Name.
//
// A non-nil Domain restricts the candidate states to those satisfying it.
type Exists struct {
	Name   string
	Domain Formula
	Inner  Formula
}

// Forall holds where Inner holds for every state bound to Name.
//
// A non-nil Domain restricts the candidate states to those satisfying it.
type Forall struct {
	Name   string
	Domain Formula
	Inner  Formula
}

func (True) isFormula()        {}
func (False) isFormula()       {}
func (Proposition) isFormula() {}
func (Reference) isFormula()   {}
func (Location) isFormula()    {}
func (Not) isFormula()         {}
func (And) isFormula()         {}
func (Or) isFormula()          {}
func (Implies) isFormula()     {}
func (Equals) isFormula()      {}
func (Next) isFormula()        {}
func (Future) isFormula()      {}
func (Globally) isFormula()    {}
func (Until) isFormula()       {}
func (Bind) isFormula()        {}
func (At) isFormula()          {}
func (AtState) isFormula()     {}
func (Exists) isFormula()      {}
func (Forall) isFormula()      {}

func (True) String() string  { return "true" }
func (False) String() string { return "false" }

func (f Proposition) String() string { return strconv.Quote(f.Name) }
func (f Reference) String() string   { return "$" + f.Name }
func (f Location) String() string    { return "#" + strconv.FormatUint(uint64(f.State), 10) }
func (f Not) String() string         { return "!" + f.Inner.String() }

func (f And) String() string     { return binary(f.Left, "&&", f.Right) }
func (f Or) String() string      { return binary(f.Left, "||", f.Right) }
func (f Implies) String() string { return binary(f.Left, "=>", f.Right) }
func (f Equals) String() string  { return binary(f.Left, "<=>", f.Right) }

func (f Next) String() string {
	return temporal(f.Quantifier, "X", f.Flow, f.Direction) + "(" + f.Inner.String() + ")"
}

func (f Future) String() string {
	return temporal(f.Quantifier, "F", f.Flow, f.Direction) + "(" + f.Inner.String() + ")"
}

func (f Globally) String() string {
	return temporal(f.Quantifier, "G", f.Flow, f.Direction) + "(" + f.Inner.String() + ")"
}

func (f Until) String() string {
	return temporal(f.Quantifier, "U", f.Flow, f.Direction) +
		"(" + f.Path.String() + ", " + f.Reach.String() + ")"
}

func (f Bind) String() string { return "bind $" + f.Name + ": " + f.Inner.String() }
func (f At) String() string   { return "at $" + f.Name + ": " + f.Inner.String() }

func (f AtState) String() string {
	return "at #" + strconv.FormatUint(uint64(f.State), 10) + ": " + f.Inner.String()
}

func (f Exists) String() string { return binder("exists", f.Name, f.Domain, f.Inner) }
func (f Forall) String() string { return binder("forall", f.Name, f.Domain, f.Inner) }

func binary(left Formula, op string, right Formula) string {
	return "(" + left.String() + " " + op + " " + right.String() + ")"
}

func temporal(q Quantifier, op string, flow Flow, dir DirFormula) string {
	s := q.String() + op
	if flow == FlowPast {
		s += "p"
	}
	if !isTrivial(dir) {
		s += "{" + dir.String() + "}"
	}

	return s
}

func binder(kind, name string, domain, inner Formula) string {
	s := kind + " $" + name
	if domain != nil {
		s += " in " + domain.String()
	}

	return s + ": " + inner.String()
}

// Key returns the canonical structural key of f.
//
// Two formulas have the same key exactly when they are structurally identical, so
// the key can be used to memoize evaluation results.
func Key(f Formula) string {
	return f.String()
}

// Children returns the direct sub-formulas of f in evaluation order.
//
// Binders are returned with their body; the checker expands them per state.
func Children(f Formula) []Formula {
	switch n := f.(type) {
	case Not:
		return []Formula{n.Inner}
	case And:
		return []Formula{n.Left, n.Right}
	case Or:
		return []Formula{n.Left, n.Right}
	case Implies:
		return []Formula{n.Left, n.Right}
	case Equals:
		return []Formula{n.Left, n.Right}
	case Next:
		return []Formula{n.Inner}
	case Future:
		return []Formula{n.Inner}
	case Globally:
		return []Formula{n.Inner}
	case Until:
		return []Formula{n.Path, n.Reach}
	case Bind:
		return []Formula{n.Inner}
	case At:
		return []Formula{n.Inner}
	case AtState:
		return []Formula{n.Inner}
	case Exists:
		if n.Domain != nil {
			return []Formula{n.Domain, n.Inner}
		}

		return []Formula{n.Inner}
	case Forall:
		if n.Domain != nil {
			return []Formula{n.Domain, n.Inner}
		}

		return []Formula{n.Inner}
	default:
		return nil
	}
}
