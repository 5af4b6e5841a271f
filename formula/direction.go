package formula

import (
	"strconv"

	"github.com/arloliu/pactl/types"
)

// DirFormula restricts which transitions a temporal operator may follow.
type DirFormula interface {
	isDir()

	// Matches reports whether a transition labelled with atom satisfies the formula.
	Matches(atom types.DirectionAtom) bool

	String() string
}

// DirTrue matches every transition.
type DirTrue struct{}

// DirFalse matches no transition.
type DirFalse struct{}

// DirProposition matches transitions changing variable Name in the Facet direction.
type DirProposition struct {
	Name  string
	Facet types.Facet
}

// DirNot negates a direction formula.
type DirNot struct {
	Inner DirFormula
}

// DirAnd is the conjunction of two direction formulas.
type DirAnd struct {
	Left, Right DirFormula
}

// DirOr is the disjunction of two direction formulas.
type DirOr struct {
	Left, Right DirFormula
}

func (DirTrue) isDir()        {}
func (DirFalse) isDir()       {}
func (DirProposition) isDir() {}
func (DirNot) isDir()         {}
func (DirAnd) isDir()         {}
func (DirOr) isDir()          {}

// Matches implements DirFormula.
func (DirTrue) Matches(types.DirectionAtom) bool { return true }

// Matches implements DirFormula.
func (DirFalse) Matches(types.DirectionAtom) bool { return false }

// Matches implements DirFormula.
func (d DirProposition) Matches(atom types.DirectionAtom) bool {
	return !atom.IsLoop() && atom.Name == d.Name && atom.Facet == d.Facet
}

// Matches implements DirFormula.
func (d DirNot) Matches(atom types.DirectionAtom) bool { return !d.Inner.Matches(atom) }

// Matches implements DirFormula.
func (d DirAnd) Matches(atom types.DirectionAtom) bool {
	return d.Left.Matches(atom) && d.Right.Matches(atom)
}

// Matches implements DirFormula.
func (d DirOr) Matches(atom types.DirectionAtom) bool {
	return d.Left.Matches(atom) || d.Right.Matches(atom)
}

func (DirTrue) String() string  { return "true" }
func (DirFalse) String() string { return "false" }

func (d DirProposition) String() string {
	return strconv.Quote(d.Name) + d.Facet.String()
}

func (d DirNot) String() string { return "!" + d.Inner.String() }

func (d DirAnd) String() string {
	return "(" + d.Left.String() + " && " + d.Right.String() + ")"
}

func (d DirOr) String() string {
	return "(" + d.Left.String() + " || " + d.Right.String() + ")"
}

// isTrivial reports whether d is nil or DirTrue; both are printed without a suffix.
func isTrivial(d DirFormula) bool {
	if d == nil {
		return true
	}
	_, ok := d.(DirTrue)

	return ok
}

// Direction returns d, or DirTrue when d is nil.
func Direction(d DirFormula) DirFormula {
	if d == nil {
		return DirTrue{}
	}

	return d
}
