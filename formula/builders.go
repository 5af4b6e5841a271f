package formula

// Prop returns the atomic proposition name.
func Prop(name string) Formula { return Proposition{Name: name} }

// Neg returns !f.
func Neg(f Formula) Formula { return Not{Inner: f} }

// Conj returns the left-nested conjunction of fs, or True for no operands.
func Conj(fs ...Formula) Formula {
	if len(fs) == 0 {
		return True{}
	}
	out := fs[0]
	for _, f := range fs[1:] {
		out = And{Left: out, Right: f}
	}

	return out
}

// Disj returns the left-nested disjunction of fs, or False for no operands.
func Disj(fs ...Formula) Formula {
	if len(fs) == 0 {
		return False{}
	}
	out := fs[0]
	for _, f := range fs[1:] {
		out = Or{Left: out, Right: f}
	}

	return out
}

// EX returns the future-time, undirected EX f.
func EX(f Formula) Formula { return Next{Quantifier: Existential, Direction: DirTrue{}, Inner: f} }

// AX returns the future-time, undirected AX f.
func AX(f Formula) Formula { return Next{Quantifier: Universal, Direction: DirTrue{}, Inner: f} }

// EF returns the future-time, undirected EF f.
func EF(f Formula) Formula { return Future{Quantifier: Existential, Direction: DirTrue{}, Inner: f} }

// AF returns the future-time, undirected AF f.
func AF(f Formula) Formula { return Future{Quantifier: Universal, Direction: DirTrue{}, Inner: f} }

// EG returns the future-time, undirected EG f.
func EG(f Formula) Formula { return Globally{Quantifier: Existential, Direction: DirTrue{}, Inner: f} }

// AG returns the future-time, undirected AG f.
func AG(f Formula) Formula { return Globally{Quantifier: Universal, Direction: DirTrue{}, Inner: f} }

// EU returns the future-time, undirected E[path U reach].
func EU(path, reach Formula) Formula {
	return Until{Quantifier: Existential, Direction: DirTrue{}, Path: path, Reach: reach}
}

// AU returns the future-time, undirected A[path U reach].
func AU(path, reach Formula) Formula {
	return Until{Quantifier: Universal, Direction: DirTrue{}, Path: path, Reach: reach}
}
