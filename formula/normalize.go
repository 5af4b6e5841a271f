package formula

// Normalize rewrites f into the core shape accepted by the checker's operator resolver.
//
// The rewrite:
//   - expands Implies and Equals into And/Or/Not
//   - removes double negation and negated constants
//   - moves Exists/Forall domain restrictions into the body using At
//   - fills nil direction formulas with DirTrue
//
// Normalize is idempotent.
func Normalize(f Formula) Formula {
	switch n := f.(type) {
	case Not:
		inner := Normalize(n.Inner)
		switch in := inner.(type) {
		case Not:
			return in.Inner
		case True:
			return False{}
		case False:
			return True{}
		}

		return Not{Inner: inner}
	case And:
		return And{Left: Normalize(n.Left), Right: Normalize(n.Right)}
	case Or:
		return Or{Left: Normalize(n.Left), Right: Normalize(n.Right)}
	case Implies:
		return Normalize(Or{Left: Not{Inner: n.Left}, Right: n.Right})
	case Equals:
		return Normalize(Or{
			Left:  And{Left: n.Left, Right: n.Right},
			Right: And{Left: Not{Inner: n.Left}, Right: Not{Inner: n.Right}},
		})
	case Next:
		return Next{Quantifier: n.Quantifier, Flow: n.Flow, Direction: Direction(n.Direction), Inner: Normalize(n.Inner)}
	case Future:
		return Future{Quantifier: n.Quantifier, Flow: n.Flow, Direction: Direction(n.Direction), Inner: Normalize(n.Inner)}
	case Globally:
		return Globally{Quantifier: n.Quantifier, Flow: n.Flow, Direction: Direction(n.Direction), Inner: Normalize(n.Inner)}
	case Until:
		return Until{
			Quantifier: n.Quantifier,
			Flow:       n.Flow,
			Direction:  Direction(n.Direction),
			Path:       Normalize(n.Path),
			Reach:      Normalize(n.Reach),
		}
	case Bind:
		return Bind{Name: n.Name, Inner: Normalize(n.Inner)}
	case At:
		return At{Name: n.Name, Inner: Normalize(n.Inner)}
	case AtState:
		return AtState{State: n.State, Inner: Normalize(n.Inner)}
	case Exists:
		body := n.Inner
		if n.Domain != nil {
			body = And{Left: At{Name: n.Name, Inner: n.Domain}, Right: body}
		}

		return Exists{Name: n.Name, Inner: Normalize(body)}
	case Forall:
		body := n.Inner
		if n.Domain != nil {
			body = Or{Left: Not{Inner: At{Name: n.Name, Inner: n.Domain}}, Right: body}
		}

		return Forall{Name: n.Name, Inner: Normalize(body)}
	default:
		return f
	}
}

// IsNormalized reports whether f only contains node kinds produced by Normalize.
func IsNormalized(f Formula) bool {
	switch n := f.(type) {
	case Implies, Equals:
		return false
	case Exists:
		if n.Domain != nil {
			return false
		}
	case Forall:
		if n.Domain != nil {
			return false
		}
	case Next:
		if n.Direction == nil {
			return false
		}
	case Future:
		if n.Direction == nil {
			return false
		}
	case Globally:
		if n.Direction == nil {
			return false
		}
	case Until:
		if n.Direction == nil {
			return false
		}
	}
	for _, c := range Children(f) {
		if !IsNormalized(c) {
			return false
		}
	}

	return true
}
