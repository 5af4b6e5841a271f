package testgraph

import (
	"fmt"

	"github.com/arloliu/pactl/formula"
	"github.com/arloliu/pactl/solver/bitset"
	"github.com/arloliu/pactl/types"
)

// edge is one transition enabled for the color under check.
type edge struct {
	to      int
	matched bool
}

// oracle checks formulas for a single color on plain adjacency lists.
type oracle struct {
	g      *Graph
	color  uint
	colors uint
	n      int
	// succ/pred per direction formula key are built lazily
	adj map[string][2][][]edge
}

// Check evaluates f on g by brute force and returns the colors at every state.
//
// Every color is checked with naive set iteration, so the result is an
// independent reference for the fixed-point engine. Directed AG is the one
// operator whose escape rule couples colors; it is solved for all colors at once.
func Check(g *Graph, s *bitset.Solver, f formula.Formula) (types.StateMap[bitset.Colors], error) {
	out := make(types.StateMap[bitset.Colors])
	for c := range s.Size() {
		o := newOracle(g, c, s.Size())
		holds, err := o.eval(f, nil)
		if err != nil {
			return nil, err
		}
		for st, ok := range holds {
			if !ok {
				continue
			}
			key := types.State(st) //nolint:gosec // small test graphs
			if _, exists := out[key]; !exists {
				out[key] = s.False()
			}
			out[key].Set(c)
		}
	}

	return out, nil
}

func newOracle(g *Graph, color, colors uint) *oracle {
	return &oracle{g: g, color: color, colors: colors, n: g.StateCount(), adj: make(map[string][2][][]edge)}
}

// edges returns the time-flow successors (forward) or predecessors of every state.
func (o *oracle) edges(dir formula.DirFormula, flow formula.Flow, forward bool) [][]edge {
	dir = formula.Direction(dir)
	key := dir.String()
	both, ok := o.adj[key]
	if !ok {
		for i, fwd := range []bool{true, false} {
			lists := make([][]edge, o.n)
			for st := range o.n {
				for _, t := range o.g.Step(types.State(st), fwd) { //nolint:gosec // small test graphs
					if t.Bound.Test(o.color) {
						lists[st] = append(lists[st], edge{to: int(t.Target), matched: dir.Matches(t.Direction)})
					}
				}
			}
			both[i] = lists
		}
		o.adj[key] = both
	}

	// graph-forward is index 0; past flow swaps roles
	if forward == (flow == formula.FlowFuture) {
		return both[0]
	}

	return both[1]
}

type bindings map[string]int

func (b bindings) with(name string, st int) bindings {
	out := make(bindings, len(b)+1)
	for k, v := range b {
		out[k] = v
	}
	out[name] = st

	return out
}

func (o *oracle) all(v bool) []bool {
	out := make([]bool, o.n)
	for i := range out {
		out[i] = v
	}

	return out
}

func (o *oracle) eval(f formula.Formula, env bindings) ([]bool, error) {
	switch n := f.(type) {
	case formula.True:
		return o.all(true), nil
	case formula.False:
		return o.all(false), nil
	case formula.Proposition:
		m, err := o.g.Eval(n.Name)
		if err != nil {
			return nil, err
		}
		out := o.all(false)
		for st, c := range m {
			out[st] = c.Test(o.color)
		}

		return out, nil
	case formula.Reference:
		st, ok := env[n.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", types.ErrUnboundVariable, n.Name)
		}

		return o.single(st), nil
	case formula.Location:
		return o.single(int(n.State)), nil
	case formula.Not:
		a, err := o.eval(n.Inner, env)
		if err != nil {
			return nil, err
		}

		return o.pointwise(a, a, func(x, _ bool) bool { return !x }), nil
	case formula.And:
		return o.binary(n.Left, n.Right, env, func(x, y bool) bool { return x && y })
	case formula.Or:
		return o.binary(n.Left, n.Right, env, func(x, y bool) bool { return x || y })
	case formula.Implies:
		return o.binary(n.Left, n.Right, env, func(x, y bool) bool { return !x || y })
	case formula.Equals:
		return o.binary(n.Left, n.Right, env, func(x, y bool) bool { return x == y })
	case formula.Next:
		a, err := o.eval(n.Inner, env)
		if err != nil {
			return nil, err
		}

		return o.next(n.Quantifier, o.edges(n.Direction, n.Flow, true), a), nil
	case formula.Future:
		a, err := o.eval(n.Inner, env)
		if err != nil {
			return nil, err
		}

		return o.until(n.Quantifier, o.edges(n.Direction, n.Flow, true), o.all(true), a), nil
	case formula.Until:
		path, err := o.eval(n.Path, env)
		if err != nil {
			return nil, err
		}
		reach, err := o.eval(n.Reach, env)
		if err != nil {
			return nil, err
		}

		return o.until(n.Quantifier, o.edges(n.Direction, n.Flow, true), path, reach), nil
	case formula.Globally:
		if n.Quantifier == formula.Universal && o.escapes(n.Direction) {
			return o.allGloballyEscaping(n, env)
		}
		a, err := o.eval(n.Inner, env)
		if err != nil {
			return nil, err
		}

		return o.globally(n.Quantifier, o.edges(n.Direction, n.Flow, true), a), nil
	case formula.Bind:
		out := o.all(false)
		for p := range o.n {
			a, err := o.eval(n.Inner, env.with(n.Name, p))
			if err != nil {
				return nil, err
			}
			out[p] = a[p]
		}

		return out, nil
	case formula.At:
		st, ok := env[n.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", types.ErrUnboundVariable, n.Name)
		}
		a, err := o.eval(n.Inner, env)
		if err != nil {
			return nil, err
		}

		return o.all(a[st]), nil
	case formula.AtState:
		a, err := o.eval(n.Inner, env)
		if err != nil {
			return nil, err
		}

		return o.all(a[n.State]), nil
	case formula.Exists:
		return o.quantify(n.Name, n.Domain, n.Inner, env, false)
	case formula.Forall:
		return o.quantify(n.Name, n.Domain, n.Inner, env, true)
	default:
		return nil, fmt.Errorf("%w: %T", types.ErrUnsupportedFormula, f)
	}
}

func (o *oracle) single(st int) []bool {
	out := o.all(false)
	if st >= 0 && st < o.n {
		out[st] = true
	}

	return out
}

func (o *oracle) pointwise(a, b []bool, fn func(x, y bool) bool) []bool {
	out := make([]bool, o.n)
	for i := range out {
		out[i] = fn(a[i], b[i])
	}

	return out
}

func (o *oracle) binary(l, r formula.Formula, env bindings, fn func(x, y bool) bool) ([]bool, error) {
	a, err := o.eval(l, env)
	if err != nil {
		return nil, err
	}
	b, err := o.eval(r, env)
	if err != nil {
		return nil, err
	}

	return o.pointwise(a, b, fn), nil
}

// matched returns the direction-matching edges of a state.
func matched(es []edge) []edge {
	out := es[:0:0]
	for _, e := range es {
		if e.matched {
			out = append(out, e)
		}
	}

	return out
}

func (o *oracle) next(q formula.Quantifier, succ [][]edge, a []bool) []bool {
	out := make([]bool, o.n)
	for p := range o.n {
		es := matched(succ[p])
		if q == formula.Existential {
			for _, e := range es {
				out[p] = out[p] || a[e.to]
			}
		} else {
			out[p] = true
			for _, e := range es {
				out[p] = out[p] && a[e.to]
			}
		}
	}

	return out
}

// until is the least fixed point X = reach ∨ (path ∧ step(X)), where the
// universal step requires at least one successor and all successors in X.
func (o *oracle) until(q formula.Quantifier, succ [][]edge, path, reach []bool) []bool {
	x := append([]bool(nil), reach...)
	for changed := true; changed; {
		changed = false
		for p := range o.n {
			if x[p] || !path[p] {
				continue
			}
			es := matched(succ[p])
			hit := false
			if q == formula.Existential {
				for _, e := range es {
					hit = hit || x[e.to]
				}
			} else {
				hit = len(es) > 0
				for _, e := range es {
					hit = hit && x[e.to]
				}
			}
			if hit {
				x[p] = true
				changed = true
			}
		}
	}

	return x
}

// globally is the greatest fixed point X = a ∧ step(X). EG keeps dead ends
// (maximal finite paths); AG requires every successor in X.
func (o *oracle) globally(q formula.Quantifier, succ [][]edge, a []bool) []bool {
	x := append([]bool(nil), a...)
	for changed := true; changed; {
		changed = false
		for p := range o.n {
			if !x[p] {
				continue
			}
			es := matched(succ[p])
			keep := true
			if q == formula.Existential {
				keep = len(es) == 0
				for _, e := range es {
					keep = keep || x[e.to]
				}
			} else {
				for _, e := range es {
					keep = keep && x[e.to]
				}
			}
			if !keep {
				x[p] = false
				changed = true
			}
		}
	}

	return x
}

// escapes reports whether some transition, for any color, fails dir.
func (o *oracle) escapes(dir formula.DirFormula) bool {
	dir = formula.Direction(dir)
	for st := range o.n {
		for _, t := range o.g.Step(types.State(st), true) { //nolint:gosec // small test graphs
			if !t.Bound.None() && !dir.Matches(t.Direction) {
				return true
			}
		}
	}

	return false
}

// allGloballyEscaping is directed AG as the least set of counterexamples per
// color: states failing the operand, states with a matching successor that is a
// counterexample for the same color, and states with a non-matching successor
// that is a counterexample for any color.
func (o *oracle) allGloballyEscaping(n formula.Globally, env bindings) ([]bool, error) {
	bad := make([][]bool, o.colors)
	succ := make([][][]edge, o.colors)
	for c := range o.colors {
		sib := o
		if c != o.color {
			sib = newOracle(o.g, c, o.colors)
		}
		a, err := sib.eval(n.Inner, env)
		if err != nil {
			return nil, err
		}
		bad[c] = make([]bool, o.n)
		for st, ok := range a {
			bad[c][st] = !ok
		}
		succ[c] = sib.edges(n.Direction, n.Flow, true)
	}

	anyBad := func(st int) bool {
		for c := range bad {
			if bad[c][st] {
				return true
			}
		}

		return false
	}

	for changed := true; changed; {
		changed = false
		for c := range bad {
			for p := range o.n {
				if bad[c][p] {
					continue
				}
				for _, e := range succ[c][p] {
					if (e.matched && bad[c][e.to]) || (!e.matched && anyBad(e.to)) {
						bad[c][p] = true
						changed = true

						break
					}
				}
			}
		}
	}

	out := make([]bool, o.n)
	for p := range out {
		out[p] = !bad[o.color][p]
	}

	return out, nil
}

func (o *oracle) quantify(name string, domain, inner formula.Formula, env bindings, universal bool) ([]bool, error) {
	out := o.all(universal)
	for st := range o.n {
		bound := env.with(name, st)
		if domain != nil {
			d, err := o.eval(domain, bound)
			if err != nil {
				return nil, err
			}
			if !d[st] {
				continue
			}
		}
		a, err := o.eval(inner, bound)
		if err != nil {
			return nil, err
		}
		for p := range out {
			if universal {
				out[p] = out[p] && a[p]
			} else {
				out[p] = out[p] || a[p]
			}
		}
	}

	return out, nil
}
