package pactl

import (
	"slices"
	"time"

	"github.com/arloliu/pactl/formula"
)

// Result is the outcome of one verified formula.
//
// States holds, for every state, the colors for which the formula holds there.
// States without an entry satisfy it for no color. All values are homed in
// Solver, the checker's first solver.
type Result[C any] struct {
	// Formula is the normalized formula that was evaluated.
	Formula formula.Formula

	States StateMap[C]
	Solver Solver[C]

	// Duration is the wall time of the evaluation.
	Duration time.Duration

	// Evaluated counts the sub-formulas computed for this result, including the
	// per-state bodies of hybrid binders. CacheHits counts those served from the
	// cache instead.
	Evaluated int
	CacheHits int
}

// At returns the colors for which the formula holds in state s.
func (r *Result[C]) At(s State) C {
	return r.States.Get(s, r.Solver)
}

// Holds reports whether the formula holds in state s for at least one color.
func (r *Result[C]) Holds(s State) bool {
	return !r.Solver.IsEmpty(r.At(s))
}

// SatisfyingStates returns the states where the formula holds for some color,
// in increasing order.
func (r *Result[C]) SatisfyingStates() []State {
	out := make([]State, 0, len(r.States))
	for s, c := range r.States {
		if !r.Solver.IsEmpty(c) {
			out = append(out, s)
		}
	}
	slices.Sort(out)

	return out
}
