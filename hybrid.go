package pactl

import (
	"context"
	"fmt"

	"github.com/arloliu/pactl/formula"
)

// expand evaluates a hybrid binder by substituting every state for its
// variable and evaluating the resulting closed bodies in the same session.
//
//   - exists x: φ holds where φ[x:=p] holds for some p
//   - forall x: φ holds where φ[x:=p] holds for every p
//   - bind x: φ holds at p where φ[x:=p] holds at p
//
// Bodies are evaluated one after another, so all partitions still run the same
// sequence of rounds. Combining the per-state values touches each partition's
// solver from this goroutine only, while no partition worker is running.
func (v *verification[C]) expand(ctx context.Context, f formula.Formula) ([]StateMap[C], error) {
	var (
		name  string
		inner formula.Formula
		apply func(p State, body []StateMap[C], acc []StateMap[C])
		acc   = make([]StateMap[C], len(v.envs))
	)

	switch n := f.(type) {
	case formula.Exists:
		name, inner = n.Name, n.Inner
		for i := range acc {
			acc[i] = make(StateMap[C])
		}
		apply = func(_ State, body []StateMap[C], acc []StateMap[C]) {
			for i := range acc {
				acc[i] = union(v.envs[i].Solver, acc[i], body[i])
			}
		}
	case formula.Forall:
		name, inner = n.Name, n.Inner
		for i := range acc {
			acc[i] = v.constant(i, v.envs[i].Solver.True())
		}
		apply = func(_ State, body []StateMap[C], acc []StateMap[C]) {
			for i := range acc {
				acc[i] = intersect(v.envs[i].Solver, acc[i], body[i])
			}
		}
	case formula.Bind:
		name, inner = n.Name, n.Inner
		for i := range acc {
			acc[i] = make(StateMap[C])
		}
		apply = func(p State, body []StateMap[C], acc []StateMap[C]) {
			owner := v.envs[0].Fragment.Partition().Owner(p)
			if colors, ok := body[owner][p]; ok {
				acc[owner][p] = colors
			}
		}
	default:
		return nil, fmt.Errorf("%w: %s is not a binder", ErrUnsupportedFormula, f)
	}

	for p := range v.c.states {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		state := State(p) //nolint:gosec // state count fits in uint32
		body, err := v.eval(ctx, formula.Substitute(inner, name, state))
		if err != nil {
			return nil, fmt.Errorf("%s:=#%d: %w", name, state, err)
		}
		apply(state, body, acc)
	}

	return acc, nil
}

func intersect[C any](s Solver[C], a, b StateMap[C]) StateMap[C] {
	out := make(StateMap[C], min(len(a), len(b)))
	for st, colors := range a {
		other, ok := b[st]
		if !ok {
			continue
		}
		if both := s.And(colors, other); !s.IsEmpty(both) {
			out[st] = both
		}
	}

	return out
}
