package fixpoint

import (
	"context"
	"fmt"

	"github.com/arloliu/pactl/formula"
	"github.com/arloliu/pactl/types"
)

// Broadcast returns the value of m at state on every partition.
//
// Only the owner of state reads m; it sends the value to all peers in one round.
// The result is homed in env.Solver on every partition.
func Broadcast[C any](ctx context.Context, env *Env[C], state types.State, m types.StateMap[C]) (C, error) {
	if err := env.Validate(); err != nil {
		return env.zero(), err
	}
	if int(state) >= env.Fragment.StateCount() {
		return env.zero(), fmt.Errorf("%w: broadcast of state %d", types.ErrStateOutOfRange, state)
	}

	e := newEngine(env, formula.FlowFuture, formula.DirTrue{})
	e.h = &broadcast[C]{e: e}
	if e.owns(state) {
		e.update(state, m.Get(state, e.solver))
	}
	if err := e.compute(ctx); err != nil {
		return env.zero(), fmt.Errorf("broadcast of state %d on partition %d: %w", state, e.id, err)
	}

	return e.get(state), nil
}

func (env *Env[C]) zero() C {
	var zero C
	return zero
}

type broadcast[C any] struct {
	e *engine[C]
}

func (b *broadcast[C]) onUpdate(s types.State, _ C) error {
	if !b.e.owns(s) {
		return nil
	}
	for peer := range b.e.pf.Size() {
		b.e.sync(s, types.PartitionID(peer))
	}

	return nil
}
