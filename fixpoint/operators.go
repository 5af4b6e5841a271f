package fixpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/arloliu/pactl/formula"
	"github.com/arloliu/pactl/types"
)

// Op identifies a temporal operator.
type Op int8

const (
	OpEX Op = iota
	OpAX
	OpEF
	OpAF
	OpEU
	OpAU
	OpEG
	OpAG
)

var opNames = [...]string{"EX", "AX", "EF", "AF", "EU", "AU", "EG", "AG"}

// String returns the conventional operator name.
func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return fmt.Sprintf("Op(%d)", int8(o))
	}

	return opNames[o]
}

// Binary reports whether the operator takes a path argument.
func (o Op) Binary() bool {
	return o == OpEU || o == OpAU
}

// Spec selects an operator together with its time flow and direction restriction.
type Spec struct {
	Op        Op
	Flow      formula.Flow
	Direction formula.DirFormula
}

// Args are the already evaluated arguments of an operator on one partition.
//
// Inner is the operand (the reach side for EU/AU); Path is only used by EU/AU.
// Both maps must be exact for the partition's owned states.
type Args[C any] struct {
	Inner types.StateMap[C]
	Path  types.StateMap[C]
}

// Evaluate computes the operator on one partition and returns its value on the
// owned states.
//
// All partitions of a session must call Evaluate with the same spec, in the same
// order, since the evaluation synchronizes with its peers through env.Comm.
//
// Example:
//
//	ef, err := fixpoint.Evaluate(ctx, env, fixpoint.Spec{Op: fixpoint.OpEF}, fixpoint.Args[C]{Inner: goal})
func Evaluate[C any](ctx context.Context, env *Env[C], spec Spec, args Args[C]) (types.StateMap[C], error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if spec.Op.Binary() && args.Path == nil {
		return nil, fmt.Errorf("%w: %s without path argument", types.ErrUnsupportedFormula, spec.Op)
	}

	started := time.Now()
	e := newEngine(env, spec.Flow, spec.Direction)

	var op interface {
		handler[C]
		init()
		finish() types.StateMap[C]
	}
	switch spec.Op {
	case OpEX:
		op = &existsNext[C]{e: e, result: make(types.StateMap[C]), inner: args.Inner}
	case OpAX:
		op = &allNext[C]{e: e, inner: args.Inner}
	case OpEF:
		op = &existsFuture[C]{e: e, reach: args.Inner}
	case OpEU:
		op = &existsFuture[C]{e: e, reach: args.Inner, path: args.Path}
	case OpAF:
		op = &allFuture[C]{e: e, reach: args.Inner}
	case OpAU:
		op = &allFuture[C]{e: e, reach: args.Inner, path: args.Path}
	case OpEG:
		op = &existsGlobally[C]{allFuture: allFuture[C]{e: e}, inner: args.Inner}
	case OpAG:
		op = &allGlobally[C]{e: e, inner: args.Inner}
	default:
		return nil, fmt.Errorf("%w: operator %s", types.ErrUnsupportedFormula, spec.Op)
	}
	e.h = op

	op.init()
	if err := e.compute(ctx); err != nil {
		return nil, fmt.Errorf("%s on partition %d: %w", spec.Op, e.id, err)
	}
	result := op.finish()

	elapsed := time.Since(started)
	env.metrics().RecordOperatorDuration(spec.Op.String(), elapsed.Seconds())
	env.metrics().RecordRounds(spec.Op.String(), e.rounds)
	env.logger().Debug("fixed point reached",
		"operator", spec.Op.String(),
		"partition", e.id,
		"rounds", e.rounds,
		"states", len(result),
		"duration", elapsed)

	return result, nil
}

// existsNext is EX: the engine variable holds the operand, the answer
// accumulates in result. Every operand state pushes value ∧ bound to its
// direction-matching predecessors once.
type existsNext[C any] struct {
	e      *engine[C]
	inner  types.StateMap[C]
	result types.StateMap[C]
}

func (op *existsNext[C]) init() { op.e.seed(op.inner) }

func (op *existsNext[C]) onUpdate(s types.State, v C) error {
	sv := op.e.solver
	return op.e.visitPreds(s, true, func(p types.State, b C, _ bool) error {
		op.result[p] = sv.Or(op.result.Get(p, sv), sv.And(v, b))
		return nil
	})
}

func (op *existsNext[C]) finish() types.StateMap[C] { return op.e.owned(op.result) }

// allNext is AX: the operand is replicated to the owners of its predecessors,
// then every owned state covers the colors for which each direction-matching
// successor edge is either disabled or leads into the operand. States without
// such edges are covered vacuously.
type allNext[C any] struct {
	e     *engine[C]
	inner types.StateMap[C]
}

func (op *allNext[C]) init() { op.e.seed(op.inner) }

func (op *allNext[C]) onUpdate(s types.State, _ C) error {
	return op.e.visitPreds(s, true, nil)
}

func (op *allNext[C]) finish() types.StateMap[C] {
	e, sv := op.e, op.e.solver
	out := make(types.StateMap[C])
	for _, p := range types.OwnedStates(e.frag) {
		covered := sv.True()
		for _, t := range e.step(p, true) {
			if !e.dir.Matches(t.Direction) {
				continue
			}
			covered = sv.And(covered, sv.Or(sv.Not(t.Bound), e.get(t.Target)))
		}
		if !sv.IsEmpty(covered) {
			out[p] = covered
		}
	}

	return out
}

// existsFuture is EF, and EU when path is set: every grown state adds
// value ∧ bound (∧ path) to its direction-matching predecessors.
type existsFuture[C any] struct {
	e     *engine[C]
	reach types.StateMap[C]
	path  types.StateMap[C]
}

func (op *existsFuture[C]) init() { op.e.seed(op.reach) }

func (op *existsFuture[C]) onUpdate(s types.State, v C) error {
	sv := op.e.solver
	return op.e.visitPreds(s, true, func(p types.State, b C, _ bool) error {
		w := sv.And(v, b)
		if op.path != nil {
			w = sv.And(w, op.path.Get(p, sv))
		}
		op.e.update(p, w)

		return nil
	})
}

func (op *existsFuture[C]) finish() types.StateMap[C] { return op.e.owned(op.e.data) }

// allFuture is AF, and AU when path is set. A predecessor p of a grown state is
// recomputed as ⋁ b ∧ ⋀ (¬b ∨ value(t)) over its direction-matching successor
// edges (p, t, b): it holds for the colors that have at least one successor and
// for which every successor already holds. Dead ends therefore only hold where
// the operand holds, so maximal finite paths count.
type allFuture[C any] struct {
	e     *engine[C]
	reach types.StateMap[C]
	path  types.StateMap[C]
}

func (op *allFuture[C]) init() { op.e.seed(op.reach) }

func (op *allFuture[C]) onUpdate(s types.State, _ C) error {
	sv := op.e.solver
	return op.e.visitPreds(s, true, func(p types.State, _ C, _ bool) error {
		w := op.witness(p)
		if op.path != nil {
			w = sv.And(w, op.path.Get(p, sv))
		}
		op.e.update(p, w)

		return nil
	})
}

func (op *allFuture[C]) witness(p types.State) C {
	e, sv := op.e, op.e.solver
	some := sv.False()
	all := sv.True()
	for _, t := range e.step(p, true) {
		if !e.dir.Matches(t.Direction) {
			continue
		}
		some = sv.Or(some, t.Bound)
		all = sv.And(all, sv.Or(sv.Not(t.Bound), e.get(t.Target)))
	}

	return sv.And(some, all)
}

func (op *allFuture[C]) finish() types.StateMap[C] { return op.e.owned(op.e.data) }

// existsGlobally is EG, eliminating counterexamples. A state is a counterexample
// where the operand fails, or where it has a direction-matching successor and
// all of them are counterexamples; this is AF of the negated operand.
type existsGlobally[C any] struct {
	allFuture[C]
	inner types.StateMap[C]
}

func (op *existsGlobally[C]) init() { op.e.seedComplement(op.inner) }

func (op *existsGlobally[C]) finish() types.StateMap[C] { return op.e.negateOwned() }

// allGlobally is AG, eliminating counterexamples. A counterexample propagates to
// every predecessor: across a direction-matching edge with value ∧ bound, across
// any other edge with the whole bound, since that edge escapes the direction
// restriction.
type allGlobally[C any] struct {
	e     *engine[C]
	inner types.StateMap[C]
}

func (op *allGlobally[C]) init() { op.e.seedComplement(op.inner) }

func (op *allGlobally[C]) onUpdate(s types.State, v C) error {
	sv := op.e.solver
	return op.e.visitPreds(s, false, func(p types.State, b C, matched bool) error {
		if matched {
			op.e.update(p, sv.And(v, b))
		} else {
			op.e.update(p, b)
		}

		return nil
	})
}

func (op *allGlobally[C]) finish() types.StateMap[C] { return op.e.negateOwned() }
