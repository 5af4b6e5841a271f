package fixpoint

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/arloliu/pactl/comm"
	"github.com/arloliu/pactl/formula"
	"github.com/arloliu/pactl/internal/logging"
	"github.com/arloliu/pactl/internal/metrics"
	"github.com/arloliu/pactl/types"
)

// Env is everything one partition needs to evaluate operators.
//
// The same Env is reused for every operator of a verification; the Comm endpoint
// carries the round sequence across evaluations.
type Env[C any] struct {
	Fragment types.Fragment[C]
	Solver   types.Solver[C]
	Comm     comm.Comm

	// Logger and Metrics default to no-op implementations when nil.
	Logger  types.Logger
	Metrics types.MetricsCollector

	// MaxRounds aborts a fixed point that needs more rounds (0 = unlimited).
	MaxRounds int
}

// Validate checks that the environment is complete and consistent.
func (env *Env[C]) Validate() error {
	switch {
	case env.Fragment == nil:
		return fmt.Errorf("%w: nil fragment", types.ErrInvalidConfig)
	case env.Solver == nil:
		return fmt.Errorf("%w: nil solver", types.ErrInvalidConfig)
	case env.Comm == nil:
		return fmt.Errorf("%w: nil comm", types.ErrInvalidConfig)
	}
	if n := env.Fragment.Partition().Size(); env.Comm.Size() != n {
		return fmt.Errorf("%w: comm has %d endpoints, fragment has %d partitions",
			types.ErrCommSizeMismatch, env.Comm.Size(), n)
	}
	if env.Comm.ID() != env.Fragment.ID() {
		return fmt.Errorf("%w: comm endpoint %d serves fragment %d",
			types.ErrCommSizeMismatch, env.Comm.ID(), env.Fragment.ID())
	}

	return nil
}

func (env *Env[C]) logger() types.Logger {
	if env.Logger == nil {
		return logging.NewNop()
	}

	return env.Logger
}

func (env *Env[C]) metrics() types.MetricsCollector {
	if env.Metrics == nil {
		return metrics.NewNop()
	}

	return env.Metrics
}

// handler is the operator-specific reaction to a grown state value.
type handler[C any] interface {
	onUpdate(s types.State, v C) error
}

// engine is the per-partition fixed-point state shared by all operators.
type engine[C any] struct {
	env    *Env[C]
	solver types.Solver[C]
	frag   types.Fragment[C]
	pf     types.PartitionFunction
	id     types.PartitionID
	flow   formula.Flow
	dir    formula.DirFormula

	data   types.StateMap[C] // owned states
	remote types.StateMap[C] // last known values of peer states

	queue  []types.State
	queued map[types.State]struct{}
	outbox []map[types.State]struct{} // states to send, per peer

	h       handler[C]
	rounds  int
	scratch []byte
}

var _ comm.Participant = (*engine[int])(nil)

func newEngine[C any](env *Env[C], flow formula.Flow, dir formula.DirFormula) *engine[C] {
	pf := env.Fragment.Partition()
	outbox := make([]map[types.State]struct{}, pf.Size())
	for i := range outbox {
		outbox[i] = make(map[types.State]struct{})
	}

	return &engine[C]{
		env:    env,
		solver: env.Solver,
		frag:   env.Fragment,
		pf:     pf,
		id:     env.Fragment.ID(),
		flow:   flow,
		dir:    formula.Direction(dir),
		data:   make(types.StateMap[C]),
		remote: make(types.StateMap[C]),
		queued: make(map[types.State]struct{}),
		outbox: outbox,
	}
}

func (e *engine[C]) owns(s types.State) bool {
	return e.pf.Owner(s) == e.id
}

// get returns the current value of s, owned or cached.
func (e *engine[C]) get(s types.State) C {
	if e.owns(s) {
		return e.data.Get(s, e.solver)
	}

	return e.remote.Get(s, e.solver)
}

// update merges v into the value of s and reports whether it grew.
//
// A grown state is queued for its operator reaction.
func (e *engine[C]) update(s types.State, v C) bool {
	m := e.remote
	if e.owns(s) {
		m = e.data
	}

	old, ok := m[s]
	if !ok {
		if e.solver.IsEmpty(v) {
			return false
		}
		m[s] = v
	} else {
		if e.solver.IsEmpty(e.solver.AndNot(v, old)) {
			return false
		}
		m[s] = e.solver.Minimize(e.solver.Or(old, v))
	}

	if _, ok := e.queued[s]; !ok {
		e.queued[s] = struct{}{}
		e.queue = append(e.queue, s)
	}

	return true
}

// sync schedules the owned state s for transmission to peer.
func (e *engine[C]) sync(s types.State, peer types.PartitionID) {
	if peer == e.id {
		return
	}
	e.outbox[peer][s] = struct{}{}
}

// step returns the time-flow successors of s when forward is true and its
// time-flow predecessors otherwise.
func (e *engine[C]) step(s types.State, forward bool) []types.Transition[C] {
	return e.frag.Step(s, forward == (e.flow == formula.FlowFuture))
}

// visitPreds calls fn for every time-flow predecessor p of s owned by this
// partition. Remote predecessors cannot be updated here; if s is owned, it is
// scheduled for their owners instead. With matchedOnly, edges whose direction
// does not satisfy the operator's direction formula are skipped.
func (e *engine[C]) visitPreds(s types.State, matchedOnly bool, fn func(p types.State, b C, matched bool) error) error {
	owned := e.owns(s)
	for _, t := range e.step(s, false) {
		matched := e.dir.Matches(t.Direction)
		if matchedOnly && !matched {
			continue
		}
		if e.owns(t.Target) {
			if fn == nil {
				continue
			}
			if err := fn(t.Target, t.Bound, matched); err != nil {
				return err
			}

			continue
		}
		if owned {
			e.sync(s, e.pf.Owner(t.Target))
		}
	}

	return nil
}

// compute drains the worklist and synchronizes until no partition receives data.
func (e *engine[C]) compute(ctx context.Context) error {
	for {
		for len(e.queue) > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			s := e.queue[0]
			e.queue[0] = 0
			e.queue = e.queue[1:]
			delete(e.queued, s)

			if err := e.h.onUpdate(s, e.get(s)); err != nil {
				return err
			}
		}

		delivered, err := e.env.Comm.Synchronize(ctx, e)
		if err != nil {
			return err
		}
		e.rounds++
		if !delivered {
			return nil
		}
		if e.env.MaxRounds > 0 && e.rounds >= e.env.MaxRounds {
			return fmt.Errorf("%w: fixed point not reached after %d rounds", types.ErrInvariantViolation, e.rounds)
		}
	}
}

// Outbound implements comm.Participant.
func (e *engine[C]) Outbound(peer types.PartitionID, buf []byte) []byte {
	pending := e.outbox[peer]
	if len(pending) == 0 {
		return buf
	}

	start := len(buf)
	states := slices.Sorted(maps.Keys(pending))
	for _, s := range states {
		e.scratch = e.solver.Encode(e.scratch[:0], e.solver.Minimize(e.data.Get(s, e.solver)))
		buf = AppendDelta(buf, s, e.scratch)
	}
	clear(pending)
	e.env.metrics().RecordDeltas(len(states), len(buf)-start)

	return buf
}

// Inbound implements comm.Participant.
func (e *engine[C]) Inbound(from types.PartitionID, buf []byte) error {
	return DecodeDeltas(buf, func(s types.State, colors []byte) error {
		if int(s) >= e.frag.StateCount() {
			return fmt.Errorf("%w: delta for state %d", types.ErrStateOutOfRange, s)
		}
		if owner := e.pf.Owner(s); owner != from || owner == e.id {
			return fmt.Errorf("%w: partition %d sent state %d owned by %d",
				types.ErrProtocolViolation, from, s, owner)
		}
		v, err := e.solver.Decode(colors)
		if err != nil {
			return err
		}
		e.update(s, v)

		return nil
	})
}

// owned returns the non-empty entries of m for owned states.
func (e *engine[C]) owned(m types.StateMap[C]) types.StateMap[C] {
	out := make(types.StateMap[C], len(m))
	for s, v := range m {
		if e.owns(s) && !e.solver.IsEmpty(v) {
			out[s] = v
		}
	}

	return out
}

// seed updates every owned state of m.
func (e *engine[C]) seed(m types.StateMap[C]) {
	for _, s := range slices.Sorted(maps.Keys(m)) {
		if e.owns(s) {
			e.update(s, m[s])
		}
	}
}

// seedComplement updates every owned state with the complement of its value in m.
func (e *engine[C]) seedComplement(m types.StateMap[C]) {
	for _, s := range types.OwnedStates(e.frag) {
		e.update(s, e.solver.Not(m.Get(s, e.solver)))
	}
}

// negateOwned returns the complement of data over all owned states.
func (e *engine[C]) negateOwned() types.StateMap[C] {
	out := make(types.StateMap[C])
	for _, s := range types.OwnedStates(e.frag) {
		if v := e.solver.Not(e.data.Get(s, e.solver)); !e.solver.IsEmpty(v) {
			out[s] = v
		}
	}

	return out
}
