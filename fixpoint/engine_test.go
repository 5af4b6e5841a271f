package fixpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/pactl/comm"
	"github.com/arloliu/pactl/formula"
	"github.com/arloliu/pactl/internal/testgraph"
	"github.com/arloliu/pactl/partition"
	"github.com/arloliu/pactl/solver/bitset"
	"github.com/arloliu/pactl/types"
)

// fakeComm is a comm endpoint of a larger session that never delivers.
type fakeComm struct {
	id   types.PartitionID
	size int
}

func (c fakeComm) ID() types.PartitionID { return c.id }
func (c fakeComm) Size() int             { return c.size }
func (c fakeComm) Close() error          { return nil }
func (c fakeComm) Synchronize(context.Context, comm.Participant) (bool, error) {
	return false, nil
}

func newTestEnv(t *testing.T, id types.PartitionID, n int) (*Env[bitset.Colors], *bitset.Solver) {
	t.Helper()

	g, s := testgraph.Chain(6, 4)
	pf, err := partition.NewRoundRobin(n)
	require.NoError(t, err)
	frag, err := g.Fragment(id, pf)
	require.NoError(t, err)

	return &Env[bitset.Colors]{Fragment: frag, Solver: s, Comm: fakeComm{id: id, size: n}}, s
}

func TestEnv_Validate(t *testing.T) {
	env, s := newTestEnv(t, 1, 3)
	require.NoError(t, env.Validate())

	tests := []struct {
		name   string
		mutate func(env *Env[bitset.Colors])
		want   error
	}{
		{name: "nil fragment", mutate: func(env *Env[bitset.Colors]) { env.Fragment = nil }, want: types.ErrInvalidConfig},
		{name: "nil solver", mutate: func(env *Env[bitset.Colors]) { env.Solver = nil }, want: types.ErrInvalidConfig},
		{name: "nil comm", mutate: func(env *Env[bitset.Colors]) { env.Comm = nil }, want: types.ErrInvalidConfig},
		{name: "size mismatch", mutate: func(env *Env[bitset.Colors]) { env.Comm = fakeComm{id: 1, size: 2} }, want: types.ErrCommSizeMismatch},
		{name: "id mismatch", mutate: func(env *Env[bitset.Colors]) { env.Comm = fakeComm{id: 0, size: 3} }, want: types.ErrCommSizeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &Env[bitset.Colors]{Fragment: env.Fragment, Solver: s, Comm: env.Comm}
			tt.mutate(env)
			require.ErrorIs(t, env.Validate(), tt.want)
		})
	}
}

func TestEngine_UpdateGrowsOnly(t *testing.T) {
	env, s := newTestEnv(t, 0, 2)
	e := newEngine(env, formula.FlowFuture, nil)

	require.False(t, e.update(0, s.False()), "empty value on absent state")
	require.True(t, e.update(0, s.Of(1)))
	require.False(t, e.update(0, s.Of(1)), "subset must not grow")
	require.True(t, e.update(0, s.Of(2)))
	require.Equal(t, []uint{1, 2}, s.Members(e.get(0)))

	// remote states are cached separately
	require.True(t, e.update(1, s.Of(3)))
	require.NotContains(t, e.data, types.State(1))
	require.Equal(t, []uint{3}, s.Members(e.get(1)))

	// each state is queued once until it is processed
	require.Equal(t, []types.State{0, 1}, e.queue)
}

func TestEngine_OutboundSendsOwnedStatesOnce(t *testing.T) {
	env, s := newTestEnv(t, 0, 2)
	e := newEngine(env, formula.FlowFuture, nil)
	e.update(4, s.Of(0))
	e.update(2, s.Of(1, 3))
	e.sync(4, 1)
	e.sync(2, 1)
	e.sync(2, 0) // self is ignored

	require.Empty(t, e.Outbound(0, nil))

	buf := e.Outbound(1, nil)
	var states []types.State
	require.NoError(t, DecodeDeltas(buf, func(st types.State, colors []byte) error {
		states = append(states, st)
		v, err := s.Decode(colors)
		require.NoError(t, err)
		require.True(t, s.Equal(e.get(st), v))

		return nil
	}))
	require.Equal(t, []types.State{2, 4}, states)
	require.Empty(t, e.Outbound(1, nil), "outbox is cleared after sending")
}

func TestEngine_Inbound(t *testing.T) {
	env, s := newTestEnv(t, 0, 3)
	e := newEngine(env, formula.FlowFuture, nil)
	enc := s.Encode(nil, s.Of(2))

	t.Run("accepts states of the sender", func(t *testing.T) {
		require.NoError(t, e.Inbound(1, AppendDelta(nil, 4, enc)))
		require.Equal(t, []uint{2}, s.Members(e.get(4)))
	})

	t.Run("rejects states of another partition", func(t *testing.T) {
		err := e.Inbound(1, AppendDelta(nil, 5, enc))
		require.ErrorIs(t, err, types.ErrProtocolViolation)
	})

	t.Run("rejects own states", func(t *testing.T) {
		err := e.Inbound(1, AppendDelta(nil, 3, enc))
		require.ErrorIs(t, err, types.ErrProtocolViolation)
	})

	t.Run("rejects states out of range", func(t *testing.T) {
		err := e.Inbound(1, AppendDelta(nil, 100, enc))
		require.ErrorIs(t, err, types.ErrStateOutOfRange)
	})

	t.Run("rejects undecodable colors", func(t *testing.T) {
		err := e.Inbound(1, AppendDelta(nil, 1, []byte{1, 2}))
		require.ErrorIs(t, err, types.ErrMalformedMessage)
	})
}

func TestBroadcast(t *testing.T) {
	g, s := testgraph.Random(7, testgraph.DefaultRandom())
	m, err := testgraph.Check(g, s, formula.Prop("p"))
	require.NoError(t, err)

	for _, n := range []int{1, 3, 4} {
		pf, err := partition.NewRoundRobin(n)
		require.NoError(t, err)

		for _, st := range []types.State{0, 5, 23} {
			got := make([]bitset.Colors, n)
			_, err := runPartitioned(t, g, s, pf, 0,
				func(ctx context.Context, env *Env[bitset.Colors]) (colorMap, error) {
					v, err := Broadcast(ctx, env, st, m)
					got[env.Fragment.ID()] = v
					return nil, err
				})
			require.NoError(t, err)
			for id, v := range got {
				require.True(t, s.Equal(m.Get(st, s), v), "partition %d, state %d", id, st)
			}
		}
	}
}

func TestBroadcast_OutOfRange(t *testing.T) {
	env, _ := newTestEnv(t, 0, 2)
	_, err := Broadcast(context.Background(), env, 99, nil)
	require.ErrorIs(t, err, types.ErrStateOutOfRange)
}
