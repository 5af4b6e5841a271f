package fixpoint

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/pactl/comm"
	"github.com/arloliu/pactl/formula"
	"github.com/arloliu/pactl/graph"
	"github.com/arloliu/pactl/internal/testgraph"
	"github.com/arloliu/pactl/partition"
	"github.com/arloliu/pactl/solver/bitset"
	"github.com/arloliu/pactl/types"
)

type colorMap = types.StateMap[bitset.Colors]

// runPartitioned evaluates fn on every partition of pf over one shared session
// and merges the owned results.
func runPartitioned(
	t *testing.T,
	g *testgraph.Graph,
	s *bitset.Solver,
	pf types.PartitionFunction,
	maxRounds int,
	fn func(ctx context.Context, env *Env[bitset.Colors]) (colorMap, error),
) (colorMap, error) {
	t.Helper()

	ctx := context.Background()
	frags, err := g.Fragments(pf)
	require.NoError(t, err)
	comms, err := comm.NewShared(comm.SharedConfig{PoolSize: 8}).Open(ctx, pf.Size())
	require.NoError(t, err)

	results := make([]colorMap, pf.Size())
	eg, egCtx := errgroup.WithContext(ctx)
	for i := range frags {
		env := &Env[bitset.Colors]{Fragment: frags[i], Solver: s, Comm: comms[i], MaxRounds: maxRounds}
		eg.Go(func() error {
			res, err := fn(egCtx, env)
			results[i] = res
			return err
		})
	}
	err = eg.Wait()
	for _, c := range comms {
		require.NoError(t, c.Close())
	}
	if err != nil {
		return nil, err
	}

	merged := make(colorMap)
	for id, res := range results {
		for st, v := range res {
			require.Equal(t, types.PartitionID(id), pf.Owner(st), "partition %d returned foreign state %d", id, st)
			merged[st] = v
		}
	}

	return merged, nil
}

func partitions(t *testing.T, states int) map[string]types.PartitionFunction {
	t.Helper()

	out := make(map[string]types.PartitionFunction)
	for _, n := range []int{1, 2, 3, 5} {
		rr, err := partition.NewRoundRobin(n)
		require.NoError(t, err)
		out[fmt.Sprintf("round-robin/%d", n)] = rr

		block, err := partition.NewBlock(n, states)
		require.NoError(t, err)
		out[fmt.Sprintf("block/%d", n)] = block
	}
	hashed, err := partition.NewConsistentHash(4)
	require.NoError(t, err)
	out["consistent-hash/4"] = hashed

	return out
}

type operatorCase struct {
	spec    Spec
	formula formula.Formula
}

func operatorCases() []operatorCase {
	p, q := formula.Prop("p"), formula.Prop("q")
	up := formula.DirProposition{Name: "x", Facet: types.Positive}
	notY := formula.DirNot{Inner: formula.DirProposition{Name: "y", Facet: types.Negative}}

	var out []operatorCase
	for _, flow := range []formula.Flow{formula.FlowFuture, formula.FlowPast} {
		for _, dir := range []formula.DirFormula{formula.DirTrue{}, up, notY} {
			for _, qn := range []formula.Quantifier{formula.Existential, formula.Universal} {
				next, future, until := OpEX, OpEF, OpEU
				if qn == formula.Universal {
					next, future, until = OpAX, OpAF, OpAU
				}
				out = append(out,
					operatorCase{Spec{next, flow, dir}, formula.Next{Quantifier: qn, Flow: flow, Direction: dir, Inner: p}},
					operatorCase{Spec{future, flow, dir}, formula.Future{Quantifier: qn, Flow: flow, Direction: dir, Inner: p}},
					operatorCase{Spec{until, flow, dir}, formula.Until{Quantifier: qn, Flow: flow, Direction: dir, Path: q, Reach: p}},
				)
			}
			out = append(out,
				operatorCase{Spec{OpEG, flow, dir}, formula.Globally{Quantifier: formula.Existential, Flow: flow, Direction: dir, Inner: p}},
				operatorCase{Spec{OpAG, flow, dir}, formula.Globally{Quantifier: formula.Universal, Flow: flow, Direction: dir, Inner: p}},
			)
		}
	}

	return out
}

func TestEvaluate_MatchesBruteForce(t *testing.T) {
	for seed := range uint64(6) {
		g, s := testgraph.Random(seed, testgraph.DefaultRandom())
		inner, err := testgraph.Check(g, s, formula.Prop("p"))
		require.NoError(t, err)
		path, err := testgraph.Check(g, s, formula.Prop("q"))
		require.NoError(t, err)

		for _, tc := range operatorCases() {
			want, err := testgraph.Check(g, s, tc.formula)
			require.NoError(t, err)

			for name, pf := range partitions(t, g.StateCount()) {
				t.Run(fmt.Sprintf("seed=%d/%s/%s", seed, tc.formula, name), func(t *testing.T) {
					got, err := runPartitioned(t, g, s, pf, 0,
						func(ctx context.Context, env *Env[bitset.Colors]) (colorMap, error) {
							return Evaluate(ctx, env, tc.spec, Args[bitset.Colors]{Inner: inner, Path: path})
						})
					require.NoError(t, err)
					require.Empty(t, testgraph.Diff(s, g.StateCount(), want, got))
				})
			}
		}
	}
}

func TestEvaluate_Chain(t *testing.T) {
	g, s := testgraph.Chain(10, 3)
	goal, err := g.Eval("state==9")
	require.NoError(t, err)
	pf, err := partition.NewRoundRobin(2)
	require.NoError(t, err)

	run := func(spec Spec) colorMap {
		got, err := runPartitioned(t, g, s, pf, 0,
			func(ctx context.Context, env *Env[bitset.Colors]) (colorMap, error) {
				return Evaluate(ctx, env, spec, Args[bitset.Colors]{Inner: goal})
			})
		require.NoError(t, err)

		return got
	}

	t.Run("EF reaches every state", func(t *testing.T) {
		got := run(Spec{Op: OpEF})
		require.Len(t, got, 10)
		for _, v := range got {
			require.True(t, s.Equal(s.True(), v))
		}
	})

	t.Run("past EF holds only at the goal", func(t *testing.T) {
		got := run(Spec{Op: OpEF, Flow: formula.FlowPast})
		require.Len(t, got, 1)
		require.Contains(t, got, types.State(9))
	})

	t.Run("EX holds at the predecessor", func(t *testing.T) {
		got := run(Spec{Op: OpEX})
		require.Len(t, got, 1)
		require.Contains(t, got, types.State(8))
	})

	t.Run("AX is vacuous at the dead end", func(t *testing.T) {
		got := run(Spec{Op: OpAX})
		require.Len(t, got, 2)
		require.Contains(t, got, types.State(8))
		require.Contains(t, got, types.State(9))
	})

	t.Run("direction restriction blocks decreasing steps", func(t *testing.T) {
		down := formula.DirProposition{Name: "x", Facet: types.Negative}
		got := run(Spec{Op: OpEF, Direction: down})
		require.Len(t, got, 1)
	})
}

func TestEvaluate_DirectedAllGlobally(t *testing.T) {
	// 0 -x+-> 1 -y--> 2, where p fails at 2 for color 0 only
	s := bitset.New(2)
	b := graph.NewBuilder[bitset.Colors](s, 3)
	b.AddEdge(0, 1, types.DirectionAtom{Name: "x", Facet: types.Positive}, s.True())
	b.AddEdge(1, 2, types.DirectionAtom{Name: "y", Facet: types.Negative}, s.Of(1))
	b.SetProposition("p", 0, s.True())
	b.SetProposition("p", 1, s.True())
	b.SetProposition("p", 2, s.Of(1))
	g, err := b.Build()
	require.NoError(t, err)

	inner, err := testgraph.Check(g, s, formula.Prop("p"))
	require.NoError(t, err)
	up := formula.DirProposition{Name: "x", Facet: types.Positive}
	want, err := testgraph.Check(g, s, formula.Globally{Quantifier: formula.Universal, Direction: up, Inner: formula.Prop("p")})
	require.NoError(t, err)

	for _, n := range []int{1, 2, 3} {
		t.Run(fmt.Sprintf("partitions=%d", n), func(t *testing.T) {
			pf, err := partition.NewRoundRobin(n)
			require.NoError(t, err)
			got, err := runPartitioned(t, g, s, pf, 0,
				func(ctx context.Context, env *Env[bitset.Colors]) (colorMap, error) {
					return Evaluate(ctx, env, Spec{Op: OpAG, Direction: up}, Args[bitset.Colors]{Inner: inner})
				})
			require.NoError(t, err)
			require.Empty(t, testgraph.Diff(s, 3, want, got))

			// the y- edge escapes the direction, so the counterexample at 2
			// reaches 1 with the whole edge bound and then 0 along x+
			require.Equal(t, []uint{0}, s.Members(got.Get(0, s)))
			require.Equal(t, []uint{0}, s.Members(got.Get(1, s)))
			require.Equal(t, []uint{1}, s.Members(got.Get(2, s)))
		})
	}
}

func TestEvaluate_Dualities(t *testing.T) {
	pf, err := partition.NewRoundRobin(3)
	require.NoError(t, err)

	for seed := range uint64(4) {
		g, s := testgraph.Random(seed+100, testgraph.DefaultRandom())
		n := g.StateCount()
		p, err := testgraph.Check(g, s, formula.Prop("p"))
		require.NoError(t, err)
		notP := testgraph.Complement(s, n, p)

		eval := func(op Op, inner colorMap) colorMap {
			got, err := runPartitioned(t, g, s, pf, 0,
				func(ctx context.Context, env *Env[bitset.Colors]) (colorMap, error) {
					return Evaluate(ctx, env, Spec{Op: op}, Args[bitset.Colors]{Inner: inner})
				})
			require.NoError(t, err)

			return got
		}

		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			require.Empty(t, testgraph.Diff(s, n, eval(OpAF, p), testgraph.Complement(s, n, eval(OpEG, notP))))
			require.Empty(t, testgraph.Diff(s, n, eval(OpEF, p), testgraph.Complement(s, n, eval(OpAG, notP))))
			require.Empty(t, testgraph.Diff(s, n, eval(OpAX, p), testgraph.Complement(s, n, eval(OpEX, notP))))
		})
	}
}

func TestEvaluate_MaxRounds(t *testing.T) {
	g, s := testgraph.Chain(10, 2)
	goal, err := g.Eval("state==9")
	require.NoError(t, err)
	pf, err := partition.NewRoundRobin(2)
	require.NoError(t, err)

	_, err = runPartitioned(t, g, s, pf, 2,
		func(ctx context.Context, env *Env[bitset.Colors]) (colorMap, error) {
			return Evaluate(ctx, env, Spec{Op: OpEF}, Args[bitset.Colors]{Inner: goal})
		})
	require.ErrorIs(t, err, types.ErrInvariantViolation)
}

func TestEvaluate_MissingPath(t *testing.T) {
	g, s := testgraph.Chain(3, 1)
	pf, err := partition.NewRoundRobin(1)
	require.NoError(t, err)

	_, err = runPartitioned(t, g, s, pf, 0,
		func(ctx context.Context, env *Env[bitset.Colors]) (colorMap, error) {
			return Evaluate(ctx, env, Spec{Op: OpAU}, Args[bitset.Colors]{Inner: colorMap{}})
		})
	require.ErrorIs(t, err, types.ErrUnsupportedFormula)
}

func TestEvaluate_Cancelled(t *testing.T) {
	g, s := testgraph.Chain(4, 1)
	pf, err := partition.NewRoundRobin(2)
	require.NoError(t, err)

	_, err = runPartitioned(t, g, s, pf, 0,
		func(ctx context.Context, env *Env[bitset.Colors]) (colorMap, error) {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			return Evaluate(cancelled, env, Spec{Op: OpEF}, Args[bitset.Colors]{Inner: colorMap{0: s.True()}})
		})
	require.ErrorIs(t, err, context.Canceled)
}

func TestOp_String(t *testing.T) {
	require.Equal(t, "EU", OpEU.String())
	require.Equal(t, "Op(42)", Op(42).String())
	require.True(t, OpAU.Binary())
	require.False(t, OpEG.Binary())
}
