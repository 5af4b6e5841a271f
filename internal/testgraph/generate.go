// Package testgraph builds transition systems for tests and checks formulas on
// them by brute force, one color at a time.
package testgraph

import (
	"fmt"
	"math/rand/v2"

	"github.com/arloliu/pactl/graph"
	"github.com/arloliu/pactl/solver/bitset"
	"github.com/arloliu/pactl/types"
)

// Graph is the concrete system type produced by the generators.
type Graph = graph.Explicit[bitset.Colors]

// RandomConfig configures Random.
type RandomConfig struct {
	States        int
	Colors        uint
	EdgesPerState int
	// Variables name the direction atoms; edges also get the loop atom.
	Variables []string
	// Propositions are each set at a random subset of states and colors.
	Propositions []string
	// Density is the probability of a color being in a bound or proposition.
	Density float64
}

// DefaultRandom returns a small configuration suitable for exhaustive checks.
func DefaultRandom() RandomConfig {
	return RandomConfig{
		States:        24,
		Colors:        6,
		EdgesPerState: 2,
		Variables:     []string{"x", "y"},
		Propositions:  []string{"p", "q", "r"},
		Density:       0.6,
	}
}

// Random generates a reproducible random system from seed.
func Random(seed uint64, cfg RandomConfig) (*Graph, *bitset.Solver) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // test data
	s := bitset.New(cfg.Colors)

	randomColors := func() bitset.Colors {
		c := s.False()
		for i := range cfg.Colors {
			if rng.Float64() < cfg.Density {
				c.Set(i)
			}
		}

		return c
	}
	randomAtom := func() types.DirectionAtom {
		k := rng.IntN(len(cfg.Variables)*2 + 1)
		if k == len(cfg.Variables)*2 {
			return types.DirectionAtom{}
		}
		facet := types.Positive
		if k%2 == 1 {
			facet = types.Negative
		}

		return types.DirectionAtom{Name: cfg.Variables[k/2], Facet: facet}
	}

	b := graph.NewBuilder[bitset.Colors](s, cfg.States)
	for from := range cfg.States {
		for range cfg.EdgesPerState {
			to := rng.IntN(cfg.States)
			b.AddEdge(types.State(from), types.State(to), randomAtom(), randomColors()) //nolint:gosec // small test graphs
		}
	}
	for _, p := range cfg.Propositions {
		b.DeclareProposition(p)
		for st := range cfg.States {
			if rng.Float64() < 0.5 {
				b.SetProposition(p, types.State(st), randomColors()) //nolint:gosec // small test graphs
			}
		}
	}

	g, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("testgraph: random graph: %v", err))
	}

	return g, s
}

// Chain builds the chain 0 → 1 → … → n-1 enabled for every one of colors.
//
// It defines the propositions "state==i" for every state and "state<n-1".
func Chain(n int, colors uint) (*Graph, *bitset.Solver) {
	s := bitset.New(colors)
	b := graph.NewBuilder[bitset.Colors](s, n)
	up := types.DirectionAtom{Name: "x", Facet: types.Positive}
	last := fmt.Sprintf("state<%d", n-1)
	b.DeclareProposition(last)
	for i := range n {
		st := types.State(i) //nolint:gosec // small test graphs
		b.SetProposition(fmt.Sprintf("state==%d", i), st, s.True())
		if i+1 < n {
			b.AddEdge(st, st+1, up, s.True())
			b.SetProposition(last, st, s.True())
		}
	}

	g, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("testgraph: chain: %v", err))
	}

	return g, s
}

// Cycle adds the cycle states[0] → states[1] → … → states[0] enabled for colors.
func Cycle(b *graph.Builder[bitset.Colors], colors bitset.Colors, states ...types.State) {
	for i, st := range states {
		b.AddEdge(st, states[(i+1)%len(states)], types.DirectionAtom{}, colors)
	}
}
