// Package pactl provides a distributed model checker for parametrized
// transition systems.
//
// A parametrized transition system is a state graph whose edges are enabled
// only for a subset of a parameter space. Such subsets are called colors and are
// manipulated through a Solver. pactl computes, for every state and every
// temporal-logic formula, the colors for which the formula holds.
//
// The state space is split into partitions by a PartitionFunction. Each
// partition evaluates fixed points over the states it owns and exchanges
// changed values with its peers in synchronized rounds, either in memory or
// over NATS.
//
// # Quick Start
//
//	import (
//	    "github.com/arloliu/pactl"
//	    "github.com/arloliu/pactl/formula"
//	    "github.com/arloliu/pactl/graph"
//	    "github.com/arloliu/pactl/partition"
//	    "github.com/arloliu/pactl/solver/bitset"
//	)
//
//	s := bitset.New(4)
//	b := graph.NewBuilder[bitset.Colors](s, 3)
//	b.AddEdge(0, 1, pactl.DirectionAtom{}, s.Of(0, 1))
//	b.AddEdge(1, 2, pactl.DirectionAtom{}, s.True())
//	b.SetProposition("goal", 2, s.True())
//	g, _ := b.Build()
//
//	pf, _ := partition.NewRoundRobin(2)
//	fragments, _ := g.Fragments(pf)
//	checker, _ := pactl.NewChecker(fragments, []pactl.Solver[bitset.Colors]{s}, nil)
//
//	result, err := checker.Verify(ctx, formula.EF(formula.Prop("goal")))
//	fmt.Println(s.Members(result.At(0))) // [0 1]
//
// # Formulas
//
// The formula package defines CTL with past operators and direction
// restrictions (EX, AX, EF, AF, EG, AG, EU, AU) together with hybrid
// operators: Bind (↓x), At (@x) and first-order Exists/Forall over states.
// Verify normalizes the formula and evaluates every distinct sub-formula once.
//
// # Transports
//
// By default the partitions of a Verify call run as goroutines that meet at a
// shared barrier. WithNATS runs the rounds over NATS subjects; the partitions of
// a session find each other in a JetStream KV bucket.
//
// # Terminal components
//
// FindTerminalComponents decomposes a graph into its terminal strongly
// connected components for every color at once.
//
// See the examples/ directory for a complete working example.
package pactl
