// Package graph provides an in-memory, color-guarded transition system and the
// per-partition Fragment views the checker consumes.
//
// Build a system with a Builder, then split it with Explicit.Fragments:
//
//	b := graph.NewBuilder[bitset.Colors](s, 3)
//	b.AddEdge(0, 1, types.DirectionAtom{Name: "x", Facet: types.Positive}, s.Of(0, 1))
//	b.AddEdge(1, 2, types.DirectionAtom{Name: "x", Facet: types.Positive}, s.True())
//	b.SetProposition("goal", 2, s.True())
//	g, err := b.Build()
//	frags, err := g.Fragments(pf)
//
// The system is immutable once built, so fragments share it without locking.
package graph
