package testgraph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/arloliu/pactl/solver/bitset"
	"github.com/arloliu/pactl/types"
)

// Diff lists the states in [0, states) where want and got disagree.
func Diff(s *bitset.Solver, states int, want, got types.StateMap[bitset.Colors]) []string {
	var out []string
	for st := range states {
		key := types.State(st) //nolint:gosec // small test graphs
		w, g := want.Get(key, s), got.Get(key, s)
		if !s.Equal(w, g) {
			out = append(out, fmt.Sprintf("state %d: want %v, got %v", st, s.Members(w), s.Members(g)))
		}
	}

	return out
}

// Complement returns ¬m over every state in [0, states).
func Complement(s *bitset.Solver, states int, m types.StateMap[bitset.Colors]) types.StateMap[bitset.Colors] {
	out := make(types.StateMap[bitset.Colors], states)
	for st := range states {
		key := types.State(st) //nolint:gosec // small test graphs
		if v := s.Not(m.Get(key, s)); !s.IsEmpty(v) {
			out[key] = v
		}
	}

	return out
}

// TerminalComponents returns, for every color, the sorted bottom strongly
// connected components of the graph restricted to that color. Components are
// rendered as comma-separated state lists and sorted.
func TerminalComponents(g *Graph, s *bitset.Solver) map[uint][]string {
	n := g.StateCount()
	out := make(map[uint][]string, s.Size())
	for c := range s.Size() {
		reach := make([][]bool, n)
		for st := range n {
			reach[st] = reachable(g, c, st)
		}

		seen := make(map[string]struct{})
		for st := range n {
			bottom := true
			for t, ok := range reach[st] {
				if ok && !reach[t][st] {
					bottom = false
					break
				}
			}
			if !bottom {
				continue
			}
			var members []string
			for t, ok := range reach[st] {
				if ok {
					members = append(members, fmt.Sprint(t))
				}
			}
			seen[strings.Join(members, ",")] = struct{}{}
		}

		comps := make([]string, 0, len(seen))
		for k := range seen {
			comps = append(comps, k)
		}
		slices.Sort(comps)
		out[c] = comps
	}

	return out
}

// reachable returns the states reachable from start (including start) along
// edges enabled for color c.
func reachable(g *Graph, c uint, start int) []bool {
	seen := make([]bool, g.StateCount())
	seen[start] = true
	stack := []int{start}
	for len(stack) > 0 {
		st := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, t := range g.Step(types.State(st), true) { //nolint:gosec // small test graphs
			if t.Bound.Test(c) && !seen[t.Target] {
				seen[t.Target] = true
				stack = append(stack, int(t.Target))
			}
		}
	}

	return seen
}
