package formula

import (
	"slices"

	"github.com/arloliu/pactl/types"
)

// Substitute replaces the free occurrences of variable name in f with state.
//
// Reference{name} becomes Location{state} and At{name, φ} becomes AtState{state, φ}.
// Binders that rebind name shadow it, so their bodies are left untouched.
func Substitute(f Formula, name string, state types.State) Formula {
	switch n := f.(type) {
	case Reference:
		if n.Name == name {
			return Location{State: state}
		}

		return n
	case Not:
		return Not{Inner: Substitute(n.Inner, name, state)}
	case And:
		return And{Left: Substitute(n.Left, name, state), Right: Substitute(n.Right, name, state)}
	case Or:
		return Or{Left: Substitute(n.Left, name, state), Right: Substitute(n.Right, name, state)}
	case Implies:
		return Implies{Left: Substitute(n.Left, name, state), Right: Substitute(n.Right, name, state)}
	case Equals:
		return Equals{Left: Substitute(n.Left, name, state), Right: Substitute(n.Right, name, state)}
	case Next:
		n.Inner = Substitute(n.Inner, name, state)
		return n
	case Future:
		n.Inner = Substitute(n.Inner, name, state)
		return n
	case Globally:
		n.Inner = Substitute(n.Inner, name, state)
		return n
	case Until:
		n.Path = Substitute(n.Path, name, state)
		n.Reach = Substitute(n.Reach, name, state)

		return n
	case Bind:
		if n.Name == name {
			return n
		}

		return Bind{Name: n.Name, Inner: Substitute(n.Inner, name, state)}
	case At:
		inner := Substitute(n.Inner, name, state)
		if n.Name == name {
			return AtState{State: state, Inner: inner}
		}

		return At{Name: n.Name, Inner: inner}
	case AtState:
		return AtState{State: n.State, Inner: Substitute(n.Inner, name, state)}
	case Exists:
		if n.Name == name {
			return n
		}
		out := Exists{Name: n.Name, Inner: Substitute(n.Inner, name, state)}
		if n.Domain != nil {
			out.Domain = Substitute(n.Domain, name, state)
		}

		return out
	case Forall:
		if n.Name == name {
			return n
		}
		out := Forall{Name: n.Name, Inner: Substitute(n.Inner, name, state)}
		if n.Domain != nil {
			out.Domain = Substitute(n.Domain, name, state)
		}

		return out
	default:
		return f
	}
}

// FreeVariables returns the sorted names of the state variables free in f.
func FreeVariables(f Formula) []string {
	seen := make(map[string]struct{})
	collectFree(f, nil, seen)

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	slices.Sort(out)

	return out
}

func collectFree(f Formula, bound []string, seen map[string]struct{}) {
	switch n := f.(type) {
	case Reference:
		if !slices.Contains(bound, n.Name) {
			seen[n.Name] = struct{}{}
		}

		return
	case At:
		if !slices.Contains(bound, n.Name) {
			seen[n.Name] = struct{}{}
		}
	case Bind:
		collectFree(n.Inner, append(slices.Clip(bound), n.Name), seen)
		return
	case Exists:
		inner := append(slices.Clip(bound), n.Name)
		if n.Domain != nil {
			collectFree(n.Domain, inner, seen)
		}
		collectFree(n.Inner, inner, seen)

		return
	case Forall:
		inner := append(slices.Clip(bound), n.Name)
		if n.Domain != nil {
			collectFree(n.Domain, inner, seen)
		}
		collectFree(n.Inner, inner, seen)

		return
	}
	for _, c := range Children(f) {
		collectFree(c, bound, seen)
	}
}
