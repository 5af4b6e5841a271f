package formula

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/pactl/types"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		f    Formula
		want string
	}{
		{"constant", True{}, "true"},
		{"proposition", Prop("p"), `"p"`},
		{"reference", Reference{Name: "x"}, "$x"},
		{"location", Location{State: 3}, "#3"},
		{"negation", Neg(Prop("p")), `!"p"`},
		{"conjunction", Conj(Prop("a"), Prop("b")), `("a" && "b")`},
		{"ef", EF(Prop("p")), `EF("p")`},
		{"past ag", Globally{Quantifier: Universal, Flow: FlowPast, Inner: Prop("p")}, `AGp("p")`},
		{
			"directed eu",
			Until{Direction: DirProposition{Name: "x", Facet: types.Positive}, Path: True{}, Reach: Prop("p")},
			`EU{"x"+}(true, "p")`,
		},
		{"bind", Bind{Name: "x", Inner: Reference{Name: "x"}}, "bind $x: $x"},
		{"exists domain", Exists{Name: "s", Domain: Prop("d"), Inner: True{}}, `exists $s in "d": true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Key(tt.f))
		})
	}
}

func TestKey_StructuralIdentity(t *testing.T) {
	a := AU(Prop("p"), EX(Prop("q")))
	b := AU(Prop("p"), EX(Prop("q")))
	c := EU(Prop("p"), EX(Prop("q")))

	require.Equal(t, Key(a), Key(b))
	require.NotEqual(t, Key(a), Key(c))

	// nil direction and DirTrue print the same.
	require.Equal(t, Key(EF(Prop("p"))), Key(Future{Inner: Prop("p")}))
}

func TestDirFormula_Matches(t *testing.T) {
	up := types.DirectionAtom{Name: "x", Facet: types.Positive}
	down := types.DirectionAtom{Name: "x", Facet: types.Negative}
	loop := types.DirectionAtom{}

	xUp := DirProposition{Name: "x", Facet: types.Positive}

	require.True(t, DirTrue{}.Matches(loop))
	require.False(t, DirFalse{}.Matches(up))
	require.True(t, xUp.Matches(up))
	require.False(t, xUp.Matches(down))
	require.False(t, xUp.Matches(loop))
	require.True(t, DirNot{Inner: xUp}.Matches(loop))
	require.True(t, DirOr{Left: xUp, Right: DirProposition{Name: "x", Facet: types.Negative}}.Matches(down))
	require.False(t, DirAnd{Left: xUp, Right: DirNot{Inner: xUp}}.Matches(up))
}

func TestNormalize(t *testing.T) {
	t.Run("implies", func(t *testing.T) {
		got := Normalize(Implies{Left: Prop("a"), Right: Prop("b")})
		require.Equal(t, Or{Left: Not{Inner: Prop("a")}, Right: Prop("b")}, got)
	})

	t.Run("equals", func(t *testing.T) {
		got := Normalize(Equals{Left: Prop("a"), Right: Prop("b")})
		want := Or{
			Left:  And{Left: Prop("a"), Right: Prop("b")},
			Right: And{Left: Not{Inner: Prop("a")}, Right: Not{Inner: Prop("b")}},
		}
		require.Equal(t, want, got)
	})

	t.Run("double negation", func(t *testing.T) {
		require.Equal(t, Prop("a"), Normalize(Neg(Neg(Prop("a")))))
		require.Equal(t, False{}, Normalize(Neg(True{})))
	})

	t.Run("implies under negation", func(t *testing.T) {
		got := Normalize(Neg(Implies{Left: Neg(Prop("a")), Right: Prop("b")}))
		require.Equal(t, Not{Inner: Or{Left: Prop("a"), Right: Prop("b")}}, got)
	})

	t.Run("domain restriction", func(t *testing.T) {
		got := Normalize(Exists{Name: "s", Domain: Prop("d"), Inner: Prop("p")})
		want := Exists{Name: "s", Inner: And{Left: At{Name: "s", Inner: Prop("d")}, Right: Prop("p")}}
		require.Equal(t, want, got)

		got = Normalize(Forall{Name: "s", Domain: Prop("d"), Inner: Prop("p")})
		want2 := Forall{Name: "s", Inner: Or{Left: Not{Inner: At{Name: "s", Inner: Prop("d")}}, Right: Prop("p")}}
		require.Equal(t, want2, got)
	})

	t.Run("direction defaults", func(t *testing.T) {
		got := Normalize(Next{Inner: Prop("p")})
		require.Equal(t, Next{Direction: DirTrue{}, Inner: Prop("p")}, got)
	})

	t.Run("idempotent", func(t *testing.T) {
		f := Forall{Name: "x", Domain: Implies{Left: Prop("a"), Right: Prop("b")}, Inner: AG(Equals{Left: Prop("c"), Right: Reference{Name: "x"}})}
		once := Normalize(f)
		require.True(t, IsNormalized(once))
		require.False(t, IsNormalized(f))
		require.Equal(t, once, Normalize(once))
	})
}

func TestSubstitute(t *testing.T) {
	t.Run("reference and at", func(t *testing.T) {
		f := And{Left: Reference{Name: "x"}, Right: At{Name: "x", Inner: EF(Reference{Name: "x"})}}
		got := Substitute(f, "x", 4)
		want := And{Left: Location{State: 4}, Right: AtState{State: 4, Inner: EF(Location{State: 4})}}
		require.Equal(t, want, got)
	})

	t.Run("other names untouched", func(t *testing.T) {
		f := Reference{Name: "y"}
		require.Equal(t, f, Substitute(f, "x", 1))
	})

	t.Run("shadowing", func(t *testing.T) {
		inner := Bind{Name: "x", Inner: Reference{Name: "x"}}
		f := Or{Left: Reference{Name: "x"}, Right: inner}
		got := Substitute(f, "x", 2)
		require.Equal(t, Or{Left: Location{State: 2}, Right: inner}, got)

		ex := Exists{Name: "x", Inner: Reference{Name: "x"}}
		require.Equal(t, ex, Substitute(ex, "x", 2))
	})

	t.Run("until both sides", func(t *testing.T) {
		got := Substitute(EU(Reference{Name: "x"}, Reference{Name: "x"}), "x", 0)
		require.Equal(t, EU(Location{State: 0}, Location{State: 0}), got)
	})
}

func TestFreeVariables(t *testing.T) {
	require.Empty(t, FreeVariables(EF(Prop("p"))))
	require.Equal(t, []string{"x"}, FreeVariables(Reference{Name: "x"}))
	require.Equal(t, []string{"y"}, FreeVariables(Bind{Name: "x", Inner: And{Left: Reference{Name: "x"}, Right: At{Name: "y", Inner: True{}}}}))
	require.Equal(t, []string{"a", "b"}, FreeVariables(Conj(Reference{Name: "b"}, Reference{Name: "a"}, Reference{Name: "b"})))
	require.Empty(t, FreeVariables(Forall{Name: "s", Domain: Reference{Name: "s"}, Inner: Reference{Name: "s"}}))
}
