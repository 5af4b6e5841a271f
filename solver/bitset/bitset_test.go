package bitset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/pactl/types"
)

func TestSolver_Algebra(t *testing.T) {
	s := New(6)
	a := s.Of(0, 1, 2)
	b := s.Of(2, 3)

	require.Equal(t, []uint{2}, s.Members(s.And(a, b)))
	require.Equal(t, []uint{0, 1, 2, 3}, s.Members(s.Or(a, b)))
	require.Equal(t, []uint{3, 4, 5}, s.Members(s.Not(a)))
	require.Equal(t, []uint{0, 1}, s.Members(s.AndNot(a, b)))

	require.True(t, s.IsEmpty(s.False()))
	require.True(t, s.IsEmpty(s.AndNot(s.And(a, b), a)))
	require.True(t, s.Equal(s.Or(a, s.Not(a)), s.True()))
	require.True(t, s.Equal(s.And(a, b), s.And(b, a)))
	require.InDelta(t, 6, s.Cardinality(s.True()), 0)
}

func TestSolver_OperationsDoNotMutate(t *testing.T) {
	s := New(4)
	a := s.Of(0)
	b := s.Of(1)

	_ = s.Or(a, b)
	_ = s.Not(a)
	require.Equal(t, []uint{0}, s.Members(a))
	require.Equal(t, []uint{1}, s.Members(b))

	all := s.True()
	all.Clear(0)
	require.InDelta(t, 4, s.Cardinality(s.True()), 0)
}

func TestSolver_OfIgnoresOutOfRange(t *testing.T) {
	s := New(3)
	require.Equal(t, []uint{1}, s.Members(s.Of(1, 3, 100)))
}

func TestSolver_EncodeDecode(t *testing.T) {
	s := New(130)
	c := s.Of(0, 64, 129)

	buf := s.Encode([]byte{0xff}, c)
	require.Len(t, buf, 1+s.ByteSize(c))
	require.Equal(t, byte(0xff), buf[0])

	got, err := s.Decode(buf[1:])
	require.NoError(t, err)
	require.True(t, s.Equal(c, got))

	t.Run("truncated", func(t *testing.T) {
		_, err := s.Decode(buf[1:5])
		require.ErrorIs(t, err, types.ErrMalformedMessage)
	})

	t.Run("size mismatch", func(t *testing.T) {
		_, err := New(8).Decode(buf[1:])
		require.ErrorIs(t, err, types.ErrMalformedMessage)
	})
}

func TestSolver_TransferTo(t *testing.T) {
	s := New(8)
	other := New(8)
	c := s.Of(3, 4)

	got, err := s.TransferTo(c, other)
	require.NoError(t, err)
	require.Equal(t, []uint{3, 4}, other.Members(got))

	got.Set(7)
	require.Equal(t, []uint{3, 4}, s.Members(c))

	_, err = s.TransferTo(c, New(9))
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}
