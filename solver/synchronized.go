package solver

import (
	"sync"

	"github.com/arloliu/pactl/types"
)

// Synchronized serializes every call to the wrapped solver with a mutex.
type Synchronized[C any] struct {
	mu    sync.Mutex
	inner types.Solver[C]
}

var _ types.Solver[int] = (*Synchronized[int])(nil)

// NewSynchronized wraps inner. Wrapping an already synchronized solver returns it unchanged.
func NewSynchronized[C any](inner types.Solver[C]) *Synchronized[C] {
	if s, ok := inner.(*Synchronized[C]); ok {
		return s
	}

	return &Synchronized[C]{inner: inner}
}

// Unwrap returns the wrapped solver.
func (s *Synchronized[C]) Unwrap() types.Solver[C] {
	return s.inner
}

func (s *Synchronized[C]) True() C {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.True()
}

func (s *Synchronized[C]) False() C {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.False()
}

func (s *Synchronized[C]) And(a, b C) C {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.And(a, b)
}

func (s *Synchronized[C]) Or(a, b C) C {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.Or(a, b)
}

func (s *Synchronized[C]) Not(a C) C {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.Not(a)
}

func (s *Synchronized[C]) AndNot(a, b C) C {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.AndNot(a, b)
}

func (s *Synchronized[C]) IsEmpty(a C) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.IsEmpty(a)
}

func (s *Synchronized[C]) Equal(a, b C) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.Equal(a, b)
}

func (s *Synchronized[C]) Minimize(a C) C {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.Minimize(a)
}

func (s *Synchronized[C]) Cardinality(a C) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.Cardinality(a)
}

func (s *Synchronized[C]) ByteSize(a C) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.ByteSize(a)
}

func (s *Synchronized[C]) Encode(dst []byte, a C) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.Encode(dst, a)
}

func (s *Synchronized[C]) Decode(b []byte) (C, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inner.Decode(b)
}

// TransferTo re-homes a into other. Transferring into s itself returns a unchanged.
func (s *Synchronized[C]) TransferTo(a C, other types.Solver[C]) (C, error) {
	if other == types.Solver[C](s) {
		return a, nil
	}
	// Encode under our lock, decode under theirs, so two synchronized solvers
	// transferring into each other cannot deadlock.
	s.mu.Lock()
	buf := s.inner.Encode(nil, a)
	s.mu.Unlock()

	return other.Decode(buf)
}
