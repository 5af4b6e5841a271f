package comm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/arloliu/pactl/internal/barrier"
	"github.com/arloliu/pactl/types"
)

// SharedConfig configures the shared-memory transport.
type SharedConfig struct {
	// PoolSize is the number of idle buffers the session pool keeps.
	PoolSize int

	// MaxBufferSize drops recycled buffers larger than this many bytes (0 keeps all).
	MaxBufferSize int
}

// Shared opens sessions whose partitions run in the same process.
type Shared struct {
	cfg SharedConfig
}

var _ Transport = (*Shared)(nil)

// NewShared creates a shared-memory transport.
func NewShared(cfg SharedConfig) *Shared {
	return &Shared{cfg: cfg}
}

// Open returns n endpoints sharing one barrier and buffer pool. A single
// partition gets Noop.
func (s *Shared) Open(ctx context.Context, n int) ([]Comm, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: shared session of %d partitions", types.ErrNoPartitions, n)
	}
	if n == 1 {
		return []Comm{Noop{}}, nil
	}

	sess := newSession(n, NewBufferPool(s.cfg.PoolSize, s.cfg.MaxBufferSize))
	out := make([]Comm, n)
	for i := range out {
		out[i] = &sharedEndpoint{sess: sess, id: types.PartitionID(i)}
	}

	return out, nil
}

// session is the state shared by all endpoints of one shared-memory session.
type session struct {
	n       int
	barrier *barrier.Barrier
	pool    *BufferPool

	// inbox[to][from] holds the buffer sent by from in the current round.
	inbox   [][][]byte
	arrived []bool

	closeOnce sync.Once
}

func newSession(n int, pool *BufferPool) *session {
	inbox := make([][][]byte, n)
	for i := range inbox {
		inbox[i] = make([][]byte, n)
	}

	return &session{
		n:       n,
		barrier: barrier.New(n),
		pool:    pool,
		inbox:   inbox,
		arrived: make([]bool, n),
	}
}

type sharedEndpoint struct {
	sess   *session
	id     types.PartitionID
	closed bool
}

var _ Comm = (*sharedEndpoint)(nil)

func (e *sharedEndpoint) ID() types.PartitionID { return e.id }
func (e *sharedEndpoint) Size() int             { return e.sess.n }

// Close breaks the session barrier, so peers still synchronizing fail.
func (e *sharedEndpoint) Close() error {
	e.closed = true
	e.sess.closeOnce.Do(func() {
		e.sess.barrier.Break(types.ErrTransportClosed)
	})

	return nil
}

// Synchronize runs one round of the barrier protocol.
func (e *sharedEndpoint) Synchronize(ctx context.Context, p Participant) (delivered bool, err error) {
	if e.closed {
		return false, types.ErrTransportClosed
	}
	s := e.sess
	defer func() {
		// a failing partition must not leave its peers waiting
		if err != nil && !errors.Is(err, types.ErrBarrierBroken) {
			s.barrier.Break(err)
		}
	}()

	if err := s.barrier.Await(ctx); err != nil {
		return false, err
	}

	// map
	for peer := range s.n {
		if peer == int(e.id) {
			continue
		}
		buf := p.Outbound(types.PartitionID(peer), s.pool.Get())
		if len(buf) == 0 {
			s.pool.Put(buf)
			continue
		}
		s.inbox[peer][e.id] = buf
	}

	if err := s.barrier.Await(ctx); err != nil {
		return false, err
	}

	// reduce
	arrived := false
	for from, buf := range s.inbox[e.id] {
		if buf == nil {
			continue
		}
		s.inbox[e.id][from] = nil
		arrived = true
		if err := p.Inbound(types.PartitionID(from), buf); err != nil {
			return false, fmt.Errorf("partition %d: apply deltas from %d: %w", e.id, from, err)
		}
		s.pool.Put(buf)
	}
	s.arrived[e.id] = arrived

	if err := s.barrier.Await(ctx); err != nil {
		return false, err
	}

	for _, a := range s.arrived {
		if a {
			return true, nil
		}
	}

	return false, nil
}
