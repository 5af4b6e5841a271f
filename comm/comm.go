package comm

import (
	"context"

	"github.com/arloliu/pactl/types"
)

// Participant is the local side of a round: the fixed-point instance whose
// pending deltas are sent and to which received deltas are applied.
type Participant interface {
	// Outbound appends the pending deltas for peer to buf and clears them.
	// It returns buf unchanged when nothing is pending.
	Outbound(peer types.PartitionID, buf []byte) []byte

	// Inbound applies a buffer produced by a peer's Outbound.
	Inbound(from types.PartitionID, buf []byte) error
}

// Comm is one partition's endpoint of a session.
type Comm interface {
	// ID returns the partition this endpoint belongs to.
	ID() types.PartitionID

	// Size returns the number of partitions in the session.
	Size() int

	// Synchronize runs one round for p and reports whether any partition
	// received data in it. Every partition of the session must call
	// Synchronize the same number of times.
	Synchronize(ctx context.Context, p Participant) (bool, error)

	// Close releases the endpoint. Other endpoints blocked in Synchronize fail.
	Close() error
}

// Transport opens the endpoints of a new session.
type Transport interface {
	// Open returns n endpoints indexed by partition id.
	Open(ctx context.Context, n int) ([]Comm, error)
}

// Noop is the endpoint of a single-partition session. No round ever delivers data.
type Noop struct{}

var _ Comm = Noop{}

func (Noop) ID() types.PartitionID { return 0 }
func (Noop) Size() int             { return 1 }
func (Noop) Close() error          { return nil }

// Synchronize returns false, or the context error when ctx is done.
func (Noop) Synchronize(ctx context.Context, _ Participant) (bool, error) {
	return false, ctx.Err()
}
