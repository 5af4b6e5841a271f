package partition

import (
	"fmt"

	"github.com/arloliu/pactl/internal/hash"
	"github.com/arloliu/pactl/types"
)

// ConsistentHash places states on partitions with a consistent hash ring.
//
// Growing the partition count only moves the states that land on the new
// partition's virtual nodes, so fragments built for n partitions can be reused
// largely unchanged when a session is rerun with n+1.
type ConsistentHash struct {
	ring         *hash.Ring
	virtualNodes int
	hashSeed     uint64
}

var _ types.PartitionFunction = (*ConsistentHash)(nil)

// ConsistentHashOption configures a ConsistentHash partition function.
type ConsistentHashOption func(*ConsistentHash)

// NewConsistentHash creates a consistent hash partition function over n partitions.
//
// Parameters:
//   - n: Number of partitions
//   - opts: Optional configuration (WithVirtualNodes, WithHashSeed)
//
// Returns:
//   - *ConsistentHash: Initialized partition function
//   - error: ErrNoPartitions if n < 1
//
// Example:
//
//	pf, err := partition.NewConsistentHash(8,
//	    partition.WithVirtualNodes(300),
//	)
func NewConsistentHash(n int, opts ...ConsistentHashOption) (*ConsistentHash, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: consistent hash over %d partitions", types.ErrNoPartitions, n)
	}

	ch := &ConsistentHash{
		virtualNodes: 150, // default
		hashSeed:     0,
	}
	for _, opt := range opts {
		opt(ch)
	}
	ch.ring = hash.NewRing(n, ch.virtualNodes, ch.hashSeed)

	return ch, nil
}

// WithVirtualNodes sets the number of virtual nodes per partition.
//
// Higher values give a more even distribution at the cost of memory.
// Recommended range: 100-300 (default: 150).
func WithVirtualNodes(nodes int) ConsistentHashOption {
	return func(ch *ConsistentHash) {
		ch.virtualNodes = nodes
	}
}

// WithHashSeed sets a custom hash seed.
func WithHashSeed(seed uint64) ConsistentHashOption {
	return func(ch *ConsistentHash) {
		ch.hashSeed = seed
	}
}

// Owner implements types.PartitionFunction.
func (ch *ConsistentHash) Owner(state types.State) types.PartitionID {
	return types.PartitionID(ch.ring.Lookup(uint32(state)))
}

// Size implements types.PartitionFunction.
func (ch *ConsistentHash) Size() int {
	return ch.ring.Partitions()
}
