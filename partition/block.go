package partition

import (
	"fmt"

	"github.com/arloliu/pactl/types"
)

// Block splits [0, states) into n contiguous ranges of near-equal length.
//
// The first states mod n partitions get one extra state. States at or beyond the
// declared count are owned by the last partition.
type Block struct {
	n      int
	states int
	size   int // states per partition, rounded down
	extra  int // partitions holding size+1 states
}

var _ types.PartitionFunction = (*Block)(nil)

// NewBlock creates a block partition of states over n partitions.
func NewBlock(n int, states int) (*Block, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: block over %d partitions", types.ErrNoPartitions, n)
	}
	if states < 0 {
		return nil, fmt.Errorf("%w: negative state count %d", types.ErrInvalidConfig, states)
	}

	return &Block{n: n, states: states, size: states / n, extra: states % n}, nil
}

// Owner implements types.PartitionFunction.
func (b *Block) Owner(state types.State) types.PartitionID {
	s := int(state)
	if s >= b.states {
		return types.PartitionID(b.n - 1)
	}

	// the first extra partitions hold size+1 states each
	head := b.extra * (b.size + 1)
	if s < head {
		return types.PartitionID(s / (b.size + 1))
	}

	return types.PartitionID(b.extra + (s-head)/b.size)
}

// Size implements types.PartitionFunction.
func (b *Block) Size() int {
	return b.n
}
