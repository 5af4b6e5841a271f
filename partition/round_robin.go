package partition

import (
	"fmt"

	"github.com/arloliu/pactl/types"
)

// RoundRobin assigns state s to partition s mod n.
type RoundRobin struct {
	n int
}

var _ types.PartitionFunction = (*RoundRobin)(nil)

// NewRoundRobin creates a round-robin partition function over n partitions.
//
// Returns:
//   - *RoundRobin: Initialized partition function
//   - error: ErrNoPartitions if n < 1
//
// Example:
//
//	pf, err := partition.NewRoundRobin(4)
//	pf.Owner(6) // 2
func NewRoundRobin(n int) (*RoundRobin, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: round robin over %d partitions", types.ErrNoPartitions, n)
	}

	return &RoundRobin{n: n}, nil
}

// Owner implements types.PartitionFunction.
func (r *RoundRobin) Owner(state types.State) types.PartitionID {
	return types.PartitionID(int(state) % r.n)
}

// Size implements types.PartitionFunction.
func (r *RoundRobin) Size() int {
	return r.n
}
