package partition

import (
	"fmt"

	"github.com/arloliu/pactl/types"
)

// Func adapts an owner function to types.PartitionFunction.
//
// The function must be pure and return values in [0, n).
type Func struct {
	n     int
	owner func(types.State) types.PartitionID
}

var _ types.PartitionFunction = (*Func)(nil)

// NewFunc wraps owner as a partition function over n partitions.
func NewFunc(n int, owner func(types.State) types.PartitionID) (*Func, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: function over %d partitions", types.ErrNoPartitions, n)
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: nil owner function", types.ErrInvalidConfig)
	}

	return &Func{n: n, owner: owner}, nil
}

// Owner implements types.PartitionFunction.
func (f *Func) Owner(state types.State) types.PartitionID {
	return f.owner(state)
}

// Size implements types.PartitionFunction.
func (f *Func) Size() int {
	return f.n
}

// Validate checks that every state in [0, states) maps into [0, Size).
func Validate(pf types.PartitionFunction, states int) error {
	n := pf.Size()
	for s := range states {
		p := pf.Owner(types.State(s)) //nolint:gosec // state count fits in uint32
		if p < 0 || int(p) >= n {
			return fmt.Errorf("%w: state %d owned by partition %d of %d", types.ErrFragmentMismatch, s, p, n)
		}
	}

	return nil
}
