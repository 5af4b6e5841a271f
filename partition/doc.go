// Package partition provides PartitionFunction implementations.
//
// A partition function decides which fragment owns each state. Every fragment of
// a session must use an equal function; all implementations here are pure and
// deterministic, so two values built with the same arguments agree.
//
// Available functions:
//   - RoundRobin: state s is owned by s mod n
//   - Block: contiguous ranges of states per partition
//   - ConsistentHash: xxh3 hash ring with virtual nodes
//   - Func: adapts an arbitrary owner function
package partition
