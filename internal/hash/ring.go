// Package hash provides the consistent hash ring used to place states on partitions.
package hash

import (
	"encoding/binary"
	"slices"
	"strconv"

	"github.com/zeebo/xxh3"
)

// Ring implements a consistent hash ring with virtual nodes.
//
// The ring maps 32-bit keys (state ids) onto a fixed set of partitions. Adding a
// partition only moves the keys that land on its virtual nodes.
type Ring struct {
	// nodes contains all virtual nodes on the ring, sorted by hash
	nodes []virtualNode

	// partitions is the number of partitions placed on the ring
	partitions int

	// seed for hash function (0 means unseeded)
	seed uint64
}

// virtualNode represents a virtual node on the hash ring.
type virtualNode struct {
	hash  uint64 // Position on the ring
	owner int    // Partition owning this virtual node
}

// NewRing creates a ring over partitions [0, partitions).
//
// Parameters:
//   - partitions: Number of partitions to place on the ring
//   - virtualNodes: Number of virtual nodes per partition (higher = better distribution)
//   - seed: Seed for hash function (0 for the unseeded xxh3 variant)
//
// Returns:
//   - *Ring: Initialized hash ring
//
// Example:
//
//	ring := hash.NewRing(4, 150, 0)
//	owner := ring.Lookup(42)
func NewRing(partitions int, virtualNodes int, seed uint64) *Ring {
	partitions = max(partitions, 0)
	virtualNodes = max(virtualNodes, 1)

	ring := &Ring{
		nodes:      make([]virtualNode, 0, partitions*virtualNodes),
		partitions: partitions,
		seed:       seed,
	}
	for p := range partitions {
		ring.addPartition(p, virtualNodes)
	}

	// Sort nodes by hash for binary search; ties resolve to the lower partition.
	slices.SortFunc(ring.nodes, func(a, b virtualNode) int {
		if a.hash != b.hash {
			if a.hash < b.hash {
				return -1
			}

			return 1
		}

		return a.owner - b.owner
	})

	return ring
}

// Lookup returns the partition owning key, or -1 for an empty ring.
//
// Uses binary search to find the first virtual node whose hash is >= the key hash,
// wrapping around to the first node past the end of the ring.
func (r *Ring) Lookup(key uint32) int {
	if len(r.nodes) == 0 {
		return -1
	}

	var kb [4]byte
	binary.LittleEndian.PutUint32(kb[:], key)
	h := r.hash(kb[:])

	idx, _ := slices.BinarySearchFunc(r.nodes, h, func(node virtualNode, t uint64) int {
		if node.hash < t {
			return -1
		}
		if node.hash > t {
			return 1
		}

		return 0
	})
	if idx >= len(r.nodes) {
		idx = 0
	}

	return r.nodes[idx].owner
}

// Partitions returns the number of partitions on the ring.
func (r *Ring) Partitions() int {
	return r.partitions
}

// Size returns the total number of virtual nodes on the ring.
func (r *Ring) Size() int {
	return len(r.nodes)
}

// addPartition adds the virtual nodes of partition p to the ring.
func (r *Ring) addPartition(p int, virtualNodes int) {
	name := "partition-" + strconv.Itoa(p)
	for i := range virtualNodes {
		// Fold the partition name, then the vnode index using the previous hash as seed.
		var h uint64
		if r.seed != 0 {
			h = xxh3.HashStringSeed(name, r.seed)
		} else {
			h = xxh3.HashString(name)
		}

		var ib [8]byte
		binary.LittleEndian.PutUint64(ib[:], uint64(i)) //nolint:gosec
		h = xxh3.HashSeed(ib[:], h)

		r.nodes = append(r.nodes, virtualNode{hash: h, owner: p})
	}
}

func (r *Ring) hash(b []byte) uint64 {
	if r.seed != 0 {
		return xxh3.HashSeed(b, r.seed)
	}

	return xxh3.Hash(b)
}
