// Package dedup filters duplicate transactions out of import batches:
// exact matching against the persisted hash index, and fuzzy grouping
// of near-identical rows from repeated exports. Dedup never raises; it
// only filters and reports what it removed.
package dedup

import (
	"github.com/bits-and-blooms/bloom/v3"
)

// minBloomCapacity keeps the filter usable for tiny histories.
const minBloomCapacity = 1024

// HashIndex is the set of transaction hashes already persisted. The
// bloom filter answers the common "never seen" case without touching
// the map; the map confirms positives. Append-only within an import:
// hashes are added as rows are accepted, never removed.
type HashIndex struct {
	filter *bloom.BloomFilter
	seen   map[string]struct{}
}

// NewHashIndex builds an index over the given persisted hashes.
func NewHashIndex(hashes []string) *HashIndex {
	capacity := uint(len(hashes))
	if capacity < minBloomCapacity {
		capacity = minBloomCapacity
	}
	idx := &HashIndex{
		filter: bloom.NewWithEstimates(capacity, 0.01),
		seen:   make(map[string]struct{}, len(hashes)),
	}
	for _, h := range hashes {
		idx.Add(h)
	}
	return idx
}

// Seen reports whether the hash is already in the index.
func (i *HashIndex) Seen(hash string) bool {
	if !i.filter.TestString(hash) {
		return false
	}
	_, ok := i.seen[hash]
	return ok
}

// Add records a hash.
func (i *HashIndex) Add(hash string) {
	i.filter.AddString(hash)
	i.seen[hash] = struct{}{}
}

// Len returns the number of distinct hashes indexed.
func (i *HashIndex) Len() int {
	return len(i.seen)
}
