// Package index provides pluggable approximate-nearest-neighbor indexes
// over chunks keyed by their embedding.
package index

import "math"

// Chunk is the minimal view an index needs of an indexed item: an opaque
// identity, the vector to hash/compare, and a reference the caller can use
// to get back to the full entity. Ref is kept as `any` so pkg/core can
// pass its own payload (text and metadata) through without this package
// importing core.
type Chunk struct {
	ID        string
	Embedding []float32
	Ref       any
}

// Result is one (distance, chunk) pair returned from Search, ordered by
// ascending distance.
type Result struct {
	Distance float64
	Chunk    Chunk
}

// Index is the polymorphic contract every concrete strategy satisfies.
// Implementations own their own lock so they remain safe to use outside a
// store-held lock (e.g. a future streaming path); per spec, when the store
// lock is held, index locks are always acquired after it, never before.
type Index interface {
	// Insert adds a chunk's vector to the index, keyed by the chunk's ID.
	Insert(c Chunk) error

	// Search returns at most k results ordered by ascending distance.
	// Fewer than k results are permitted. An empty index returns an empty
	// slice, never an error.
	Search(query []float32, k int) ([]Result, error)

	// Clear removes all entries. Dimension remains fixed.
	Clear()

	// Size returns the number of chunks currently held by the index.
	Size() int

	// Algorithm returns the index-class identifier used in snapshots
	// (e.g. "lsh", "exact").
	Algorithm() string
}

// normalize returns a unit-length copy of v, regularized by eps to avoid a
// divide-by-zero on an all-zero vector.
func normalize(v []float32, eps float64) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq) + eps

	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
