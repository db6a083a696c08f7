package index

import (
	"fmt"
	"sort"
	"sync"
)

// ExactIndex is a brute-force cosine-distance index. It holds chunks in
// insertion order and re-scores every stored vector on each search, making
// it the correctness baseline the spec calls for — O(N*d) per query, but
// never wrong, and never returning fewer candidates than exist.
type ExactIndex struct {
	mu        sync.RWMutex
	dimension int
	chunks    []Chunk // insertion order, doubles as the tie-break order
}

// NewExactIndex creates an empty exact index over vectors of the given
// dimension.
func NewExactIndex(dimension int) *ExactIndex {
	return &ExactIndex{dimension: dimension}
}

func (e *ExactIndex) Algorithm() string { return "exact" }

// Insert appends the chunk to the index.
func (e *ExactIndex) Insert(c Chunk) error {
	if len(c.Embedding) != e.dimension {
		return fmt.Errorf("dimension mismatch: expected %d, got %d", e.dimension, len(c.Embedding))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.chunks = append(e.chunks, c)
	return nil
}

// exactCandidate pairs a chunk with its similarity and insertion position,
// so ties can be broken by insertion order.
type exactCandidate struct {
	chunk      Chunk
	similarity float64
	seq        int
}

// Search normalizes the query once, computes cosine similarity against
// every stored chunk, and returns the top k as (1-similarity, chunk),
// sorted ascending by distance with insertion-order tie-breaks.
func (e *ExactIndex) Search(query []float32, k int) ([]Result, error) {
	if len(query) != e.dimension {
		return nil, fmt.Errorf("dimension mismatch: expected %d, got %d", e.dimension, len(query))
	}
	if k <= 0 {
		return []Result{}, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.chunks) == 0 {
		return []Result{}, nil
	}

	queryNorm := normalize(query, 1e-10)

	candidates := make([]exactCandidate, len(e.chunks))
	for i, c := range e.chunks {
		chunkNorm := normalize(c.Embedding, 1e-10)
		candidates[i] = exactCandidate{chunk: c, similarity: dot(queryNorm, chunkNorm), seq: i}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].similarity != candidates[j].similarity {
			return candidates[i].similarity > candidates[j].similarity
		}
		return candidates[i].seq < candidates[j].seq
	})

	if k < len(candidates) {
		candidates = candidates[:k]
	}

	results := make([]Result, len(candidates))
	for i, cand := range candidates {
		results[i] = Result{Distance: 1 - cand.similarity, Chunk: cand.chunk}
	}
	return results, nil
}

// Clear removes all chunks from the index.
func (e *ExactIndex) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chunks = nil
}

// Size returns the number of chunks currently held.
func (e *ExactIndex) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.chunks)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
