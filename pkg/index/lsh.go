package index

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
)

// LSHConfig configures a random-hyperplane LSH index.
type LSHConfig struct {
	Dimension int   // vector dimension
	NPlanes   int   // hyperplanes per table (default 8)
	NTables   int   // independent hash tables (default 4)
	Seed      int64 // seed for drawing hyperplanes (default 42)
}

// DefaultLSHConfig returns the spec's default LSH parameters for the given
// dimension.
func DefaultLSHConfig(dimension int) LSHConfig {
	return LSHConfig{
		Dimension: dimension,
		NPlanes:   8,
		NTables:   4,
		Seed:      42,
	}
}

// LSHIndex implements locality-sensitive hashing over random hyperplanes.
// Hamming distance on the signed-projection bit-string approximates
// angular distance; candidates are unioned across tables and then
// exactly re-ranked by cosine distance, so reported distances are true
// cosine distances, not approximations. The spec does not guarantee k
// results: with small NPlanes*NTables and skewed data, a relevant
// neighbor may land in no matched bucket.
type LSHIndex struct {
	mu sync.RWMutex

	dimension int
	nPlanes   int
	nTables   int

	planes [][][]float32        // [table][plane] -> unit-normalized hyperplane
	tables []map[string][]Chunk // [table] hash-key -> chunks in insertion order
	byID   map[string]Chunk     // all indexed chunks, for size/lookups
}

// NewLSHIndex builds an LSH index with fixed, seeded hyperplanes that live
// for the lifetime of the index.
func NewLSHIndex(cfg LSHConfig) *LSHIndex {
	if cfg.NPlanes <= 0 {
		cfg.NPlanes = 8
	}
	if cfg.NTables <= 0 {
		cfg.NTables = 4
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	planes := make([][][]float32, cfg.NTables)
	for t := 0; t < cfg.NTables; t++ {
		planes[t] = make([][]float32, cfg.NPlanes)
		for p := 0; p < cfg.NPlanes; p++ {
			raw := make([]float64, cfg.Dimension)
			for d := 0; d < cfg.Dimension; d++ {
				raw[d] = rng.NormFloat64()
			}
			planes[t][p] = rowNormalize(raw)
		}
	}

	tables := make([]map[string][]Chunk, cfg.NTables)
	for t := range tables {
		tables[t] = make(map[string][]Chunk)
	}

	return &LSHIndex{
		dimension: cfg.Dimension,
		nPlanes:   cfg.NPlanes,
		nTables:   cfg.NTables,
		planes:    planes,
		tables:    tables,
		byID:      make(map[string]Chunk),
	}
}

func (l *LSHIndex) Algorithm() string { return "lsh" }

// rowNormalize converts a raw Gaussian-drawn row into a unit-length
// float32 hyperplane, matching the original's row-wise L2 normalization.
func rowNormalize(raw []float64) []float32 {
	var sumSq float64
	for _, v := range raw {
		sumSq += v * v
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		norm = 1
	}

	out := make([]float32, len(raw))
	for i, v := range raw {
		out[i] = float32(v / norm)
	}
	return out
}

// Insert computes the chunk's bit-string key in every table and appends it
// to the corresponding bucket. A chunk only appears once per table because
// it hashes to exactly one bucket there; deduplication across tables
// happens at search time via the candidate set.
func (l *LSHIndex) Insert(c Chunk) error {
	if len(c.Embedding) != l.dimension {
		return fmt.Errorf("dimension mismatch: expected %d, got %d", l.dimension, len(c.Embedding))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	vhat := normalize(c.Embedding, 1e-10)
	for t := 0; t < l.nTables; t++ {
		key := hashKey(l.planes[t], vhat)
		l.tables[t][key] = append(l.tables[t][key], c)
	}
	l.byID[c.ID] = c
	return nil
}

// hashKey emits a bit-string of '1'/'0' per plane, '0' on an exact-zero
// projection.
func hashKey(planes [][]float32, vhat []float32) string {
	var sb strings.Builder
	sb.Grow(len(planes))
	for _, plane := range planes {
		if dot(plane, vhat) > 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Search unions the candidates whose bucket matches the query's bit-string
// in each table, deduplicates by chunk ID, then exactly re-ranks the
// candidate set by cosine distance and returns the first k.
func (l *LSHIndex) Search(query []float32, k int) ([]Result, error) {
	if len(query) != l.dimension {
		return nil, fmt.Errorf("dimension mismatch: expected %d, got %d", l.dimension, len(query))
	}
	if k <= 0 {
		return []Result{}, nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	qhat := normalize(query, 1e-10)

	candidates := make(map[string]Chunk)
	for t := 0; t < l.nTables; t++ {
		key := hashKey(l.planes[t], qhat)
		for _, c := range l.tables[t][key] {
			candidates[c.ID] = c
		}
	}
	if len(candidates) == 0 {
		return []Result{}, nil
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		chunkNorm := normalize(c.Embedding, 1e-10)
		dist := 1 - dot(qhat, chunkNorm)
		results = append(results, Result{Distance: dist, Chunk: c})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Clear removes all entries. The hyperplanes themselves are immutable and
// are not regenerated.
func (l *LSHIndex) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for t := range l.tables {
		l.tables[t] = make(map[string][]Chunk)
	}
	l.byID = make(map[string]Chunk)
}

// Size returns the number of distinct chunks held by the index.
func (l *LSHIndex) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}

// Stats reports bucket occupancy, useful for tuning NPlanes/NTables.
func (l *LSHIndex) Stats() map[string]any {
	l.mu.RLock()
	defer l.mu.RUnlock()

	totalBuckets, totalItems, maxBucket := 0, 0, 0
	for _, table := range l.tables {
		totalBuckets += len(table)
		for _, bucket := range table {
			totalItems += len(bucket)
			if len(bucket) > maxBucket {
				maxBucket = len(bucket)
			}
		}
	}

	avg := 0.0
	if totalBuckets > 0 {
		avg = float64(totalItems) / float64(totalBuckets)
	}

	return map[string]any{
		"num_vectors":     len(l.byID),
		"num_tables":      l.nTables,
		"num_planes":      l.nPlanes,
		"total_buckets":   totalBuckets,
		"avg_bucket_size": avg,
		"max_bucket_size": maxBucket,
	}
}
