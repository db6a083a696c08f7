package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahej/vectordb"
	"github.com/sahej/vectordb/pkg/index"
)

// SearchQuery mirrors the boundary JSON shape of §6.
type SearchQuery struct {
	LibraryID      string
	Embedding      []float32
	K              int
	MetadataFilter map[string]any
}

// SearchResult pairs a cosine distance with the chunk it was computed
// against.
type SearchResult struct {
	Distance float64
	Chunk    Chunk
}

// Search runs a k-NN query against a library's index, then applies an
// optional post-selection metadata filter (§4.4 step 4: filtering happens
// after k-NN selection, so the result set may shrink below k).
func (s *Store) Search(q SearchQuery) ([]SearchResult, error) {
	s.mu.RLock()
	lib, ok := s.libraries[q.LibraryID]
	if !ok || !lib.IsIndexed {
		s.mu.RUnlock()
		return []SearchResult{}, nil
	}
	if !vectordb.IsFinite(q.Embedding) {
		s.mu.RUnlock()
		return nil, vectordb.WrapError("search", vectordb.ErrInvalidEmbedding)
	}
	if len(q.Embedding) != s.config.EmbeddingDimension {
		s.mu.RUnlock()
		return nil, vectordb.WrapError("search", vectordb.NewDimensionError(s.config.EmbeddingDimension, len(q.Embedding)))
	}

	cacheKey := ""
	if s.cache != nil {
		cacheKey = s.searchCacheKey(q)
		if cached, hit := s.cache.Get(cacheKey); hit {
			s.mu.RUnlock()
			return filterAndConvert(cached, q.MetadataFilter), nil
		}
	}

	idx := s.indexes[q.LibraryID]
	s.mu.RUnlock()

	// q.K == 0 is a valid request for zero results (§8 boundary: "k = 0
	// returns empty"); only the REST boundary layer defaults an omitted k
	// to 1, not the store itself.
	raw, err := idx.Search(q.Embedding, q.K)
	if err != nil {
		return nil, vectordb.WrapError("search", err)
	}

	if s.cache != nil {
		s.mu.Lock()
		s.cache.Add(cacheKey, raw)
		s.mu.Unlock()
	}

	return filterAndConvert(raw, q.MetadataFilter), nil
}

func filterAndConvert(raw []index.Result, filter map[string]any) []SearchResult {
	out := make([]SearchResult, 0, len(raw))
	for _, r := range raw {
		ref, _ := r.Chunk.Ref.(indexedChunkRef)
		if !matchesFilter(ref.Metadata, filter) {
			continue
		}
		out = append(out, SearchResult{
			Distance: r.Distance,
			Chunk: Chunk{
				Logged:    Logged{ID: r.Chunk.ID, Metadata: cloneMetadata(ref.Metadata)},
				Text:      ref.Text,
				Embedding: r.Chunk.Embedding,
			},
		})
	}
	return out
}

func matchesFilter(metadata map[string]any, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := metadata[k]
		if !ok {
			return false
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func (s *Store) searchCacheKey(q SearchQuery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%d|", q.LibraryID, q.K)
	for _, v := range q.Embedding {
		fmt.Fprintf(&b, "%v,", v)
	}
	b.WriteByte('|')
	keys := make([]string, 0, len(q.MetadataFilter))
	for k := range q.MetadataFilter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v,", k, q.MetadataFilter[k])
	}
	return b.String()
}
