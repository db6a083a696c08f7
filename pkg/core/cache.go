package core

import "strings"

// invalidateLibraryCacheLocked drops every cached search result for
// libraryID. The LRU cache has no prefix-eviction primitive, so this
// walks its keys; acceptable since cache sizes are small (§4.4 "Search
// result cache" is a bounded convenience, not a correctness-critical
// path). Caller must hold s.mu and s.cache must be non-nil.
func (s *Store) invalidateLibraryCacheLocked(libraryID string) {
	prefix := libraryID + "|"
	for _, k := range s.cache.Keys() {
		if strings.HasPrefix(k, prefix) {
			s.cache.Remove(k)
		}
	}
}
