package core

import (
	"sync"
	"time"

	"github.com/sahej/vectordb"
	"github.com/sahej/vectordb/pkg/index"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Store is the thread-safe, hierarchical in-memory vector store: a map of
// libraries, a map of per-library indexes, and the configuration that
// governs both. A single mutex guards the library/index maps and all
// descendant traversal (see SPEC_FULL.md §4.4/§5 for the reentrancy
// discipline: public methods acquire mu; composite operations call
// unexported *Locked helpers directly instead of re-entering the public
// API, since sync.RWMutex is not safely reentrant).
type Store struct {
	mu sync.RWMutex

	libraries map[string]*Library
	indexes   map[string]index.Index

	config Config

	needsSave bool
	lastSave  time.Time

	cache *lru.Cache[string, []index.Result]
}

// New creates an empty Store from cfg, applying defaults for any zero
// fields.
func New(cfg Config) *Store {
	cfg.withDefaults()

	s := &Store{
		libraries: make(map[string]*Library),
		indexes:   make(map[string]index.Index),
		config:    cfg,
		lastSave:  time.Now(),
	}

	if cfg.CacheSize > 0 {
		c, err := lru.New[string, []index.Result](cfg.CacheSize)
		if err == nil {
			s.cache = c
		}
	}

	return s
}

// Config returns a copy of the store's active configuration.
func (s *Store) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// IsEmpty reports whether the store holds no libraries, the condition
// under which §4.4's Seeding convenience applies (first startup, no
// snapshot present).
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.libraries) == 0
}

// newIndex builds a fresh index instance for the given class using the
// store's configured dimension and parameters, falling back to the
// configured default class for an unrecognized identifier.
func (s *Store) newIndex(class IndexClass) index.Index {
	switch class {
	case IndexClassExact:
		return index.NewExactIndex(s.config.EmbeddingDimension)
	case IndexClassLSH:
		return index.NewLSHIndex(index.LSHConfig{
			Dimension: s.config.EmbeddingDimension,
			NPlanes:   s.config.LSH.NPlanes,
			NTables:   s.config.LSH.NTables,
			Seed:      s.config.LSH.Seed,
		})
	default:
		s.config.Logger.Warn("unknown index class, falling back to default", "class", string(class), "default", string(s.config.IndexClass))
		if class == s.config.IndexClass {
			// Avoid infinite recursion if the configured default is itself
			// unrecognized; fall back to LSH directly.
			return index.NewLSHIndex(index.DefaultLSHConfig(s.config.EmbeddingDimension))
		}
		return s.newIndex(s.config.IndexClass)
	}
}

// markDirtyLocked flags the store as needing a snapshot on the next tick.
// Caller must hold mu.
func (s *Store) markDirtyLocked() {
	s.needsSave = true
}

// validateEmbedding enforces invariant 3 of §3: correct dimension, no
// NaN/Inf. Reads only config, which is immutable after New/LoadSnapshot.
func (s *Store) validateEmbedding(embedding []float32) error {
	if len(embedding) != s.config.EmbeddingDimension {
		return vectordb.NewDimensionError(s.config.EmbeddingDimension, len(embedding))
	}
	if !vectordb.IsFinite(embedding) {
		return vectordb.ErrInvalidEmbedding
	}
	return nil
}
