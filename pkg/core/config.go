package core

import "time"

// IndexClass identifies a pluggable index strategy, both in configuration
// and in the snapshot file.
type IndexClass string

const (
	IndexClassLSH   IndexClass = "lsh"
	IndexClassExact IndexClass = "exact"
)

// LSHParams are the tunable random-hyperplane LSH parameters.
type LSHParams struct {
	NPlanes int   `json:"n_planes"`
	NTables int   `json:"n_tables"`
	Seed    int64 `json:"random_seed"`
}

// DefaultLSHParams returns the spec's defaults.
func DefaultLSHParams() LSHParams {
	return LSHParams{NPlanes: 8, NTables: 4, Seed: 42}
}

// Config holds everything needed to construct a Store.
type Config struct {
	EmbeddingDimension int        `json:"embedding_dimension"`
	IndexClass         IndexClass `json:"index_class"`
	LSH                LSHParams  `json:"lsh"`

	DataDir       string        `json:"data_dir"`
	SaveInterval  time.Duration `json:"save_interval"`
	CheckInterval time.Duration `json:"check_interval"`
	SeedFile      string        `json:"seed_file"`
	WatchSeedFile bool          `json:"watch_seed_file"`

	// CacheSize bounds the optional search-result LRU cache. Zero disables
	// caching entirely.
	CacheSize int `json:"cache_size"`

	Logger Logger      `json:"-"`
	IDGen  IDGenerator `json:"-"`
}

// DefaultConfig returns the specification's defaults.
func DefaultConfig() Config {
	return Config{
		EmbeddingDimension: 1024,
		IndexClass:         IndexClassLSH,
		LSH:                DefaultLSHParams(),
		DataDir:            "data",
		SaveInterval:       30 * time.Second,
		CheckInterval:      5 * time.Second,
		CacheSize:          0,
		Logger:             NopLogger(),
		IDGen:              defaultIDGenerator,
	}
}

func (c *Config) withDefaults() {
	if c.EmbeddingDimension <= 0 {
		c.EmbeddingDimension = 1024
	}
	if c.IndexClass == "" {
		c.IndexClass = IndexClassLSH
	}
	if c.LSH.NPlanes <= 0 {
		c.LSH.NPlanes = 8
	}
	if c.LSH.NTables <= 0 {
		c.LSH.NTables = 4
	}
	if c.LSH.Seed == 0 {
		c.LSH.Seed = 42
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.SaveInterval <= 0 {
		c.SaveInterval = 30 * time.Second
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = NopLogger()
	}
	if c.IDGen == nil {
		c.IDGen = defaultIDGenerator
	}
}
