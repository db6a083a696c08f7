package core

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// Scenario 5 of spec.md §8: snapshot -> reload -> search matches
// byte-for-byte on distance against the same query, given identical
// seeding.
func TestSnapshot_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := testConfig(3, IndexClassLSH)
	cfg.DataDir = dir
	s1 := New(cfg)
	s1.CreateLibrary("L1", map[string]any{"team": "search"})
	mustAddDocWithChunks(t, s1, "L1", "doc", map[string][]float32{
		"A": {1, 0, 0},
		"B": {0, 1, 0},
		"C": {1, 1, 0},
	})
	s1.IndexLibrary("L1")

	buf, ok := s1.snapshot(true)
	if !ok {
		t.Fatalf("snapshot(true) returned ok=false")
	}
	sn := NewSnapshotter(s1)
	if err := sn.writeAtomic(buf); err != nil {
		t.Fatalf("writeAtomic: %v", err)
	}

	query := []float32{1, 0, 0}
	before, err := s1.Search(SearchQuery{LibraryID: "L1", Embedding: query, K: 3})
	if err != nil {
		t.Fatalf("Search before reload: %v", err)
	}

	cfg2 := testConfig(3, IndexClassLSH)
	cfg2.DataDir = dir
	s2 := New(cfg2)
	if err := s2.LoadSnapshot(); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	if got := s2.GetChunkCount("L1"); got != 3 {
		t.Fatalf("chunk count after reload = %d, want 3", got)
	}
	lib := s2.GetLibrary("L1")
	if lib == nil || lib.Metadata["team"] != "search" {
		t.Fatalf("library metadata not restored: %+v", lib)
	}

	after, err := s2.Search(SearchQuery{LibraryID: "L1", Embedding: query, K: 3})
	if err != nil {
		t.Fatalf("Search after reload: %v", err)
	}

	if len(before) != len(after) {
		t.Fatalf("result count differs: before=%d after=%d", len(before), len(after))
	}
	for i := range before {
		if before[i].Chunk.ID != after[i].Chunk.ID || before[i].Distance != after[i].Distance {
			t.Errorf("result[%d] differs: before=%+v after=%+v", i, before[i], after[i])
		}
	}
}

// A missing snapshot file is not an error; the store simply starts empty.
func TestSnapshot_LoadMissingFileIsNoop(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(2, IndexClassExact)
	cfg.DataDir = dir
	s := New(cfg)
	if err := s.LoadSnapshot(); err != nil {
		t.Fatalf("LoadSnapshot on empty dir: %v", err)
	}
	if !s.IsEmpty() {
		t.Fatalf("store should still be empty")
	}
}

// A corrupt snapshot file fails the load and leaves the store untouched.
func TestSnapshot_LoadCorruptFileFails(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, snapshotFile), []byte("not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := testConfig(2, IndexClassExact)
	cfg.DataDir = dir
	s := New(cfg)
	s.CreateLibrary("preexisting", nil)

	if err := s.LoadSnapshot(); err == nil {
		t.Fatalf("want error loading corrupt snapshot")
	}
	if s.GetLibrary("preexisting") == nil {
		t.Fatalf("store state should be untouched after a failed load")
	}
}

// Unknown index class identifiers in a snapshot fall back to the
// configured default (§6).
func TestSnapshot_UnknownIndexClassFallsBack(t *testing.T) {
	dir := t.TempDir()
	doc := snapshotDoc{
		EmbeddingDimension: 2,
		IndexClass:         "quantum",
		Libraries: map[string]*Library{
			"L1": {Logged: Logged{ID: "L1", Metadata: map[string]any{}}, LibraryID: "L1", Documents: []Document{}},
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, snapshotFile), raw, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := testConfig(2, IndexClassLSH)
	cfg.DataDir = dir
	s := New(cfg)
	if err := s.LoadSnapshot(); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if s.indexes["L1"].Algorithm() != "lsh" {
		t.Errorf("algorithm = %q, want lsh (configured default)", s.indexes["L1"].Algorithm())
	}
}
