package index

import (
	"math"
	"testing"
)

func mustResult(t *testing.T, results []Result, i int, wantID string, wantDist float64) {
	t.Helper()
	if i >= len(results) {
		t.Fatalf("expected at least %d results, got %d", i+1, len(results))
	}
	if results[i].Chunk.ID != wantID {
		t.Errorf("result[%d].ID = %q, want %q", i, results[i].Chunk.ID, wantID)
	}
	if math.Abs(results[i].Distance-wantDist) > 1e-6 {
		t.Errorf("result[%d].Distance = %v, want ~%v", i, results[i].Distance, wantDist)
	}
}

func TestExactIndex_SearchScenario1(t *testing.T) {
	idx := NewExactIndex(3)
	chunks := []Chunk{
		{ID: "A", Embedding: []float32{1, 0, 0}},
		{ID: "B", Embedding: []float32{0, 1, 0}},
		{ID: "C", Embedding: []float32{1, 1, 0}},
	}
	for _, c := range chunks {
		if err := idx.Insert(c); err != nil {
			t.Fatalf("Insert(%s): %v", c.ID, err)
		}
	}

	results, err := idx.Search([]float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}
	mustResult(t, results, 0, "A", 0.0)
	mustResult(t, results, 1, "C", 1-1/math.Sqrt2)
}

func TestExactIndex_EmptyIndex(t *testing.T) {
	idx := NewExactIndex(3)
	results, err := idx.Search([]float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Search on empty index: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("want 0 results, got %d", len(results))
	}
}

func TestExactIndex_KZero(t *testing.T) {
	idx := NewExactIndex(2)
	_ = idx.Insert(Chunk{ID: "A", Embedding: []float32{1, 0}})
	results, err := idx.Search([]float32{1, 0}, 0)
	if err != nil {
		t.Fatalf("Search k=0: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("want 0 results for k=0, got %d", len(results))
	}
}

func TestExactIndex_KLargerThanCandidates(t *testing.T) {
	idx := NewExactIndex(2)
	_ = idx.Insert(Chunk{ID: "A", Embedding: []float32{1, 0}})
	_ = idx.Insert(Chunk{ID: "B", Embedding: []float32{0, 1}})

	results, err := idx.Search([]float32{1, 0}, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("want 2 results (no padding), got %d", len(results))
	}
}

func TestExactIndex_DimensionMismatch(t *testing.T) {
	idx := NewExactIndex(3)
	if err := idx.Insert(Chunk{ID: "A", Embedding: []float32{1, 0}}); err == nil {
		t.Fatal("expected dimension mismatch error on insert")
	}
	_ = idx.Insert(Chunk{ID: "B", Embedding: []float32{1, 0, 0}})
	if _, err := idx.Search([]float32{1, 0}, 1); err == nil {
		t.Fatal("expected dimension mismatch error on search")
	}
}

func TestExactIndex_AllZeroQuery(t *testing.T) {
	idx := NewExactIndex(2)
	_ = idx.Insert(Chunk{ID: "A", Embedding: []float32{1, 0}})
	_ = idx.Insert(Chunk{ID: "B", Embedding: []float32{0, 1}})

	results, err := idx.Search([]float32{0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("want 2 results, got %d", len(results))
	}
	// the eps-regularized normalize maps a zero query to the zero vector, so
	// every similarity is 0 and every distance is 1; insertion order breaks
	// the tie.
	mustResult(t, results, 0, "A", 1.0)
	mustResult(t, results, 1, "B", 1.0)
}

func TestExactIndex_ClearAndSize(t *testing.T) {
	idx := NewExactIndex(2)
	_ = idx.Insert(Chunk{ID: "A", Embedding: []float32{1, 0}})
	if idx.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", idx.Size())
	}
	idx.Clear()
	if idx.Size() != 0 {
		t.Fatalf("Size() after Clear = %d, want 0", idx.Size())
	}
	results, err := idx.Search([]float32{1, 0}, 1)
	if err != nil || len(results) != 0 {
		t.Fatalf("Search after Clear = %v, %v; want empty, nil", results, err)
	}
}

func TestExactIndex_OrderedByDistance(t *testing.T) {
	idx := NewExactIndex(2)
	for i, v := range [][2]float32{{1, 0}, {0.9, 0.1}, {0, 1}, {-1, 0}} {
		_ = idx.Insert(Chunk{ID: string(rune('A' + i)), Embedding: v[:]})
	}

	results, err := idx.Search([]float32{1, 0}, 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Fatalf("results not sorted ascending: %+v", results)
		}
	}
	for _, r := range results {
		if r.Distance < 0 || r.Distance > 2 {
			t.Fatalf("distance %v out of [0,2]", r.Distance)
		}
	}
}
