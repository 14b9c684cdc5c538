package storage

import (
	"context"
	"testing"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	err := s.Upsert(context.Background(), []ChunkRecord{
		{
			ID:        "h1_0",
			Text:      "first chunk",
			Embedding: []float32{1, 0},
			Meta:      ChunkMetadata{SourcePath: "a.md", FileHash: "h1", Section: "1"},
		},
		{
			ID:        "h1_1",
			Text:      "second chunk",
			Embedding: []float32{0, 1},
			Meta:      ChunkMetadata{SourcePath: "a.md", FileHash: "h1", Section: "2"},
		},
		{
			ID:        "h2_0",
			Text:      "other document",
			Embedding: []float32{1, 1},
			Meta:      ChunkMetadata{SourcePath: "b.md", FileHash: "h2", Section: "1"},
		},
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	return s
}

// TestGet_Filters verifies hash, path and section filters compose.
func TestGet_Filters(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	byHash, err := s.Get(ctx, Filter{FileHash: "h1"}, false)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(byHash) != 2 {
		t.Errorf("Expected 2 records for h1, got %d", len(byHash))
	}

	byPath, err := s.Get(ctx, Filter{SourcePath: "b.md"}, false)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(byPath) != 1 || byPath[0].ID != "h2_0" {
		t.Errorf("Expected only h2_0 for b.md, got %v", byPath)
	}

	bySection, err := s.Get(ctx, Filter{FileHash: "h1", Section: "2"}, false)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(bySection) != 1 || bySection[0].ID != "h1_1" {
		t.Errorf("Expected only h1_1 for section 2, got %v", bySection)
	}
}

// TestGet_WithVectors verifies embeddings only travel when asked for.
func TestGet_WithVectors(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	plain, err := s.Get(ctx, Filter{FileHash: "h1"}, false)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if plain[0].Embedding != nil {
		t.Error("Expected no embeddings without withVectors")
	}

	vectored, err := s.Get(ctx, Filter{FileHash: "h1"}, true)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(vectored[0].Embedding) == 0 {
		t.Error("Expected embeddings with withVectors")
	}
}

// TestDelete verifies filtered deletion leaves other documents alone.
func TestDelete(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	if err := s.Delete(ctx, Filter{FileHash: "h1"}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 record left, got %d", count)
	}

	left, err := s.Get(ctx, Filter{}, false)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(left) != 1 || left[0].ID != "h2_0" {
		t.Errorf("Expected h2_0 to survive, got %v", left)
	}
}

// TestUpsert_Overwrites verifies re-upserting an id replaces the record
// without growing the store.
func TestUpsert_Overwrites(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	err := s.Upsert(ctx, []ChunkRecord{{
		ID:        "h1_0",
		Text:      "updated chunk",
		Embedding: []float32{0.5, 0.5},
		Meta:      ChunkMetadata{SourcePath: "a.md", FileHash: "h1", Section: "1"},
	}})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	count, _ := s.Count(ctx)
	if count != 3 {
		t.Errorf("Expected 3 records after overwrite, got %d", count)
	}

	recs, _ := s.Get(ctx, Filter{FileHash: "h1", Section: "1"}, false)
	if len(recs) != 1 || recs[0].Text != "updated chunk" {
		t.Errorf("Expected updated text, got %v", recs)
	}
}

// TestQuery_RanksBySimilarity verifies cosine ordering and the result
// limit.
func TestQuery_RanksBySimilarity(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	results, err := s.Query(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results[0].Record.ID != "h1_0" {
		t.Errorf("Expected h1_0 ranked first, got %s", results[0].Record.ID)
	}
	if results[2].Record.ID != "h1_1" {
		t.Errorf("Expected orthogonal h1_1 ranked last, got %s", results[2].Record.ID)
	}
	if results[0].Score <= results[1].Score {
		t.Error("Expected descending scores")
	}

	limited, err := s.Query(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected limit of 2, got %d", len(limited))
	}
}
