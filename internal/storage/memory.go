package storage

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-memory VectorStore used by tests and small local
// setups. Cosine similarity, exact search.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]ChunkRecord
	order   []string // insertion order for stable iteration
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]ChunkRecord)}
}

func (s *MemoryStore) EnsureCollection(ctx context.Context) error { return nil }

func (s *MemoryStore) Health(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func matches(rec ChunkRecord, f Filter) bool {
	if f.FileHash != "" && rec.Meta.FileHash != f.FileHash {
		return false
	}
	if f.SourcePath != "" && rec.Meta.SourcePath != f.SourcePath {
		return false
	}
	if f.Section != "" && rec.Meta.Section != f.Section {
		return false
	}
	return true
}

func (s *MemoryStore) Get(ctx context.Context, f Filter, withVectors bool) ([]ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ChunkRecord
	for _, id := range s.order {
		rec := s.records[id]
		if !matches(rec, f) {
			continue
		}
		if !withVectors {
			rec.Embedding = nil
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, records []ChunkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if _, exists := s.records[rec.ID]; !exists {
			s.order = append(s.order, rec.ID)
		}
		s.records[rec.ID] = rec
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, f Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	for _, id := range s.order {
		if matches(s.records[id], f) {
			delete(s.records, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, embedding []float32, limit int) ([]ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]ScoredChunk, 0, len(s.order))
	for _, id := range s.order {
		rec := s.records[id]
		score := cosine(embedding, rec.Embedding)
		rec.Embedding = nil
		scored = append(scored, ScoredChunk{Record: rec, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (s *MemoryStore) Count(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.records)), nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
