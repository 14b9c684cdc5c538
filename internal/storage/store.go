package storage

import "context"

// VectorStore is the capability set the ingestion pipeline and retrieval
// assembler depend on. Any backend returning approximate-nearest-neighbor
// results ranked most-similar first satisfies the contract; Qdrant is the
// production implementation and MemoryStore the test fake.
type VectorStore interface {
	// EnsureCollection creates the backing collection if missing.
	// Idempotent.
	EnsureCollection(ctx context.Context) error

	// Get returns every record matching the filter. Embedding vectors are
	// only populated when withVectors is set; metadata lookups stay cheap
	// without them.
	Get(ctx context.Context, f Filter, withVectors bool) ([]ChunkRecord, error)

	// Upsert inserts or overwrites records by ID.
	Upsert(ctx context.Context, records []ChunkRecord) error

	// Delete removes every record matching the filter.
	Delete(ctx context.Context, f Filter) error

	// Query returns up to limit records ranked by similarity to the
	// embedding, most similar first.
	Query(ctx context.Context, embedding []float32, limit int) ([]ScoredChunk, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (uint64, error)

	// Health reports backend reachability.
	Health(ctx context.Context) error

	Close() error
}
