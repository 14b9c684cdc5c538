package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantStore implements VectorStore against a Qdrant collection over
// gRPC, with connection management and health checks.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// NewQdrantStore creates a Qdrant-backed store and validates connectivity.
// It performs a health check with retry on startup and fails fast if the
// server is unreachable.
func NewQdrantStore(host string, port int, collection string, dimension int) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	store := &QdrantStore{
		client:     client,
		collection: collection,
		dimension:  dimension,
	}

	if err := store.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	return store, nil
}

// healthCheckWithRetry performs a health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *QdrantStore) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return s.Health(ctx)
	}, backoff.WithContext(b, ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStore) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the collection (cosine distance, configured
// dimension) and the payload indexes the pipeline filters on. Idempotent.
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	for _, name := range collections {
		if name == s.collection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	// Without these indexes, filtered scrolls and deletes degrade badly.
	for _, field := range []string{"file_hash", "source_path", "section"} {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create index for field %s: %w", field, err)
		}
	}

	return nil
}

// pointID maps a chunk record ID to a deterministic Qdrant point UUID.
// Qdrant point IDs must be UUIDs or integers, so "{file_hash}_{ordinal}"
// is digested; the raw ID stays in the payload for round-tripping.
func pointID(recordID string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(recordID)).String())
}

func buildFilter(f Filter) *qdrant.Filter {
	var must []*qdrant.Condition
	if f.FileHash != "" {
		must = append(must, qdrant.NewMatch("file_hash", f.FileHash))
	}
	if f.SourcePath != "" {
		must = append(must, qdrant.NewMatch("source_path", f.SourcePath))
	}
	if f.Section != "" {
		must = append(must, qdrant.NewMatch("section", f.Section))
	}
	return &qdrant.Filter{Must: must}
}

func payloadFromRecord(rec ChunkRecord) map[string]any {
	return map[string]any{
		"chunk_id":      rec.ID,
		"content":       rec.Text,
		"source_path":   rec.Meta.SourcePath,
		"file_hash":     rec.Meta.FileHash,
		"last_modified": rec.Meta.LastModified.UnixNano(),
		"section":       rec.Meta.Section,
		"chunk_start":   rec.Meta.ChunkStart,
		"chunk_end":     rec.Meta.ChunkEnd,
		"chunk_index":   rec.Meta.ChunkIndex,
		"file_type":     rec.Meta.FileType,
		"title":         rec.Meta.Title,
	}
}

func recordFromPayload(payload map[string]*qdrant.Value) ChunkRecord {
	return ChunkRecord{
		ID:   payload["chunk_id"].GetStringValue(),
		Text: payload["content"].GetStringValue(),
		Meta: ChunkMetadata{
			SourcePath:   payload["source_path"].GetStringValue(),
			FileHash:     payload["file_hash"].GetStringValue(),
			LastModified: time.Unix(0, payload["last_modified"].GetIntegerValue()),
			Section:      payload["section"].GetStringValue(),
			ChunkStart:   int(payload["chunk_start"].GetIntegerValue()),
			ChunkEnd:     int(payload["chunk_end"].GetIntegerValue()),
			ChunkIndex:   int(payload["chunk_index"].GetIntegerValue()),
			FileType:     payload["file_type"].GetStringValue(),
			Title:        payload["title"].GetStringValue(),
		},
	}
}

// Get scrolls every record matching the filter, paginating in batches of
// 100. Vectors are fetched only when withVectors is set.
func (s *QdrantStore) Get(ctx context.Context, f Filter, withVectors bool) ([]ChunkRecord, error) {
	var records []ChunkRecord
	var offset *qdrant.PointId

	batchSize := uint32(100)
	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Filter:         buildFilter(f),
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(withVectors),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scroll records: %w", err)
		}

		for _, point := range results {
			rec := recordFromPayload(point.Payload)
			if withVectors {
				rec.Embedding = point.Vectors.GetVector().GetData()
			}
			records = append(records, rec)
		}

		if uint32(len(results)) < batchSize {
			break
		}
		offset = results[len(results)-1].Id
	}

	return records, nil
}

// Upsert stores records in batches of 100 with retry on transient
// failures.
func (s *QdrantStore) Upsert(ctx context.Context, records []ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	for _, rec := range records {
		if len(rec.Embedding) != s.dimension {
			return fmt.Errorf("%w: record %s has %d dimensions, expected %d",
				ErrDimensionMismatch, rec.ID, len(rec.Embedding), s.dimension)
		}
	}

	batchSize := 100
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))

		batch := records[i:end]
		points := make([]*qdrant.PointStruct, len(batch))
		for j, rec := range batch {
			points[j] = &qdrant.PointStruct{
				Id:      pointID(rec.ID),
				Vectors: qdrant.NewVectors(rec.Embedding...),
				Payload: qdrant.NewValueMap(payloadFromRecord(rec)),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// upsertWithRetry performs one upsert with exponential backoff.
func (s *QdrantStore) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Delete removes every record matching the filter.
func (s *QdrantStore) Delete(ctx context.Context, f Filter) error {
	if f.IsZero() {
		return fmt.Errorf("refusing to delete with empty filter")
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelectorFilter(buildFilter(f)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}

// Query performs vector similarity search, most similar first.
func (s *QdrantStore) Query(ctx context.Context, embedding []float32, limit int) ([]ScoredChunk, error) {
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), s.dimension)
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	scored := make([]ScoredChunk, 0, len(results))
	for _, result := range results {
		scored = append(scored, ScoredChunk{
			Record: recordFromPayload(result.Payload),
			Score:  float64(result.Score),
		})
	}
	return scored, nil
}

// Count returns the total number of stored records.
func (s *QdrantStore) Count(ctx context.Context) (uint64, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection info: %w", err)
	}
	return info.GetPointsCount(), nil
}

// Close closes the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
