package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

// DefaultBatchSize bounds peak memory and request size per embedding call.
const DefaultBatchSize = 8

// Embedder generates embeddings for chunk texts in fixed-size batches.
// Batches run concurrently but results always come back in input order,
// and rate limits are retried with exponential backoff.
type Embedder struct {
	client    *Client
	model     string
	batchSize int
}

// NewEmbedder creates an Embedder for the given model. A non-positive
// batchSize falls back to DefaultBatchSize.
func NewEmbedder(client *Client, model string, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		client:    client,
		model:     model,
		batchSize: batchSize,
	}
}

// EmbedTexts embeds texts in batches of the configured size. result[i]
// always corresponds to texts[i]: each batch writes into its own slot and
// the slots are joined in submission order once every batch finishes.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	numBatches := (len(texts) + e.batchSize - 1) / e.batchSize
	results := make([][][]float32, numBatches)
	errs := make([]error, numBatches)

	var wg sync.WaitGroup
	for b := 0; b < numBatches; b++ {
		start := b * e.batchSize
		end := min(start+e.batchSize, len(texts))

		wg.Add(1)
		go func(b, start, end int) {
			defer wg.Done()
			batch, err := e.embedBatchWithRetry(ctx, texts[start:end])
			if err != nil {
				errs[b] = fmt.Errorf("batch %d-%d: %w", start, end, err)
				return
			}
			results[b] = batch
		}(b, start, end)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	embeddings := make([][]float32, 0, len(texts))
	for _, batch := range results {
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

// embedBatchWithRetry generates embeddings for a single batch. Rate limit
// errors (HTTP 429) are retried with exponential backoff; anything else is
// permanent and fails immediately.
func (e *Embedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		embeddings = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			embeddings[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return embeddings, err
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts []float64 to []float32. The API returns float64 but
// the store keeps float32 for memory efficiency.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
