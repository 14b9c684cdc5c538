package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newFakeClient(rt http.RoundTripper) *Client {
	c := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL("http://embeddings.test/v1/"),
		option.WithHTTPClient(&http.Client{Transport: rt}),
		option.WithMaxRetries(0),
	)
	return &Client{client: &c}
}

func jsonResponse(req *http.Request, status int, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(raw)),
		Request:    req,
	}, nil
}

func requestTexts(t *testing.T, req *http.Request) []string {
	t.Helper()
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatalf("Failed to read request body: %v", err)
	}
	var payload struct {
		Input []string `json:"input"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("Failed to decode request body: %v", err)
	}
	return payload.Input
}

// embeddingsFor encodes each text's numeric value as its vector, so the
// caller can tell exactly which input produced which output.
func embeddingsFor(texts []string) []map[string]any {
	data := make([]map[string]any, len(texts))
	for i, text := range texts {
		v, _ := strconv.Atoi(text)
		data[i] = map[string]any{
			"object":    "embedding",
			"index":     i,
			"embedding": []float64{float64(v)},
		}
	}
	return data
}

// TestEmbedTexts_PreservesOrder verifies result[i] matches texts[i] even
// when later batches finish before earlier ones.
func TestEmbedTexts_PreservesOrder(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		texts := requestTexts(t, req)
		// Earlier batches respond slower, so completion order inverts
		// submission order.
		if first, err := strconv.Atoi(texts[0]); err == nil {
			time.Sleep(time.Duration(20-first) * 5 * time.Millisecond)
		}
		return jsonResponse(req, http.StatusOK, map[string]any{
			"object": "list",
			"model":  "test-model",
			"data":   embeddingsFor(texts),
			"usage":  map[string]int{"prompt_tokens": 0, "total_tokens": 0},
		})
	})

	embedder := NewEmbedder(newFakeClient(rt), "test-model", 3)

	texts := make([]string, 20)
	for i := range texts {
		texts[i] = strconv.Itoa(i)
	}

	out, err := embedder.EmbedTexts(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedTexts failed: %v", err)
	}
	if len(out) != len(texts) {
		t.Fatalf("Expected %d embeddings, got %d", len(texts), len(out))
	}
	for i, vec := range out {
		if len(vec) != 1 || vec[0] != float32(i) {
			t.Errorf("Embedding %d: expected [%d], got %v", i, i, vec)
		}
	}
}

// TestEmbedTexts_Empty verifies no texts means no requests.
func TestEmbedTexts_Empty(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		t.Error("Expected no request for empty input")
		return nil, nil
	})
	embedder := NewEmbedder(newFakeClient(rt), "test-model", 3)

	out, err := embedder.EmbedTexts(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedTexts failed: %v", err)
	}
	if out != nil {
		t.Errorf("Expected nil result, got %v", out)
	}
}

// TestEmbedTexts_RetriesRateLimit verifies a 429 is retried and the batch
// eventually succeeds.
func TestEmbedTexts_RetriesRateLimit(t *testing.T) {
	var requests atomic.Int32
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		texts := requestTexts(t, req)
		if requests.Add(1) == 1 {
			return jsonResponse(req, http.StatusTooManyRequests, map[string]any{
				"error": map[string]any{"message": "rate limited", "type": "rate_limit_error"},
			})
		}
		return jsonResponse(req, http.StatusOK, map[string]any{
			"object": "list",
			"model":  "test-model",
			"data":   embeddingsFor(texts),
			"usage":  map[string]int{"prompt_tokens": 0, "total_tokens": 0},
		})
	})

	embedder := NewEmbedder(newFakeClient(rt), "test-model", 8)

	out, err := embedder.EmbedTexts(context.Background(), []string{"7"})
	if err != nil {
		t.Fatalf("EmbedTexts failed: %v", err)
	}
	if len(out) != 1 || out[0][0] != 7 {
		t.Errorf("Expected [[7]], got %v", out)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("Expected 2 requests (one retry), got %d", got)
	}
}

// TestEmbedTexts_PermanentError verifies non-rate-limit failures are not
// retried.
func TestEmbedTexts_PermanentError(t *testing.T) {
	var requests atomic.Int32
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		requests.Add(1)
		return jsonResponse(req, http.StatusInternalServerError, map[string]any{
			"error": map[string]any{"message": "boom", "type": "server_error"},
		})
	})

	embedder := NewEmbedder(newFakeClient(rt), "test-model", 8)

	if _, err := embedder.EmbedTexts(context.Background(), []string{"1"}); err == nil {
		t.Fatal("Expected error for server failure")
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("Expected a single request without retries, got %d", got)
	}
}
