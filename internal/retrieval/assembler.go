// Package retrieval assembles query-time context: nearest-neighbor
// candidates deduplicated by section, widened to adjacent sections, fed
// through the consolidating memory.
package retrieval

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/avoronov/kbase/internal/memory"
	"github.com/avoronov/kbase/internal/storage"
)

const (
	// candidateLimit is how many nearest neighbors one store query pulls;
	// neighbor expansion works within this set, avoiding a second query.
	candidateLimit = 200

	// maxPassages caps the assembled context.
	maxPassages = 15
)

// Embedder turns texts into vectors, result[i] matching texts[i].
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Passage is one retrieved piece of context.
type Passage struct {
	Content string
	Meta    storage.ChunkMetadata
	Score   float64
}

// Assembler performs retrieval for one deployment's collection.
type Assembler struct {
	store    storage.VectorStore
	embedder Embedder
	memory   *memory.Memory
}

// NewAssembler creates an assembler over the given store and memory.
func NewAssembler(store storage.VectorStore, embedder Embedder, mem *memory.Memory) *Assembler {
	return &Assembler{store: store, embedder: embedder, memory: mem}
}

// Retrieve returns up to 15 passages for the query, in first-accepted
// order, plus the memory's consolidated summary. Sections deduplicate on
// first sight; every newly accepted section tries to pull in its ±1
// neighbors from the candidate set.
func (a *Assembler) Retrieve(ctx context.Context, query string) ([]Passage, string, error) {
	vectors, err := a.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, "", fmt.Errorf("embed query: %w", err)
	}

	candidates, err := a.store.Query(ctx, vectors[0], candidateLimit)
	if err != nil {
		return nil, "", fmt.Errorf("query store: %w", err)
	}

	seen := make(map[string]bool)
	var passages []Passage

	accept := func(sc storage.ScoredChunk) {
		seen[sc.Record.Meta.Section] = true
		passages = append(passages, Passage{
			Content: sc.Record.Text,
			Meta:    sc.Record.Meta,
			Score:   sc.Score,
		})
	}

	for _, sc := range candidates {
		section := sc.Record.Meta.Section
		if seen[section] {
			continue
		}
		accept(sc)
		a.memory.Record(sc.Record.Text, nil)

		if section == "" {
			continue
		}
		for _, neighbor := range neighborSections(section) {
			if seen[neighbor] {
				continue
			}
			if nb, ok := findSection(candidates, neighbor); ok {
				accept(nb)
			}
		}
	}

	if len(passages) > maxPassages {
		passages = passages[:maxPassages]
	}
	return passages, a.memory.Summary(), nil
}

// neighborSections returns the dotted labels one step below and above a
// section: "2.1.3" -> "2.1.2", "2.1.4". A zero final component has no
// lower neighbor.
func neighborSections(section string) []string {
	parts := strings.Split(section, ".")
	last, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return nil
	}
	prefix := strings.Join(parts[:len(parts)-1], ".")
	join := func(n int) string {
		if prefix == "" {
			return strconv.Itoa(n)
		}
		return prefix + "." + strconv.Itoa(n)
	}

	var neighbors []string
	if last > 0 {
		neighbors = append(neighbors, join(last-1))
	}
	neighbors = append(neighbors, join(last+1))
	return neighbors
}

// findSection returns the best-ranked candidate carrying the section.
func findSection(candidates []storage.ScoredChunk, section string) (storage.ScoredChunk, bool) {
	for _, sc := range candidates {
		if sc.Record.Meta.Section == section {
			return sc, true
		}
	}
	return storage.ScoredChunk{}, false
}
