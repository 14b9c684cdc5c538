package retrieval

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/avoronov/kbase/internal/memory"
	"github.com/avoronov/kbase/internal/storage"
)

// fixedEmbedder returns the same vector for every text.
type fixedEmbedder struct {
	vec []float32
}

func (f *fixedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

// rankedRecord builds a chunk whose cosine score against query vector
// [1,0] decreases as tilt grows.
func rankedRecord(id, text, section string, tilt float32) storage.ChunkRecord {
	return storage.ChunkRecord{
		ID:        id,
		Text:      text,
		Embedding: []float32{1, tilt},
		Meta: storage.ChunkMetadata{
			SourcePath: "doc.md",
			FileHash:   "hash",
			Section:    section,
		},
	}
}

func newAssembler(t *testing.T, records []storage.ChunkRecord) (*Assembler, *memory.Memory) {
	t.Helper()
	store := storage.NewMemoryStore()
	if err := store.Upsert(context.Background(), records); err != nil {
		t.Fatalf("Failed to seed store: %v", err)
	}
	mem := memory.New(0)
	return NewAssembler(store, &fixedEmbedder{vec: []float32{1, 0}}, mem), mem
}

// TestRetrieve_SectionDedupe verifies only the best-ranked chunk per
// section survives.
func TestRetrieve_SectionDedupe(t *testing.T) {
	assembler, mem := newAssembler(t, []storage.ChunkRecord{
		rankedRecord("a", "first in three", "3", 0),
		rankedRecord("b", "second in three", "3", 1),
		rankedRecord("c", "only in seven", "7", 2),
	})

	passages, _, err := assembler.Retrieve(context.Background(), "query")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	got := passageTexts(passages)
	want := []string{"first in three", "only in seven"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected passages %v, got %v", want, got)
	}
	if mem.Len() != 2 {
		t.Errorf("Expected 2 directly accepted texts in memory, got %d", mem.Len())
	}
}

// TestRetrieve_NeighborExpansion verifies an accepted section pulls its
// adjacent sections out of the candidate set, lower neighbor first.
func TestRetrieve_NeighborExpansion(t *testing.T) {
	assembler, _ := newAssembler(t, []storage.ChunkRecord{
		rankedRecord("a", "core passage", "2.1.3", 0),
		rankedRecord("b", "upper neighbor", "2.1.4", 1),
		rankedRecord("c", "lower neighbor", "2.1.2", 2),
		rankedRecord("d", "unrelated", "9", 3),
	})

	passages, _, err := assembler.Retrieve(context.Background(), "query")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	got := passageTexts(passages)
	want := []string{"core passage", "lower neighbor", "upper neighbor", "unrelated"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected passages %v, got %v", want, got)
	}
}

// TestRetrieve_UnsectionedNeverExpands verifies chunks without a section
// label dedupe together and trigger no expansion.
func TestRetrieve_UnsectionedNeverExpands(t *testing.T) {
	assembler, _ := newAssembler(t, []storage.ChunkRecord{
		rankedRecord("a", "no label one", "", 0),
		rankedRecord("b", "no label two", "", 1),
		rankedRecord("c", "labelled", "4", 2),
	})

	passages, _, err := assembler.Retrieve(context.Background(), "query")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	got := passageTexts(passages)
	want := []string{"no label one", "labelled"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected passages %v, got %v", want, got)
	}
}

// TestRetrieve_CapsPassages verifies the assembled context never exceeds
// the passage cap.
func TestRetrieve_CapsPassages(t *testing.T) {
	var records []storage.ChunkRecord
	for i := 0; i < 20; i++ {
		// Sections spaced far apart so neighbor expansion finds nothing.
		records = append(records, rankedRecord(
			fmt.Sprintf("r%d", i),
			fmt.Sprintf("passage %d", i),
			fmt.Sprintf("%d", (i+1)*10),
			float32(i),
		))
	}
	assembler, _ := newAssembler(t, records)

	passages, _, err := assembler.Retrieve(context.Background(), "query")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(passages) != maxPassages {
		t.Errorf("Expected %d passages, got %d", maxPassages, len(passages))
	}
	// Best-ranked passage survives the cap.
	if passages[0].Content != "passage 0" {
		t.Errorf("Expected top passage first, got %q", passages[0].Content)
	}
}

// TestNeighborSections covers the label arithmetic.
func TestNeighborSections(t *testing.T) {
	cases := []struct {
		section string
		want    []string
	}{
		{"2.1.3", []string{"2.1.2", "2.1.4"}},
		{"5", []string{"4", "6"}},
		{"0", []string{"1"}},
		{"3.0", []string{"3.1"}},
		{"", nil},
		{"appendix", nil},
	}
	for _, tc := range cases {
		got := neighborSections(tc.section)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("neighborSections(%q): expected %v, got %v", tc.section, tc.want, got)
		}
	}
}

func passageTexts(passages []Passage) []string {
	out := make([]string, 0, len(passages))
	for _, p := range passages {
		out = append(out, p.Content)
	}
	return out
}
