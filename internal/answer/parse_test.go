package answer

import (
	"errors"
	"strings"
	"testing"
)

// TestParse_LeadingProse verifies parsing starts at the first JSON object
// even when the model prepends prose.
func TestParse_LeadingProse(t *testing.T) {
	response := `Sure, here is the answer:
{"source_references":[],"thinking_steps":[],"brief_answer":"Use the sync command.","checklist":{"query_understood":true,"context_analyzed":true,"sources_verified":true,"reasoning_complete":true,"answer_validated":true}}`

	a, err := Parse(response)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if a.BriefAnswer != "Use the sync command." {
		t.Errorf("Expected brief answer, got %q", a.BriefAnswer)
	}
	if !a.Checklist.AnswerValidated {
		t.Error("Expected checklist to parse")
	}
}

// TestParse_NoJSON verifies a response without an object fails with
// ErrNoJSON.
func TestParse_NoJSON(t *testing.T) {
	_, err := Parse("I cannot answer that.")
	if !errors.Is(err, ErrNoJSON) {
		t.Errorf("Expected ErrNoJSON, got %v", err)
	}
}

// TestParse_NonPrintables verifies control characters are stripped before
// decoding.
func TestParse_NonPrintables(t *testing.T) {
	response := "{\x01\"brief_answer\":\x02 \"ok\", \"checklist\": {}}"

	a, err := Parse(response)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if a.BriefAnswer != "ok" {
		t.Errorf("Expected 'ok', got %q", a.BriefAnswer)
	}
}

// TestParse_NormalizesNilSlices verifies absent arrays come back empty,
// not nil.
func TestParse_NormalizesNilSlices(t *testing.T) {
	a, err := Parse(`{"brief_answer":"x","checklist":{"query_understood":true}}`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if a.SourceReferences == nil || a.ThinkingSteps == nil {
		t.Error("Expected empty slices, got nil")
	}
}

// TestParse_SchemaMismatch verifies syntactically valid objects missing
// required fields fail instead of producing hollow answers.
func TestParse_SchemaMismatch(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{"empty object", `{}`},
		{"missing checklist", `{"brief_answer":"x"}`},
		{"null checklist", `{"brief_answer":"x","checklist":null}`},
		{"empty brief answer", `{"brief_answer":"","checklist":{}}`},
		{"missing brief answer", `{"checklist":{"query_understood":true}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.response)
			if !errors.Is(err, ErrSchemaMismatch) {
				t.Errorf("Expected ErrSchemaMismatch, got %v", err)
			}
		})
	}
}

// TestParse_MalformedJSON verifies truncated objects surface a decode
// error.
func TestParse_MalformedJSON(t *testing.T) {
	if _, err := Parse(`{"brief_answer": "unterminated`); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

// TestErrorAnswer verifies the sentinel is structurally valid with every
// checklist gate false.
func TestErrorAnswer(t *testing.T) {
	a := ErrorAnswer("model unavailable")

	if !strings.Contains(a.BriefAnswer, "model unavailable") {
		t.Errorf("Expected diagnostic in brief answer, got %q", a.BriefAnswer)
	}
	if a.SourceReferences == nil || a.ThinkingSteps == nil {
		t.Error("Expected empty slices, got nil")
	}
	if a.Checklist.QueryUnderstood || a.Checklist.AnswerValidated {
		t.Error("Expected all checklist gates false")
	}
}

// TestRender verifies the display layout: brief, detail, sources,
// reasoning.
func TestRender(t *testing.T) {
	detail := "Longer explanation."
	a := &Answer{
		BriefAnswer:    "Short answer.",
		DetailedAnswer: &detail,
		SourceReferences: []SourceReference{
			{DocumentTitle: "Manual", Section: "2.1", ExactQuote: "quoted text", Relevance: RelevanceHigh},
		},
		ThinkingSteps: []ThinkStep{
			{Reasoning: "Checked the manual.", Conclusion: "It applies."},
		},
	}

	out := Render(a)
	for _, want := range []string{"Short answer.", "Longer explanation.", "Sources:", "Manual, section 2.1 (high)", "quoted text", "Reasoning:", "Checked the manual.", "Conclusion: It applies."} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected rendered output to contain %q", want)
		}
	}

	idx := func(s string) int { return strings.Index(out, s) }
	if !(idx("Short answer.") < idx("Sources:") && idx("Sources:") < idx("Reasoning:")) {
		t.Error("Expected brief, sources, reasoning in order")
	}
}
