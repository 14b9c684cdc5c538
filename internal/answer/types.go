// Package answer produces structured, cited answers to knowledge-base
// questions via a language model, recovering gracefully from malformed
// model output.
package answer

// Relevance tiers for source references.
const (
	RelevanceHigh   = "high"
	RelevanceMedium = "medium"
	RelevanceLow    = "low"
)

// SourceReference cites one document passage backing the answer.
type SourceReference struct {
	DocumentTitle string `json:"document_title"`
	Section       string `json:"section"`
	ExactQuote    string `json:"exact_quote"`
	Relevance     string `json:"relevance"` // high | medium | low
}

// ThinkStep is one step of the model's chain of reasoning.
type ThinkStep struct {
	Reasoning  string `json:"reasoning"`
	Conclusion string `json:"conclusion"`
}

// Checklist holds the five quality gates the model self-reports.
type Checklist struct {
	QueryUnderstood   bool    `json:"query_understood"`
	ContextAnalyzed   bool    `json:"context_analyzed"`
	SourcesVerified   bool    `json:"sources_verified"`
	ReasoningComplete bool    `json:"reasoning_complete"`
	AnswerValidated   bool    `json:"answer_validated"`
	AdditionalNotes   *string `json:"additional_notes,omitempty"`
}

// Answer is the structured output of the query pipeline. Immutable after
// creation; referenced by a feedback record.
type Answer struct {
	SourceReferences []SourceReference `json:"source_references"`
	ThinkingSteps    []ThinkStep       `json:"thinking_steps"`
	BriefAnswer      string            `json:"brief_answer"`
	DetailedAnswer   *string           `json:"detailed_answer,omitempty"`
	Checklist        Checklist         `json:"checklist"`
}

// ErrorAnswer builds the sentinel Answer returned when generation or
// parsing fails: structurally valid, every checklist gate false, the
// diagnostic carried in the brief answer.
func ErrorAnswer(message string) *Answer {
	return &Answer{
		SourceReferences: []SourceReference{},
		ThinkingSteps:    []ThinkStep{},
		BriefAnswer:      "Error processing response: " + message,
		Checklist:        Checklist{},
	}
}
