// Package mcp exposes the knowledge-base assistant over the Model
// Context Protocol.
package mcp

// AskInput defines the input parameters for the ask_kb tool.
type AskInput struct {
	// Question is the user's question about the knowledge base.
	Question string `json:"question" jsonschema:"required,description=The question to answer from the knowledge base"`
	// User identifies who is asking, for the feedback record.
	User string `json:"user,omitempty" jsonschema:"description=Identifier of the asking user"`
}

// AskOutput contains the rendered answer and its feedback handle.
type AskOutput struct {
	// Answer is the rendered answer text with sources and reasoning.
	Answer string `json:"answer"`
	// BriefAnswer is the concise answer alone.
	BriefAnswer string `json:"brief_answer"`
	// FeedbackID identifies this answer for rate_answer. Zero when the
	// feedback store was unavailable.
	FeedbackID int64 `json:"feedback_id,omitempty"`
}

// RateInput defines the input parameters for the rate_answer tool.
type RateInput struct {
	// FeedbackID is the id returned by ask_kb.
	FeedbackID int64 `json:"feedback_id" jsonschema:"required,description=The feedback id returned by ask_kb"`
	// Helpful is whether the answer helped.
	Helpful bool `json:"helpful" jsonschema:"required,description=Whether the answer was helpful"`
}

// RateOutput reports whether the rating was recorded.
type RateOutput struct {
	Found bool `json:"found"`
}

// SearchInput defines the input parameters for the search_kb tool.
type SearchInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=The semantic search query"`
}

// SearchOutput contains deduplicated passages plus the consolidated
// memory summary.
type SearchOutput struct {
	Passages []PassageResult `json:"passages"`
	Summary  string          `json:"summary,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// PassageResult is one retrieved passage.
type PassageResult struct {
	Content    string  `json:"content"`
	Title      string  `json:"title"`
	Section    string  `json:"section,omitempty"`
	SourcePath string  `json:"source_path"`
	Score      float64 `json:"score"`
}

// StatusInput defines the input parameters for the get_index_status tool.
// The tool takes no parameters.
type StatusInput struct{}

// StatusOutput describes the index.
type StatusOutput struct {
	TotalDocuments int      `json:"total_documents"`
	TotalChunks    uint64   `json:"total_chunks"`
	IndexedPaths   []string `json:"indexed_paths"`
	Healthy        bool     `json:"healthy"`
}
