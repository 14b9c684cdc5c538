package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/avoronov/kbase/internal/answer"
	"github.com/avoronov/kbase/internal/feedback"
	"github.com/avoronov/kbase/internal/retrieval"
	"github.com/avoronov/kbase/internal/storage"
)

// makeAskHandler creates the ask_kb tool handler.
// Ask flow:
// 1. Run the full query pipeline (retrieve, consolidate, generate)
// 2. Render the structured answer to display text
// 3. Record a feedback row so the answer can be rated later
// Generation failures surface as a structurally valid error answer, so
// the tool itself only errors when feedback persistence does.
func makeAskHandler(generator *answer.Generator, store *feedback.Store) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		ans := generator.Ask(ctx, input.Question)
		rendered := answer.Render(ans)

		out := AskOutput{
			Answer:      rendered,
			BriefAnswer: ans.BriefAnswer,
		}

		if store != nil {
			var checklist *string
			if raw, err := json.Marshal(ans.Checklist); err == nil {
				s := string(raw)
				checklist = &s
			}
			rec, err := store.Create(input.User, input.Question, rendered, checklist)
			if err != nil {
				return nil, AskOutput{}, fmt.Errorf("failed to record feedback: %w", err)
			}
			out.FeedbackID = rec.ID
		}

		return nil, out, nil
	}
}

// makeRateHandler creates the rate_answer tool handler.
// Setting a rating on an unknown feedback id is not an error; the
// output reports Found=false instead.
func makeRateHandler(store *feedback.Store) func(
	context.Context, *mcp.CallToolRequest, RateInput,
) (*mcp.CallToolResult, RateOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RateInput) (
		*mcp.CallToolResult, RateOutput, error,
	) {
		if store == nil {
			return nil, RateOutput{Found: false}, nil
		}
		rec, err := store.SetRating(input.FeedbackID, input.Helpful)
		if err != nil {
			return nil, RateOutput{}, fmt.Errorf("failed to set rating: %w", err)
		}
		return nil, RateOutput{Found: rec != nil}, nil
	}
}

// makeSearchHandler creates the search_kb tool handler.
// Exposes the retrieval stage on its own: deduplicated, neighbor-widened
// passages plus the consolidated memory summary, without answer
// generation.
func makeSearchHandler(assembler *retrieval.Assembler) func(
	context.Context, *mcp.CallToolRequest, SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (
		*mcp.CallToolResult, SearchOutput, error,
	) {
		passages, summary, err := assembler.Retrieve(ctx, input.Query)
		if err != nil {
			return nil, SearchOutput{}, fmt.Errorf("retrieval failed: %w", err)
		}

		results := make([]PassageResult, 0, len(passages))
		for _, p := range passages {
			results = append(results, PassageResult{
				Content:    p.Content,
				Title:      p.Meta.Title,
				Section:    p.Meta.Section,
				SourcePath: p.Meta.SourcePath,
				Score:      p.Score,
			})
		}

		out := SearchOutput{Passages: results, Summary: summary}
		if len(results) == 0 {
			out.Message = "No matching passages found. Try broader search terms."
		}
		return nil, out, nil
	}
}

// makeStatusHandler creates the get_index_status tool handler.
func makeStatusHandler(store storage.VectorStore) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		count, err := store.Count(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("failed to count chunks: %w", err)
		}

		records, err := store.Get(ctx, storage.Filter{}, false)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("failed to list records: %w", err)
		}
		seen := make(map[string]bool)
		paths := make([]string, 0)
		for _, rec := range records {
			if seen[rec.Meta.SourcePath] {
				continue
			}
			seen[rec.Meta.SourcePath] = true
			paths = append(paths, rec.Meta.SourcePath)
		}
		sort.Strings(paths)

		return nil, StatusOutput{
			TotalDocuments: len(paths),
			TotalChunks:    count,
			IndexedPaths:   paths,
			Healthy:        store.Health(ctx) == nil,
		}, nil
	}
}
