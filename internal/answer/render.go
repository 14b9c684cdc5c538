package answer

import (
	"fmt"
	"strings"
)

// Render formats an Answer as user-facing text: brief answer, optional
// detail, sources, then the reasoning chain. This is the form persisted
// with feedback records.
func Render(a *Answer) string {
	var parts []string

	parts = append(parts, a.BriefAnswer)

	if a.DetailedAnswer != nil && *a.DetailedAnswer != "" {
		parts = append(parts, "\n"+*a.DetailedAnswer)
	}

	if len(a.SourceReferences) > 0 {
		parts = append(parts, "\nSources:")
		for _, ref := range a.SourceReferences {
			parts = append(parts, fmt.Sprintf("- %s, section %s (%s)\n  %s",
				ref.DocumentTitle, ref.Section, ref.Relevance, ref.ExactQuote))
		}
	}

	if len(a.ThinkingSteps) > 0 {
		parts = append(parts, "\nReasoning:")
		for _, step := range a.ThinkingSteps {
			parts = append(parts, fmt.Sprintf("- %s\n  Conclusion: %s",
				step.Reasoning, step.Conclusion))
		}
	}

	return strings.Join(parts, "\n")
}
