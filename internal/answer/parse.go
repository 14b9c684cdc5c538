package answer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrNoJSON is returned when the model response contains no JSON object.
var ErrNoJSON = errors.New("response contains no JSON object")

// ErrSchemaMismatch is returned when the decoded object is missing the
// answer schema's required fields.
var ErrSchemaMismatch = errors.New("response does not match the answer schema")

// Parse extracts the Answer from raw model output. Models occasionally
// prepend prose despite the JSON-only contract, so parsing starts at the
// first '{' and strips non-printable runes before decoding. A
// syntactically valid object still fails when it lacks the schema's
// required fields, so callers fall back to the sentinel answer instead of
// surfacing a hollow one.
func Parse(response string) (*Answer, error) {
	start := strings.IndexByte(response, '{')
	if start == -1 {
		return nil, ErrNoJSON
	}

	cleaned := cleanResponse(response[start:])

	var a Answer
	if err := json.Unmarshal([]byte(cleaned), &a); err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, err
	}
	if a.BriefAnswer == "" {
		return nil, fmt.Errorf("%w: empty brief_answer", ErrSchemaMismatch)
	}
	if cl, ok := fields["checklist"]; !ok || string(cl) == "null" {
		return nil, fmt.Errorf("%w: missing checklist", ErrSchemaMismatch)
	}

	if a.SourceReferences == nil {
		a.SourceReferences = []SourceReference{}
	}
	if a.ThinkingSteps == nil {
		a.ThinkingSteps = []ThinkStep{}
	}
	return &a, nil
}

// cleanResponse drops non-printable runes, keeping newlines and tabs.
func cleanResponse(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			return r
		}
		return -1
	}, s)
}
