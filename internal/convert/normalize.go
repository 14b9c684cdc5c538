package convert

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

var (
	htmlCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	symbolNoiseRe = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:?!-]`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// Normalize prepares converted text for chunking: lowercase, HTML comments
// removed, symbol noise replaced with spaces, whitespace collapsed to
// single spaces. Sentence punctuation and the dotted section numbers the
// chunker keys on survive untouched.
func Normalize(content string) string {
	clean := strings.ToLower(content)
	clean = htmlCommentRe.ReplaceAllString(clean, "")
	clean = symbolNoiseRe.ReplaceAllString(clean, " ")
	clean = whitespaceRe.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}

var titleParser = goldmark.New(
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// extractTitle returns the first heading of a markdown document, or ""
// when the document has none.
func extractTitle(source []byte) string {
	doc := titleParser.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(1),
		toc.Compact(true),
	)
	if err != nil || len(tree.Items) == 0 {
		return ""
	}
	return string(tree.Items[0].Title)
}
