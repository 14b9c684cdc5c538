// Package chunker splits normalized document text into section-labelled
// chunks bounded by a character budget.
package chunker

import (
	"regexp"
	"unicode"
)

// DefaultChunkSize is the character budget for one chunk.
const DefaultChunkSize = 500

// Chunk is one bounded slice of a document's normalized text.
type Chunk struct {
	Index   int    // ordinal position within the document
	Text    string // exact slice of the normalized text
	Section string // dotted section label in effect at the chunk's start, "" if none yet
	Start   int    // character offset of Text within the normalized document
	End     int    // Start + len(Text)
}

// Chunker accumulates sentences into chunks up to a character budget.
type Chunker struct {
	chunkSize int
}

// New creates a Chunker. A non-positive chunkSize falls back to
// DefaultChunkSize.
func New(chunkSize int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Chunker{chunkSize: chunkSize}
}

// sentenceEndRe marks sentence boundaries: terminal punctuation followed by
// whitespace. This is a heuristic, not a sentence-boundary detector;
// abbreviations and decimal-free version strings will over-split.
var sentenceEndRe = regexp.MustCompile(`[.!?]\s+`)

// sectionRe matches dotted-numeric section tokens followed by whitespace.
// The no-preceding-digit constraint is checked separately since Go regexp
// has no lookbehind.
var sectionRe = regexp.MustCompile(`\d+(?:\.\d+)*\s`)

type span struct {
	start, end int
}

// Split chunks normalized text. Offsets are tracked during the sentence
// scan, so repeated chunk text still carries correct positions. The result
// is a pure function of the input.
func (c *Chunker) Split(clean string) []Chunk {
	if clean == "" {
		return nil
	}

	var chunks []Chunk

	section := ""      // most recent section marker seen
	chunkSection := "" // label captured when the open chunk started
	start, end := -1, -1

	flush := func() {
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Text:    clean[start:end],
			Section: chunkSection,
			Start:   start,
			End:     end,
		})
		start = -1
	}

	for _, s := range sentenceSpans(clean) {
		if tok, ok := firstSectionToken(clean[s.start:s.end]); ok {
			section = tok
		}

		// Close the open chunk when this sentence would push it past
		// the budget.
		if start >= 0 && s.end-start > c.chunkSize {
			flush()
		}
		if start < 0 {
			start = s.start
			chunkSection = section
		}
		end = s.end
	}
	if start >= 0 {
		flush()
	}

	return chunks
}

// sentenceSpans returns the offsets of each sentence in the text. The
// terminal punctuation belongs to the sentence; the separating whitespace
// belongs to neither.
func sentenceSpans(text string) []span {
	var spans []span
	prev := 0
	for _, loc := range sentenceEndRe.FindAllStringIndex(text, -1) {
		spans = append(spans, span{prev, loc[0] + 1})
		prev = loc[1]
	}
	if prev < len(text) {
		spans = append(spans, span{prev, len(text)})
	}
	return spans
}

// firstSectionToken finds the first dotted-numeric section marker in a
// sentence: one or more digit groups separated by dots, not preceded by a
// digit, followed by whitespace.
func firstSectionToken(sentence string) (string, bool) {
	for _, loc := range sectionRe.FindAllStringIndex(sentence, -1) {
		if loc[0] > 0 {
			prev := sentence[loc[0]-1]
			if prev >= '0' && prev <= '9' {
				continue
			}
		}
		tok := sentence[loc[0] : loc[1]-1]
		for len(tok) > 0 && unicode.IsSpace(rune(tok[len(tok)-1])) {
			tok = tok[:len(tok)-1]
		}
		return tok, true
	}
	return "", false
}
