// Package chunk turns a document's structured elements into token-bounded
// Chunks: header levels arrive already resolved on each StructuredElement,
// and a single pass tracks the active header lineage and flushes
// accumulated content through a TokenSplitter whenever a section boundary
// (or end of document) is hit.
package chunk

import (
	"regexp"
	"strings"

	"github.com/kasai-dev/pageforge/internal/tokenizer"
)

// sentenceBoundary approximates sentence splitting by breaking after
// terminal punctuation followed by whitespace, matching the simplification
// the token splitter's design explicitly allows.
var sentenceBoundary = regexp.MustCompile(`(?s)(.*?[.!?])\s+`)

// Splitter packs sentences into token-bounded chunks of text, optionally
// carrying the tail sentence of one pack into the next.
type Splitter struct {
	tok      tokenizer.Tokenizer
	endpoint string
}

// NewSplitter constructs a Splitter counting tokens against endpoint.
func NewSplitter(tok tokenizer.Tokenizer, endpoint string) *Splitter {
	return &Splitter{tok: tok, endpoint: endpoint}
}

// Split sentence-splits text and greedily packs sentences under maxTokens.
// overlap is boolean-gated: any nonzero value reseeds the next pack with the
// previous pack's last sentence, a zero value never does — the magnitude of
// overlap carries no further meaning, matching the documented
// simplification of the original token-overlap parameter.
func (s *Splitter) Split(text string, maxTokens, overlap int) ([]string, error) {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}

	var packs []string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		packs = append(packs, strings.Join(current, " "))
	}

	for _, sentence := range sentences {
		n, err := s.tok.Count(sentence, s.endpoint)
		if err != nil {
			return nil, err
		}

		if currentTokens > 0 && currentTokens+n > maxTokens {
			flush()
			if overlap != 0 && len(current) > 0 {
				tail := current[len(current)-1]
				tailTokens, err := s.tok.Count(tail, s.endpoint)
				if err != nil {
					return nil, err
				}
				current = []string{tail}
				currentTokens = tailTokens
			} else {
				current = nil
				currentTokens = 0
			}
		}

		current = append(current, sentence)
		currentTokens += n
	}
	flush()

	return packs, nil
}

// splitSentences breaks text on sentence-terminal punctuation, keeping the
// final fragment even when it has no terminal punctuation of its own.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	rest := text
	for {
		loc := sentenceBoundary.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		sentences = append(sentences, strings.TrimSpace(rest[loc[2]:loc[3]]))
		rest = rest[loc[1]:]
	}
	if strings.TrimSpace(rest) != "" {
		sentences = append(sentences, strings.TrimSpace(rest))
	}
	return sentences
}
