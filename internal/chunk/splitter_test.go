package chunk_test

import (
	"strings"
	"testing"

	"github.com/kasai-dev/pageforge/internal/chunk"
)

// wordCountTokenizer counts one token per whitespace-separated word,
// deterministic and easy to reason about in chunk-boundary tests.
type wordCountTokenizer struct{}

func (wordCountTokenizer) Count(text string, endpoint string) (int, error) {
	return len(strings.Fields(text)), nil
}

func TestSplitEmptyText(t *testing.T) {
	s := chunk.NewSplitter(wordCountTokenizer{}, "ep")
	parts, err := s.Split("   ", 10, 0)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	if parts != nil {
		t.Errorf("expected nil parts for blank text, got %v", parts)
	}
}

func TestSplitSingleSentenceFitsOnePack(t *testing.T) {
	s := chunk.NewSplitter(wordCountTokenizer{}, "ep")
	parts, err := s.Split("This is one sentence.", 100, 0)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	if len(parts) != 1 {
		t.Fatalf("expected 1 pack, got %d: %v", len(parts), parts)
	}
}

func TestSplitPacksGreedilyUnderBudget(t *testing.T) {
	s := chunk.NewSplitter(wordCountTokenizer{}, "ep")
	text := "One two three. Four five six. Seven eight nine."
	// Each sentence is 3 tokens; a budget of 6 should pack two sentences per
	// chunk, then flush the third into its own pack.
	parts, err := s.Split(text, 6, 0)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 packs, got %d: %v", len(parts), parts)
	}
}

func TestSplitOverlapReseedsNextPack(t *testing.T) {
	s := chunk.NewSplitter(wordCountTokenizer{}, "ep")
	text := "One two three. Four five six. Seven eight nine."

	withOverlap, err := s.Split(text, 6, 1)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	withoutOverlap, err := s.Split(text, 6, 0)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}

	if len(withOverlap) != len(withoutOverlap) {
		t.Fatalf("expected same pack count regardless of overlap, got %d vs %d", len(withOverlap), len(withoutOverlap))
	}
	if !strings.Contains(withOverlap[1], "Four five six") {
		t.Errorf("expected overlap pack to carry the prior tail sentence, got %q", withOverlap[1])
	}
}

func TestSplitOverlapMagnitudeIrrelevant(t *testing.T) {
	s := chunk.NewSplitter(wordCountTokenizer{}, "ep")
	text := "One two three. Four five six. Seven eight nine."

	small, err := s.Split(text, 6, 1)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	large, err := s.Split(text, 6, 999)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}

	if len(small) != len(large) {
		t.Fatalf("overlap magnitude should not change pack count, got %d vs %d", len(small), len(large))
	}
	for i := range small {
		if small[i] != large[i] {
			t.Errorf("pack %d differs between overlap=1 and overlap=999: %q vs %q", i, small[i], large[i])
		}
	}
}

func TestSplitNoTerminalPunctuationKeepsFragment(t *testing.T) {
	s := chunk.NewSplitter(wordCountTokenizer{}, "ep")
	parts, err := s.Split("no terminal punctuation here", 100, 0)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	if len(parts) != 1 || parts[0] != "no terminal punctuation here" {
		t.Errorf("expected the unterminated fragment to survive as its own pack, got %v", parts)
	}
}
