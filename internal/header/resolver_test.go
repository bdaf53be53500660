package header_test

import (
	"testing"

	"github.com/kasai-dev/pageforge/internal/domain"
	"github.com/kasai-dev/pageforge/internal/header"
)

func TestClassifyMarkdownPrefixShortCircuits(t *testing.T) {
	r := header.New(nil, nil)

	level, display := r.Classify("## Installation", nil, 1, nil, 0)
	if level != 2 {
		t.Errorf("level = %d, want 2", level)
	}
	if display != "Installation" {
		t.Errorf("display = %q, want %q", display, "Installation")
	}
}

func TestClassifyOutlineMatch(t *testing.T) {
	outline := domain.Outline{
		3: {Level: 1, Title: "Getting Started", PageNo: 3},
	}
	r := header.New(outline, nil)

	level, display := r.Classify("Getting Started", nil, 3, nil, 0)
	if level != 1 {
		t.Errorf("level = %d, want 1", level)
	}
	if display != "Getting Started" {
		t.Errorf("display = %q, want original text unchanged", display)
	}
}

func TestClassifyOutlineFallsBackWhenNoMatch(t *testing.T) {
	outline := domain.Outline{
		3: {Level: 1, Title: "Completely Unrelated Title", PageNo: 3},
	}
	r := header.New(outline, nil)

	level, _ := r.Classify("Getting Started", nil, 3, nil, 2)
	if level != 3 {
		t.Errorf("level = %d, want lastLevel+1 = 3", level)
	}
}

type stubProbe struct {
	size float64
	ok   bool
}

func (s stubProbe) Probe(pageNo int, text string) (float64, bool) {
	return s.size, s.ok
}

func TestClassifyFontSizeRanking(t *testing.T) {
	r := header.New(nil, stubProbe{size: 18, ok: true})

	sortedSizes := []float64{24, 18, 12}
	level, _ := r.Classify("Section Title", nil, 1, sortedSizes, 0)
	if level != 2 {
		t.Errorf("level = %d, want rank 2 for size 18", level)
	}
}

func TestClassifyFontSizeProbeMiss(t *testing.T) {
	r := header.New(nil, stubProbe{ok: false})

	sortedSizes := []float64{24, 18, 12}
	level, _ := r.Classify("Section Title", nil, 1, sortedSizes, 0)
	if level != len(sortedSizes) {
		t.Errorf("level = %d, want fallback to len(sortedSizes) = %d", level, len(sortedSizes))
	}
}

func TestHasOutline(t *testing.T) {
	if header.New(nil, nil).HasOutline() {
		t.Error("HasOutline should be false for a nil outline")
	}
	if !header.New(domain.Outline{}, nil).HasOutline() {
		t.Error("HasOutline should be true for a non-nil (even empty) outline")
	}
}

func TestCollectHeaderFontSizesDescendingDeduped(t *testing.T) {
	size12, size18, size24 := 12.0, 18.0, 24.0
	elements := []domain.Element{
		{Label: domain.LabelSectionHeader, FontSize: &size18},
		{Label: domain.LabelText, FontSize: &size24}, // not a header, ignored
		{Label: domain.LabelSectionHeader, FontSize: &size24},
		{Label: domain.LabelSectionHeader, FontSize: &size18}, // duplicate
		{Label: domain.LabelSectionHeader, FontSize: &size12},
		{Label: domain.LabelSectionHeader, FontSize: nil}, // no font size, ignored
	}

	got := header.CollectHeaderFontSizes(elements)
	want := []float64{24, 18, 12}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
