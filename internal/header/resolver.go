// Package header reconciles a PDF's outline evidence with visual
// font-size ranking to assign a markdown heading level to each extracted
// section-header element.
package header

import (
	"sort"
	"strings"

	"github.com/kasai-dev/pageforge/internal/domain"
)

// fuzzyThreshold is the partial-ratio cutoff (0-100 scale) at or above which an
// outline title is considered a match for extracted header text.
const fuzzyThreshold = 80

// FontSizeProbe returns the dominant font size of glyph runs on pageNo that
// exactly match text, averaged across every exact match found.
type FontSizeProbe interface {
	Probe(pageNo int, text string) (avgSize float64, ok bool)
}

// Resolver classifies section headers into levels, given either an
// outline or a font-size probe as its evidence source.
type Resolver struct {
	outline domain.Outline // nil when the document has no outline
	probe   FontSizeProbe  // used only when outline is nil
}

// New constructs a Resolver. Pass a nil outline to force font-size-based
// classification for every header in the document.
func New(outline domain.Outline, probe FontSizeProbe) *Resolver {
	return &Resolver{outline: outline, probe: probe}
}

// HasOutline reports whether the resolver was constructed with outline
// evidence.
func (r *Resolver) HasOutline() bool {
	return r.outline != nil
}

// Classify assigns a level and display text to one section-header element.
// sortedSizes is the descending, deduplicated list of every section-header
// font size in the document (see CollectHeaderFontSizes); lastLevel
// is the most recently assigned header level, used as the outline fallback
// when no outline entry matches the page.
func (r *Resolver) Classify(text string, fontSize *float64, pageNo int, sortedSizes []float64, lastLevel int) (level int, display string) {
	if stripped := strings.TrimLeft(text, "#"); stripped != text {
		level = len(text) - len(stripped)
		return level, strings.TrimSpace(stripped)
	}

	if r.outline != nil {
		if entry, ok := r.outline[pageNo]; ok && fuzzyPartialRatio(strings.ToLower(text), strings.ToLower(entry.Title)) >= fuzzyThreshold {
			return entry.Level, text
		}
		return lastLevel + 1, text
	}

	if r.probe != nil {
		if avg, ok := r.probe.Probe(pageNo, text); ok {
			return rankFontSize(avg, sortedSizes), text
		}
	}
	return len(sortedSizes), text
}

// rankFontSize returns the 1-based descending rank of size within
// sortedSizes, or len(sortedSizes) (the lowest rank) if size is not
// present.
func rankFontSize(size float64, sortedSizes []float64) int {
	for i, s := range sortedSizes {
		if s == size {
			return i + 1
		}
	}
	if len(sortedSizes) == 0 {
		return 1
	}
	return len(sortedSizes)
}

// CollectHeaderFontSizes returns the descending, deduplicated list of font
// sizes carried by section-header elements; docproc.Processor collects it
// once per document before classifying headers.
func CollectHeaderFontSizes(elements []domain.Element) []float64 {
	seen := map[float64]struct{}{}
	for _, e := range elements {
		if e.Label == domain.LabelSectionHeader && e.FontSize != nil {
			seen[*e.FontSize] = struct{}{}
		}
	}
	sizes := make([]float64, 0, len(seen))
	for s := range seen {
		sizes = append(sizes, s)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))
	return sizes
}
