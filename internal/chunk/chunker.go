package chunk

import (
	"fmt"
	"strings"

	"github.com/kasai-dev/pageforge/internal/domain"
)

// Chunker turns a document's structured elements into Chunks, tracking the
// active chapter/section/subsection/subsubsection lineage and flushing
// accumulated content through a Splitter at each section boundary.
type Chunker struct {
	splitter  *Splitter
	maxTokens int
	overlap   int
}

// NewChunker constructs a Chunker. maxTokens and overlap are forwarded to
// Splitter.Split for every flush.
func NewChunker(splitter *Splitter, maxTokens, overlap int) *Chunker {
	return &Chunker{splitter: splitter, maxTokens: maxTokens, overlap: overlap}
}

// accumulator holds content gathered since the last flush, along with the
// lineage active when it began.
type accumulator struct {
	lineage     domain.TitleLineage
	content     strings.Builder
	pages       []int
	sourceNodes []string
}

func (a *accumulator) reset(lineage domain.TitleLineage) {
	a.lineage = lineage
	a.content.Reset()
	a.pages = nil
	a.sourceNodes = nil
}

func (a *accumulator) empty() bool {
	return a.content.Len() == 0
}

func (a *accumulator) appendText(text string) {
	if a.content.Len() > 0 {
		a.content.WriteString("\n\n")
	}
	a.content.WriteString(text)
}

// Chunk walks elements in document order, producing the Chunks that result
// from every section boundary and the final flush at end of document.
func (c *Chunker) Chunk(elements []domain.StructuredElement) ([]domain.Chunk, error) {
	var lineage domain.TitleLineage
	acc := &accumulator{}
	var chunks []domain.Chunk

	flush := func() error {
		if acc.empty() {
			return nil
		}
		parts, err := c.splitter.Split(acc.content.String(), c.maxTokens, c.overlap)
		if err != nil {
			return fmt.Errorf("chunk: split: %w", err)
		}

		pages := domain.SortPageRange(append([]int(nil), acc.pages...))
		multi := len(parts) > 1
		for i, part := range parts {
			chunk := domain.Chunk{
				Content:     part,
				PageRange:   pages,
				SourceNodes: append([]string(nil), acc.sourceNodes...),
			}
			acc.lineage.Apply(&chunk)
			if multi {
				partID := i + 1
				chunk.PartID = &partID
			}
			chunks = append(chunks, chunk)
		}
		return nil
	}

	for idx, se := range elements {
		if se.Label.Dropped() {
			continue
		}

		if se.Label == domain.LabelSectionHeader {
			if err := flush(); err != nil {
				return nil, err
			}
			lineage = updateLineage(lineage, se.Level, se.Text)
			acc.reset(lineage)
			continue
		}

		text, ok := renderBody(se.Element)
		if !ok {
			continue
		}

		if acc.empty() {
			acc.lineage = lineage
		}
		acc.appendText(text)
		if se.HasPage() {
			acc.pages = append(acc.pages, se.PageNo)
		}
		acc.sourceNodes = append(acc.sourceNodes, fmt.Sprintf("#texts/%d", idx))
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// updateLineage assigns title at the slot matching level and clears every
// deeper slot, matching the running-title-slots behavior: a new chapter
// invalidates whatever section/subsection/subsubsection was active under
// the previous chapter.
func updateLineage(lineage domain.TitleLineage, level int, title string) domain.TitleLineage {
	t := title
	switch level {
	case 1:
		lineage.Chapter = &t
		lineage.Section = nil
		lineage.Subsection = nil
		lineage.Subsubsection = nil
	case 2:
		lineage.Section = &t
		lineage.Subsection = nil
		lineage.Subsubsection = nil
	case 3:
		lineage.Subsection = &t
		lineage.Subsubsection = nil
	default:
		lineage.Subsubsection = &t
	}
	return lineage
}

// renderBody returns the flush-ready text for a non-header element, or
// false if the label carries no body content (already-dropped labels are
// filtered earlier).
func renderBody(e domain.Element) (string, bool) {
	switch e.Label {
	case domain.LabelCode:
		return "```\n" + e.Text + "\n```", true
	case domain.LabelFormula:
		return "$" + e.Text + "$ ", true
	case domain.LabelText, domain.LabelListItem:
		return e.Text, true
	default:
		return "", false
	}
}
