// Package docproc implements the DocumentProcessor stage: it turns a raw
// DocumentTree into the structured element list the chunker consumes, and
// separately extracts, summarizes, and filters the tables worth retaining.
// Any failure in this stage is returned as an error, which drops the whole
// document; a failure in the table step still returns the already
// structured elements alongside that error.
package docproc

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/kasai-dev/pageforge/internal/domain"
	"github.com/kasai-dev/pageforge/internal/header"
	"github.com/kasai-dev/pageforge/internal/llm"
)

// SummaryMemo memoizes table-HTML summaries so repeated ingestion runs do
// not re-spend LLM calls on tables already summarized.
type SummaryMemo interface {
	Get(ctx context.Context, html string) (summary string, ok bool)
	Put(ctx context.Context, html, summary string) error
}

// Result is what one document's processing run produces: the structured
// element stream the chunker consumes, and the tables worth retaining.
// TextDuration and TableDuration break the run down by phase, mirroring
// the source's process_text/process_tables timing split.
type Result struct {
	Elements      []domain.StructuredElement
	Tables        map[int]domain.TableRecord
	TextDuration  time.Duration
	TableDuration time.Duration
}

// Processor implements the DocumentProcessor stage.
type Processor struct {
	llm  llm.LLMClient
	memo SummaryMemo // optional; nil disables memoization
}

// NewProcessor constructs a Processor. memo may be nil.
func NewProcessor(client llm.LLMClient, memo SummaryMemo) *Processor {
	return &Processor{llm: client, memo: memo}
}

var tableParentRef = regexp.MustCompile(`^#/tables/(\d+)$`)

// Process walks tree's elements in order, producing structured text and
// retained tables. probe supplies font-size evidence for documents with no
// outline; it may be nil for a document whose outline is always present.
// tag identifies the document for LLM call logging. model, endpoint are
// forwarded to the LLMClient. If table summarization/classification fails,
// Process still returns the successfully built Result.Elements alongside
// the error, so the caller can persist the text sidecar and resume from it
// on the next run instead of losing the already-extracted text.
func (p *Processor) Process(tree domain.DocumentTree, tables []string, probe header.FontSizeProbe, tag, model, endpoint string) (*Result, error) {
	textStart := time.Now()

	resolver := header.New(tree.Resolved, probe)
	sortedSizes := header.CollectHeaderFontSizes(tree.Elements)
	lastLevel := 0

	var structured []domain.StructuredElement
	var captions []string
	captionTableIdx := map[int]int{} // caption index -> matched table index

	for _, e := range tree.Elements {
		if e.Label.Dropped() {
			if e.Label == domain.LabelCaption {
				captions = append(captions, e.Text)
				if idx, ok := matchCaptionToTable(e.ParentRef, tables, captionTableIdx); ok {
					captionTableIdx[len(captions)-1] = idx
				}
			}
			continue
		}

		if e.Label != domain.LabelSectionHeader {
			structured = append(structured, domain.StructuredElement{Element: e})
			continue
		}

		if len(e.Provs) == 0 {
			level, display := resolver.Classify(e.Text, e.FontSize, e.PageNo, sortedSizes, lastLevel)
			lastLevel = level
			se := e
			se.Text = display
			if resolver.HasOutline() {
				se.FontSize = nil
			}
			structured = append(structured, domain.StructuredElement{Element: se, Level: level})
			continue
		}

		for _, prov := range e.Provs {
			level, display := resolver.Classify(e.Text, e.FontSize, prov.Page, sortedSizes, lastLevel)
			lastLevel = level
			se := e
			se.Text = display
			se.PageNo = prov.Page
			se.Provs = []domain.Prov{prov}
			if resolver.HasOutline() {
				se.FontSize = nil
			}
			structured = append(structured, domain.StructuredElement{Element: se, Level: level})
		}
	}

	textDuration := time.Since(textStart)

	tableStart := time.Now()
	records, err := p.buildTables(tables, captions, captionTableIdx, tag, model, endpoint)
	tableDuration := time.Since(tableStart)
	if err != nil {
		return &Result{Elements: structured, TextDuration: textDuration, TableDuration: tableDuration}, fmt.Errorf("docproc: %s: %w", tag, err)
	}

	return &Result{Elements: structured, Tables: records, TextDuration: textDuration, TableDuration: tableDuration}, nil
}

// matchCaptionToTable resolves a caption's parent_ref ("#/tables/<ix>") to
// a table index, first-match-pop: an index already claimed by an earlier
// caption is not reused.
func matchCaptionToTable(parentRef string, tables []string, claimed map[int]int) (int, bool) {
	m := tableParentRef.FindStringSubmatch(parentRef)
	if m == nil {
		return 0, false
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil || idx < 0 || idx >= len(tables) {
		return 0, false
	}
	for _, used := range claimed {
		if used == idx {
			return 0, false
		}
	}
	return idx, true
}

// buildTables summarizes and filters every table that matched a caption,
// dropping tables the LLM classifies as not worth retaining.
func (p *Processor) buildTables(tables, captions []string, captionTableIdx map[int]int, tag, model, endpoint string) (map[int]domain.TableRecord, error) {
	if len(captionTableIdx) == 0 {
		return map[int]domain.TableRecord{}, nil
	}

	captionOrder := make([]int, 0, len(captionTableIdx))
	tableOrder := make([]int, 0, len(captionTableIdx))
	for capIdx, tblIdx := range captionTableIdx {
		captionOrder = append(captionOrder, capIdx)
		tableOrder = append(tableOrder, tblIdx)
	}

	ctx := context.Background()
	htmls := make([]string, len(tableOrder))
	summaries := make([]string, len(tableOrder))
	var missIdx []int
	var missHTML []string

	for i, tblIdx := range tableOrder {
		htmls[i] = tables[tblIdx]
		if p.memo != nil {
			if cached, ok := p.memo.Get(ctx, htmls[i]); ok {
				summaries[i] = cached
				continue
			}
		}
		missIdx = append(missIdx, i)
		missHTML = append(missHTML, htmls[i])
	}

	if len(missHTML) > 0 {
		fresh, err := p.llm.Summarize(missHTML, model, endpoint, tag)
		if err != nil {
			return nil, fmt.Errorf("summarize tables: %w", err)
		}
		for j, i := range missIdx {
			summaries[i] = fresh[j]
			if p.memo != nil {
				_ = p.memo.Put(ctx, htmls[i], fresh[j])
			}
		}
	}
	keep, err := p.llm.Classify(summaries, model, endpoint, tag)
	if err != nil {
		return nil, fmt.Errorf("classify tables: %w", err)
	}

	records := map[int]domain.TableRecord{}
	for i, tblIdx := range tableOrder {
		if !keep[i] {
			continue
		}
		records[tblIdx] = domain.TableRecord{
			HTML:    tables[tblIdx],
			Caption: captions[captionOrder[i]],
			Summary: summaries[i],
		}
	}
	return records, nil
}
