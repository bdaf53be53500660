// Package convert is the default adapter for the Converter external
// collaborator, named only by interface elsewhere in the pipeline. It
// produces a domain.DocumentTree from a PDF path: page count and outline via pdfcpu's
// object model, and a flat element stream via go-fitz's text extraction,
// with section headers distinguished from body text by a simple heuristic
// over line shape. Because the pipeline treats Converter as
// an out-of-scope collaborator, this adapter favors a direct, inspectable
// implementation over a fully general PDF layout analyzer.
package convert

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/kasai-dev/pageforge/internal/domain"
	"github.com/kasai-dev/pageforge/internal/outline"
	"github.com/kasai-dev/pageforge/internal/textutil"
)

// Converter produces a DocumentTree for one PDF.
type Converter interface {
	Convert(path string) (domain.DocumentTree, error)
}

// FitzConverter implements Converter using MuPDF bindings via go-fitz for
// page text and pdfcpu for outline/object-model access.
type FitzConverter struct {
	// HeadingPattern classifies a line as a section_header when the line
	// matches it and is shorter than 120 characters. go-fitz does not
	// expose per-run font metadata through its plain-text API, so this
	// adapter infers headings from line shape only and leaves FontSize
	// unset; a document with
	// a real outline never needs the font-size fallback to resolve such
	// headers, and one without an outline relies on fontprobe.Probe
	// (backed by ledongthuc/pdf) for font-size ranking instead.
	HeadingPattern *regexp.Regexp
}

// NewFitzConverter constructs a FitzConverter with the default heading
// heuristic.
func NewFitzConverter() *FitzConverter {
	return &FitzConverter{HeadingPattern: defaultHeadingPattern}
}

var defaultHeadingPattern = regexp.MustCompile(`^(Chapter|Section|[0-9]+(\.[0-9]+)*\.?)\s+\S`)

var (
	codeFencePattern = regexp.MustCompile("^\\s{4,}\\S|^\\t")
	formulaPattern   = regexp.MustCompile(`^\$.*\$$`)
	listItemPattern  = regexp.MustCompile(`^\s*([-*•]|\d+[.)])\s+`)
	tableCellSplit   = regexp.MustCompile(`\s{2,}|\t`)
)

// minTableRows and minTableCols bound the line-shape heuristic used to spot
// a table: go-fitz's plain-text API carries no layout metadata, so a "table"
// is approximated as several consecutive lines that each split into the
// same number of whitespace-delimited columns.
const (
	minTableRows = 2
	minTableCols = 2
)

// detectTableRows scans lines for the longest run of consecutive lines that
// each split into the same number of columns, returning that run split into
// cells. Returns ok=false when no run meets the minimum row/column bounds.
func detectTableRows(lines []string) ([][]string, bool) {
	var best [][]string
	var current [][]string

	flush := func() {
		if len(current) >= minTableRows && len(current) > len(best) {
			best = current
		}
		current = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		cells := tableCellSplit.Split(trimmed, -1)
		if len(cells) < minTableCols {
			flush()
			continue
		}
		if len(current) > 0 && len(cells) != len(current[0]) {
			flush()
		}
		current = append(current, cells)
	}
	flush()

	return best, len(best) >= minTableRows
}

// renderTableHTML renders detected rows as a minimal HTML table, the shape
// TableRecord.HTML carries regardless of source format.
func renderTableHTML(rows [][]string) string {
	var b strings.Builder
	b.WriteString("<table>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>")
			b.WriteString(cell)
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

// Convert reads the PDF at path and returns its DocumentTree.
func (c *FitzConverter) Convert(path string) (domain.DocumentTree, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return domain.DocumentTree{}, fmt.Errorf("convert: open %s: %w", path, err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	var elements []domain.Element
	var tables []string

	for pageIdx := 0; pageIdx < pageCount; pageIdx++ {
		text, err := doc.Text(pageIdx)
		if err != nil {
			return domain.DocumentTree{}, fmt.Errorf("convert: extract text page %d of %s: %w", pageIdx, path, err)
		}
		pageNo := pageIdx + 1
		lines := strings.Split(text, "\n")
		for i := 0; i < len(lines); i++ {
			trimmed := textutil.CleanLine(lines[i])
			if trimmed == "" {
				continue
			}
			elements = append(elements, classifyLine(trimmed, pageNo, c.HeadingPattern))
		}

		if rows, ok := detectTableRows(lines); ok {
			idx := len(tables)
			tables = append(tables, renderTableHTML(rows))
			elements = append(elements, domain.Element{
				Label:     domain.LabelCaption,
				Text:      fmt.Sprintf("Table %d", idx+1),
				PageNo:    pageNo,
				ParentRef: fmt.Sprintf("#/tables/%d", idx),
			})
		}
	}

	model, nodes, pdfcpuPageCount, err := outline.BuildObjectModel(path)
	if err != nil {
		// An unreadable object model still leaves text extraction usable;
		// the document simply falls through to font-size ranking, which
		// mirrors the "no outline exists" branch of HeaderResolver.
		return domain.DocumentTree{PageCount: pageCount, Elements: elements, Tables: tables}, nil
	}
	if pdfcpuPageCount > pageCount {
		pageCount = pdfcpuPageCount
	}

	var resolved domain.Outline
	if len(nodes) > 0 {
		resolved = outline.BuildOutline(nodes, outline.New(model))
	}

	return domain.DocumentTree{
		PageCount: pageCount,
		Elements:  elements,
		Tables:    tables,
		Outline:   nodes,
		Resolved:  resolved,
	}, nil
}

func classifyLine(text string, pageNo int, heading *regexp.Regexp) domain.Element {
	switch {
	case heading.MatchString(text) && len(text) < 120:
		return domain.Element{Label: domain.LabelSectionHeader, Text: text, PageNo: pageNo, Provs: []domain.Prov{{Page: pageNo}}}
	case formulaPattern.MatchString(text):
		return domain.Element{Label: domain.LabelFormula, Text: strings.Trim(text, "$"), PageNo: pageNo}
	case codeFencePattern.MatchString(text):
		return domain.Element{Label: domain.LabelCode, Text: strings.TrimLeft(text, " \t"), PageNo: pageNo}
	case listItemPattern.MatchString(text):
		return domain.Element{Label: domain.LabelListItem, Text: listItemPattern.ReplaceAllString(text, ""), PageNo: pageNo}
	default:
		return domain.Element{Label: domain.LabelText, Text: text, PageNo: pageNo}
	}
}
