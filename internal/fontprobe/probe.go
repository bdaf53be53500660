// Package fontprobe extracts the dominant font size of text runs on a PDF
// page, used as the header resolver's fallback evidence when a document
// carries no outline.
package fontprobe

import (
	"strings"

	"github.com/ledongthuc/pdf"
)

// Probe satisfies header.FontSizeProbe against an open ledongthuc/pdf
// document. ledongthuc/pdf was picked over re-deriving glyph runs from
// pdfcpu's lower-level content-stream API because it already exposes a
// flat []Text{S, Font, FontSize} stream per page, which is exactly the
// shape this fallback needs.
type Probe struct {
	reader *pdf.Reader
	cache  map[int][]pdf.Text
}

// New wraps an already-opened *pdf.Reader.
func New(reader *pdf.Reader) *Probe {
	return &Probe{reader: reader, cache: map[int][]pdf.Text{}}
}

// Probe returns the average font size across every run on pageNo whose
// text exactly matches the probed text (match score 100, per the design
// note that only exact matches contribute to the average).
func (p *Probe) Probe(pageNo int, text string) (float64, bool) {
	runs, err := p.runsForPage(pageNo)
	if err != nil || len(runs) == 0 {
		return 0, false
	}

	target := strings.TrimSpace(text)
	var sum float64
	var count int
	for _, r := range runs {
		if strings.TrimSpace(r.S) == target {
			sum += r.FontSize
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func (p *Probe) runsForPage(pageNo int) ([]pdf.Text, error) {
	if runs, ok := p.cache[pageNo]; ok {
		return runs, nil
	}
	if pageNo < 1 || pageNo > p.reader.NumPage() {
		return nil, nil
	}
	page := p.reader.Page(pageNo)
	if page.V.IsNull() {
		return nil, nil
	}
	content := page.Content()
	p.cache[pageNo] = content.Text
	return content.Text, nil
}
