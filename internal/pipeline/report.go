package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// Render formats an ingestion report as a human-readable table: one row
// per document, plus a closing ingested/total summary line.
func (r Report) Render() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Ingestion report"))
	b.WriteString("\n\n")

	for _, doc := range r.Processed {
		b.WriteString(okStyle.Render("OK  "))
		b.WriteString(fmt.Sprintf(
			"%-40s  pages=%-5s chunks=%-5s tables=%-3s  convert=%-7s process_text=%-7s process_tables=%-7s chunk=%-7s total=%-7s\n",
			filepath.Base(doc.Path),
			humanize.Comma(int64(doc.PageCount)),
			humanize.Comma(int64(doc.Chunks)),
			humanize.Comma(int64(doc.Tables)),
			formatDuration(doc.Timings.Convert),
			formatDuration(doc.Timings.ProcessText),
			formatDuration(doc.Timings.ProcessTable),
			formatDuration(doc.Timings.Chunk),
			formatDuration(doc.Timings.Total()),
		))
	}

	for _, doc := range r.Failed {
		b.WriteString(failStyle.Render("FAIL"))
		b.WriteString(fmt.Sprintf("  %-40s  %s\n", filepath.Base(doc.Path), doc.Err))
	}

	total := len(r.Processed) + len(r.Failed)
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf(
		"ingested %d/%d documents (%s)",
		len(r.Processed), total, percent(len(r.Processed), total),
	)))
	b.WriteString("\n")

	return b.String()
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func percent(n, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}
