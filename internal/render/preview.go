// Package render turns a Chunk's assembled content into an HTML preview,
// used by the debug CLI flag to let an operator eyeball what a chunk will
// actually look like once embedded, instead of reading raw markdown-ish
// text in a terminal.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/kasai-dev/pageforge/internal/domain"
)

// Preview renders a single Chunk to an HTML fragment: its title lineage as
// a heading trail, followed by its content run through goldmark.
func Preview(c domain.Chunk) (string, error) {
	var md strings.Builder

	if trail := titleTrail(c); trail != "" {
		md.WriteString("**")
		md.WriteString(trail)
		md.WriteString("**\n\n")
	}
	md.WriteString(c.Content)

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md.String()), &buf); err != nil {
		return "", fmt.Errorf("render: convert chunk: %w", err)
	}
	return buf.String(), nil
}

func titleTrail(c domain.Chunk) string {
	var parts []string
	for _, t := range []*string{c.ChapterTitle, c.SectionTitle, c.SubsectionTitle, c.SubsubsectionTitle} {
		if t != nil {
			parts = append(parts, *t)
		}
	}
	return strings.Join(parts, " › ")
}
