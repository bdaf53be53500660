package render_test

import (
	"strings"
	"testing"

	"github.com/kasai-dev/pageforge/internal/domain"
	"github.com/kasai-dev/pageforge/internal/render"
)

func strPtr(s string) *string { return &s }

func TestPreviewRendersContentAsHTML(t *testing.T) {
	c := domain.Chunk{Content: "# Heading\n\nSome paragraph."}

	html, err := render.Preview(c)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	if !strings.Contains(html, "<h1>") {
		t.Errorf("expected markdown heading to render as HTML, got %q", html)
	}
	if !strings.Contains(html, "<p>Some paragraph.</p>") {
		t.Errorf("expected paragraph to render, got %q", html)
	}
}

func TestPreviewIncludesTitleTrail(t *testing.T) {
	c := domain.Chunk{
		ChapterTitle: strPtr("Chapter One"),
		SectionTitle: strPtr("Section A"),
		Content:      "body",
	}

	html, err := render.Preview(c)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	if !strings.Contains(html, "Chapter One") || !strings.Contains(html, "Section A") {
		t.Errorf("expected the title lineage to appear in the preview, got %q", html)
	}
}

func TestPreviewOmitsTrailWhenLineageEmpty(t *testing.T) {
	c := domain.Chunk{Content: "just body text"}

	html, err := render.Preview(c)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	if strings.Contains(html, "<strong>") {
		t.Errorf("expected no bolded title trail when lineage is empty, got %q", html)
	}
}
