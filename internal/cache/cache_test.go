package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kasai-dev/pageforge/internal/cache"
	"github.com/kasai-dev/pageforge/internal/domain"
)

func TestStemStripsExtension(t *testing.T) {
	tests := []struct{ path, want string }{
		{"/a/b/report.pdf", "report"},
		{"relative/doc.PDF", "doc"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := cache.Stem(tt.path); got != tt.want {
			t.Errorf("Stem(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestChecksumDeterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7 content"), 0o644); err != nil {
		t.Fatal(err)
	}

	sum1, err := cache.Checksum(path)
	if err != nil {
		t.Fatalf("Checksum returned error: %v", err)
	}
	sum2, err := cache.Checksum(path)
	if err != nil {
		t.Fatalf("Checksum returned error: %v", err)
	}
	if sum1 != sum2 {
		t.Errorf("expected the same file to hash deterministically, got %q and %q", sum1, sum2)
	}
	if len(sum1) != 64 {
		t.Errorf("expected a 64-char hex SHA-256 digest, got %d chars", len(sum1))
	}
}

func TestResolveForcesFullRunWhenChecksumMissing(t *testing.T) {
	layer, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	plan := layer.Resolve("doc", "abc123")
	if plan.SkipConvert || plan.SkipText || plan.SkipTable || plan.SkipChunks {
		t.Errorf("expected every stage to run when no checksum exists, got %+v", plan)
	}
}

func TestResolveForcesFullRunWhenChecksumChanged(t *testing.T) {
	dir := t.TempDir()
	layer, err := cache.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := layer.WriteChecksum("doc", "old-checksum"); err != nil {
		t.Fatal(err)
	}

	plan := layer.Resolve("doc", "new-checksum")
	if plan.SkipConvert {
		t.Error("a changed checksum should force reconversion")
	}
}

func TestResolveSkipsStagesWithExistingSidecars(t *testing.T) {
	dir := t.TempDir()
	layer, err := cache.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := layer.WriteChecksum("doc", "stable"); err != nil {
		t.Fatal(err)
	}
	if err := layer.WriteText("doc", []domain.StructuredElement{}); err != nil {
		t.Fatal(err)
	}

	plan := layer.Resolve("doc", "stable")
	if !plan.SkipConvert {
		t.Error("expected SkipConvert when the checksum matches")
	}
	if !plan.SkipText {
		t.Error("expected SkipText since the text sidecar exists")
	}
	if plan.SkipTable {
		t.Error("expected SkipTable to be false since no table sidecar was written")
	}
}

func TestWriteAndReadConvertedRoundTrip(t *testing.T) {
	layer, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	tree := domain.DocumentTree{
		PageCount: 5,
		Elements:  []domain.Element{{Label: domain.LabelText, Text: "hello", PageNo: 1}},
		Tables:    []string{"<table></table>"},
		Resolved:  domain.Outline{1: {Level: 1, Title: "Intro", PageNo: 1}},
		// Outline is deliberately left unset: it carries the sealed Ref
		// interface and is never persisted.
	}

	if err := layer.WriteConverted("doc", tree); err != nil {
		t.Fatalf("WriteConverted returned error: %v", err)
	}

	got, err := layer.ReadConverted("doc")
	if err != nil {
		t.Fatalf("ReadConverted returned error: %v", err)
	}
	if got.PageCount != tree.PageCount {
		t.Errorf("PageCount = %d, want %d", got.PageCount, tree.PageCount)
	}
	if len(got.Elements) != 1 || got.Elements[0].Text != "hello" {
		t.Errorf("Elements = %+v, want the original element round-tripped", got.Elements)
	}
	if len(got.Tables) != 1 {
		t.Errorf("Tables = %+v, want 1 entry", got.Tables)
	}
	entry, ok := got.Resolved[1]
	if !ok || entry.Title != "Intro" {
		t.Errorf("Resolved = %+v, want page 1 to resolve to Intro", got.Resolved)
	}
}

func TestWriteAndReadChunksRoundTrip(t *testing.T) {
	layer, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	chapter := "Chapter One"
	chunks := []domain.Chunk{{ChapterTitle: &chapter, Content: "body"}}

	if err := layer.WriteChunks("doc", chunks); err != nil {
		t.Fatalf("WriteChunks returned error: %v", err)
	}
	got, err := layer.ReadChunks("doc")
	if err != nil {
		t.Fatalf("ReadChunks returned error: %v", err)
	}
	if len(got) != 1 || got[0].ChapterTitle == nil || *got[0].ChapterTitle != chapter {
		t.Errorf("got %+v, want the chunk round-tripped", got)
	}
}

func TestTablesExist(t *testing.T) {
	layer, err := cache.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if layer.TablesExist("doc") {
		t.Error("TablesExist should be false before any write")
	}
	if err := layer.WriteTables("doc", map[int]domain.TableRecord{}); err != nil {
		t.Fatal(err)
	}
	if !layer.TablesExist("doc") {
		t.Error("TablesExist should be true after WriteTables")
	}
}
