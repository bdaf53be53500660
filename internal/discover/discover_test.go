package discover_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kasai-dev/pageforge/internal/discover"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindMatchesRealPDFsRecursively(t *testing.T) {
	root := t.TempDir()
	pdfBody := append([]byte("%PDF-1.7\n"), []byte("rest of file")...)

	writeFile(t, filepath.Join(root, "a.pdf"), pdfBody)
	writeFile(t, filepath.Join(root, "sub", "b.PDF"), pdfBody)
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("not a pdf"))

	got, err := discover.Find(root, zap.NewNop())
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	sort.Strings(got)

	if len(got) != 2 {
		t.Fatalf("expected 2 PDFs found, got %d: %v", len(got), got)
	}
}

func TestFindSkipsFilesWithPDFExtensionButNoMagicBytes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "fake.pdf"), []byte("not actually a pdf"))

	core, logs := observer.New(zapcore.DebugLevel)
	got, err := discover.Find(root, zap.New(core))
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected fake.pdf to be skipped, got %v", got)
	}

	entries := logs.FilterMessage("skipping file with missing or invalid PDF header").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning logged for the rejected file, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("log level = %v, want %v", entries[0].Level, zapcore.WarnLevel)
	}
}

func TestFindEmptyDirectory(t *testing.T) {
	root := t.TempDir()

	got, err := discover.Find(root, zap.NewNop())
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no results in an empty directory, got %v", got)
	}
}
