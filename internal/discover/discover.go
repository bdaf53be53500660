// Package discover finds ingestible PDF files under a directory.
package discover

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// magicPrefix is the byte sequence every valid PDF begins with.
var magicPrefix = []byte("%PDF")

// Find walks root recursively and returns every file whose name ends in
// ".pdf" (case-insensitive) and whose first bytes carry the PDF magic
// number. A ".pdf"-named file that fails the magic-byte check is skipped
// with a warning logged on log, and is never counted as a processing
// failure — input rejection happens here, before any document reaches the
// pipeline.
func Find(root string, log *zap.Logger) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		if !looksLikePDF(path) {
			log.Warn("skipping file with missing or invalid PDF header", zap.String("path", path))
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func looksLikePDF(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, len(magicPrefix))
	n, err := f.Read(buf)
	if err != nil || n < len(magicPrefix) {
		return false
	}
	for i, b := range magicPrefix {
		if buf[i] != b {
			return false
		}
	}
	return true
}
