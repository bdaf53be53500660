// Package textutil cleans raw PDF-extracted text before it enters the
// structured element stream. go-fitz's Text() hands back whatever the
// page's font encoding tables produce, which for scanned or malformed PDFs
// can include invalid UTF-8 sequences, stray soft hyphens from justified
// line breaks, and the form-feed/NUL bytes some generators use as page or
// column separators.
package textutil

import (
	"strings"
	"unicode/utf8"
)

// controlArtifacts are bytes go-fitz occasionally leaves in extracted text
// that carry no content of their own: form feed and vertical tab standing
// in for a page or column break, NUL from a truncated encoding table, and
// the soft hyphen U+00AD inserted by justified line-wrapping.
var controlArtifacts = strings.NewReplacer(
	"\x0c", " ",
	"\x0b", " ",
	"\x00", "",
	"­", "",
)

// CleanLine prepares one line of extracted text for classification: it
// strips PDF-extraction control artifacts, drops invalid UTF-8 byte
// sequences, collapses runs of internal whitespace left by column-aligned
// source text, and trims the result.
func CleanLine(line string) string {
	line = controlArtifacts.Replace(line)
	line = SanitizeUTF8(line)
	line = collapseSpaces(line)
	return strings.TrimSpace(line)
}

// collapseSpaces folds runs of horizontal whitespace into a single space,
// the common artifact of text extracted from a multi-column layout where
// go-fitz preserves the original glyph spacing.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastWasSpace := false
	for _, r := range s {
		isSpace := r == ' ' || r == '\t'
		if isSpace && lastWasSpace {
			continue
		}
		if isSpace {
			r = ' '
		}
		b.WriteRune(r)
		lastWasSpace = isSpace
	}
	return b.String()
}

// SafeUTF8Truncate truncates a UTF-8 string to a maximum number of bytes
// without splitting a multi-byte character, used by httpbase.NewHTTPError to
// bound the response body an error message carries.
func SafeUTF8Truncate(str string, maxBytes int) string {
	if len(str) <= maxBytes {
		return str
	}

	for i := maxBytes; i >= 0 && i > maxBytes-4; i-- {
		if utf8.ValidString(str[:i]) {
			return str[:i]
		}
	}

	runes := []rune(str)
	result := ""
	for _, r := range runes {
		test := result + string(r)
		if len(test) > maxBytes {
			break
		}
		result = test
	}

	return result
}

// SanitizeUTF8 drops invalid UTF-8 byte sequences, the shape a corrupted
// font encoding table in a malformed PDF produces.
func SanitizeUTF8(str string) string {
	if utf8.ValidString(str) {
		return str
	}

	var buf strings.Builder
	buf.Grow(len(str))

	for len(str) > 0 {
		r, size := utf8.DecodeRuneInString(str)
		if r == utf8.RuneError && size == 1 {
			str = str[1:]
		} else {
			buf.WriteRune(r)
			str = str[size:]
		}
	}

	return buf.String()
}
