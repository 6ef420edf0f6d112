package relay

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// PreviewRunes is the maximum number of characters in a text preview.
const PreviewRunes = 4000

// previewWindow is the largest prefix that can contribute to a preview.
// Every decoded rune consumes at least one and at most four input bytes.
const previewWindow = PreviewRunes * utf8.UTFMax

// TextPreview decodes raw as UTF-8, replacing invalid sequences with U+FFFD,
// and returns at most the first PreviewRunes characters.
// It returns nil for content that does not decode as text, which includes
// any payload containing a NUL byte.
func TextPreview(raw []byte) *string {
	if bytes.IndexByte(raw, 0) >= 0 {
		return nil
	}

	window := raw
	if len(window) > previewWindow {
		window = window[:previewWindow]
	}

	decoded, err := unicode.UTF8.NewDecoder().Bytes(window)
	if err != nil {
		return nil
	}

	preview := truncateRunes(decoded, PreviewRunes)
	return &preview
}

func truncateRunes(b []byte, n int) string {
	count := 0
	for i := range string(b) {
		if count == n {
			return string(b[:i])
		}
		count++
	}
	return string(b)
}
