package relay

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextPreview(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		expected string
	}{
		{"ascii", []byte("id,name\n1,alpha\n"), "id,name\n1,alpha\n"},
		{"multibyte", []byte("héllo wörld ✓"), "héllo wörld ✓"},
		{"empty", []byte{}, ""},
		{"invalid bytes replaced", []byte{'a', 0xff, 'b'}, "a�b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TextPreview(tt.raw)
			require.NotNil(t, got)
			assert.Equal(t, tt.expected, *got)
		})
	}
}

func TestTextPreview_Truncates(t *testing.T) {
	long := strings.Repeat("ж", PreviewRunes+500)

	got := TextPreview([]byte(long))
	require.NotNil(t, got)
	assert.Equal(t, PreviewRunes, utf8.RuneCountInString(*got))
	assert.True(t, strings.HasPrefix(long, *got))
}

func TestTextPreview_TruncatesInvalidInput(t *testing.T) {
	raw := make([]byte, 3*PreviewRunes)
	for i := range raw {
		raw[i] = 0xfe
	}

	got := TextPreview(raw)
	require.NotNil(t, got)
	assert.Equal(t, PreviewRunes, utf8.RuneCountInString(*got))
}

func TestTextPreview_SplitRuneAtWindowEdge(t *testing.T) {
	// One ASCII byte shifts the four-byte runes so the window ends mid-rune.
	raw := []byte("a" + strings.Repeat("😀", PreviewRunes))

	got := TextPreview(raw)
	require.NotNil(t, got)
	assert.Equal(t, PreviewRunes, utf8.RuneCountInString(*got))
	assert.NotContains(t, *got, "�")
}

func TestTextPreview_BinaryIsAbsent(t *testing.T) {
	assert.Nil(t, TextPreview([]byte{0x89, 'P', 'N', 'G', 0x00, 0x1a}))
	assert.Nil(t, TextPreview([]byte("text\x00more text")))
}
