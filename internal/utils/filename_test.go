package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestFilenameSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "removes invalid characters",
			input:    `file<>:"/\|?*name`,
			expected: "filename",
		},
		{
			name:     "joins words with dashes",
			input:    "The Lord of the Rings",
			expected: "the-lord-of-the-rings",
		},
		{
			name:     "collapses whitespace and separators",
			input:    "file\nname\t--  with__spaces",
			expected: "file-name-with-spaces",
		},
		{
			name:     "line breaks separate words",
			input:    "Pride\r\nand\tPrejudice\x00",
			expected: "pride-and-prejudice",
		},
		{
			name:     "drops brackets and hashtags",
			input:    `Book: "The Title" [Vol. 1] #Series`,
			expected: "book-the-title-vol-1-series",
		},
		{
			name:     "returns untitled for empty",
			input:    "",
			expected: "untitled",
		},
		{
			name:     "returns untitled for only special chars",
			input:    "<>:?* ##",
			expected: "untitled",
		},
		{
			name:     "truncates long names",
			input:    strings.Repeat("a", 250),
			expected: strings.Repeat("a", MaxSlugLength),
		},
		{
			name:     "handles unicode",
			input:    "Pamiętnik znaleziony w wannie",
			expected: "pamiętnik-znaleziony-w-wannie",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FilenameSlug(tt.input))
		})
	}
}

func TestFilenameSlugNeverSplitsRunes(t *testing.T) {
	slug := FilenameSlug(strings.Repeat("ę", 100))
	assert.True(t, utf8.ValidString(slug))
	assert.LessOrEqual(t, len(slug), MaxSlugLength)
}
