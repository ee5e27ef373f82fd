// Package utils holds small string helpers shared across packages.
package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Characters invalid in filenames on most filesystems. Control characters
	// matched by \s are left for separatorRuns.
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x08\x0b\x0e-\x1f]`)
	// Runs of whitespace and separators collapse to a single dash
	separatorRuns = regexp.MustCompile(`[\s\-_.#\[\]()]+`)
)

// MaxSlugLength bounds the label part of generated file names.
const MaxSlugLength = 60

// FilenameSlug turns a free-text label such as a book title into a lower-case
// fragment safe to embed in a file name. It returns "untitled" when nothing
// usable remains.
func FilenameSlug(label string) string {
	slug := invalidFilenameChars.ReplaceAllString(label, "")
	slug = strings.ToLower(slug)
	slug = separatorRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > MaxSlugLength {
		slug = slug[:MaxSlugLength]
		// Drop a rune cut in half by the byte limit
		for !utf8.ValidString(slug) {
			slug = slug[:len(slug)-1]
		}
		slug = strings.TrimRight(slug, "-")
	}

	if slug == "" {
		return "untitled"
	}
	return slug
}
