package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TextNormalizer folds text for matching: diacritics are removed and case is lowered.
// This is not safe for concurrent use.
type TextNormalizer struct {
	transformer transform.Transformer
}

// NewTextNormalizer creates a new TextNormalizer instance.
func NewTextNormalizer() *TextNormalizer {
	return &TextNormalizer{
		transformer: transform.Chain(
			norm.NFKD,                          // Decompose with compatibility decomposition
			runes.Remove(runes.In(unicode.Mn)), // Remove non-spacing marks
			runes.Map(unicode.ToLower),         // Convert to lowercase before normalization
			norm.NFKC,                          // Normalize with compatibility composition
		),
	}
}

// Normalize folds text using the normalizer.
// Returns empty string if normalization fails or input is empty.
func (n *TextNormalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = CollapseSpacesKeepLines(s)
	if s == "" {
		return ""
	}

	result, _, err := transform.String(n.transformer, s)
	if err != nil || result == "" {
		return ""
	}

	return result
}

// Contains checks if substr exists within s after folding both.
// Empty strings or normalization failures return false.
func (n *TextNormalizer) Contains(s, substr string) bool {
	if s == "" || substr == "" {
		return false
	}

	normalizedS := n.Normalize(s)
	normalizedSubstr := n.Normalize(substr)

	if normalizedS == "" || normalizedSubstr == "" {
		return strings.Contains(
			strings.ToLower(s),
			strings.ToLower(substr),
		)
	}

	return strings.Contains(normalizedS, normalizedSubstr)
}

// CleanText composes user supplied text to NFC, strips control characters other than
// newlines and tabs, and compresses spacing while keeping line breaks.
func CleanText(s string) string {
	if s == "" {
		return ""
	}

	t := transform.Chain(norm.NFC, runes.Remove(runes.Predicate(isStrippedControl)))

	result, _, err := transform.String(t, s)
	if err != nil {
		return ""
	}

	return CollapseSpacesKeepLines(result)
}

// CleanLine behaves like CleanText but also folds line breaks into single spaces.
func CleanLine(s string) string {
	return CollapseSpaces(CleanText(s))
}

func isStrippedControl(r rune) bool {
	switch r {
	case '\n', '\r', '\t':
		return false
	}

	return unicode.IsControl(r) || r == '\u200b' || r == '\ufeff'
}
