package utils_test

import (
	"testing"

	"github.com/openkeyhub/governance/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestTextNormalizer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		want     string
		contains string
		hasMatch bool
	}{
		{
			name:     "empty string",
			input:    "",
			want:     "",
			contains: "test",
			hasMatch: false,
		},
		{
			name:     "basic string",
			input:    "Upgrade Platform",
			want:     "upgrade platform",
			contains: "upgrade",
			hasMatch: true,
		},
		{
			name:     "string with diacritics",
			input:    "trésor réserve",
			want:     "tresor reserve",
			contains: "RESERVE",
			hasMatch: true,
		},
		{
			name:     "mixed case with spaces",
			input:    "TreaSURY    Spend",
			want:     "treasury spend",
			contains: "sury sp",
			hasMatch: true,
		},
		{
			name:     "no match in string",
			input:    "treasury spend",
			want:     "treasury spend",
			contains: "upgrade",
			hasMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			normalizer := utils.NewTextNormalizer()

			got := normalizer.Normalize(tt.input)
			assert.Equal(t, tt.want, got)

			hasMatch := normalizer.Contains(tt.input, tt.contains)
			assert.Equal(t, tt.hasMatch, hasMatch)
		})
	}
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
		line  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "",
			line:  "",
		},
		{
			name:  "composes decomposed accents",
			input: "cafe\u0301 fund",
			want:  "café fund",
			line:  "café fund",
		},
		{
			name:  "strips control and zero width characters",
			input: "vote\u0000 now\u200b please\ufeff",
			want:  "vote now please",
			line:  "vote now please",
		},
		{
			name:  "keeps newlines",
			input: "  first   line \r\n\tsecond line  ",
			want:  "first line\nsecond line",
			line:  "first line second line",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.CleanText(tt.input))
			assert.Equal(t, tt.line, utils.CleanLine(tt.input))
		})
	}
}

func BenchmarkTextNormalizer(b *testing.B) {
	normalizer := utils.NewTextNormalizer()
	input := "Répartition du trésor pour la maintenance du dépôt principal"

	for b.Loop() {
		normalizer.Normalize(input)
	}
}
