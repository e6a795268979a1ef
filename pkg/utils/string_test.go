package utils_test

import (
	"testing"

	"github.com/openkeyhub/governance/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestCollapseSpaces(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "single spaces", input: "hello world", want: "hello world"},
		{name: "runs of spaces", input: "hello    world", want: "hello world"},
		{name: "tabs and newlines", input: "hello\t\tworld\nagain", want: "hello world again"},
		{name: "surrounding whitespace", input: "  \n hello  \t", want: "hello"},
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: " \n\t ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.CollapseSpaces(tt.input))
		})
	}
}

func TestCollapseSpacesKeepLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "single line",
			input: "hello    world",
			want:  "hello world",
		},
		{
			name:  "lines kept",
			input: "hello    world\n  this  is  a  test\npreserve  newlines",
			want:  "hello world\nthis is a test\npreserve newlines",
		},
		{
			name:  "blank line kept between paragraphs",
			input: "\nhello    world\n\n   this  is  a  test\n   ",
			want:  "hello world\n\nthis is a test",
		},
		{
			name:  "blank runs folded",
			input: "first\n\n\n\n\nsecond\n \t \nthird",
			want:  "first\n\nsecond\n\nthird",
		},
		{
			name:  "mixed line endings",
			input: "hello    world\r\nthis  is  a  test\rpreserve  newlines",
			want:  "hello world\nthis is a test\npreserve newlines",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \n\t   \n   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.CollapseSpacesKeepLines(tt.input))
		})
	}
}
