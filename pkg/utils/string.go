package utils

import "strings"

// CollapseSpaces folds every whitespace run, line breaks included, into one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CollapseSpacesKeepLines collapses spacing within each line, normalises line endings
// to \n and keeps at most one blank line between paragraphs.
func CollapseSpacesKeepLines(s string) string {
	s = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(s)

	var b strings.Builder
	blank := false
	for line := range strings.SplitSeq(s, "\n") {
		line = CollapseSpaces(line)
		if line == "" {
			blank = b.Len() > 0
			continue
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
			if blank {
				b.WriteByte('\n')
			}
		}
		b.WriteString(line)
		blank = false
	}
	return b.String()
}
