package summary

import (
	"fmt"
	"strings"
)

// DefaultContextLines is how many lines are kept from each end of the output
// when summarization falls back to truncation.
const DefaultContextLines = 20

// Truncate reduces long output to its first and last maxLines lines with an
// omission marker in between. Output of 2*maxLines lines or fewer is returned
// verbatim. The result is deterministic, which is the point: it is the
// fallback when the summarization service is unavailable.
func Truncate(output string, maxLines int) string {
	lines := strings.Split(strings.TrimSuffix(output, "\n"), "\n")
	if len(lines) <= maxLines*2 {
		return output
	}

	head := strings.Join(lines[:maxLines], "\n")
	tail := strings.Join(lines[len(lines)-maxLines:], "\n")
	return fmt.Sprintf("%s\n\n... (%d lines omitted) ...\n\n%s", head, len(lines)-maxLines*2, tail)
}
