package strings

import (
	"strings"
)

// minTruncateLen leaves room for one character plus "...".
const minTruncateLen = 4

// OneLine collapses a message to a single line, folding any run of
// whitespace (including newlines) into one space.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate collapses a message to one line and cuts it to maxLen
// characters, appending "..." when something was cut. It slices runes,
// not bytes, so multi-byte characters never get split. maxLen values
// below 4 are clamped.
func Truncate(s string, maxLen int) string {
	if maxLen < minTruncateLen {
		maxLen = minTruncateLen
	}
	s = OneLine(s)
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
