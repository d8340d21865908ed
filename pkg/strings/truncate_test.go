package strings

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a b c", OneLine("a\nb\t\tc"))
	assert.Equal(t, "", OneLine("  \n "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exactly", Truncate("exactly", 7))
	assert.Equal(t, "long...", Truncate("long message", 7))

	// Newlines collapse before measuring.
	assert.Equal(t, "line one li...", Truncate("line one\nline two", 14))
}

func TestTruncateClampsTinyLimits(t *testing.T) {
	assert.Equal(t, "w...", Truncate("wide", -5))
	assert.NotPanics(t, func() { Truncate(strings.Repeat("x", 100), 0) })
}

func TestTruncateHandlesMultibyte(t *testing.T) {
	s := strings.Repeat("ü", 10)
	out := Truncate(s, 8)
	assert.Equal(t, strings.Repeat("ü", 5)+"...", out)
}
