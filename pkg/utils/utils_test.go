package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanToValidUTF8(t *testing.T) {
	assert.Equal(t, "hello", CleanToValidUTF8("hel\x00lo"))
	assert.Equal(t, "ok", CleanToValidUTF8("ok"))
	assert.Equal(t, "ab", CleanToValidUTF8("a\xffb"))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "abc...", TruncateText("abcdef", 3))
	assert.Equal(t, "", TruncateText("abc", 0))

	// Runes, not bytes.
	truncated := TruncateText("héllo wörld", 5)
	assert.Equal(t, "héllo...", truncated)
	assert.True(t, strings.HasSuffix(truncated, "..."))
}

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"a", "b"}, "b"))
	assert.False(t, ContainsString([]string{"a", "b"}, "c"))
	assert.False(t, ContainsString(nil, "a"))
}
