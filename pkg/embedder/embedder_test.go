package embedder

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "hello world", CleanText("  hello \n\n\t world  "))
	assert.Equal(t, "a b c", CleanText("a\nb\r\nc"))
}

func TestCleanTextTrimsToCap(t *testing.T) {
	long := strings.Repeat("x ", 10000)
	cleaned := CleanText(long)
	assert.LessOrEqual(t, len(cleaned), maxInputLen)
}

func TestCleanTextCapKeepsRuneBoundary(t *testing.T) {
	// One ASCII byte shifts every following two-byte rune off the cap
	// boundary, so a byte-index cut would split a rune.
	long := "a" + strings.Repeat("é", maxInputLen/2)
	cleaned := CleanText(long)
	assert.True(t, utf8.ValidString(cleaned))
	assert.Equal(t, maxInputLen-1, len(cleaned))
}

func TestCleanTextEmpty(t *testing.T) {
	assert.Equal(t, "", CleanText("   \n\t  "))
}
