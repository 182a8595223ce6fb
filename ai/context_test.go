package ai

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestContextSummary_ShortPassesThrough(t *testing.T) {
	assert.Equal(t, "## Identity\nName: Ada", ContextSummary("## Identity\nName: Ada"))
}

func TestContextSummary_TruncatesOnRuneBoundary(t *testing.T) {
	// a two-byte rune straddles the 1200-byte mark, so a plain byte cut
	// would split it
	full := strings.Repeat("x", 1199) + strings.Repeat("ğ", 50)
	out := ContextSummary(full)

	assert.Equal(t, 1199, len(out))
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasPrefix(full, out))
}
