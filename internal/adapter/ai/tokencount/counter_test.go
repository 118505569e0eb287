package tokencount

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCounter_Count(t *testing.T) {
	t.Parallel()

	c := NewCounter()
	assert.Equal(t, 0, c.Count(""))
	assert.Greater(t, c.Count("hello world, this is a resume"), 0)
}

func TestCounter_Truncate(t *testing.T) {
	t.Parallel()

	c := NewCounter()

	t.Run("within_budget_unchanged", func(t *testing.T) {
		t.Parallel()
		text := "short text"
		assert.Equal(t, text, c.Truncate(text, 1000))
	})

	t.Run("over_budget_shortened", func(t *testing.T) {
		t.Parallel()
		text := strings.Repeat("distributed systems engineering ", 500)
		got := c.Truncate(text, 50)
		assert.Less(t, len(got), len(text))
		assert.LessOrEqual(t, c.Count(got), 50)
	})

	t.Run("zero_budget_empty", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, c.Truncate("anything", 0))
	})
}

func TestCounter_TruncateFallbackKeepsValidUTF8(t *testing.T) {
	t.Parallel()

	// A counter whose encoding never loads exercises the estimate path.
	c := NewCounter()
	c.once.Do(func() {})

	text := strings.Repeat("résumé naïve coöperate ", 100)
	got := c.Truncate(text, 10)
	assert.Less(t, len(got), len(text))
	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len([]rune(got)), 40)
}
