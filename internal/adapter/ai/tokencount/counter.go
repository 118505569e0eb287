// Package tokencount provides token counting and truncation for judge
// prompts using tiktoken-go so that prompt budgets are enforced in model
// tokens rather than bytes.
package tokencount

import (
	"log/slog"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

// Counter provides thread-safe token counting with a cached encoding.
type Counter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) encoding() *tiktoken.Tiktoken {
	c.once.Do(func() {
		c.enc, c.err = tiktoken.GetEncoding(encodingName)
		if c.err != nil {
			slog.Warn("tiktoken encoding unavailable, falling back to rune estimate", slog.Any("error", c.err))
		}
	})
	return c.enc
}

// Count returns the token count of text. When the encoding cannot be
// loaded it falls back to a conservative 4-chars-per-token estimate.
func (c *Counter) Count(text string) int {
	if enc := c.encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (len(text) + 3) / 4
}

// Truncate returns text cut down to at most maxTokens tokens. Text within
// budget is returned unchanged.
func (c *Counter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	enc := c.encoding()
	if enc == nil {
		limit := maxTokens * 4
		r := []rune(text)
		if len(r) > limit {
			return string(r[:limit])
		}
		return text
	}
	ids := enc.Encode(text, nil, nil)
	if len(ids) <= maxTokens {
		return text
	}
	return enc.Decode(ids[:maxTokens])
}
