// Package tokens estimates token usage for providers that do not report it.
package tokens

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const defaultEncoding = "cl100k_base"

// Counter counts tokens with a tiktoken encoding, or with a characters/4 estimate when the
// encoding cannot be loaded.
type Counter struct {
	once sync.Once
	tke  *tiktoken.Tiktoken
	name string
}

func NewCounter(encoding string) *Counter {
	if encoding == "" {
		encoding = defaultEncoding
	}
	return &Counter{name: encoding}
}

func (c *Counter) load() {
	c.once.Do(func() {
		tke, err := tiktoken.GetEncoding(c.name)
		if err != nil {
			tke, err = tiktoken.EncodingForModel(c.name)
		}
		if err == nil {
			c.tke = tke
		}
	})
}

func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.load()
	if c.tke != nil {
		return len(c.tke.Encode(text, nil, nil))
	}
	return Estimate(text)
}

// Estimate is the characters/4 heuristic.
func Estimate(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}
