package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestSentences_RoundTrip(t *testing.T) {
	tests := []string{
		"One. Two! Three? Four",
		"Wait... what?! Okay.   Trailing spaces   ",
		"No terminator at all",
		"Ünïcödé sentence. Другое предложение!",
		"",
	}
	for _, text := range tests {
		assert.Equal(t, text, strings.Join(Sentences(text), ""))
	}
}

func TestSentences_Boundaries(t *testing.T) {
	got := Sentences("Cells divide. Mitosis has phases!  Why? Because")
	assert.Equal(t, []string{"Cells divide. ", "Mitosis has phases!  ", "Why? ", "Because"}, got)
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		max       int
		wantCount int
	}{
		{"short text stays whole", "A short note. Nothing else.", 100, 1},
		{"empty input", "   ", 100, 0},
		{"packs sentences", "aaaa. bbbb. cccc. dddd.", 12, 2},
		{"oversize sentence alone", "tiny. " + strings.Repeat("x", 50) + ". tiny.", 20, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Split(tt.text, tt.max)
			assert.Len(t, chunks, tt.wantCount)
			for i, c := range chunks {
				assert.Equal(t, i, c.Index)
				assert.NotEmpty(t, strings.TrimSpace(c.Text))
			}
		})
	}
}

func TestSplit_CoverageAndBound(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 400; i++ {
		b.WriteString("Photosynthesis converts light energy into chemical energy")
		if i%7 == 0 {
			b.WriteString("! ")
		} else {
			b.WriteString(". ")
		}
	}
	text := b.String()

	chunks := Split(text, 1000)
	require.Greater(t, len(chunks), 1)

	assert.Equal(t, squash(text), squash(strings.Join(Texts(chunks), " ")))
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 1000)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("Alpha beta gamma. Delta epsilon? ", 300)
	assert.Equal(t, Split(text, 500), Split(text, 500))
}

func TestNeeded(t *testing.T) {
	assert.False(t, Needed("abc", 3))
	assert.True(t, Needed("abcd", 3))
	assert.False(t, Needed(strings.Repeat("a", DefaultMaxChunkSize), 0))
}
