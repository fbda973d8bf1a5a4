package condenser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"ai-studyquiz-be/internal/pkg/logger"
	"ai-studyquiz-be/pkg/apperr"
	"ai-studyquiz-be/pkg/llm/llmtest"
	"ai-studyquiz-be/pkg/study/fallback"
	"ai-studyquiz-be/pkg/study/importance"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const report = `{"importantPoints":[{"point":"Enzymes lower activation energy","category":"fact","importance":"critical"}],"topics":["Enzymes"],"keyTerms":["substrate"],"formulas":["Km = (k-1 + k2) / k1"],"summary":"s"}`

func longText() string {
	return strings.Repeat("Enzymes are biological catalysts that speed up reactions. They lower the activation energy! ", 60)
}

func newCondenser(p *llmtest.Provider, state fallback.State) *Condenser {
	log := logger.NewNopLogger()
	guard := fallback.NewGuard(p, state, log)
	return New(guard, importance.NewExtractor(guard, log, 0), log, Config{MinGuidedChars: 1000})
}

func TestTryCondense_Guided(t *testing.T) {
	p := llmtest.New(llmtest.Text(report), llmtest.Text("Enzymes lower activation energy. Km = (k-1 + k2) / k1."))
	c := newCondenser(p, nil)

	res, err := c.TryCondense(context.Background(), longText())
	require.NoError(t, err)
	assert.Equal(t, StrategyGuided, res.Strategy)
	assert.Less(t, res.Ratio, 1.0)
	assert.NotEmpty(t, res.Warning, "a tiny summary of a long text is flagged")

	prompts := p.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[1], "CHECKLIST")
	assert.Contains(t, prompts[1], "Enzymes lower activation energy")
	assert.Contains(t, prompts[1], "Km = (k-1 + k2) / k1")
}

func TestTryCondense_UnguidedWhenExtractionUnparseable(t *testing.T) {
	summary := strings.Repeat("Enzymes are catalysts that lower activation energy. ", 10)
	p := llmtest.New(llmtest.Text("no json here"), llmtest.Text(summary))
	c := newCondenser(p, nil)

	res, err := c.TryCondense(context.Background(), longText())
	require.NoError(t, err)
	assert.Equal(t, StrategyUnguided, res.Strategy)
	assert.NotContains(t, p.Prompts()[1], "CHECKLIST")
}

func TestTryCondense_ShortTextSkipsExtraction(t *testing.T) {
	p := llmtest.New(llmtest.Text("Short."))
	c := newCondenser(p, nil)

	res, err := c.TryCondense(context.Background(), "A much longer sentence about enzymes than the answer.")
	require.NoError(t, err)
	assert.Equal(t, StrategyUnguided, res.Strategy)
	assert.Equal(t, 1, p.Calls())
}

func TestTryCondense_RejectsNotShorter(t *testing.T) {
	text := "Enzymes are catalysts."
	p := llmtest.New(llmtest.Text(text + " And more words appended."))
	c := newCondenser(p, nil)

	_, err := c.TryCondense(context.Background(), text)
	require.Error(t, err)
	assert.True(t, apperr.IsAIFailure(err))
}

func TestCondense_FallsBackToTruncation(t *testing.T) {
	p := llmtest.New(llmtest.Fail(errors.New("503 service unavailable")))
	state := fallback.NewMemoryState(time.Minute)
	c := newCondenser(p, state)

	text := longText()
	res, err := c.Condense(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, StrategyTruncated, res.Strategy)
	assert.Less(t, utf8.RuneCountInString(res.Text), utf8.RuneCountInString(text))
	assert.True(t, state.IsExceeded(context.Background()))
}

func TestCondense_EmptyText(t *testing.T) {
	c := newCondenser(llmtest.New(), nil)
	_, err := c.Condense(context.Background(), "  ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"extends to sentence end", "One two three four. Five six seven eight. Nine ten eleven twelve.", "One two three four."},
		{"keeps ellipsis", "Alpha beta gamma delta... epsilon zeta eta theta iota kappa lambda.", "Alpha beta gamma delta..."},
		{"backs off when the sentence runs to the end", "Short. This second sentence is much longer than the first one", "Short."},
		{"no terminator cuts raw", "abcdefghij", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.text, 0.30))
		})
	}
}

func TestTruncate_AlwaysShorterAndSentenceAligned(t *testing.T) {
	texts := []string{
		longText(),
		"Q? A! B. C",
		"Only one sentence here.",
		strings.Repeat("word ", 200) + ". tail.",
	}
	for _, text := range texts {
		got := Truncate(text, 0.30)
		assert.Less(t, utf8.RuneCountInString(got), utf8.RuneCountInString(strings.TrimSpace(text)), text)
		assert.True(t, strings.HasPrefix(strings.TrimSpace(text), got))
	}
}
