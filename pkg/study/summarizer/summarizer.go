// Package summarizer writes the short document summary shown next to a quiz.
package summarizer

import (
	"context"
	"fmt"
	"strings"

	"ai-studyquiz-be/internal/pkg/logger"
	"ai-studyquiz-be/pkg/llm"
	"ai-studyquiz-be/pkg/study/chunker"
	"ai-studyquiz-be/pkg/study/fallback"
	"ai-studyquiz-be/pkg/study/importance"
)

const fallbackSentences = 3

type Summary struct {
	Text       string `json:"summary"`
	Fallback   bool   `json:"fallback"`
	TokensUsed int    `json:"tokensUsed"`
}

type Summarizer struct {
	guard    *fallback.Guard
	logger   logger.ILogger
	maxInput int
}

func New(guard *fallback.Guard, log logger.ILogger, maxInputChars int) *Summarizer {
	if maxInputChars <= 0 {
		maxInputChars = importance.DefaultMaxInputChars
	}
	return &Summarizer{guard: guard, logger: log, maxInput: maxInputChars}
}

func (s *Summarizer) Summarize(ctx context.Context, text string) Summary {
	prompt := fmt.Sprintf(`Summarize the study material below in one paragraph of at most 120 words for a student revising for an exam. Return only the summary.

STUDY MATERIAL:
%s`, importance.CapInput(text, s.maxInput))

	res, err := s.guard.Complete(ctx, "summary", prompt, llm.WithTemperature(0.3))
	if err != nil || strings.TrimSpace(res.Text) == "" {
		if err != nil {
			s.logger.Warn("Summarizer", "Summary falls back to leading sentences", map[string]interface{}{"error": err.Error()})
		}
		return Summary{Text: Fallback(text), Fallback: true}
	}
	return Summary{Text: strings.TrimSpace(res.Text), TokensUsed: res.Usage.TotalTokens}
}

// Fallback returns the first sentences of text.
func Fallback(text string) string {
	var parts []string
	for _, sentence := range chunker.Sentences(text) {
		if s := strings.Join(strings.Fields(sentence), " "); s != "" {
			parts = append(parts, s)
		}
		if len(parts) == fallbackSentences {
			break
		}
	}
	return strings.Join(parts, " ")
}
