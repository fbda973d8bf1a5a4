package quizgen

import (
	"testing"

	"ai-studyquiz-be/pkg/study/quiz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback_MCQ(t *testing.T) {
	qs := Fallback(studyText(), quiz.RequestMCQ, 6, 0)
	require.Len(t, qs, 6)
	for i, q := range qs {
		require.Equal(t, quiz.KindMCQ, q.Type)
		assert.True(t, q.Valid())
		assert.True(t, q.Fallback)
		assert.Len(t, q.Options, 4)
		assert.Equal(t, topics[i], q.CorrectAnswer)
		assert.Equal(t, q.CorrectAnswer, q.Options[i%4])
		assert.Contains(t, q.Question, blank)
		assert.NotContains(t, q.Question, q.CorrectAnswer)
	}
}

func TestFallback_OffsetAndSparse(t *testing.T) {
	qs := Fallback(studyText(), quiz.RequestEssay, 2, 13)
	require.Len(t, qs, 2)
	assert.Contains(t, qs[0].Question, "germination")
	assert.Equal(t, quiz.KindShort, qs[0].Type)

	assert.Empty(t, Fallback("Too short. Tiny.", quiz.RequestMCQ, 3, 0))
	assert.Empty(t, Fallback(studyText(), quiz.RequestMCQ, 3, 100))
}

func TestFallback_MCQNeedsDistractors(t *testing.T) {
	qs := Fallback("Mitochondria produce most cellular energy today.", quiz.RequestMCQ, 1, 0)
	require.Len(t, qs, 1)
	assert.Equal(t, quiz.KindShort, qs[0].Type)
}

func TestFallback_Deterministic(t *testing.T) {
	assert.Equal(t, Fallback(studyText(), quiz.RequestMixed, 5, 0), Fallback(studyText(), quiz.RequestMixed, 5, 0))
}
