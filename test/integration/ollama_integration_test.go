package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"ai-studyquiz-be/internal/pkg/logger"
	"ai-studyquiz-be/pkg/llm/ollama"
	"ai-studyquiz-be/pkg/study/condenser"
	"ai-studyquiz-be/pkg/study/fallback"
	"ai-studyquiz-be/pkg/study/importance"
	"ai-studyquiz-be/pkg/study/quiz"
	"ai-studyquiz-be/pkg/study/quizgen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lectureNotes = `Photosynthesis takes place in the chloroplasts of plant cells.
The light-dependent reactions happen in the thylakoid membranes and produce ATP and NADPH.
The Calvin cycle runs in the stroma and uses ATP and NADPH to fix carbon dioxide into glucose.
Chlorophyll absorbs mostly red and blue light and reflects green light.
Cellular respiration releases the energy stored in glucose, producing carbon dioxide and water.`

func ollamaGuard(t *testing.T) *fallback.Guard {
	t.Helper()
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		t.Skip("Skipping integration test: OLLAMA_BASE_URL not set")
	}
	model := os.Getenv("OLLAMA_MODEL")
	if model == "" {
		model = "llama3"
	}

	provider := ollama.NewOllamaProvider(baseURL, model, 3*time.Minute)
	return fallback.NewGuard(provider, fallback.NewMemoryState(time.Minute), logger.NewNopLogger())
}

func TestOllamaQuizGeneration(t *testing.T) {
	guard := ollamaGuard(t)
	log := logger.NewNopLogger()
	gen := quizgen.NewGenerator(guard, importance.NewExtractor(guard, log, 0), log, 0)

	res, err := gen.Generate(context.Background(), quizgen.Request{
		Text:         lectureNotes,
		Type:         quiz.RequestMCQ,
		NumQuestions: 3,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Questions)
	assert.LessOrEqual(t, len(res.Questions), 3)
	for _, q := range res.Questions {
		assert.True(t, q.Valid(), "question %q", q.Question)
	}
	t.Logf("mode=%s fallback=%v tokens=%d", res.Mode, res.FallbackUsed, res.TokensUsed)
}

func TestOllamaCondensation(t *testing.T) {
	guard := ollamaGuard(t)
	log := logger.NewNopLogger()
	c := condenser.New(guard, importance.NewExtractor(guard, log, 0), log, condenser.Config{})

	res, err := c.Condense(context.Background(), lectureNotes)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Text)
	assert.LessOrEqual(t, len([]rune(res.Text)), len([]rune(lectureNotes)))
	t.Logf("strategy=%s ratio=%.2f", res.Strategy, res.Ratio)
}
