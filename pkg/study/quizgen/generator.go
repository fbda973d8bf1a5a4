// Package quizgen turns study text into normalized quiz questions, in a
// bounded-count mode or a coverage mode, with a deterministic fallback for
// every AI failure.
package quizgen

import (
	"context"
	"fmt"
	"strings"

	"ai-studyquiz-be/internal/pkg/logger"
	"ai-studyquiz-be/pkg/apperr"
	"ai-studyquiz-be/pkg/llm"
	"ai-studyquiz-be/pkg/study/aiparse"
	"ai-studyquiz-be/pkg/study/chunker"
	"ai-studyquiz-be/pkg/study/evaluator"
	"ai-studyquiz-be/pkg/study/fallback"
	"ai-studyquiz-be/pkg/study/importance"
	"ai-studyquiz-be/pkg/study/quiz"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

type Mode string

const (
	ModeBounded  Mode = "bounded"
	ModeCoverage Mode = "coverage"
)

const (
	DefaultNumQuestions = 5
	MaxNumQuestions     = 50
	// questions per chunk when coverage mode has to fall back
	coverageFallbackPerChunk = 10
)

type Request struct {
	Text           string
	Type           quiz.RequestType
	NumQuestions   int
	CoverAllTopics bool
}

type Result struct {
	Questions    []quiz.Question `json:"questions"`
	Mode         Mode            `json:"mode"`
	FallbackUsed bool            `json:"fallbackUsed"`
	TokensUsed   int             `json:"tokensUsed"`
	ChunkCount   int             `json:"chunkCount"`
}

var questionsSchema = aiparse.MustCompile("questions", `{
	"anyOf": [
		{"type": "array", "items": {"type": "object"}},
		{"type": "object", "required": ["questions"], "properties": {"questions": {"type": "array"}}},
		{"type": "object", "required": ["question"]}
	]
}`)

type Generator struct {
	guard        *fallback.Guard
	extractor    *importance.Extractor
	logger       logger.ILogger
	maxChunkSize int
}

func NewGenerator(guard *fallback.Guard, extractor *importance.Extractor, log logger.ILogger, maxChunkSize int) *Generator {
	if maxChunkSize <= 0 {
		maxChunkSize = chunker.DefaultMaxChunkSize
	}
	return &Generator{guard: guard, extractor: extractor, logger: log, maxChunkSize: maxChunkSize}
}

func (r *Request) validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return apperr.Validation("documentText is required")
	}
	if r.Type == "" {
		r.Type = quiz.RequestMCQ
	}
	if _, err := quiz.ParseRequestType(string(r.Type)); err != nil {
		return err
	}
	if r.NumQuestions <= 0 {
		r.NumQuestions = DefaultNumQuestions
	}
	if r.NumQuestions > MaxNumQuestions {
		return apperr.Validation(fmt.Sprintf("numQuestions must be at most %d", MaxNumQuestions))
	}
	return nil
}

// Generate never fails because of the AI: failing chunks are served by Fallback.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("study/quizgen").Start(ctx, "quiz.generate")
	defer span.End()

	chunks := chunker.Split(req.Text, g.maxChunkSize)
	span.SetAttributes(attribute.Int("quiz.chunks", len(chunks)), attribute.Bool("quiz.coverage", req.CoverAllTopics))

	var res *Result
	if req.CoverAllTopics {
		res = g.coverage(ctx, req, chunks)
	} else {
		res = g.bounded(ctx, req, chunks)
	}
	res.ChunkCount = len(chunks)

	g.logger.Info("QuizGenerator", "Questions generated", map[string]interface{}{
		"mode":          res.Mode,
		"chunks":        res.ChunkCount,
		"questions":     len(res.Questions),
		"fallback_used": res.FallbackUsed,
		"tokens":        res.TokensUsed,
	})
	return res, nil
}

func (g *Generator) bounded(ctx context.Context, req Request, chunks []chunker.Chunk) *Result {
	res := &Result{Mode: ModeBounded}
	seen := map[string]bool{}

	per := req.NumQuestions / len(chunks)
	if per < 1 {
		per = 1
	}

	var firstChunk []quiz.Question
	for i, c := range chunks {
		qs := dedupe(seen, g.fromChunk(ctx, res, c.Text, req.Type, per, 0, nil))
		if i == 0 {
			firstChunk = qs
		}
		res.Questions = append(res.Questions, qs...)
		if len(res.Questions) >= req.NumQuestions {
			break
		}
	}

	if short := req.NumQuestions - len(res.Questions); short > 0 {
		extra := g.fromChunk(ctx, res, chunks[0].Text, req.Type, short, len(firstChunk), firstChunk)
		res.Questions = append(res.Questions, dedupe(seen, extra)...)
	}

	if len(res.Questions) > req.NumQuestions {
		res.Questions = res.Questions[:req.NumQuestions]
	}
	return res
}

// fromChunk asks the AI for n questions about text. On any AI failure it
// returns fallback questions starting at sentence offset.
func (g *Generator) fromChunk(ctx context.Context, res *Result, text string, t quiz.RequestType, n, offset int, avoid []quiz.Question) []quiz.Question {
	qs, err := g.ask(ctx, res, "quiz", boundedPrompt(text, t, n, avoid), t)
	if err == nil && len(qs) > 0 {
		if len(qs) > n {
			qs = qs[:n]
		}
		return qs
	}
	if err == nil {
		err = apperr.Parse("AI returned no usable questions", nil)
	}

	g.logger.Warn("QuizGenerator", "Using fallback questions for chunk", map[string]interface{}{"error": err.Error()})
	res.FallbackUsed = true
	return Fallback(text, t, n, offset)
}

func (g *Generator) ask(ctx context.Context, res *Result, stage, prompt string, t quiz.RequestType) ([]quiz.Question, error) {
	completion, err := g.guard.Complete(ctx, stage, prompt, llm.WithJSONMode(), llm.WithTemperature(0.4))
	if err != nil {
		return nil, err
	}
	res.TokensUsed += completion.Usage.TotalTokens

	payload, err := aiparse.Parse(completion.Text, questionsSchema)
	if err != nil {
		return nil, err
	}
	return Normalize(payload, t), nil
}

func (g *Generator) coverage(ctx context.Context, req Request, chunks []chunker.Chunk) *Result {
	res := &Result{Mode: ModeCoverage}
	seen := map[string]bool{}

	for _, c := range chunks {
		report, err := g.extractor.Extract(ctx, c.Text)
		if err != nil {
			g.logger.Warn("QuizGenerator", "Importance extraction failed, using fallback for chunk", map[string]interface{}{"error": err.Error()})
			res.FallbackUsed = true
			res.Questions = append(res.Questions, dedupe(seen, Fallback(c.Text, req.Type, coverageFallbackPerChunk, 0))...)
			continue
		}
		if report != nil {
			res.TokensUsed += report.TokensUsed
		}

		qs, err := g.ask(ctx, res, "quiz.coverage", coveragePrompt(c.Text, req.Type, report), req.Type)
		if err != nil || len(qs) == 0 {
			reason := "no usable questions"
			if err != nil {
				reason = err.Error()
			}
			g.logger.Warn("QuizGenerator", "Coverage generation failed, using fallback for chunk", map[string]interface{}{"error": reason})
			res.FallbackUsed = true
			qs = Fallback(c.Text, req.Type, coverageFallbackPerChunk, 0)
		}
		res.Questions = append(res.Questions, dedupe(seen, qs)...)
	}
	return res
}

// RegenerateOne replaces questions[index] with a new question of the same kind
// that duplicates none of the others.
// replacementType keeps the replaced question's kind. Short questions of a
// structured essay set stay structured.
func replacementType(t quiz.RequestType, kind quiz.Kind) quiz.RequestType {
	switch {
	case kind == quiz.KindMCQ:
		return quiz.RequestMCQ
	case t == quiz.RequestStructuredEssay:
		return quiz.RequestStructuredEssay
	}
	return quiz.RequestEssay
}

func (g *Generator) RegenerateOne(ctx context.Context, text string, t quiz.RequestType, questions []quiz.Question, index int) (quiz.Question, *Result, error) {
	res := &Result{Mode: ModeBounded, ChunkCount: 1}
	if index < 0 || index >= len(questions) {
		return quiz.Question{}, nil, apperr.Validation(fmt.Sprintf("question index %d out of range", index))
	}
	if strings.TrimSpace(text) == "" {
		return quiz.Question{}, nil, apperr.Validation("document text is empty")
	}

	wanted := replacementType(t, questions[index].Type)

	seen := map[string]bool{}
	for _, q := range questions {
		seen[evaluator.Normalize(q.Question)] = true
	}

	source := importance.CapInput(text, g.maxChunkSize)
	qs, err := g.ask(ctx, res, "quiz.regenerate", boundedPrompt(source, wanted, 1, questions), wanted)
	if err == nil {
		for _, q := range dedupe(seen, qs) {
			res.Questions = []quiz.Question{q}
			return q, res, nil
		}
	}

	res.FallbackUsed = true
	total := len(usableSentences(text))
	for k := 0; k < total; k++ {
		offset := (index + 1 + k) % total
		if fresh := dedupe(seen, Fallback(text, wanted, 1, offset)); len(fresh) > 0 {
			res.Questions = fresh
			return fresh[0], res, nil
		}
	}
	return quiz.Question{}, nil, apperr.Validation("document text is too sparse to produce another question")
}

type Explanation struct {
	Text       string `json:"explanation"`
	Fallback   bool   `json:"fallback"`
	TokensUsed int    `json:"tokensUsed"`
}

// Explain writes a fuller explanation for q, grounded in source. While the AI
// is unavailable it answers with FallbackExplanation.
func (g *Generator) Explain(ctx context.Context, q quiz.Question, source string) Explanation {
	if !g.guard.Available(ctx) {
		return Explanation{Text: FallbackExplanation(q, source), Fallback: true}
	}

	completion, err := g.guard.Complete(ctx, "quiz.explain", explainPrompt(q, importance.CapInput(source, g.maxChunkSize)), llm.WithTemperature(0.3))
	if err != nil || strings.TrimSpace(completion.Text) == "" {
		if err != nil {
			g.logger.Warn("QuizGenerator", "Explanation enhancement failed, using fallback", map[string]interface{}{"error": err.Error()})
		}
		return Explanation{Text: FallbackExplanation(q, source), Fallback: true}
	}
	return Explanation{Text: strings.TrimSpace(completion.Text), TokensUsed: completion.Usage.TotalTokens}
}
