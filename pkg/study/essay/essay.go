// Package essay grades free-text answers against a reference answer, point by point.
package essay

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"ai-studyquiz-be/internal/pkg/logger"
	"ai-studyquiz-be/pkg/apperr"
	"ai-studyquiz-be/pkg/llm"
	"ai-studyquiz-be/pkg/study/aiparse"
	"ai-studyquiz-be/pkg/study/evaluator"
	"ai-studyquiz-be/pkg/study/fallback"

	lru "github.com/hashicorp/golang-lru/v2"
)

type Grade string

const (
	GradeExcellent        Grade = "Excellent"
	GradeGood             Grade = "Good"
	GradeSatisfactory     Grade = "Satisfactory"
	GradeNeedsImprovement Grade = "Needs Improvement"
	GradePoor             Grade = "Poor"
)

// GradeFor maps a 0-100 score to its grade.
func GradeFor(score int) Grade {
	switch {
	case score >= 90:
		return GradeExcellent
	case score >= 80:
		return GradeGood
	case score >= 70:
		return GradeSatisfactory
	case score >= 60:
		return GradeNeedsImprovement
	}
	return GradePoor
}

type PointResult struct {
	PointNumber    int    `json:"pointNumber"`
	Point          string `json:"point"`
	Covered        bool   `json:"covered"`
	StudentMention string `json:"studentMention,omitempty"`
}

type Result struct {
	TotalPoints    int           `json:"totalPoints"`
	PointsCovered  int           `json:"pointsCovered"`
	Score          int           `json:"score"`
	Grade          Grade         `json:"grade"`
	PointBreakdown []PointResult `json:"pointBreakdown"`
	MissedPoints   []string      `json:"missedPoints"`
	Feedback       string        `json:"feedback"`
	Strengths      []string      `json:"strengths,omitempty"`
	Improvements   []string      `json:"improvements,omitempty"`
	Degraded       bool          `json:"degraded"`
	Corrected      bool          `json:"corrected"`
	TokensUsed     int           `json:"tokensUsed"`
}

// Verify recomputes everything derivable from the breakdown and reports
// whether the AI's own numbers had to be corrected.
func Verify(r *Result) {
	covered := 0
	var missed []string
	for i := range r.PointBreakdown {
		if r.PointBreakdown[i].PointNumber == 0 {
			r.PointBreakdown[i].PointNumber = i + 1
		}
		if r.PointBreakdown[i].Covered {
			covered++
		} else {
			missed = append(missed, r.PointBreakdown[i].Point)
		}
	}

	total := r.TotalPoints
	if total <= 0 || total < covered {
		total = max(len(r.PointBreakdown), 1)
	}

	score := evaluator.Percentage(covered, total)
	grade := GradeFor(score)

	if covered != r.PointsCovered || total != r.TotalPoints || score != r.Score || grade != r.Grade {
		r.Corrected = true
	}
	r.TotalPoints = total
	r.PointsCovered = covered
	r.Score = score
	r.Grade = grade
	if missed == nil {
		missed = []string{}
	}
	r.MissedPoints = missed
}

// Degraded is the structurally valid result returned when grading could not run.
func Degraded(err error) *Result {
	return &Result{
		TotalPoints:    1,
		PointsCovered:  0,
		Score:          0,
		Grade:          GradePoor,
		PointBreakdown: []PointResult{},
		MissedPoints:   []string{},
		Feedback:       diagnostic(err),
		Degraded:       true,
	}
}

func diagnostic(err error) string {
	switch apperr.CodeOf(err) {
	case apperr.CodeQuotaExceeded, apperr.CodeRateLimited, apperr.CodeFallbackActive:
		return "Automatic grading is temporarily unavailable because the AI quota was reached. Please try again later."
	case apperr.CodeServiceUnavailable:
		return "Automatic grading is temporarily unavailable because the AI service is not responding. Please try again later."
	case apperr.CodeInvalidCredentials:
		return "Automatic grading is misconfigured. Please contact support."
	}
	if apperr.Is(err, apperr.KindParse) {
		return "Automatic grading returned an unreadable result. Please try again."
	}
	return "Automatic grading failed unexpectedly. Please try again."
}

var resultSchema = aiparse.MustCompile("essay grading", `{
	"type": "object",
	"required": ["pointBreakdown"],
	"properties": {
		"totalPoints": {"type": "number"},
		"pointsCovered": {"type": "number"},
		"score": {"type": "number"},
		"grade": {"type": "string"},
		"pointBreakdown": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["point", "covered"],
				"properties": {
					"pointNumber": {"type": "number"},
					"point": {"type": "string"},
					"covered": {"type": "boolean"},
					"studentMention": {"type": "string"}
				}
			}
		},
		"feedback": {"type": "string"},
		"strengths": {"type": "array", "items": {"type": "string"}},
		"improvements": {"type": "array", "items": {"type": "string"}}
	}
}`)

type aiResult struct {
	TotalPoints    float64       `json:"totalPoints"`
	PointsCovered  float64       `json:"pointsCovered"`
	Score          float64       `json:"score"`
	Grade          string        `json:"grade"`
	PointBreakdown []PointResult `json:"pointBreakdown"`
	Feedback       string        `json:"feedback"`
	Strengths      []string      `json:"strengths"`
	Improvements   []string      `json:"improvements"`
}

type Grader struct {
	guard  *fallback.Guard
	logger logger.ILogger
	cache  *lru.Cache[string, Result]
}

func NewGrader(guard *fallback.Guard, log logger.ILogger, cacheSize int) (*Grader, error) {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cache, err := lru.New[string, Result](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create grading cache: %w", err)
	}
	return &Grader{guard: guard, logger: log, cache: cache}, nil
}

func cacheKey(correctAnswer, userAnswer string) string {
	sum := sha256.Sum256([]byte(correctAnswer + "\x00" + userAnswer))
	return hex.EncodeToString(sum[:])
}

// Grade always returns a valid result. Validation problems with the inputs are
// the only errors.
func (g *Grader) Grade(ctx context.Context, correctAnswer, userAnswer string) (*Result, error) {
	if strings.TrimSpace(correctAnswer) == "" {
		return nil, apperr.Validation("correctAnswer is required")
	}
	if strings.TrimSpace(userAnswer) == "" {
		return nil, apperr.Validation("userAnswer is required")
	}

	key := cacheKey(correctAnswer, userAnswer)
	if cached, ok := g.cache.Get(key); ok {
		res := cached
		res.TokensUsed = 0
		return &res, nil
	}

	completion, err := g.guard.Complete(ctx, "essay", buildPrompt(correctAnswer, userAnswer), llm.WithJSONMode(), llm.WithTemperature(0.1))
	if err != nil {
		g.logger.Warn("EssayGrader", "Grading degraded", map[string]interface{}{"error": err.Error()})
		return Degraded(err), nil
	}

	raw, err := aiparse.Decode[aiResult](completion.Text, resultSchema)
	if err != nil {
		g.logger.Warn("EssayGrader", "Grading response unreadable", map[string]interface{}{"error": err.Error()})
		return Degraded(err), nil
	}

	res := &Result{
		TotalPoints:    int(raw.TotalPoints),
		PointsCovered:  int(raw.PointsCovered),
		Score:          int(raw.Score),
		Grade:          Grade(raw.Grade),
		PointBreakdown: raw.PointBreakdown,
		Feedback:       raw.Feedback,
		Strengths:      raw.Strengths,
		Improvements:   raw.Improvements,
		TokensUsed:     completion.Usage.TotalTokens,
	}
	Verify(res)
	if res.Corrected {
		g.logger.Info("EssayGrader", "AI self-reported score corrected", map[string]interface{}{
			"reported_covered": int(raw.PointsCovered),
			"covered":          res.PointsCovered,
			"score":            res.Score,
		})
	}

	g.cache.Add(key, *res)
	return res, nil
}

func buildPrompt(correctAnswer, userAnswer string) string {
	return fmt.Sprintf(`You are grading a student's essay answer against a reference answer.

1. Break the REFERENCE ANSWER into every distinct point it makes.
2. For each point decide whether the STUDENT ANSWER addresses it. Quote the student's own words in "studentMention" when it does.
3. Count the covered points and compute score = round(pointsCovered / totalPoints * 100).
4. Grade: >=90 Excellent, >=80 Good, >=70 Satisfactory, >=60 Needs Improvement, otherwise Poor.

Respond with ONLY a JSON object:
{"totalPoints": 0, "pointsCovered": 0, "score": 0, "grade": "...",
 "pointBreakdown": [{"pointNumber": 1, "point": "...", "covered": true, "studentMention": "..."}],
 "feedback": "...", "strengths": ["..."], "improvements": ["..."]}

REFERENCE ANSWER:
%s

STUDENT ANSWER:
%s`, correctAnswer, userAnswer)
}
