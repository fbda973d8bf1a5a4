// Package importance inventories the points a study text must not lose.
package importance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"ai-studyquiz-be/internal/pkg/logger"
	"ai-studyquiz-be/pkg/apperr"
	"ai-studyquiz-be/pkg/llm"
	"ai-studyquiz-be/pkg/study/aiparse"
	"ai-studyquiz-be/pkg/study/fallback"
)

const (
	DefaultMaxInputChars = 45000
	TruncationMarker     = "\n\n[... content truncated for analysis ...]"
)

type Category string

const (
	CategoryConcept      Category = "concept"
	CategoryDefinition   Category = "definition"
	CategoryFact         Category = "fact"
	CategoryFormula      Category = "formula"
	CategoryProcess      Category = "process"
	CategoryExample      Category = "example"
	CategoryPrinciple    Category = "principle"
	CategoryRelationship Category = "relationship"
	CategoryProcedure    Category = "procedure"
	CategoryOther        Category = "other"
)

var categories = map[Category]bool{
	CategoryConcept: true, CategoryDefinition: true, CategoryFact: true, CategoryFormula: true,
	CategoryProcess: true, CategoryExample: true, CategoryPrinciple: true, CategoryRelationship: true,
	CategoryProcedure: true, CategoryOther: true,
}

type Level string

const (
	LevelCritical Level = "critical"
	LevelHigh     Level = "high"
	LevelMedium   Level = "medium"
)

type Point struct {
	Point         string   `json:"point"`
	Category      Category `json:"category"`
	Importance    Level    `json:"importance"`
	Context       string   `json:"context,omitempty"`
	RelatedPoints []string `json:"relatedPoints,omitempty"`
}

type KeyTerm struct {
	Term       string `json:"term"`
	Definition string `json:"definition,omitempty"`
}

// UnmarshalJSON accepts either "term" or {"term": ..., "definition": ...}.
func (k *KeyTerm) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		k.Term = s
		return nil
	}
	type plain KeyTerm
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*k = KeyTerm(p)
	return nil
}

func (k KeyTerm) String() string {
	if k.Definition == "" {
		return k.Term
	}
	return k.Term + ": " + k.Definition
}

type Report struct {
	ImportantPoints []Point   `json:"importantPoints"`
	Topics          []string  `json:"topics"`
	KeyTerms        []KeyTerm `json:"keyTerms"`
	Formulas        []string  `json:"formulas"`
	Summary         string    `json:"summary"`
	TokensUsed      int       `json:"-"`
}

// Checklist returns the points condensation must keep: every critical and high point.
func (r *Report) Checklist() []Point {
	if r == nil {
		return nil
	}
	var out []Point
	for _, p := range r.ImportantPoints {
		if p.Importance == LevelCritical || p.Importance == LevelHigh {
			out = append(out, p)
		}
	}
	return out
}

var reportSchema = aiparse.MustCompile("importance report", `{
	"type": "object",
	"required": ["importantPoints"],
	"properties": {
		"importantPoints": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["point"],
				"properties": {
					"point": {"type": "string", "minLength": 1},
					"category": {"type": "string"},
					"importance": {"type": "string"},
					"context": {"type": "string"},
					"relatedPoints": {"type": "array", "items": {"type": "string"}}
				}
			}
		},
		"topics": {"type": "array", "items": {"type": "string"}},
		"keyTerms": {"type": "array"},
		"formulas": {"type": "array", "items": {"type": "string"}},
		"summary": {"type": "string"}
	}
}`)

type Extractor struct {
	guard    *fallback.Guard
	logger   logger.ILogger
	maxInput int
}

func NewExtractor(guard *fallback.Guard, log logger.ILogger, maxInputChars int) *Extractor {
	if maxInputChars <= 0 {
		maxInputChars = DefaultMaxInputChars
	}
	return &Extractor{guard: guard, logger: log, maxInput: maxInputChars}
}

// Extract returns (nil, nil) when the AI answered with something unparseable,
// which tells callers to take the unguided path. AI service errors are returned.
func (e *Extractor) Extract(ctx context.Context, text string) (*Report, error) {
	input := CapInput(text, e.maxInput)

	res, err := e.guard.Complete(ctx, "importance", buildPrompt(input), llm.WithJSONMode(), llm.WithTemperature(0.2))
	if err != nil {
		return nil, err
	}

	report, err := aiparse.Decode[Report](res.Text, reportSchema)
	if err != nil {
		e.logger.Warn("ImportanceExtractor", "Could not parse importance report, using unguided path", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, nil
	}
	report.normalize()
	report.TokensUsed = res.Usage.TotalTokens

	e.logger.Info("ImportanceExtractor", "Important points extracted", map[string]interface{}{
		"points":    len(report.ImportantPoints),
		"checklist": len(report.Checklist()),
		"topics":    len(report.Topics),
	})
	return &report, nil
}

// CapInput truncates text to maxChars runes and appends the truncation marker.
func CapInput(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	return string([]rune(text)[:maxChars]) + TruncationMarker
}

func (r *Report) normalize() {
	kept := r.ImportantPoints[:0]
	for _, p := range r.ImportantPoints {
		p.Point = strings.TrimSpace(p.Point)
		if p.Point == "" {
			continue
		}
		p.Category = Category(strings.ToLower(strings.TrimSpace(string(p.Category))))
		if !categories[p.Category] {
			p.Category = CategoryOther
		}
		switch Level(strings.ToLower(strings.TrimSpace(string(p.Importance)))) {
		case LevelCritical:
			p.Importance = LevelCritical
		case LevelHigh:
			p.Importance = LevelHigh
		default:
			p.Importance = LevelMedium
		}
		kept = append(kept, p)
	}
	r.ImportantPoints = kept
}

// IsUnavailable reports whether err means the caller should use its deterministic path.
func IsUnavailable(err error) bool {
	return apperr.IsAIFailure(err)
}

func buildPrompt(text string) string {
	return fmt.Sprintf(`You are an expert study assistant. Identify EVERY important point in the study material below so that nothing a student could be examined on is lost.

For each point give:
- "point": the point itself, stated precisely
- "category": one of concept, definition, fact, formula, process, example, principle, relationship, procedure, other
- "importance": one of critical, high, medium
- "context": one sentence on where or why it matters
- "relatedPoints": other points it depends on

Also list the main "topics", the "keyTerms" (objects with "term" and "definition"), every "formula" verbatim, and a two-sentence "summary".

Respond with ONLY a JSON object of this shape:
{"importantPoints": [...], "topics": [...], "keyTerms": [...], "formulas": [...], "summary": "..."}

STUDY MATERIAL:
%s`, text)
}
