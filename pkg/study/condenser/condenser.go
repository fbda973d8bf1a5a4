// Package condenser shrinks a study text to roughly a third of its length
// while keeping the points an exam could ask about.
package condenser

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"ai-studyquiz-be/internal/pkg/logger"
	"ai-studyquiz-be/pkg/apperr"
	"ai-studyquiz-be/pkg/llm"
	"ai-studyquiz-be/pkg/study/fallback"
	"ai-studyquiz-be/pkg/study/importance"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

type Strategy string

const (
	StrategyGuided    Strategy = "guided"
	StrategyUnguided  Strategy = "unguided"
	StrategyTruncated Strategy = "truncated"
)

const (
	DefaultTargetRatio    = 0.30
	DefaultMinGuidedChars = 3000
	// Below this ratio of the original the result probably lost content.
	LossWarningRatio = 0.15
)

type Result struct {
	Text       string   `json:"text"`
	Strategy   Strategy `json:"strategy"`
	Ratio      float64  `json:"ratio"`
	TokensUsed int      `json:"tokensUsed"`
	Warning    string   `json:"warning,omitempty"`
}

type Config struct {
	TargetRatio    float64
	MinGuidedChars int
	MaxInputChars  int
}

type Condenser struct {
	guard     *fallback.Guard
	extractor *importance.Extractor
	logger    logger.ILogger
	cfg       Config
}

func New(guard *fallback.Guard, extractor *importance.Extractor, log logger.ILogger, cfg Config) *Condenser {
	if cfg.TargetRatio <= 0 || cfg.TargetRatio >= 1 {
		cfg.TargetRatio = DefaultTargetRatio
	}
	if cfg.MinGuidedChars <= 0 {
		cfg.MinGuidedChars = DefaultMinGuidedChars
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = importance.DefaultMaxInputChars
	}
	return &Condenser{guard: guard, extractor: extractor, logger: log, cfg: cfg}
}

// Condense never fails on AI problems: it falls back to sentence-aligned truncation.
func (c *Condenser) Condense(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("text is empty")
	}

	res, err := c.TryCondense(ctx, text)
	if err == nil {
		return res, nil
	}
	if !apperr.IsAIFailure(err) {
		return nil, err
	}

	c.logger.Warn("Condenser", "AI condensation failed, truncating", map[string]interface{}{"error": err.Error()})
	return c.Truncated(text), nil
}

// Truncated builds the deterministic fallback result.
func (c *Condenser) Truncated(text string) *Result {
	return c.finish(text, Truncate(text, c.cfg.TargetRatio), StrategyTruncated, 0)
}

// TryCondense runs only the AI path. Callers that own a retry policy use this
// directly and decide themselves when to truncate.
func (c *Condenser) TryCondense(ctx context.Context, text string) (*Result, error) {
	ctx, span := otel.Tracer("study/condenser").Start(ctx, "condense")
	defer span.End()

	originalLen := utf8.RuneCountInString(text)
	span.SetAttributes(attribute.Int("text.length", originalLen))

	tokens := 0
	var report *importance.Report
	if originalLen >= c.cfg.MinGuidedChars && c.extractor != nil {
		r, err := c.extractor.Extract(ctx, text)
		if err != nil {
			return nil, err
		}
		report = r
		if r != nil {
			tokens += r.TokensUsed
		}
	}

	strategy := StrategyUnguided
	prompt := buildUnguidedPrompt(importance.CapInput(text, c.cfg.MaxInputChars), c.cfg.TargetRatio)
	if report != nil && len(report.Checklist()) > 0 {
		strategy = StrategyGuided
		prompt = buildGuidedPrompt(importance.CapInput(text, c.cfg.MaxInputChars), report, c.cfg.TargetRatio)
	}
	span.SetAttributes(attribute.String("condense.strategy", string(strategy)))

	res, err := c.guard.Complete(ctx, "condense", prompt, llm.WithTemperature(0.3))
	if err != nil {
		return nil, err
	}
	tokens += res.Usage.TotalTokens

	condensed := strings.TrimSpace(res.Text)
	if condensed == "" {
		return nil, apperr.Parse("condensation returned empty text", nil)
	}
	if utf8.RuneCountInString(condensed) >= originalLen {
		return nil, apperr.Parse("condensation is not shorter than the original", nil)
	}

	return c.finish(text, condensed, strategy, tokens), nil
}

func (c *Condenser) finish(original, condensed string, strategy Strategy, tokens int) *Result {
	originalLen := utf8.RuneCountInString(original)
	ratio := 0.0
	if originalLen > 0 {
		ratio = float64(utf8.RuneCountInString(condensed)) / float64(originalLen)
	}

	res := &Result{Text: condensed, Strategy: strategy, Ratio: ratio, TokensUsed: tokens}
	if ratio < LossWarningRatio {
		res.Warning = fmt.Sprintf("condensed text is %.0f%% of the original, content may be lost", ratio*100)
		c.logger.Warn("Condenser", "Possible loss of information", map[string]interface{}{
			"strategy": strategy,
			"ratio":    ratio,
		})
	}

	c.logger.Info("Condenser", "Text condensed", map[string]interface{}{
		"strategy":        strategy,
		"original_chars":  originalLen,
		"condensed_chars": utf8.RuneCountInString(condensed),
		"tokens":          tokens,
	})
	return res
}

// Truncate keeps about ratio of text and extends the cut to the end of the
// sentence it falls in. If that sentence runs to the end of the text the cut
// backs off to the previous terminator instead; only when there is none does it
// cut at the raw position. The result is always shorter than text when text
// has more than one rune.
func Truncate(text string, ratio float64) string {
	runes := []rune(strings.TrimSpace(text))
	n := len(runes)
	if n < 2 {
		return string(runes)
	}
	if ratio <= 0 || ratio >= 1 {
		ratio = DefaultTargetRatio
	}

	cut := int(float64(n) * ratio)
	if cut < 1 {
		cut = 1
	}

	for i := cut - 1; i < n-1; i++ {
		if isTerminator(runes[i]) {
			end := i + 1
			for end < n-1 && isTerminator(runes[end]) {
				end++
			}
			return strings.TrimSpace(string(runes[:end]))
		}
	}

	for i := cut - 2; i >= 0; i-- {
		if isTerminator(runes[i]) {
			return strings.TrimSpace(string(runes[:i+1]))
		}
	}

	return strings.TrimSpace(string(runes[:cut]))
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func buildGuidedPrompt(text string, report *importance.Report, ratio float64) string {
	var b strings.Builder
	b.WriteString("CHECKLIST - every item below MUST remain traceable in your output:\n")
	for i, p := range report.Checklist() {
		fmt.Fprintf(&b, "%d. [%s/%s] %s\n", i+1, p.Importance, p.Category, p.Point)
	}
	if len(report.Topics) > 0 {
		fmt.Fprintf(&b, "\nTOPICS: %s\n", strings.Join(report.Topics, "; "))
	}
	if len(report.KeyTerms) > 0 {
		terms := make([]string, len(report.KeyTerms))
		for i, k := range report.KeyTerms {
			terms[i] = k.String()
		}
		fmt.Fprintf(&b, "\nKEY TERMS: %s\n", strings.Join(terms, "; "))
	}
	if len(report.Formulas) > 0 {
		fmt.Fprintf(&b, "\nFORMULAS (keep verbatim): %s\n", strings.Join(report.Formulas, "; "))
	}

	return fmt.Sprintf(`Condense the study material below to %s of its original length.

%s
Rules:
- Keep every checklist item, topic, key term and formula.
- Remove repetition, filler and long examples first.
- Write plain prose paragraphs, no commentary about the task.

STUDY MATERIAL:
%s`, targetRange(ratio), b.String(), text)
}

func buildUnguidedPrompt(text string, ratio float64) string {
	return fmt.Sprintf(`Condense the study material below to %s of its original length.

Rules:
- Keep all definitions, facts, formulas, processes and key terms.
- Remove repetition, filler and long examples first.
- Write plain prose paragraphs, no commentary about the task.

STUDY MATERIAL:
%s`, targetRange(ratio), text)
}

func targetRange(ratio float64) string {
	lo := int(ratio*100) - 5
	hi := int(ratio*100) + 5
	if lo < 5 {
		lo = 5
	}
	return fmt.Sprintf("%d-%d%%", lo, hi)
}
