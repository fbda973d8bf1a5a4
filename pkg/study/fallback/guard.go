package fallback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-studyquiz-be/internal/pkg/logger"
	"ai-studyquiz-be/pkg/apperr"
	"ai-studyquiz-be/pkg/llm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Notifier is told when this instance trips the flag, so other instances can follow.
type Notifier interface {
	QuotaExceeded(ctx context.Context, code, reason string) error
}

// Guard is the single entry point to the AI provider for the study pipeline.
type Guard struct {
	provider llm.LLMProvider
	state    State
	logger   logger.ILogger
	usageLog logger.ILogger
	notifier Notifier

	probeEvery time.Duration
	probeMu    sync.Mutex
	lastProbe  time.Time
}

type GuardOption func(*Guard)

func WithNotifier(n Notifier) GuardOption {
	return func(g *Guard) { g.notifier = n }
}

// WithUsageLogger sends per-call token accounting to a dedicated logger.
func WithUsageLogger(l logger.ILogger) GuardOption {
	return func(g *Guard) { g.usageLog = l }
}

// WithProbeInterval lets one call through every d while the flag is set. A
// successful probe clears the flag. Zero disables probing.
func WithProbeInterval(d time.Duration) GuardOption {
	return func(g *Guard) { g.probeEvery = d }
}

func NewGuard(provider llm.LLMProvider, state State, log logger.ILogger, opts ...GuardOption) *Guard {
	if state == nil {
		state = NewMemoryState(DefaultResetAfter)
	}
	g := &Guard{
		provider: provider,
		state:    state,
		logger:   log,
		usageLog: log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) State() State { return g.state }

// Available reports whether AI calls are currently allowed.
func (g *Guard) Available(ctx context.Context) bool {
	return !g.state.IsExceeded(ctx)
}

// Complete runs one prompt for the named pipeline stage. While the quota flag
// is set it fails fast with a fallback_active AI service error, except for the
// periodic probe call.
func (g *Guard) Complete(ctx context.Context, stage, prompt string, opts ...llm.Option) (*llm.Completion, error) {
	ctx, span := otel.Tracer("study/fallback").Start(ctx, "ai."+stage)
	defer span.End()

	probing := false
	if st := g.state.Status(ctx); st.QuotaExceeded {
		if !g.takeProbe() {
			span.SetAttributes(attribute.Bool("ai.fallback_active", true))
			return nil, apperr.AIService(apperr.CodeFallbackActive,
				fmt.Sprintf("AI unavailable since %s (%s)", st.Since.Format(time.RFC3339), st.Reason), nil)
		}
		probing = true
		span.SetAttributes(attribute.Bool("ai.probe", true))
		g.logger.Info("AIGuard", "Probing AI provider while quota flag is set", map[string]interface{}{"stage": stage})
	}

	started := time.Now()
	res, err := g.provider.Generate(ctx, prompt, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, g.fail(ctx, stage, err)
	}

	if probing || g.state.IsExceeded(ctx) {
		g.state.Reset(ctx)
		g.logger.Info("AIGuard", "AI call succeeded, quota flag cleared", map[string]interface{}{"stage": stage})
	}

	span.SetAttributes(
		attribute.Int("ai.tokens.prompt", res.Usage.PromptTokens),
		attribute.Int("ai.tokens.completion", res.Usage.CompletionTokens),
	)
	g.usageLog.Info("AIGuard", "AI completion", map[string]interface{}{
		"stage":             stage,
		"model":             res.Model,
		"prompt_tokens":     res.Usage.PromptTokens,
		"completion_tokens": res.Usage.CompletionTokens,
		"total_tokens":      res.Usage.TotalTokens,
		"duration_ms":       time.Since(started).Milliseconds(),
	})

	return res, nil
}

// takeProbe reports whether this caller may make the probe call.
func (g *Guard) takeProbe() bool {
	if g.probeEvery <= 0 {
		return false
	}
	g.probeMu.Lock()
	defer g.probeMu.Unlock()
	now := time.Now()
	if !g.lastProbe.IsZero() && now.Sub(g.lastProbe) < g.probeEvery {
		return false
	}
	g.lastProbe = now
	return true
}

func (g *Guard) fail(ctx context.Context, stage string, err error) error {
	code, trips := Classify(err)

	details := map[string]interface{}{"stage": stage, "code": code, "error": err.Error()}
	if !trips {
		g.logger.Warn("AIGuard", "AI call failed", details)
		return apperr.AIService(code, "AI call failed during "+stage, err)
	}

	g.state.MarkExceeded(ctx, code, err.Error())
	g.logger.Warn("AIGuard", "AI quota signature detected, switching to fallback", details)

	if g.notifier != nil {
		if nerr := g.notifier.QuotaExceeded(ctx, code, err.Error()); nerr != nil {
			g.logger.Error("AIGuard", "Failed to broadcast quota state", map[string]interface{}{"error": nerr.Error()})
		}
	}
	return apperr.AIService(code, "AI call failed during "+stage, err)
}
