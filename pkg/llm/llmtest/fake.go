// Package llmtest provides a scripted llm.LLMProvider for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"ai-studyquiz-be/pkg/llm"
	"ai-studyquiz-be/pkg/llm/tokens"
)

// Reply is one scripted provider answer.
type Reply struct {
	Text string
	Err  error
}

// Provider returns queued replies in order. Once the queue is drained it keeps
// answering with Default (or an error when Default is empty).
type Provider struct {
	mu      sync.Mutex
	replies []Reply
	prompts []string

	Default Reply
	// Respond, when set, is used instead of the queue.
	Respond func(prompt string) Reply
}

var _ llm.LLMProvider = &Provider{}

func New(replies ...Reply) *Provider {
	return &Provider{replies: replies}
}

func Text(s string) Reply { return Reply{Text: s} }

func Fail(err error) Reply { return Reply{Err: err} }

func (p *Provider) Push(replies ...Reply) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, replies...)
}

// Prompts returns every prompt the provider has seen.
func (p *Provider) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.prompts))
	copy(out, p.prompts)
	return out
}

func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Completion, error) {
	var prompt string
	for _, m := range history {
		prompt += m.Content
	}
	return p.Generate(ctx, prompt, options...)
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	var r Reply
	switch {
	case p.Respond != nil:
		r = p.Respond(prompt)
	case len(p.replies) > 0:
		r = p.replies[0]
		p.replies = p.replies[1:]
	default:
		r = p.Default
	}
	p.mu.Unlock()

	if r.Err != nil {
		return nil, r.Err
	}
	if r.Text == "" {
		return nil, errors.New("llmtest: no scripted reply")
	}

	usage := llm.Usage{
		PromptTokens:     tokens.Estimate(prompt),
		CompletionTokens: tokens.Estimate(r.Text),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	return &llm.Completion{Text: r.Text, Usage: usage, Model: "fake"}, nil
}
