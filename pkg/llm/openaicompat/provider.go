// Package openaicompat talks to any OpenAI-compatible chat completions endpoint
// (OpenAI, HuggingFace router, OpenRouter, Groq, vLLM).
package openaicompat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ai-studyquiz-be/pkg/llm"
	"ai-studyquiz-be/pkg/llm/tokens"

	"github.com/go-resty/resty/v2"
)

type Provider struct {
	name    string
	model   string
	client  *resty.Client
	counter *tokens.Counter
}

var _ llm.LLMProvider = &Provider{}

// Request Payload Structure (OpenAI Compatible)
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []llm.Message   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *llm.Usage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

func NewProvider(name, apiKey, baseURL, model string, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil
		})
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &Provider{
		name:    name,
		model:   model,
		client:  client,
		counter: tokens.NewCounter(model),
	}
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Completion, error) {
	opts := llm.ApplyOptions(llm.Options{Model: p.model, MaxTokens: 4096}, options...)

	reqBody := chatRequest{
		Model:     opts.Model,
		Messages:  history,
		MaxTokens: opts.MaxTokens,
	}
	if opts.Temperature > 0 {
		temp := opts.Temperature
		reqBody.Temperature = &temp
	}
	if opts.JSONMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(reqBody).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", p.name, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &llm.HTTPError{Provider: p.name, StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(resp.Body(), &chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("%s api returned error: %s", p.name, chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("empty choices from %s api", p.name)
	}

	text := chatResp.Choices[0].Message.Content

	var usage llm.Usage
	if chatResp.Usage != nil {
		usage = *chatResp.Usage
	} else {
		for _, m := range history {
			usage.PromptTokens += p.counter.Count(m.Content)
		}
		usage.CompletionTokens = p.counter.Count(text)
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	return &llm.Completion{Text: text, Usage: usage, Model: opts.Model}, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Completion, error) {
	messages := []llm.Message{
		{Role: "user", Content: prompt},
	}
	return p.Chat(ctx, messages, options...)
}
