package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ai-studyquiz-be/pkg/llm"
	"ai-studyquiz-be/pkg/llm/tokens"

	"github.com/go-resty/resty/v2"
)

type OllamaProvider struct {
	ModelName string
	client    *resty.Client
	counter   *tokens.Counter
}

// Ensure OllamaProvider implements LLMProvider
var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string, timeout time.Duration) *OllamaProvider {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Only transport failures; status codes are surfaced to the caller untouched.
			return err != nil
		})

	return &OllamaProvider{
		ModelName: modelName,
		client:    client,
		counter:   tokens.NewCounter(""),
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

// --- Interface Implementation ---

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (*llm.Completion, error) {
	options := llm.ApplyOptions(llm.Options{Temperature: 0.7}, opts...)

	ollamaMessages := make([]ollamaMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = "assistant"
		}
		ollamaMessages[i] = ollamaMessage{Role: role, Content: msg.Content}
	}

	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}

	reqPayload := ollamaChatRequest{
		Model:    model,
		Messages: ollamaMessages,
		Stream:   false,
		Options:  &ollamaOptions{Temperature: options.Temperature},
	}
	if options.MaxTokens > 0 {
		reqPayload.Options.NumPredict = options.MaxTokens
	}
	if options.JSONMode {
		reqPayload.Format = "json"
	}

	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(reqPayload).
		Post("/api/chat")
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &llm.HTTPError{Provider: "ollama", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var ollamaResp ollamaChatResponse
	if err := json.Unmarshal(resp.Body(), &ollamaResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	usage := llm.Usage{
		PromptTokens:     ollamaResp.PromptEvalCount,
		CompletionTokens: ollamaResp.EvalCount,
	}
	if usage.PromptTokens == 0 && usage.CompletionTokens == 0 {
		for _, m := range history {
			usage.PromptTokens += o.counter.Count(m.Content)
		}
		usage.CompletionTokens = o.counter.Count(ollamaResp.Message.Content)
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	return &llm.Completion{
		Text:  ollamaResp.Message.Content,
		Usage: usage,
		Model: model,
	}, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (*llm.Completion, error) {
	// Reuse Chat for simplicity as most new LLMs are chat-optimized
	return o.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}
