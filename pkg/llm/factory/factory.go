package factory

import (
	"fmt"
	"time"

	"ai-studyquiz-be/pkg/llm"
	"ai-studyquiz-be/pkg/llm/ollama"
	"ai-studyquiz-be/pkg/llm/openaicompat"
)

// Settings selects and configures the completion backend.
type Settings struct {
	Provider string // "ollama", "openai", "huggingface", "openrouter", "groq"
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

var defaultBaseURLs = map[string]string{
	"ollama":      "http://localhost:11434",
	"openai":      "https://api.openai.com/v1",
	"huggingface": "https://router.huggingface.co/v1",
	"openrouter":  "https://openrouter.ai/api/v1",
	"groq":        "https://api.groq.com/openai/v1",
}

func NewLLMProvider(s Settings) (llm.LLMProvider, error) {
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURLs[s.Provider]
	}

	switch s.Provider {
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, s.Model, s.Timeout), nil
	case "openai", "huggingface", "openrouter", "groq", "openai_compatible":
		if baseURL == "" {
			return nil, fmt.Errorf("base URL is required for provider %s", s.Provider)
		}
		return openaicompat.NewProvider(s.Provider, s.APIKey, baseURL, s.Model, s.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}
