package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// ProviderName identifies a completion backend.
type ProviderName string

const (
	ProviderGoogle    ProviderName = "google"
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderOllama    ProviderName = "ollama"
	ProviderMock      ProviderName = "mock"
)

// ProviderConfig holds backend credentials shared by every handle.
type ProviderConfig struct {
	Provider       ProviderName
	APIKey         string
	BaseURL        string
	EmbeddingModel string
}

// RequiresKey reports whether the provider cannot run without a credential.
func (p ProviderConfig) RequiresKey() bool {
	switch p.Provider {
	case ProviderOllama, ProviderMock:
		return false
	default:
		return true
	}
}

// Factory builds a model handle for cfg.
type Factory func(ctx context.Context, provider ProviderConfig, cfg Config) (llms.Model, error)

// NewModel is the default Factory backed by langchaingo providers.
func NewModel(ctx context.Context, p ProviderConfig, cfg Config) (llms.Model, error) {
	switch ProviderName(strings.ToLower(string(p.Provider))) {
	case ProviderGoogle, "":
		return createGoogleLLM(ctx, p, cfg)
	case ProviderOpenAI:
		return createOpenAILLM(p, cfg)
	case ProviderAnthropic:
		return createAnthropicLLM(p, cfg)
	case ProviderOllama:
		return createOllamaLLM(p, cfg)
	case ProviderMock:
		return NewEchoModel(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", p.Provider)
	}
}

func createGoogleLLM(ctx context.Context, p ProviderConfig, cfg Config) (llms.Model, error) {
	opts := []googleai.Option{
		googleai.WithAPIKey(p.APIKey),
		googleai.WithDefaultModel(cfg.Model),
		googleai.WithDefaultTemperature(cfg.Temperature),
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, googleai.WithDefaultMaxTokens(cfg.MaxTokens))
	}
	if p.EmbeddingModel != "" {
		opts = append(opts, googleai.WithDefaultEmbeddingModel(p.EmbeddingModel))
	}
	return googleai.New(ctx, opts...)
}

func createOpenAILLM(p ProviderConfig, cfg Config) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(p.APIKey),
	}
	if p.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(p.BaseURL))
	}
	if p.EmbeddingModel != "" {
		opts = append(opts, openai.WithEmbeddingModel(p.EmbeddingModel))
	}
	return openai.New(opts...)
}

func createAnthropicLLM(p ProviderConfig, cfg Config) (llms.Model, error) {
	opts := []anthropic.Option{
		anthropic.WithModel(cfg.Model),
		anthropic.WithToken(p.APIKey),
	}
	if p.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(p.BaseURL))
	}
	return anthropic.New(opts...)
}

func createOllamaLLM(p ProviderConfig, cfg Config) (llms.Model, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if p.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(p.BaseURL))
	}
	return ollama.New(opts...)
}
