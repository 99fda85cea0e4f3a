package llm

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// EchoModel is an offline model used by the mock provider. It answers every
// request with the last human message so pipelines can run without network.
type EchoModel struct{}

func NewEchoModel() *EchoModel {
	return &EchoModel{}
}

func (m *EchoModel) GenerateContent(
	_ context.Context,
	messages []llms.MessageContent,
	_ ...llms.CallOption,
) (*llms.ContentResponse, error) {
	var last string
	for _, msg := range messages {
		if msg.Role != llms.ChatMessageTypeHuman {
			continue
		}
		var parts []string
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				parts = append(parts, text.Text)
			}
		}
		last = strings.Join(parts, "\n")
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "mock: " + strings.TrimSpace(last)}},
	}, nil
}

func (m *EchoModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// CreateEmbedding returns a small deterministic vector per text.
func (m *EchoModel) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = HashEmbedding(text, 32)
	}
	return out, nil
}

// HashEmbedding folds the lowercase words of text into a dim-sized bag of
// words vector. Texts sharing words land close under cosine distance.
func HashEmbedding(text string, dim int) []float32 {
	vec := make([]float32, dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		var h uint32 = 2166136261
		for i := 0; i < len(word); i++ {
			h ^= uint32(word[i])
			h *= 16777619
		}
		vec[h%uint32(dim)]++
	}
	return vec
}
