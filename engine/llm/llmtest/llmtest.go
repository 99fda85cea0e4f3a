// Package llmtest provides fakes for code that talks to the completion gateway.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/tmc/langchaingo/llms"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
)

// Model is a scripted llms.Model. Each GenerateContent call pops the next
// reply; when the script runs out the last reply repeats.
type Model struct {
	mu      sync.Mutex
	replies []Reply
	calls   [][]llms.MessageContent
}

// Reply is one scripted model turn.
type Reply struct {
	Text      string
	ToolCalls []llms.ToolCall
	Err       error
}

func NewModel(replies ...Reply) *Model {
	return &Model{replies: replies}
}

func (m *Model) GenerateContent(
	_ context.Context,
	messages []llms.MessageContent,
	_ ...llms.CallOption,
) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, messages)
	if len(m.replies) == 0 {
		return nil, errors.New("llmtest: no scripted reply")
	}
	r := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: r.Text, ToolCalls: r.ToolCalls}}}, nil
}

func (m *Model) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// Calls returns the number of GenerateContent invocations.
func (m *Model) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Factory returns an llm.Factory that always hands out m.
func (m *Model) Factory() llm.Factory {
	return func(context.Context, llm.ProviderConfig, llm.Config) (llms.Model, error) {
		return m, nil
	}
}

// ToolCall builds a model tool call request.
func ToolCall(id, name, args string) llms.ToolCall {
	return llms.ToolCall{
		ID:           id,
		Type:         "function",
		FunctionCall: &llms.FunctionCall{Name: name, Arguments: args},
	}
}

// Gateway is a programmable fake of both Completer and Chatter.
type Gateway struct {
	mu       sync.Mutex
	prompts  []string
	Responds func(prompt string) (string, error)
	ChatFn   func(req llm.ChatRequest) (*llm.ChatResponse, error)
}

// Static answers every completion with text.
func Static(text string) *Gateway {
	return &Gateway{Responds: func(string) (string, error) { return text, nil }}
}

// Failing fails every call with err.
func Failing(err error) *Gateway {
	return &Gateway{
		Responds: func(string) (string, error) { return "", err },
		ChatFn:   func(llm.ChatRequest) (*llm.ChatResponse, error) { return nil, err },
	}
}

// Routed answers with the first reply whose key is contained in the prompt.
func Routed(fallback string, routes map[string]string) *Gateway {
	return &Gateway{Responds: func(prompt string) (string, error) {
		for key, reply := range routes {
			if strings.Contains(prompt, key) {
				return reply, nil
			}
		}
		return fallback, nil
	}}
}

func (g *Gateway) Complete(_ context.Context, prompt string, _ llm.Config) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.Responds == nil {
		return "", errors.New("llmtest: no responder")
	}
	return g.Responds(prompt)
}

func (g *Gateway) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	if g.ChatFn != nil {
		return g.ChatFn(req)
	}
	var prompt string
	for _, msg := range req.Messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				prompt = text.Text
			}
		}
	}
	out, err := g.Complete(context.Background(), prompt, req.Config)
	if err != nil {
		return nil, err
	}
	return &llm.ChatResponse{Content: out}, nil
}

// Prompts returns every prompt received so far.
func (g *Gateway) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// MockCompleter is a testify mock of llm.Completer.
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, prompt string, cfg llm.Config) (string, error) {
	args := m.Called(ctx, prompt, cfg)
	return args.String(0), args.Error(1)
}
