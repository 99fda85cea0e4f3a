package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

const DefaultMaxIterations = 6

// Step records one tool invocation of an agent run.
type Step struct {
	Tool   string
	Input  string
	Output string
	Failed bool
}

// AgentResult is the outcome of Agent.Run.
type AgentResult struct {
	Output     string
	Iterations int
	Steps      []Step
}

// Agent is an iteration-bounded tool loop. Tool selection is left to the
// model; the loop executes requested calls and feeds results back until the
// model answers in plain text or the bound is hit.
type Agent struct {
	name          string
	chat          Chatter
	system        string
	tools         []Tool
	index         map[string]Tool
	maxIterations int
	cfg           Config
}

type AgentOption func(*Agent)

func WithSystemPrompt(prompt string) AgentOption {
	return func(a *Agent) { a.system = prompt }
}

func WithTools(tools ...Tool) AgentOption {
	return func(a *Agent) { a.tools = append(a.tools, tools...) }
}

func WithMaxIterations(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

func WithAgentConfig(cfg Config) AgentOption {
	return func(a *Agent) { a.cfg = cfg }
}

// NewAgent creates a named agent over chat.
func NewAgent(name string, chat Chatter, opts ...AgentOption) *Agent {
	a := &Agent{
		name:          name,
		chat:          chat,
		maxIterations: DefaultMaxIterations,
		cfg:           Inherit(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.index = make(map[string]Tool, len(a.tools))
	for _, t := range a.tools {
		a.index[t.Name()] = t
	}
	return a
}

// Run drives the loop for input. When the bound is hit the partial result is
// returned together with ErrIterationLimit.
func (a *Agent) Run(ctx context.Context, input string) (*AgentResult, error) {
	log := logger.FromContext(ctx).With("agent", a.name)
	messages := make([]llms.MessageContent, 0, 8)
	if a.system != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, a.system))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, input))
	defs := Definitions(a.tools)
	result := &AgentResult{}
	for result.Iterations < a.maxIterations {
		result.Iterations++
		resp, err := a.chat.Chat(ctx, ChatRequest{Messages: messages, Tools: defs, Config: a.cfg})
		if err != nil {
			return result, err
		}
		if len(resp.ToolCalls) == 0 {
			result.Output = strings.TrimSpace(resp.Content)
			log.Debug("Agent finished", "iterations", result.Iterations, "tool_calls", len(result.Steps))
			return result, nil
		}
		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if strings.TrimSpace(resp.Content) != "" {
			assistant.Parts = append(assistant.Parts, llms.TextContent{Text: resp.Content})
		}
		for _, call := range resp.ToolCalls {
			assistant.Parts = append(assistant.Parts, call)
		}
		messages = append(messages, assistant)
		for i, call := range resp.ToolCalls {
			step := a.invoke(ctx, call)
			result.Steps = append(result.Steps, step)
			log.Debug("Tool invoked", "tool", step.Tool, "failed", step.Failed)
			id := call.ID
			if id == "" {
				id = fmt.Sprintf("call_%d_%d", result.Iterations, i)
			}
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: id,
					Name:       step.Tool,
					Content:    step.Output,
				}},
			})
		}
	}
	log.Warn("Agent hit iteration limit", "max_iterations", a.maxIterations)
	return result, ErrIterationLimit
}

// invoke runs one tool call. Failures become an {"error": ...} payload for
// the model to narrate rather than aborting the run.
func (a *Agent) invoke(ctx context.Context, call llms.ToolCall) Step {
	if call.FunctionCall == nil {
		return Step{Output: errorPayload("malformed tool call"), Failed: true}
	}
	step := Step{Tool: call.FunctionCall.Name, Input: call.FunctionCall.Arguments}
	tool, ok := a.index[step.Tool]
	if !ok {
		step.Output = errorPayload("unknown tool " + step.Tool)
		step.Failed = true
		return step
	}
	out, err := tool.Call(ctx, step.Input)
	if err != nil {
		step.Output = errorPayload(err.Error())
		step.Failed = true
		return step
	}
	step.Output = out
	return step
}

func errorPayload(msg string) string {
	raw, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return `{"error":"tool failed"}`
	}
	return string(raw)
}

// StringArg extracts a named string argument from tool call JSON. Models
// sometimes send a bare string instead of an object; that is accepted too.
func StringArg(args, name string) string {
	trimmed := strings.TrimSpace(args)
	if trimmed == "" {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		if v, ok := obj[name].(string); ok {
			return strings.TrimSpace(v)
		}
		for _, v := range obj {
			if s, ok := v.(string); ok {
				return strings.TrimSpace(s)
			}
		}
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(trimmed), &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.Trim(trimmed, "\"' ")
}
