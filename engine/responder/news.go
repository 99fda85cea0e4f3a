package responder

import (
	"context"
	"errors"
	"strings"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/router"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

const (
	NewsSource               = "News Agent (Web/Wikipedia)"
	DefaultNewsMaxIterations = 6
	DefaultNewsTemperature   = 0.7

	newsNoAnswer = "Your request was processed but no answer was generated. Please try rephrasing your question."
	newsFailure  = "An unexpected error occurred while processing your news or general information query."
)

// News answers general and current-events questions with a tool loop over
// Wikipedia and web search.
type News struct {
	agent *llm.Agent
}

type NewsOption func(*newsSettings)

type newsSettings struct {
	maxIterations int
	temperature   float64
}

func WithNewsMaxIterations(n int) NewsOption {
	return func(s *newsSettings) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

func WithNewsTemperature(t float64) NewsOption {
	return func(s *newsSettings) { s.temperature = t }
}

// NewNews builds the agent once; it is reused across requests.
func NewNews(chat llm.Chatter, tools []llm.Tool, opts ...NewsOption) *News {
	s := newsSettings{maxIterations: DefaultNewsMaxIterations, temperature: DefaultNewsTemperature}
	for _, opt := range opts {
		opt(&s)
	}
	return &News{agent: llm.NewAgent("news", chat,
		llm.WithSystemPrompt(newsSystemPrompt),
		llm.WithTools(tools...),
		llm.WithMaxIterations(s.maxIterations),
		llm.WithAgentConfig(llm.Config{Temperature: s.temperature}),
	)}
}

func (n *News) Respond(ctx context.Context, q router.Query) core.AnswerEnvelope {
	log := logger.FromContext(ctx).With("responder", "news")
	if strings.TrimSpace(q.Text) == "" {
		return core.NewEnvelope("I received an unrecognized or incomplete query.",
			core.TaggedSource(NewsSource, "Error: Missing Query"))
	}
	result, err := n.agent.Run(ctx, q.Text)
	switch {
	case err != nil && !errors.Is(err, llm.ErrIterationLimit):
		log.Error("News agent failed", "error", err)
		return core.NewEnvelope(newsFailure, core.TaggedSource(NewsSource, "Error: "+core.ErrorTag(err)))
	case err != nil || result == nil || strings.TrimSpace(result.Output) == "":
		log.Warn("News agent produced no answer", "error", err)
		return core.NewEnvelope(newsNoAnswer, core.TaggedSource(NewsSource, "Agent Did Not Respond"))
	}
	log.Info("News agent answered", "iterations", result.Iterations, "tool_calls", len(result.Steps))
	return core.NewEnvelope(result.Output, core.TaggedSource(NewsSource, "Agent Successful"))
}
