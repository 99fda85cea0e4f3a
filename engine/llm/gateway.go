package llm

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/sethvargo/go-retry"
	"github.com/tmc/langchaingo/llms"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

// RetryPolicy bounds how transient upstream failures are retried.
type RetryPolicy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// Completer is the plain text-completion contract.
type Completer interface {
	Complete(ctx context.Context, prompt string, cfg Config) (string, error)
}

// ChatRequest is a tool-capable conversation turn.
type ChatRequest struct {
	Messages []llms.MessageContent
	Tools    []llms.Tool
	Config   Config
	JSONMode bool
}

// ChatResponse carries text and any tool calls requested by the model.
type ChatResponse struct {
	Content   string
	ToolCalls []llms.ToolCall
}

// Chatter is the tool-capable contract used by agent loops.
type Chatter interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Gateway wraps model handles with credential checks, retries and error
// classification. It never fails on the content of a reply.
type Gateway struct {
	registry *Registry
	defaults Config
	retry    RetryPolicy
	metrics  Recorder
}

// Recorder receives one observation per completion call.
type Recorder interface {
	RecordCompletion(ctx context.Context, model string, outcome string, duration time.Duration)
}

type GatewayOption func(*Gateway)

func WithDefaults(cfg Config) GatewayOption {
	return func(g *Gateway) { g.defaults = cfg }
}

func WithRetry(policy RetryPolicy) GatewayOption {
	return func(g *Gateway) { g.retry = policy }
}

func WithRecorder(r Recorder) GatewayOption {
	return func(g *Gateway) { g.metrics = r }
}

// NewGateway builds a gateway over registry.
func NewGateway(registry *Registry, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		registry: registry,
		defaults: DefaultConfig(),
		retry: RetryPolicy{
			Attempts:   2,
			Backoff:    500 * time.Millisecond,
			MaxBackoff: 5 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Defaults returns the configuration applied to zero fields of every call.
func (g *Gateway) Defaults() Config {
	return g.defaults
}

// Complete sends prompt as a single user message and returns the reply text.
func (g *Gateway) Complete(ctx context.Context, prompt string, cfg Config) (string, error) {
	resp, err := g.Chat(ctx, ChatRequest{
		Messages: []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		Config:   cfg,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Chat runs one model turn, retrying transient failures.
func (g *Gateway) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if g == nil || g.registry == nil {
		return nil, fmt.Errorf("llm: %w", core.ErrGatewayUnavailable)
	}
	provider := g.registry.Provider()
	if provider.RequiresKey() && strings.TrimSpace(provider.APIKey) == "" {
		return nil, fmt.Errorf("llm: no credential for provider %s: %w", provider.Provider, core.ErrGatewayUnavailable)
	}
	cfg := g.resolve(req.Config)
	log := logger.FromContext(ctx).With("model", cfg.Model)
	model, err := g.registry.Get(ctx, cfg)
	if err != nil {
		return nil, core.Upstream("create model", err)
	}
	opts := callOptions(cfg, req)
	start := time.Now()
	var resp *llms.ContentResponse
	err = retry.Do(ctx, g.backoff(), func(ctx context.Context) error {
		var callErr error
		resp, callErr = model.GenerateContent(ctx, req.Messages, opts...)
		if callErr != nil {
			if isRetryable(ctx, callErr) {
				log.Warn("Retrying completion", "error", core.RedactError(callErr))
				return retry.RetryableError(callErr)
			}
			return callErr
		}
		return nil
	})
	if err != nil {
		g.record(ctx, cfg.Model, "error", time.Since(start))
		log.Error("Completion failed", "error", core.RedactError(err))
		return nil, core.Upstream("completion", err)
	}
	g.record(ctx, cfg.Model, "ok", time.Since(start))
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return &ChatResponse{}, nil
	}
	choice := resp.Choices[0]
	return &ChatResponse{Content: choice.Content, ToolCalls: choice.ToolCalls}, nil
}

func (g *Gateway) resolve(cfg Config) Config {
	out := cfg
	if out.InheritTemperature {
		out.Temperature = g.defaults.Temperature
		out.InheritTemperature = false
	}
	if err := mergo.Merge(&out, Config{Model: g.defaults.Model, MaxTokens: g.defaults.MaxTokens}); err != nil {
		logger.Warn("Config merge failed", "error", err)
	}
	return out
}

func (g *Gateway) backoff() retry.Backoff {
	attempts := g.retry.Attempts
	if attempts < 0 || attempts > 10 {
		attempts = 2
	}
	base := g.retry.Backoff
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	b := retry.NewExponential(base)
	if g.retry.MaxBackoff > 0 {
		b = retry.WithCappedDuration(g.retry.MaxBackoff, b)
	}
	return retry.WithMaxRetries(uint64(attempts), b) // #nosec G115 -- bounded above
}

func (g *Gateway) record(ctx context.Context, model, outcome string, d time.Duration) {
	if g.metrics != nil {
		g.metrics.RecordCompletion(ctx, model, outcome, d)
	}
}

func callOptions(cfg Config, req ChatRequest) []llms.CallOption {
	opts := []llms.CallOption{
		llms.WithModel(cfg.Model),
		llms.WithTemperature(cfg.Temperature),
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.TopP != nil {
		opts = append(opts, llms.WithTopP(*cfg.TopP))
	}
	if cfg.TopK != nil {
		opts = append(opts, llms.WithTopK(*cfg.TopK))
	}
	if seed, ok := cfg.Extra["seed"]; ok {
		if v, err := strconv.Atoi(seed); err == nil {
			opts = append(opts, llms.WithSeed(v))
		}
	}
	if len(req.Tools) > 0 {
		opts = append(opts, llms.WithTools(req.Tools))
	} else if req.JSONMode {
		opts = append(opts, llms.WithJSONMode())
	}
	return opts
}
