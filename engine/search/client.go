package search

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/slok/goresilience"
	"github.com/slok/goresilience/circuitbreaker"
	"github.com/slok/goresilience/retry"
	"github.com/tidwall/gjson"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Client is the shared HTTP runner for web collaborators. Transport errors,
// 5xx and 429 responses are retried; other 4xx responses fail at once.
type Client struct {
	http   *resty.Client
	runner goresilience.Runner
}

// ClientConfig tunes a Client.
type ClientConfig struct {
	Timeout     time.Duration
	RetryTimes  int
	RetryWait   time.Duration
	UserAgent   string
	OpenBreaker bool
}

// DefaultClientConfig returns the settings used when none are supplied.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:     15 * time.Second,
		RetryTimes:  2,
		RetryWait:   200 * time.Millisecond,
		UserAgent:   defaultUserAgent,
		OpenBreaker: true,
	}
}

// NewClient builds a client. Zero fields fall back to DefaultClientConfig.
func NewClient(cfg ClientConfig) *Client {
	def := DefaultClientConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.RetryTimes < 0 {
		cfg.RetryTimes = 0
	}
	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)
	var middlewares []goresilience.Middleware
	if cfg.OpenBreaker {
		middlewares = append(middlewares, circuitbreaker.NewMiddleware(circuitbreaker.Config{
			ErrorPercentThresholdToOpen:        50,
			MinimumRequestToOpen:               10,
			SuccessfulRequiredOnHalfOpen:       1,
			WaitDurationInOpenState:            10 * time.Second,
			MetricsSlidingWindowBucketQuantity: 10,
			MetricsBucketDuration:              time.Second,
		}))
	}
	if cfg.RetryTimes > 0 {
		middlewares = append(middlewares, retry.NewMiddleware(retry.Config{
			Times:    cfg.RetryTimes,
			WaitBase: cfg.RetryWait,
		}))
	}
	return &Client{http: httpClient, runner: goresilience.RunnerChain(middlewares...)}
}

// Request describes one call.
type Request struct {
	Method  string
	URL     string
	Query   map[string]string
	Headers map[string]string
	Body    any
}

// Do executes req and returns the response body. Failures are wrapped with
// core.ErrUpstream labelled with op.
func (c *Client) Do(ctx context.Context, op string, req Request) ([]byte, error) {
	if req.Method == "" {
		req.Method = resty.MethodGet
	}
	var (
		body      []byte
		permanent error
	)
	err := c.runner.Run(ctx, func(ctx context.Context) error {
		r := c.http.R().SetContext(ctx)
		if len(req.Query) > 0 {
			r.SetQueryParams(req.Query)
		}
		if len(req.Headers) > 0 {
			r.SetHeaders(req.Headers)
		}
		if req.Body != nil {
			r.SetBody(req.Body)
		}
		resp, err := r.Execute(req.Method, req.URL)
		if err != nil {
			return err
		}
		code := resp.StatusCode()
		switch {
		case code >= 500 || code == 429:
			return fmt.Errorf("status %d", code)
		case code >= 400:
			permanent = fmt.Errorf("status %d: %s", code, truncate(resp.String(), 200))
			return nil
		}
		body = resp.Body()
		return nil
	})
	if err == nil {
		err = permanent
	}
	if err != nil {
		logger.FromContext(ctx).Debug("Web request failed", "op", op, "error", err)
		return nil, core.Upstream(op, err)
	}
	return body, nil
}

// JSON executes req and parses the body as JSON.
func (c *Client) JSON(ctx context.Context, op string, req Request) (gjson.Result, error) {
	body, err := c.Do(ctx, op, req)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, core.Upstream(op, fmt.Errorf("invalid JSON response: %s", truncate(string(body), 120)))
	}
	return gjson.ParseBytes(body), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
