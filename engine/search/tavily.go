package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
)

const defaultTavilyURL = "https://api.tavily.com/search"

// Result is one web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Tavily calls the Tavily search API.
type Tavily struct {
	client   *Client
	endpoint string
	apiKey   string
}

// NewTavily returns nil when apiKey is empty so callers can fall back.
func NewTavily(client *Client, endpoint, apiKey string) *Tavily {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	if endpoint == "" {
		endpoint = defaultTavilyURL
	}
	return &Tavily{client: client, endpoint: endpoint, apiKey: apiKey}
}

// Search runs a basic-depth search.
func (t *Tavily) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if t == nil {
		return nil, fmt.Errorf("tavily: api key not set: %w", core.ErrCollaboratorUnavailable)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("tavily: %w", core.ErrQueryRejected)
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	res, err := t.client.JSON(ctx, "tavily", Request{
		Method:  resty.MethodPost,
		URL:     t.endpoint,
		Headers: map[string]string{"Authorization": "Bearer " + t.apiKey},
		Body: map[string]any{
			"api_key":      t.apiKey,
			"query":        query,
			"search_depth": "basic",
			"max_results":  maxResults,
		},
	})
	if err != nil {
		return nil, err
	}
	var out []Result
	res.Get("results").ForEach(func(_, item gjson.Result) bool {
		out = append(out, Result{
			Title:   item.Get("title").String(),
			URL:     item.Get("url").String(),
			Content: item.Get("content").String(),
		})
		return true
	})
	return out, nil
}
