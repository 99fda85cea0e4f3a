package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
)

const defaultSerperURL = "https://google.serper.dev/search"

// Serper queries Google through serper.dev.
type Serper struct {
	client   *Client
	endpoint string
	apiKey   string
}

// NewSerper returns nil when apiKey is empty.
func NewSerper(client *Client, endpoint, apiKey string) *Serper {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	if endpoint == "" {
		endpoint = defaultSerperURL
	}
	return &Serper{client: client, endpoint: endpoint, apiKey: apiKey}
}

// Run returns a text digest: the answer box when present, otherwise the
// knowledge graph description followed by organic snippets.
func (s *Serper) Run(ctx context.Context, query string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("serper: api key not set: %w", core.ErrCollaboratorUnavailable)
	}
	res, err := s.client.JSON(ctx, "serper", Request{
		Method:  resty.MethodPost,
		URL:     s.endpoint,
		Headers: map[string]string{"X-API-KEY": s.apiKey},
		Body:    map[string]any{"q": query, "gl": "tr", "hl": "tr", "num": 10},
	})
	if err != nil {
		return "", err
	}
	for _, path := range []string{"answerBox.answer", "answerBox.snippet", "answerBox.snippetHighlighted.0"} {
		if v := strings.TrimSpace(res.Get(path).String()); v != "" {
			return v, nil
		}
	}
	var parts []string
	if kg := res.Get("knowledgeGraph"); kg.Exists() {
		if title, typ := kg.Get("title").String(), kg.Get("type").String(); title != "" && typ != "" {
			parts = append(parts, title+": "+typ+".")
		}
		if desc := kg.Get("description").String(); desc != "" {
			parts = append(parts, desc)
		}
		kg.Get("attributes").ForEach(func(k, v gjson.Result) bool {
			parts = append(parts, fmt.Sprintf("%s %s: %s.", kg.Get("title").String(), k.String(), v.String()))
			return true
		})
	}
	for _, snip := range res.Get("organic.#.snippet").Array() {
		if v := strings.TrimSpace(snip.String()); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " "), nil
}
