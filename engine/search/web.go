package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

// Config wires the web collaborators. Endpoints are overridable for tests.
type Config struct {
	TavilyAPIKey       string
	SerperAPIKey       string
	WikipediaLang      string
	WikipediaSentences int
	MaxResults         int
	Timeout            time.Duration

	WikipediaURL  string
	TavilyURL     string
	DuckDuckGoURL string
	SerperURL     string
	Client        *Client
}

// Suite groups every web collaborator over one shared client.
type Suite struct {
	Wikipedia  *Wikipedia
	Tavily     *Tavily
	DuckDuckGo *DuckDuckGo
	Serper     *Serper
	maxResults int
}

// NewSuite builds the collaborators. Tavily and Serper are nil without keys.
func NewSuite(cfg Config) *Suite {
	client := cfg.Client
	if client == nil {
		cc := DefaultClientConfig()
		cc.Timeout = cfg.Timeout
		client = NewClient(cc)
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Suite{
		Wikipedia:  NewWikipedia(client, cfg.WikipediaURL, cfg.WikipediaLang, cfg.WikipediaSentences),
		Tavily:     NewTavily(client, cfg.TavilyURL, cfg.TavilyAPIKey),
		DuckDuckGo: NewDuckDuckGo(client, cfg.DuckDuckGoURL),
		Serper:     NewSerper(client, cfg.SerperURL, cfg.SerperAPIKey),
		maxResults: maxResults,
	}
}

// LookupWikipedia renders a Wikipedia summary, or the reason there is none,
// as text for a model.
func (s *Suite) LookupWikipedia(ctx context.Context, query string) string {
	log := logger.FromContext(ctx)
	article, err := s.Wikipedia.Summary(ctx, query)
	var amb *AmbiguousError
	switch {
	case err == nil:
		log.Debug("Wikipedia summary found", "title", article.Title)
		return fmt.Sprintf("Wikipedia Result (%s):\n%s\n\nSource: %s", article.Title, article.Summary, article.URL)
	case errors.Is(err, ErrPageNotFound):
		return fmt.Sprintf("Sorry, I couldn't find a page for '%s' on Wikipedia.", query)
	case errors.As(err, &amb):
		return fmt.Sprintf("'%s' query has multiple meanings (e.g., %s...). Please clarify your query.",
			query, strings.Join(amb.Options, ", "))
	default:
		log.Warn("Wikipedia search failed", "error", err)
		return fmt.Sprintf("An error occurred during the Wikipedia search: %v", err)
	}
}

// SearchWeb uses Tavily when configured and DuckDuckGo otherwise.
func (s *Suite) SearchWeb(ctx context.Context, query string) string {
	if s.Tavily != nil {
		return s.searchTavily(ctx, query)
	}
	return s.searchDuckDuckGo(ctx, query)
}

func (s *Suite) searchTavily(ctx context.Context, query string) string {
	results, err := s.Tavily.Search(ctx, query, s.maxResults)
	if err != nil {
		logger.FromContext(ctx).Warn("Tavily search failed", "error", err)
		return fmt.Sprintf("An error occurred during the web search (Tavily): %v", err)
	}
	if len(results) == 0 {
		return "Web search (Tavily) returned no results for this query."
	}
	formatted := make([]string, 0, len(results))
	for _, r := range results {
		formatted = append(formatted, fmt.Sprintf("Title: %s\nURL: %s\nSummary: %s",
			orNA(r.Title), orNA(r.URL), orNA(r.Content)))
	}
	return strings.Join(formatted, "\n\n---\n\n")
}

func (s *Suite) searchDuckDuckGo(ctx context.Context, query string) string {
	results, err := s.DuckDuckGo.Search(ctx, query, s.maxResults)
	if err != nil {
		logger.FromContext(ctx).Warn("DuckDuckGo search failed", "error", err)
		return fmt.Sprintf("An error occurred during the web search (DuckDuckGo): %v", err)
	}
	if len(results) == 0 {
		return "Web search (DuckDuckGo) returned no results for this query."
	}
	formatted := make([]string, 0, len(results))
	for _, r := range results {
		formatted = append(formatted, fmt.Sprintf("[%s](%s): %s", r.Title, r.URL, r.Content))
	}
	return strings.Join(formatted, "\n")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
