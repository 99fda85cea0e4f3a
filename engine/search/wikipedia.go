package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
)

const defaultWikipediaURL = "https://%s.wikipedia.org/w/api.php"

// ErrPageNotFound is returned when no article matches the title.
var ErrPageNotFound = errors.New("wikipedia: page not found")

// AmbiguousError is returned for disambiguation pages.
type AmbiguousError struct {
	Query   string
	Options []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("wikipedia: %q has multiple meanings", e.Query)
}

// Article is the introduction of a Wikipedia page.
type Article struct {
	Title   string
	Summary string
	URL     string
}

// Wikipedia fetches plain-text introductions through the MediaWiki API.
type Wikipedia struct {
	client    *Client
	endpoint  string
	lang      string
	sentences int
}

// NewWikipedia returns a client for the given language edition. endpoint
// may contain one %s for the language; empty uses wikipedia.org.
func NewWikipedia(client *Client, endpoint, lang string, sentences int) *Wikipedia {
	if endpoint == "" {
		endpoint = defaultWikipediaURL
	}
	if lang == "" {
		lang = "tr"
	}
	if sentences <= 0 {
		sentences = 5
	}
	return &Wikipedia{client: client, endpoint: endpoint, lang: lang, sentences: sentences}
}

// Summary returns the first sentences of the page titled query. Titles are
// matched exactly (redirects are followed, no suggestion search).
func (w *Wikipedia) Summary(ctx context.Context, query string) (*Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("wikipedia: %w", core.ErrQueryRejected)
	}
	endpoint := w.endpoint
	if strings.Contains(endpoint, "%s") {
		endpoint = fmt.Sprintf(endpoint, w.lang)
	}
	res, err := w.client.JSON(ctx, "wikipedia", Request{
		URL: endpoint,
		Query: map[string]string{
			"action":        "query",
			"format":        "json",
			"formatversion": "2",
			"redirects":     "1",
			"titles":        query,
			"prop":          "extracts|info|pageprops|links",
			"exintro":       "1",
			"explaintext":   "1",
			"exsentences":   strconv.Itoa(w.sentences),
			"inprop":        "url",
			"ppprop":        "disambiguation",
			"plnamespace":   "0",
			"pllimit":       "5",
		},
	})
	if err != nil {
		return nil, err
	}
	page := res.Get("query.pages.0")
	if !page.Exists() || page.Get("missing").Bool() || page.Get("invalid").Bool() {
		return nil, ErrPageNotFound
	}
	if page.Get("pageprops.disambiguation").Exists() {
		amb := &AmbiguousError{Query: query}
		for _, link := range page.Get("links.#.title").Array() {
			amb.Options = append(amb.Options, link.String())
		}
		return nil, amb
	}
	return &Article{
		Title:   page.Get("title").String(),
		Summary: strings.TrimSpace(page.Get("extract").String()),
		URL:     page.Get("fullurl").String(),
	}, nil
}
