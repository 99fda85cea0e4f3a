package search

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
)

const defaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

var (
	ddgTitle   = regexp.MustCompile(`(?s)<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.+?)</a>`)
	ddgSnippet = regexp.MustCompile(`(?s)<a[^>]+class="result__snippet"[^>]*>(.+?)</a>`)
	htmlTag    = regexp.MustCompile(`<[^>]*>`)
	spaceRuns  = regexp.MustCompile(`\s+`)
)

const maxDDGResults = 20

// DuckDuckGo scrapes the keyless HTML endpoint.
type DuckDuckGo struct {
	client   *Client
	endpoint string
}

func NewDuckDuckGo(client *Client, endpoint string) *DuckDuckGo {
	if endpoint == "" {
		endpoint = defaultDuckDuckGoURL
	}
	return &DuckDuckGo{client: client, endpoint: endpoint}
}

// Search returns up to maxResults hits.
func (d *DuckDuckGo) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("duckduckgo: %w", core.ErrQueryRejected)
	}
	body, err := d.client.Do(ctx, "duckduckgo", Request{
		URL:   d.endpoint,
		Query: map[string]string{"q": query},
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml",
			"Accept-Language": "tr-TR,tr;q=0.9,en;q=0.8",
		},
	})
	if err != nil {
		return nil, err
	}
	results := parseDuckDuckGo(string(body))
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

func parseDuckDuckGo(page string) []Result {
	titles := ddgTitle.FindAllStringSubmatch(page, maxDDGResults+10)
	snippets := ddgSnippet.FindAllStringSubmatch(page, maxDDGResults+10)
	var out []Result
	for i, m := range titles {
		link := resolveDDGLink(html.UnescapeString(m[1]))
		title := cleanHTML(m[2])
		if link == "" || title == "" {
			continue
		}
		var snippet string
		if i < len(snippets) {
			snippet = cleanHTML(snippets[i][1])
		}
		out = append(out, Result{Title: title, URL: link, Content: snippet})
		if len(out) >= maxDDGResults {
			break
		}
	}
	return out
}

// resolveDDGLink unwraps the redirect link DuckDuckGo puts in result anchors.
func resolveDDGLink(raw string) string {
	if strings.Contains(raw, "uddg=") {
		if strings.HasPrefix(raw, "//") {
			raw = "https:" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return ""
}

func cleanHTML(s string) string {
	s = htmlTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaceRuns.ReplaceAllString(s, " "))
}
