package search

import (
	"context"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
)

const (
	WikipediaToolName = "WikipediaSearch"
	WebToolName       = "WebSearch"
)

// NewsTools returns the tools of the news agent.
func (s *Suite) NewsTools() []llm.Tool {
	return []llm.Tool{
		&llm.FuncTool{
			ToolName: WikipediaToolName,
			ToolDescription: "Used to get encyclopedic information about a specific topic, person, place, or event. " +
				"It is good for definitions and general information. It performs searches in Turkish.",
			Schema: llm.StringArgSchema("query", "Exact page title to look up"),
			Fn: func(ctx context.Context, args string) (string, error) {
				return s.LookupWikipedia(ctx, llm.StringArg(args, "query")), nil
			},
		},
		&llm.FuncTool{
			ToolName: WebToolName,
			ToolDescription: "Performs web searches for up-to-date events, news, weather, stock prices, or specific " +
				"information not available on Wikipedia. Useful for getting the latest information.",
			Schema: llm.StringArgSchema("query", "Search query"),
			Fn: func(ctx context.Context, args string) (string, error) {
				return s.SearchWeb(ctx, llm.StringArg(args, "query")), nil
			},
		},
	}
}
