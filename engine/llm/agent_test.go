package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm/llmtest"
)

func echoTool(name string, calls *[]string) llm.Tool {
	return &llm.FuncTool{
		ToolName:        name,
		ToolDescription: "echo",
		Schema:          llm.StringArgSchema("query", "text"),
		Fn: func(_ context.Context, args string) (string, error) {
			*calls = append(*calls, llm.StringArg(args, "query"))
			return "result for " + llm.StringArg(args, "query"), nil
		},
	}
}

func TestAgent_Run(t *testing.T) {
	t.Run("Should execute tool calls and return the final text", func(t *testing.T) {
		var calls []string
		model := llmtest.NewModel(
			llmtest.Reply{ToolCalls: []llms.ToolCall{llmtest.ToolCall("1", "WikipediaSearch", `{"query":"İzmir"}`)}},
			llmtest.Reply{Text: "İzmir is a city."},
		)
		gw := newGateway(model, "k")
		agent := llm.NewAgent("news", gw, llm.WithTools(echoTool("WikipediaSearch", &calls)))
		res, err := agent.Run(t.Context(), "What is İzmir?")
		require.NoError(t, err)
		assert.Equal(t, "İzmir is a city.", res.Output)
		assert.Equal(t, 2, res.Iterations)
		assert.Equal(t, []string{"İzmir"}, calls)
		require.Len(t, res.Steps, 1)
		assert.False(t, res.Steps[0].Failed)
	})
	t.Run("Should turn unknown tools into soft failures", func(t *testing.T) {
		model := llmtest.NewModel(
			llmtest.Reply{ToolCalls: []llms.ToolCall{llmtest.ToolCall("1", "Missing", `{}`)}},
			llmtest.Reply{Text: "done"},
		)
		res, err := llm.NewAgent("a", newGateway(model, "k")).Run(t.Context(), "q")
		require.NoError(t, err)
		require.Len(t, res.Steps, 1)
		assert.True(t, res.Steps[0].Failed)
		assert.Contains(t, res.Steps[0].Output, `"error"`)
	})
	t.Run("Should report tool errors back to the model", func(t *testing.T) {
		failing := &llm.FuncTool{
			ToolName: "WebSearch",
			Schema:   llm.StringArgSchema("query", ""),
			Fn: func(context.Context, string) (string, error) {
				return "", errors.New("quota exceeded")
			},
		}
		model := llmtest.NewModel(
			llmtest.Reply{ToolCalls: []llms.ToolCall{llmtest.ToolCall("1", "WebSearch", `{"query":"x"}`)}},
			llmtest.Reply{Text: "Could not search."},
		)
		res, err := llm.NewAgent("a", newGateway(model, "k"), llm.WithTools(failing)).Run(t.Context(), "q")
		require.NoError(t, err)
		assert.Equal(t, `{"error":"quota exceeded"}`, res.Steps[0].Output)
	})
	t.Run("Should stop at the iteration bound", func(t *testing.T) {
		var calls []string
		model := llmtest.NewModel(
			llmtest.Reply{ToolCalls: []llms.ToolCall{llmtest.ToolCall("1", "WebSearch", `{"query":"again"}`)}},
		)
		agent := llm.NewAgent("a", newGateway(model, "k"),
			llm.WithTools(echoTool("WebSearch", &calls)),
			llm.WithMaxIterations(3),
		)
		res, err := agent.Run(t.Context(), "loop forever")
		require.ErrorIs(t, err, llm.ErrIterationLimit)
		assert.Equal(t, 3, res.Iterations)
		assert.Empty(t, res.Output)
		assert.Len(t, calls, 3)
	})
	t.Run("Should propagate gateway failures", func(t *testing.T) {
		boom := errors.New("boom")
		res, err := llm.NewAgent("a", llmtest.Failing(boom)).Run(t.Context(), "q")
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, res.Iterations)
	})
}

func TestStringArg(t *testing.T) {
	t.Run("Should read named, fallback and bare arguments", func(t *testing.T) {
		assert.Equal(t, "Paris", llm.StringArg(`{"city":"Paris"}`, "city"))
		assert.Equal(t, "Paris", llm.StringArg(`{"location":"Paris"}`, "city"))
		assert.Equal(t, "Paris", llm.StringArg(`"Paris"`, "city"))
		assert.Equal(t, "Paris", llm.StringArg(`Paris`, "city"))
		assert.Empty(t, llm.StringArg(``, "city"))
	})
}

func TestSchemaFor(t *testing.T) {
	type input struct {
		City string `json:"city" jsonschema:"description=City name"`
		Days int    `json:"days,omitempty"`
	}
	t.Run("Should reflect an inline object schema", func(t *testing.T) {
		schema := llm.SchemaFor(&input{})
		assert.Equal(t, "object", schema["type"])
		props, ok := schema["properties"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, props, "city")
		assert.Contains(t, props, "days")
		assert.NotContains(t, schema, "$schema")
	})
}
