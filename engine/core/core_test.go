package core_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	t.Run("Should nest sentinels under their family", func(t *testing.T) {
		assert.ErrorIs(t, core.ErrQueryRejected, core.ErrCaller)
		assert.ErrorIs(t, core.ErrGatewayUnavailable, core.ErrCollaboratorUnavailable)
		assert.ErrorIs(t, core.ErrCollectionUnavailable, core.ErrCollaboratorUnavailable)
		assert.NotErrorIs(t, core.ErrUpstream, core.ErrCaller)
	})
	t.Run("Should wrap upstream failures once", func(t *testing.T) {
		cause := errors.New("503 service unavailable")
		err := core.Upstream("wikipedia", cause)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrUpstream)
		assert.ErrorIs(t, err, cause)
		again := core.Upstream("news", err)
		assert.Equal(t, err, again)
		assert.NoError(t, core.Upstream("noop", nil))
	})
	t.Run("Should map errors to source tags", func(t *testing.T) {
		assert.Equal(t, "API Key", core.ErrorTag(fmt.Errorf("llm: %w", core.ErrGatewayUnavailable)))
		assert.Equal(t, "Document Retrieval", core.ErrorTag(core.ErrCollectionUnavailable))
		assert.Equal(t, "Upstream", core.ErrorTag(errors.New("boom")))
		assert.Empty(t, core.ErrorTag(nil))
	})
}

func TestAnswerEnvelope(t *testing.T) {
	t.Run("Should leave blank context unset", func(t *testing.T) {
		env := core.NewEnvelope("answer", "Fallback Agent").WithContext("   ")
		assert.Nil(t, env.Context)
		assert.True(t, env.Valid())
	})
	t.Run("Should carry context and artifact", func(t *testing.T) {
		env := core.NewEnvelope("plan", "Travel Agent").WithContext("ctx").WithArtifact("plans/x_1.pdf")
		require.NotNil(t, env.ArtifactPath)
		assert.Equal(t, "plans/x_1.pdf", *env.ArtifactPath)
		assert.Equal(t, "ctx", env.ContextText())
	})
	t.Run("Should reject empty fields", func(t *testing.T) {
		assert.False(t, core.AnswerEnvelope{Answer: "a"}.Valid())
		assert.False(t, core.AnswerEnvelope{Source: "s"}.Valid())
	})
	t.Run("Should format tagged sources", func(t *testing.T) {
		assert.Equal(t, "News Agent (Agent Successful)", core.TaggedSource("News Agent", "Agent Successful"))
		assert.Equal(t, "News Agent", core.TaggedSource("News Agent", ""))
	})
}

func TestCloneMap(t *testing.T) {
	t.Run("Should deep copy nested values", func(t *testing.T) {
		src := map[string]any{"tags": []any{"a"}, "inner": map[string]any{"k": 1}}
		dst := core.CloneMap(src)
		dst["inner"].(map[string]any)["k"] = 2
		assert.Equal(t, 1, src["inner"].(map[string]any)["k"])
		assert.Nil(t, core.CloneMap[string, any](nil))
	})
}

func TestRedactString(t *testing.T) {
	t.Run("Should redact keys passed as query parameters", func(t *testing.T) {
		in := "GET https://api.openweathermap.org/geo/1.0/direct?q=Paris&appid=abc123 failed"
		assert.Equal(t, "GET https://api.openweathermap.org/geo/1.0/direct?q=Paris&appid=[REDACTED] failed", core.RedactString(in))
		in = "https://api.tomtom.com/search/2/geocode/Paris.json?key=zzz&limit=1"
		assert.Equal(t, "https://api.tomtom.com/search/2/geocode/Paris.json?key=[REDACTED]&limit=1", core.RedactString(in))
	})
	t.Run("Should redact keys embedded in paths", func(t *testing.T) {
		in := "https://v6.exchangerate-api.com/v6/0123456789abcdef01/latest/USD"
		assert.Equal(t, "https://v6.exchangerate-api.com/v6/[REDACTED]/latest/USD", core.RedactString(in))
	})
	t.Run("Should redact bearer tokens", func(t *testing.T) {
		assert.Equal(t, "Authorization: Bearer [REDACTED]", core.RedactString("Authorization: Bearer abc123def456"))
	})
	t.Run("Should redact provider key shapes", func(t *testing.T) {
		assert.Equal(t, "key [REDACTED] rejected", core.RedactString("key tvly-abcdefghijklmnop1234 rejected"))
	})
	t.Run("Should truncate long strings", func(t *testing.T) {
		out := core.RedactString(strings.Repeat("a", 600))
		assert.True(t, strings.HasSuffix(out, "…"))
		assert.Equal(t, 512, len(out)-len("…"))
	})
	t.Run("Should return empty for nil errors", func(t *testing.T) {
		assert.Empty(t, core.RedactError(nil))
	})
}
