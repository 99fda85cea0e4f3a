package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Run("Should pass validation out of the box", func(t *testing.T) {
		svc := NewService()
		require.NoError(t, svc.Validate(Default()))
	})
	t.Run("Should carry the gateway defaults", func(t *testing.T) {
		cfg := Default()
		assert.Equal(t, "gemini-1.5-flash-latest", cfg.LLM.Model)
		assert.InDelta(t, 0.5, cfg.LLM.Temperature, 1e-9)
		assert.Equal(t, 2048, cfg.LLM.MaxTokens)
		assert.Equal(t, "Ayrancılar, İzmir", cfg.Travel.HomeBase)
		assert.Equal(t, 5, cfg.Knowledge.TopK)
	})
}

func TestLoader_Load(t *testing.T) {
	t.Run("Should layer yaml over defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "supervisor.yaml")
		content := "llm:\n  model: gemini-pro\nserver:\n  port: 9090\n  timeout: 30s\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		svc := NewService()
		cfg, err := svc.Load(context.Background(), NewYAMLProvider(path))
		require.NoError(t, err)
		assert.Equal(t, "gemini-pro", cfg.LLM.Model)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
		assert.Equal(t, 2048, cfg.LLM.MaxTokens)
		assert.Equal(t, SourceYAML, svc.GetSource("server.port"))
		assert.Equal(t, SourceDefault, svc.GetSource("llm.max_tokens"))
	})
	t.Run("Should ignore a missing yaml file", func(t *testing.T) {
		cfg, err := NewService().Load(context.Background(), NewYAMLProvider(filepath.Join(t.TempDir(), "nope.yaml")))
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
	})
	t.Run("Should let mapped environment variables override yaml", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "supervisor.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600))
		t.Setenv("SERVER_PORT", "7070")
		t.Setenv("GEMINI_API_KEY", "secret-key")
		svc := NewService()
		cfg, err := svc.Load(context.Background(), NewYAMLProvider(path))
		require.NoError(t, err)
		assert.Equal(t, 7070, cfg.Server.Port)
		assert.Equal(t, "secret-key", cfg.LLM.APIKey.Value())
		assert.Equal(t, SourceEnv, svc.GetSource("server.port"))
	})
	t.Run("Should apply CLI flags last", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "7070")
		cfg, err := NewService().Load(context.Background(), NewCLIProvider(map[string]any{
			"port":   6060,
			"no-pdf": true,
		}))
		require.NoError(t, err)
		assert.Equal(t, 6060, cfg.Server.Port)
		assert.False(t, cfg.Travel.ExportPDF)
	})
	t.Run("Should reject redis checkpoints without a url", func(t *testing.T) {
		t.Setenv("CHECKPOINT_DRIVER", "redis")
		_, err := NewService().Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis_url")
	})
	t.Run("Should reject an unknown provider", func(t *testing.T) {
		t.Setenv("LLM_PROVIDER", "carrier-pigeon")
		_, err := NewService().Load(context.Background())
		require.Error(t, err)
	})
	t.Run("Should replace the sources map as a whole", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "supervisor.yaml")
		require.NoError(t, os.WriteFile(path, []byte("knowledge:\n  sources:\n    mevzuat: mevzuat.json\n"), 0o600))
		cfg, err := NewService().Load(context.Background(), NewYAMLProvider(path))
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"mevzuat": "mevzuat.json"}, cfg.Knowledge.Sources)
	})
}

func TestSensitiveString(t *testing.T) {
	t.Run("Should redact when printed and marshaled", func(t *testing.T) {
		s := SensitiveString("abc")
		assert.Equal(t, "[REDACTED]", s.String())
		out, err := json.Marshal(struct {
			Key SensitiveString `json:"key"`
		}{Key: s})
		require.NoError(t, err)
		assert.JSONEq(t, `{"key":"[REDACTED]"}`, string(out))
		assert.Equal(t, "abc", s.Value())
	})
}

func TestKeys(t *testing.T) {
	t.Run("Should bind the documented environment variables", func(t *testing.T) {
		m := EnvBindings()
		assert.Equal(t, "llm.api_key", m["GEMINI_API_KEY"])
		assert.Equal(t, "search.tavily_api_key", m["TAVILY_API_KEY"])
		assert.Equal(t, "checkpoint.redis_url", m["REDIS_URL"])
		assert.Equal(t, "server.rate_limit.limit", m["RATE_LIMIT_LIMIT"])
		assert.NotContains(t, m, "")
	})
	t.Run("Should mask secrets and keep empty ones visible as empty", func(t *testing.T) {
		cfg := Default()
		cfg.Travel.TomTomAPIKey = "tt-secret"
		byPath := make(map[string]Key)
		for _, k := range Keys(cfg) {
			byPath[k.Path] = k
		}
		assert.True(t, byPath["travel.tomtom_api_key"].Sensitive)
		assert.Equal(t, "[REDACTED]", byPath["travel.tomtom_api_key"].Value)
		assert.Equal(t, "", byPath["travel.serper_api_key"].Value)
		assert.False(t, byPath["travel.home_base"].Sensitive)
		assert.Equal(t, "Ayrancılar, İzmir", byPath["travel.home_base"].Value)
		assert.Equal(t, "2h0m0s", byPath["server.session_ttl"].Value)
		assert.Equal(t, "TRAVEL_HOME_BASE", byPath["travel.home_base"].EnvVar)
	})
	t.Run("Should nest keys by path", func(t *testing.T) {
		tree := Tree([]Key{
			{Path: "server.port", Value: 8080},
			{Path: "server.rate_limit.limit", Value: int64(5)},
			{Path: "llm.model", Value: "m"},
		})
		server, ok := tree["server"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 8080, server["port"])
		limit, ok := server["rate_limit"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, int64(5), limit["limit"])
		assert.Equal(t, map[string]any{"model": "m"}, tree["llm"])
	})
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("Should not override variables already set", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(path, []byte("SERPER_API_KEY=from-file\nTRAVEL_HOME_CURRENCY=EUR\n"), 0o600))
		t.Setenv("SERPER_API_KEY", "from-env")
		t.Setenv("TRAVEL_HOME_CURRENCY", "")
		require.NoError(t, os.Unsetenv("TRAVEL_HOME_CURRENCY"))
		require.NoError(t, LoadDotEnv(path))
		assert.Equal(t, "from-env", os.Getenv("SERPER_API_KEY"))
		assert.Equal(t, "EUR", os.Getenv("TRAVEL_HOME_CURRENCY"))
		require.NoError(t, os.Unsetenv("TRAVEL_HOME_CURRENCY"))
	})
}
