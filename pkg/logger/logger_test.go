package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		out = append(out, entry)
	}
	return out
}

func TestFromContext(t *testing.T) {
	t.Run("Should carry request fields to every downstream log call", func(t *testing.T) {
		var buf bytes.Buffer
		base := NewLogger(&Config{Level: InfoLevel, Output: &buf, JSON: true})
		ctx := ContextWithLogger(t.Context(), base.With("request_id", "req-42"))

		FromContext(ctx).Info("Routing query", "category", "Travel")
		FromContext(ctx).With("run_id", "r1").Warn("Destination summary reports a problem")

		entries := jsonLines(t, &buf)
		require.Len(t, entries, 2)
		assert.Equal(t, "req-42", entries[0]["request_id"])
		assert.Equal(t, "Travel", entries[0]["category"])
		assert.Equal(t, "Routing query", entries[0]["msg"])
		assert.Equal(t, "req-42", entries[1]["request_id"])
		assert.Equal(t, "r1", entries[1]["run_id"])
		assert.Equal(t, "warn", entries[1]["level"])
	})

	t.Run("Should fall back to the default logger", func(t *testing.T) {
		for name, ctx := range map[string]context.Context{
			"empty":     t.Context(),
			"wrong":     context.WithValue(t.Context(), LoggerCtxKey, "not a logger"),
			"nil value": context.WithValue(t.Context(), LoggerCtxKey, Logger(nil)),
			"nil ctx":   nil, //nolint:staticcheck // nil contexts reach FromContext from library callers
		} {
			assert.Same(t, GetDefault(), FromContext(ctx), name)
		}
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("Should drop entries below the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: WarnLevel, Output: &buf, JSON: true})
		log.Debug("Date phrase not understood by parser, asking model")
		log.Info("Configuration loaded")
		log.Error("Completion failed", "error", "503")
		entries := jsonLines(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "Completion failed", entries[0]["msg"])
		assert.Equal(t, "503", entries[0]["error"])
	})

	t.Run("Should write nothing when disabled", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: DisabledLevel, Output: &buf})
		log.Error("Responder panicked", "category", "News")
		assert.Empty(t, buf.String())
	})

	t.Run("Should render text entries with their fields", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: InfoLevel, Output: &buf, TimeFormat: "15:04:05"})
		log.Info("Request completed", "status", 200)
		assert.Contains(t, buf.String(), "Request completed")
		assert.Contains(t, buf.String(), "status=200")
	})

	t.Run("Should stay silent under go test without a config", func(t *testing.T) {
		require.True(t, IsTestEnvironment())
		impl, ok := NewLogger(nil).(*loggerImpl)
		require.True(t, ok)
		assert.Equal(t, DisabledLevel.ToCharmlogLevel(), impl.charmLogger.GetLevel())
	})
}

func TestCLIConfig(t *testing.T) {
	newCommand := func(args ...string) *cobra.Command {
		cmd := &cobra.Command{Use: "supervisor"}
		cmd.Flags().String("log-level", "info", "")
		cmd.Flags().Bool("log-json", false, "")
		cmd.Flags().Bool("log-source", false, "")
		require.NoError(t, cmd.ParseFlags(args))
		return cmd
	}

	t.Run("Should read the logging flags", func(t *testing.T) {
		level, logJSON, logSource, err := GetLoggerConfig(newCommand("--log-level", "debug", "--log-json"))
		require.NoError(t, err)
		assert.Equal(t, "debug", level)
		assert.True(t, logJSON)
		assert.False(t, logSource)
	})

	t.Run("Should fail when the flags are not registered", func(t *testing.T) {
		_, _, _, err := GetLoggerConfig(&cobra.Command{Use: "bare"})
		require.ErrorContains(t, err, "log-level")
	})

	t.Run("Should log to stderr and default unknown levels to info", func(t *testing.T) {
		cfg := cliConfig("verbose", true, true)
		assert.Equal(t, InfoLevel, cfg.Level)
		assert.Equal(t, os.Stderr, cfg.Output)
		assert.True(t, cfg.JSON)
		assert.True(t, cfg.AddSource)
		assert.Equal(t, WarnLevel, cliConfig("warn", false, false).Level)
	})
}
