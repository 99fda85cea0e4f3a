package supervisor

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm/llmtest"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/responder"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/router"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/config"
)

func testConfig(t *testing.T, provider string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.LLM.Provider = provider
	cfg.Knowledge.DataDir = t.TempDir()
	cfg.Knowledge.RawDir = t.TempDir()
	cfg.Knowledge.ProcessedDir = t.TempDir()
	cfg.Checkpoint.Driver = "memory"
	cfg.Travel.PlansDir = "plans"
	return cfg
}

func TestBuild(t *testing.T) {
	t.Run("Should route to the fallback when the model says Other", func(t *testing.T) {
		model := llmtest.NewModel(llmtest.Reply{Text: "Other"})
		app, cleanup, err := Build(t.Context(), testConfig(t, "mock"),
			WithFactory(model.Factory()), WithFs(afero.NewMemMapFs()), WithoutMonitoring())
		require.NoError(t, err)
		defer cleanup()
		env := app.Ask(t.Context(), router.Query{Text: "Merhaba"})
		assert.Equal(t, responder.FallbackSource, env.Source)
		assert.NotNil(t, app.Exporter)
	})
	t.Run("Should answer news through the agent", func(t *testing.T) {
		model := llmtest.NewModel(llmtest.Reply{Text: "News"})
		app, cleanup, err := Build(t.Context(), testConfig(t, "mock"),
			WithFactory(model.Factory()), WithFs(afero.NewMemMapFs()), WithoutMonitoring())
		require.NoError(t, err)
		defer cleanup()
		env := app.Ask(t.Context(), router.Query{Text: "Enflasyon nedir?"})
		assert.Equal(t, responder.NewsSource+" (Agent Successful)", env.Source)
		assert.Equal(t, 2, model.Calls())
	})
	t.Run("Should report no regulatory results on an empty index", func(t *testing.T) {
		model := llmtest.NewModel(llmtest.Reply{Text: "Resmi Gazete"})
		app, cleanup, err := Build(t.Context(), testConfig(t, "mock"),
			WithFactory(model.Factory()), WithFs(afero.NewMemMapFs()), WithoutMonitoring())
		require.NoError(t, err)
		defer cleanup()
		env := app.Ask(t.Context(), router.Query{Text: "Son yönetmelik"})
		assert.Equal(t, "Resmi Gazete (Collection: resmi_gazete) (No Results Found)", env.Source)
		pipeline, err := app.Ingestion()
		require.NoError(t, err)
		assert.NotNil(t, pipeline)
	})
	t.Run("Should start without credentials and degrade per request", func(t *testing.T) {
		cfg := testConfig(t, "google")
		cfg.Travel.ExportPDF = false
		app, cleanup, err := Build(t.Context(), cfg, WithFs(afero.NewMemMapFs()), WithoutMonitoring())
		require.NoError(t, err)
		defer cleanup()
		assert.Nil(t, app.Exporter)
		env := app.Ask(t.Context(), router.Query{Text: "Merhaba"})
		assert.True(t, env.Valid())
		assert.Equal(t, responder.FallbackSource, env.Source)
		_, err = app.Ingestion()
		assert.True(t, errors.Is(err, core.ErrGatewayUnavailable))
	})
	t.Run("Should fail on an unknown checkpoint driver", func(t *testing.T) {
		cfg := testConfig(t, "mock")
		cfg.Checkpoint.Driver = "etcd"
		_, _, err := Build(t.Context(), cfg, WithFs(afero.NewMemMapFs()), WithoutMonitoring())
		assert.Error(t, err)
	})
}
