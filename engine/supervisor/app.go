// Package supervisor wires configuration into a ready-to-use router and the
// collaborators behind it. The CLI and the HTTP server share this wiring.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/infra/monitoring"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/embedder"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/ingest"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/retriever"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/vectordb"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/responder"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/router"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/search"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/travel"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/travel/export"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/travel/tools"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/config"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

const monitoringShutdownTimeout = 5 * time.Second

// App holds every long-lived collaborator of one process.
type App struct {
	Config     *config.Config
	Gateway    *llm.Gateway
	Router     *router.Router
	Workflow   *travel.Workflow
	Exporter   *export.Exporter
	Store      vectordb.Store
	Monitoring *monitoring.Service

	embedder embedder.Embedder
}

type options struct {
	factory  llm.Factory
	fs       afero.Fs
	embedder embedder.Embedder
	monitor  bool
}

type Option func(*options)

// WithFactory replaces the model factory, mostly for tests.
func WithFactory(f llm.Factory) Option {
	return func(o *options) { o.factory = f }
}

// WithFs sets the file system plans and fonts are read from and written to.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithEmbedder replaces the provider-backed embedder.
func WithEmbedder(e embedder.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithoutMonitoring skips the metrics exporter.
func WithoutMonitoring() Option {
	return func(o *options) { o.monitor = false }
}

// Build wires an App from cfg. The returned cleanup releases every resource
// and must be called even when only part of the wiring is used.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*App, func(), error) {
	o := options{fs: afero.NewOsFs(), monitor: true}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.FromContext(ctx)
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	app := &App{Config: cfg}

	monCfg := monitoring.FromAppConfig(cfg)
	if !o.monitor {
		monCfg.Enabled = false
	}
	app.Monitoring = monitoring.NewMonitoringServiceWithFallback(ctx, monCfg)
	cleanups = append(cleanups, func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), monitoringShutdownTimeout)
		defer cancel()
		if err := app.Monitoring.Shutdown(sctx); err != nil {
			log.Error("Failed to shutdown monitoring service", "error", err)
		}
	})

	provider := llm.ProviderConfig{
		Provider:       llm.ProviderName(cfg.LLM.Provider),
		APIKey:         cfg.LLM.APIKey.Value(),
		BaseURL:        cfg.LLM.BaseURL,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
	}
	app.Gateway = llm.NewGateway(llm.NewRegistry(provider, o.factory),
		llm.WithDefaults(llm.Config{
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		}),
		llm.WithRetry(llm.RetryPolicy{
			Attempts:   cfg.LLM.RetryAttempts,
			Backoff:    cfg.LLM.RetryBackoff,
			MaxBackoff: cfg.LLM.RetryMaxBackoff,
		}),
		llm.WithRecorder(app.Monitoring.Completions()),
	)

	app.embedder = o.embedder
	if app.embedder == nil {
		emb, err := embedder.New(ctx, provider, cfg.Knowledge.BatchSize)
		switch {
		case errors.Is(err, core.ErrGatewayUnavailable):
			log.Warn("Embedding credential missing, retrieval is disabled", "provider", provider.Provider)
		case err != nil:
			cleanup()
			return nil, nil, err
		default:
			if err := emb.EnableCache(cfg.Knowledge.EmbeddingCacheSize); err != nil {
				log.Warn("Embedding cache disabled", "error", err)
			}
			app.embedder = emb
		}
	}

	store, err := vectordb.New(&vectordb.Config{Provider: vectordb.ProviderFilesystem, Path: cfg.Knowledge.DataDir})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("open vector store: %w", err)
	}
	app.Store = store
	cleanups = append(cleanups, func() {
		if err := store.Close(context.WithoutCancel(ctx)); err != nil {
			log.Error("Failed to close vector store", "error", err)
		}
	})

	client := search.NewClient(search.ClientConfig{Timeout: cfg.Search.Timeout})
	suite := search.NewSuite(search.Config{
		TavilyAPIKey:       cfg.Search.TavilyAPIKey.Value(),
		SerperAPIKey:       cfg.Travel.SerperAPIKey.Value(),
		WikipediaLang:      cfg.Search.WikipediaLang,
		WikipediaSentences: cfg.Search.WikipediaSentences,
		MaxResults:         cfg.Search.MaxResults,
		Timeout:            cfg.Search.Timeout,
		Client:             client,
	})
	travelClient := search.NewClient(search.ClientConfig{Timeout: cfg.Travel.HTTPTimeout})
	toolset := tools.NewToolset(tools.Config{
		ExchangeRateAPIKey:   cfg.Travel.ExchangeRateAPIKey.Value(),
		OpenWeatherMapAPIKey: cfg.Travel.OpenWeatherMapAPIKey.Value(),
		TomTomAPIKey:         cfg.Travel.TomTomAPIKey.Value(),
	}, travelClient, suite, app.Gateway)

	checkpointer, cpCleanup, err := travel.NewCheckpointer(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, cpCleanup)
	app.Workflow = travel.New(app.Gateway, toolset,
		travel.WithCheckpointer(checkpointer),
		travel.WithMaxIterations(cfg.Travel.AgentMaxIterations),
		travel.WithHome(cfg.Travel.HomeBase, cfg.Travel.HomeCurrency),
	)

	var saver responder.PlanSaver
	if cfg.Travel.ExportPDF {
		app.Exporter = export.New(o.fs, cfg.Travel.PlansDir,
			export.WithFonts(o.fs, cfg.Travel.FontDir),
			export.WithImageClient(travelClient),
		)
		saver = app.Exporter
	}

	searcher, err := app.searcher()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	app.Router = router.NewRouter(router.NewClassifier(app.Gateway), responder.NewFallback(),
		router.WithResponder(router.RegulatoryDoc, responder.NewRegulatory(searcher, app.Gateway,
			responder.WithCollection(cfg.Knowledge.RegulatoryCollection),
			responder.WithTopK(cfg.Knowledge.TopK),
			responder.WithCompletionConfig(llm.Config{Temperature: cfg.LLM.Temperature}),
		)),
		router.WithResponder(router.News, responder.NewNews(app.Gateway, suite.NewsTools(),
			responder.WithNewsMaxIterations(cfg.Search.MaxIterations),
		)),
		router.WithResponder(router.Travel, responder.NewTravel(app.Workflow, saver)),
		router.WithResponder(router.ActiveDocumentQA, responder.NewDocumentQA(app.Gateway, app.embedder,
			responder.WithChunking(cfg.Knowledge.DocumentChunkSize, cfg.Knowledge.DocumentChunkOverlap),
			responder.WithDocumentTopK(cfg.Knowledge.DocumentTopK),
		)),
	)
	log.Info("Supervisor ready",
		"provider", provider.Provider,
		"model", cfg.LLM.Model,
		"retrieval", app.embedder != nil,
		"checkpoint", cfg.Checkpoint.Driver,
		"export_pdf", cfg.Travel.ExportPDF,
	)
	return app, cleanup, nil
}

// searcher returns the retrieval service, or one that reports the missing
// credential on every call.
func (a *App) searcher() (retriever.Searcher, error) {
	emb := a.embedder
	if emb == nil {
		emb = embedder.Unavailable(fmt.Errorf("embedder: no credential: %w", core.ErrGatewayUnavailable))
	}
	return retriever.NewService(emb, a.Store)
}

// Ask routes one query.
func (a *App) Ask(ctx context.Context, q router.Query) core.AnswerEnvelope {
	return a.Router.Handle(ctx, q)
}

// Ingestion returns a pipeline that writes into the app's vector store.
func (a *App) Ingestion() (*ingest.Pipeline, error) {
	if a.embedder == nil {
		return nil, fmt.Errorf("ingest: no embedding credential: %w", core.ErrGatewayUnavailable)
	}
	k := a.Config.Knowledge
	return ingest.NewPipeline(a.embedder, a.Store, ingest.Options{
		RawDir:       k.RawDir,
		ProcessedDir: k.ProcessedDir,
		ChunkSize:    k.ChunkSize,
		ChunkOverlap: k.ChunkOverlap,
		BatchSize:    k.BatchSize,
	})
}
