package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/attachment"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/retriever"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm/llmtest"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/router"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/travel"
)

type stubSearcher struct {
	records []retriever.Record
	err     error
	got     retriever.SearchRequest
}

func (s *stubSearcher) Search(_ context.Context, req retriever.SearchRequest) ([]retriever.Record, error) {
	s.got = req
	return s.records, s.err
}

func text(s string) *string { return &s }

func TestRegulatory(t *testing.T) {
	const base = "Resmi Gazete (Collection: resmi_gazete)"

	t.Run("Should reject an empty query", func(t *testing.T) {
		env := NewRegulatory(&stubSearcher{}, llmtest.Static("x")).Respond(t.Context(), router.Query{Text: " "})
		assert.Equal(t, base+" (Error: Missing Query)", env.Source)
		assert.Nil(t, env.Context)
	})
	t.Run("Should report retrieval failures", func(t *testing.T) {
		s := &stubSearcher{err: core.ErrCollectionUnavailable}
		env := NewRegulatory(s, llmtest.Static("x")).Respond(t.Context(), router.Query{Text: "vergi"})
		assert.Equal(t, base+" (Error: Document Retrieval)", env.Source)
		assert.True(t, env.Valid())
	})
	t.Run("Should report no results with the query echoed", func(t *testing.T) {
		env := NewRegulatory(&stubSearcher{}, llmtest.Static("x")).Respond(t.Context(), router.Query{Text: "vergi"})
		assert.Equal(t, base+" (No Results Found)", env.Source)
		assert.Contains(t, env.Answer, "'vergi'")
	})
	t.Run("Should report empty context", func(t *testing.T) {
		s := &stubSearcher{records: []retriever.Record{{ID: "a"}, {ID: "b", Content: text("  ")}}}
		gw := llmtest.Static("x")
		env := NewRegulatory(s, gw).Respond(t.Context(), router.Query{Text: "vergi"})
		assert.Equal(t, base+" (Error: Empty Context)", env.Source)
		assert.Empty(t, gw.Prompts())
	})
	t.Run("Should answer via RAG with the formatted context", func(t *testing.T) {
		s := &stubSearcher{records: []retriever.Record{
			{ID: "a", Content: text("")},
			{ID: "b", Content: text("Vergi kanunu değişti")},
		}}
		gw := llmtest.Static("  Kanun değişti.  ")
		env := NewRegulatory(s, gw, WithCollection("rg"), WithTopK(3)).
			Respond(t.Context(), router.Query{Text: "vergi"})
		assert.Equal(t, "Kanun değişti.", env.Answer)
		assert.Equal(t, "Resmi Gazete (Collection: rg) (Generated via RAG)", env.Source)
		assert.Equal(t, "Source 2:\nVergi kanunu değişti", env.ContextText())
		assert.Equal(t, retriever.SearchRequest{Query: "vergi", Collection: "rg", K: 3}, s.got)
		require.Len(t, gw.Prompts(), 1)
		assert.Contains(t, gw.Prompts()[0], "Source 2:\nVergi kanunu değişti")
	})
	t.Run("Should keep the context when synthesis fails", func(t *testing.T) {
		s := &stubSearcher{records: []retriever.Record{{ID: "b", Content: text("metin")}}}
		env := NewRegulatory(s, llmtest.Failing(core.ErrUpstream)).Respond(t.Context(), router.Query{Text: "vergi"})
		assert.Equal(t, base+" (Error: LLM)", env.Source)
		assert.Equal(t, "Source 1:\nmetin", env.ContextText())
	})
}

func echoTool(name string) llm.Tool {
	return &llm.FuncTool{
		ToolName: name,
		Schema:   llm.StringArgSchema("query", "q"),
		Fn: func(_ context.Context, args string) (string, error) {
			return "result for " + llm.StringArg(args, "query"), nil
		},
	}
}

func TestNews(t *testing.T) {
	t.Run("Should answer after a tool call", func(t *testing.T) {
		var temps []float64
		turn := 0
		gw := &llmtest.Gateway{ChatFn: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
			temps = append(temps, req.Config.Temperature)
			turn++
			if turn == 1 {
				return &llm.ChatResponse{ToolCalls: []llms.ToolCall{
					llmtest.ToolCall("1", "WikipediaSearch", `{"query":"Leonardo"}`),
				}}, nil
			}
			return &llm.ChatResponse{Content: "Leonardo bir ressamdır."}, nil
		}}
		env := NewNews(gw, []llm.Tool{echoTool("WikipediaSearch")}).Respond(t.Context(), router.Query{Text: "Leonardo kim?"})
		assert.Equal(t, "Leonardo bir ressamdır.", env.Answer)
		assert.Equal(t, NewsSource+" (Agent Successful)", env.Source)
		assert.Equal(t, []float64{0.7, 0.7}, temps)
	})
	t.Run("Should report no answer when the iteration bound is hit", func(t *testing.T) {
		gw := &llmtest.Gateway{ChatFn: func(llm.ChatRequest) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{ToolCalls: []llms.ToolCall{
				llmtest.ToolCall("1", "WebSearch", `{"query":"x"}`),
			}}, nil
		}}
		env := NewNews(gw, []llm.Tool{echoTool("WebSearch")}, WithNewsMaxIterations(2)).
			Respond(t.Context(), router.Query{Text: "haberler"})
		assert.Equal(t, NewsSource+" (Agent Did Not Respond)", env.Source)
		assert.Contains(t, env.Answer, "no answer was generated")
	})
	t.Run("Should report an empty answer as no response", func(t *testing.T) {
		env := NewNews(llmtest.Static("   "), nil).Respond(t.Context(), router.Query{Text: "haberler"})
		assert.Equal(t, NewsSource+" (Agent Did Not Respond)", env.Source)
	})
	t.Run("Should tag upstream failures", func(t *testing.T) {
		env := NewNews(llmtest.Failing(core.Upstream("chat", errors.New("503"))), nil).
			Respond(t.Context(), router.Query{Text: "haberler"})
		assert.Equal(t, NewsSource+" (Error: Upstream)", env.Source)
		assert.Equal(t, newsFailure, env.Answer)
	})
	t.Run("Should reject an empty query", func(t *testing.T) {
		env := NewNews(llmtest.Static("x"), nil).Respond(t.Context(), router.Query{})
		assert.Equal(t, NewsSource+" (Error: Missing Query)", env.Source)
	})
}

// wordEmbedder maps texts to a vector of keyword hits.
type wordEmbedder struct {
	words []string
	err   error
}

func (w wordEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := w.EmbedQuery(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (w wordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if w.err != nil {
		return nil, w.err
	}
	v := make([]float32, len(w.words)+1)
	v[len(w.words)] = 0.01
	lower := strings.ToLower(text)
	for i, word := range w.words {
		if strings.Contains(lower, word) {
			v[i] = 1
		}
	}
	return v, nil
}

func TestDocumentQA(t *testing.T) {
	doc := &attachment.Document{Name: "notes.txt", Data: []byte("Projenin en büyük riski bütçe aşımıdır.")}
	emb := wordEmbedder{words: []string{"risk", "bütçe"}}

	t.Run("Should answer from the active document", func(t *testing.T) {
		gw := llmtest.Static("Bütçe aşımı.")
		env := NewDocumentQA(gw, emb).Respond(t.Context(), router.Query{Text: "Risk nedir?", Document: doc})
		assert.Equal(t, "Bütçe aşımı.", env.Answer)
		assert.Equal(t, "Active Document (notes.txt)", env.Source)
		assert.Equal(t, "Projenin en büyük riski bütçe aşımıdır.", env.ContextText())
		require.Len(t, gw.Prompts(), 1)
		assert.Contains(t, gw.Prompts()[0], DocumentRefusal)
		assert.Contains(t, gw.Prompts()[0], "Question: Risk nedir?")
	})
	t.Run("Should join several retrieved chunks with the display separator", func(t *testing.T) {
		long := strings.Repeat("risk paragraf ", 40) + "\n\n" + strings.Repeat("bütçe paragraf ", 40)
		big := &attachment.Document{Name: "big.md", Data: []byte(long)}
		env := NewDocumentQA(llmtest.Static("ok"), emb, WithChunking(300, 0)).
			Respond(t.Context(), router.Query{Text: "risk", Document: big})
		assert.Contains(t, env.ContextText(), "\n\n---\n\n")
	})
	t.Run("Should require a query", func(t *testing.T) {
		env := NewDocumentQA(llmtest.Static("x"), emb).Respond(t.Context(), router.Query{Document: doc})
		assert.Equal(t, "Query not found.", env.Answer)
	})
	t.Run("Should require a document", func(t *testing.T) {
		env := NewDocumentQA(llmtest.Static("x"), emb).Respond(t.Context(), router.Query{Text: "risk?"})
		assert.Equal(t, "Please upload a document before asking a question.", env.Answer)
		assert.Equal(t, "Agentic RAG (Error: No Document)", env.Source)
	})
	t.Run("Should reject unsupported file types", func(t *testing.T) {
		bad := &attachment.Document{Name: "photo.xyz", Data: []byte("data")}
		env := NewDocumentQA(llmtest.Static("x"), emb).Respond(t.Context(), router.Query{Text: "risk?", Document: bad})
		assert.Equal(t, "Sorry, file type '.xyz' is not supported.", env.Answer)
		assert.Equal(t, "Active Document (photo.xyz) (Error)", env.Source)
	})
	t.Run("Should report documents without content", func(t *testing.T) {
		blank := &attachment.Document{Name: "blank.txt", Data: []byte("  \n  ")}
		env := NewDocumentQA(llmtest.Static("x"), emb).Respond(t.Context(), router.Query{Text: "risk?", Document: blank})
		assert.Equal(t, "No meaningful content could be extracted from the active document.", env.Answer)
		assert.Equal(t, "Active Document (blank.txt)", env.Source)
	})
	t.Run("Should report a missing API key", func(t *testing.T) {
		env := NewDocumentQA(llmtest.Static("x"), nil).Respond(t.Context(), router.Query{Text: "risk?", Document: doc})
		assert.Equal(t, "The process cannot continue because the API key is not configured.", env.Answer)
		assert.Equal(t, "Agentic RAG (Error: API Key)", env.Source)
	})
	t.Run("Should treat an unavailable embedder as a missing API key", func(t *testing.T) {
		broken := wordEmbedder{err: fmt.Errorf("embedder: %w", core.ErrGatewayUnavailable)}
		env := NewDocumentQA(llmtest.Static("x"), broken).Respond(t.Context(), router.Query{Text: "risk?", Document: doc})
		assert.Equal(t, "Agentic RAG (Error: API Key)", env.Source)
	})
	t.Run("Should report generation failures", func(t *testing.T) {
		env := NewDocumentQA(llmtest.Failing(core.Upstream("complete", errors.New("boom"))), emb).
			Respond(t.Context(), router.Query{Text: "risk?", Document: doc})
		assert.Equal(t, "Active Document (notes.txt) (Error)", env.Source)
		assert.Contains(t, env.Answer, "Sorry, an error occurred while processing the active document")
	})
}

type stubPlanner struct{ plan string }

func (s stubPlanner) Run(context.Context, string) travel.Result {
	return travel.Result{RunID: "run-1", Plan: s.plan}
}

type stubSaver struct {
	path  string
	err   error
	calls int
}

func (s *stubSaver) Save(context.Context, string) (string, error) {
	s.calls++
	return s.path, s.err
}

func TestTravel(t *testing.T) {
	const plan = "**Roma Planı**\n1. **Seyahat Özeti**\n..."

	t.Run("Should export a successful plan", func(t *testing.T) {
		saver := &stubSaver{path: "plans/Roma_Plani_1.pdf"}
		env := NewTravel(stubPlanner{plan: plan}, saver).Respond(t.Context(), router.Query{Text: "Roma"})
		assert.Equal(t, plan, env.Answer)
		assert.Equal(t, "Travel Agent (PDF: Roma_Plani_1.pdf)", env.Source)
		require.NotNil(t, env.ArtifactPath)
		assert.Equal(t, "plans/Roma_Plani_1.pdf", *env.ArtifactPath)
	})
	t.Run("Should not export failed plans", func(t *testing.T) {
		for _, failed := range []string{
			"Plan could not be created. Basic information could not be parsed or dates could not be calculated. Error: x",
			"Could not generate the travel plan: x",
			"An error occurred while creating the travel plan: x",
		} {
			saver := &stubSaver{path: "p.pdf"}
			env := NewTravel(stubPlanner{plan: failed}, saver).Respond(t.Context(), router.Query{Text: "Roma"})
			assert.Equal(t, failed, env.Answer)
			assert.Equal(t, TravelSource, env.Source)
			assert.Nil(t, env.ArtifactPath)
			assert.Zero(t, saver.calls)
		}
	})
	t.Run("Should keep the plan when export fails", func(t *testing.T) {
		saver := &stubSaver{err: errors.New("disk full")}
		env := NewTravel(stubPlanner{plan: plan}, saver).Respond(t.Context(), router.Query{Text: "Roma"})
		assert.Equal(t, TravelSource, env.Source)
		assert.Nil(t, env.ArtifactPath)
	})
	t.Run("Should work without an exporter", func(t *testing.T) {
		env := NewTravel(stubPlanner{plan: plan}, nil).Respond(t.Context(), router.Query{Text: "Roma"})
		assert.Equal(t, TravelSource, env.Source)
	})
	t.Run("Should reject an empty query", func(t *testing.T) {
		env := NewTravel(stubPlanner{plan: plan}, nil).Respond(t.Context(), router.Query{})
		assert.Equal(t, "Travel Agent (Error)", env.Source)
	})
}

func TestFallback(t *testing.T) {
	t.Run("Should answer with the fixed apology", func(t *testing.T) {
		env := NewFallback().Respond(t.Context(), router.Query{Text: "asdf"})
		assert.Equal(t, FallbackResponse, env.Answer)
		assert.Equal(t, FallbackSource, env.Source)
	})
}
