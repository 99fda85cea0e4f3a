package responder

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/knowledge/retriever"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/router"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

const (
	DefaultRegulatoryCollection = "resmi_gazete"
	DefaultRegulatoryTopK       = 5

	emptyContextNote = "Formatted context is empty."
)

// Regulatory answers from the Official Gazette collection with one
// retrieval-augmented completion.
type Regulatory struct {
	searcher   retriever.Searcher
	complete   llm.Completer
	collection string
	topK       int
	cfg        llm.Config
}

type RegulatoryOption func(*Regulatory)

func WithCollection(name string) RegulatoryOption {
	return func(r *Regulatory) {
		if name != "" {
			r.collection = name
		}
	}
}

func WithTopK(k int) RegulatoryOption {
	return func(r *Regulatory) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithCompletionConfig overrides the tuning of the answer completion.
func WithCompletionConfig(cfg llm.Config) RegulatoryOption {
	return func(r *Regulatory) { r.cfg = cfg }
}

func NewRegulatory(searcher retriever.Searcher, complete llm.Completer, opts ...RegulatoryOption) *Regulatory {
	r := &Regulatory{
		searcher:   searcher,
		complete:   complete,
		collection: DefaultRegulatoryCollection,
		topK:       DefaultRegulatoryTopK,
		cfg:        llm.Inherit(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Regulatory) source(tag string) string {
	return core.TaggedSource(fmt.Sprintf("Resmi Gazete (Collection: %s)", r.collection), tag)
}

func (r *Regulatory) Respond(ctx context.Context, q router.Query) core.AnswerEnvelope {
	log := logger.FromContext(ctx).With("responder", "regulatory", "collection", r.collection)
	if strings.TrimSpace(q.Text) == "" {
		return core.NewEnvelope(
			"I received an unrecognized or incomplete query. Please try rephrasing your question.",
			r.source("Error: Missing Query"),
		)
	}
	records, err := r.searcher.Search(ctx, retriever.SearchRequest{
		Query:      q.Text,
		Collection: r.collection,
		K:          r.topK,
	})
	if err != nil {
		log.Error("Document retrieval failed", "error", err)
		return core.NewEnvelope(
			"An issue occurred while accessing Resmi Gazete documents.",
			r.source("Error: Document Retrieval"),
		)
	}
	if len(records) == 0 {
		log.Info("No documents found")
		return core.NewEnvelope(
			fmt.Sprintf("I couldn't find a Resmi Gazete document directly related to your query '%s'. "+
				"You can try again with different keywords.", q.Text),
			r.source("No Results Found"),
		)
	}
	formatted := retriever.FormatContext(records)
	if formatted == "" {
		log.Warn("Retrieved documents have no usable content", "records", len(records))
		return core.NewEnvelope(
			"Relevant documents were found but their content was either empty or unprocessable.",
			r.source("Error: Empty Context"),
		).WithContext(emptyContextNote)
	}
	prompt, err := prompts.Render(tplRegulatory, map[string]any{"Query": q.Text, "Context": formatted})
	if err != nil {
		log.Error("Failed to render prompt", "error", err)
		return r.synthesisFailure(formatted)
	}
	answer, err := r.complete.Complete(ctx, prompt, r.cfg)
	if err != nil {
		log.Error("Answer synthesis failed", "error", err)
		return r.synthesisFailure(formatted)
	}
	log.Info("Answer generated", "records", len(records))
	return core.NewEnvelope(strings.TrimSpace(answer), r.source("Generated via RAG")).WithContext(formatted)
}

func (r *Regulatory) synthesisFailure(formatted string) core.AnswerEnvelope {
	return core.NewEnvelope(
		"Relevant information was found, but there was a problem synthesizing the answer.",
		r.source("Error: LLM"),
	).WithContext(formatted)
}
