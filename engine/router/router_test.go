package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm/llmtest"
)

func fixed(answer, source string) Responder {
	return ResponderFunc(func(context.Context, Query) core.AnswerEnvelope {
		return core.NewEnvelope(answer, source)
	})
}

func TestResolve(t *testing.T) {
	cases := []struct {
		raw  string
		want Category
		ok   bool
	}{
		{"News", News, true},
		{"  Travel\n", Travel, true},
		{"The category is Travel.", Travel, true},
		{"Belge Sorusu", ActiveDocumentQA, true},
		{"Resmi Gazete or News", RegulatoryDoc, true},
		{"xyz", Other, false},
		{"", Other, false},
	}
	for _, tc := range cases {
		t.Run("Should resolve "+tc.raw, func(t *testing.T) {
			got, ok := Resolve(tc.raw)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestClassifier(t *testing.T) {
	t.Run("Should return Other for an empty query without calling the model", func(t *testing.T) {
		gw := llmtest.Static("News")
		c := NewClassifier(gw)
		assert.Equal(t, Other, c.Classify(t.Context(), "   "))
		assert.Empty(t, gw.Prompts())
	})
	t.Run("Should use the model answer", func(t *testing.T) {
		gw := llmtest.Static("The category is Travel.")
		c := NewClassifier(gw)
		assert.Equal(t, Travel, c.Classify(t.Context(), "Plan a trip to Rome"))
		require.Len(t, gw.Prompts(), 1)
		assert.Contains(t, gw.Prompts()[0], `"Plan a trip to Rome"`)
		assert.Contains(t, gw.Prompts()[0], "'Resmi Gazete', 'News', 'Travel', 'Belge Sorusu', 'Other'")
	})
	t.Run("Should fall back to the default on unknown output", func(t *testing.T) {
		c := NewClassifier(llmtest.Static("xyz"))
		assert.Equal(t, Other, c.Classify(t.Context(), "hello"))
	})
	t.Run("Should fall back to the configured default on model failure", func(t *testing.T) {
		c := NewClassifier(llmtest.Failing(errors.New("boom")), WithDefaultCategory(News))
		assert.Equal(t, News, c.Classify(t.Context(), "hello"))
	})
}

func TestTransition(t *testing.T) {
	t.Run("Should advance classify to dispatch to done", func(t *testing.T) {
		assert.Equal(t, StateDispatch, Transition(StateClassify))
		assert.Equal(t, StateDone, Transition(StateDispatch))
		assert.Equal(t, StateDone, Transition(StateDone))
	})
}

func TestRouter(t *testing.T) {
	all := func(gw *llmtest.Gateway) *Router {
		return NewRouter(NewClassifier(gw), fixed("fallback", "Fallback Agent"),
			WithResponder(RegulatoryDoc, fixed("regulatory", "Resmi Gazete")),
			WithResponder(News, fixed("news", "News Agent")),
			WithResponder(Travel, fixed("travel", "Travel Agent")),
			WithResponder(ActiveDocumentQA, fixed("doc", "Active Document")),
		)
	}

	t.Run("Should dispatch by classification", func(t *testing.T) {
		env := all(llmtest.Static("News")).Handle(t.Context(), Query{Text: "What is inflation?"})
		assert.Equal(t, "news", env.Answer)
		assert.Equal(t, "News Agent", env.Source)
	})
	t.Run("Should route Other to the fallback", func(t *testing.T) {
		env := all(llmtest.Static("Other")).Handle(t.Context(), Query{Text: "Hi"})
		assert.Equal(t, "fallback", env.Answer)
	})
	t.Run("Should honor the force flag without classifying", func(t *testing.T) {
		gw := llmtest.Static("News")
		env := all(gw).Handle(t.Context(), Query{Text: "what about risks?", ForceDocumentQA: true})
		assert.Equal(t, "doc", env.Answer)
		assert.Empty(t, gw.Prompts())
	})
	t.Run("Should use the fallback for categories without a responder", func(t *testing.T) {
		rt := NewRouter(NewClassifier(llmtest.Static("Travel")), fixed("fallback", "Fallback Agent"))
		env := rt.Handle(t.Context(), Query{Text: "trip"})
		assert.Equal(t, "Fallback Agent", env.Source)
	})
	t.Run("Should convert a responder panic into a valid envelope", func(t *testing.T) {
		panicky := ResponderFunc(func(context.Context, Query) core.AnswerEnvelope { panic("kaboom") })
		rt := NewRouter(NewClassifier(llmtest.Static("News")), fixed("fallback", "Fallback Agent"),
			WithResponder(News, panicky))
		env := rt.Handle(t.Context(), Query{Text: "news"})
		assert.True(t, env.Valid())
		assert.Equal(t, "News (Error: kaboom)", env.Source)
	})
	t.Run("Should repair an empty envelope", func(t *testing.T) {
		rt := NewRouter(NewClassifier(llmtest.Static("Travel")), fixed("fallback", "Fallback Agent"),
			WithResponder(Travel, fixed("", "")))
		env := rt.Handle(t.Context(), Query{Text: "trip"})
		assert.True(t, env.Valid())
		assert.Equal(t, "Travel (Error: Empty Response)", env.Source)
	})
	t.Run("Should return a valid envelope when every collaborator fails", func(t *testing.T) {
		failing := llmtest.Failing(errors.New("down"))
		empty := fixed("", "")
		rt := NewRouter(NewClassifier(failing, WithDefaultCategory(News)), empty,
			WithResponder(News, empty))
		env := rt.Handle(t.Context(), Query{Text: "anything"})
		assert.True(t, env.Valid())
	})
}
