package router

import (
	"context"
	"strings"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/tplengine"
)

const tplClassify = "classify"

var classifierPrompts = tplengine.NewEngine().MustAddTemplate(tplClassify, `Your task is to analyze the user query below and classify it into one of the following five categories:

1. **Resmi Gazete**: Questions seeking information on regulations (laws, decrees, circulars), presidential decrees, official announcements, judicial decisions or administrative procedures published in the Official Gazette of the Republic of Turkey.
   * Examples: "When was the latest omnibus bill passed?", "Was the Maternity Benefit Regulation amended?", "Which appointments are in today's Official Gazette?"

2. **News**: Questions about current events, news, general knowledge, definitions ("What is X?"), weather, financial market data or any other info typically found online or on Wikipedia.
   * Examples: "What's the weather like in Izmir tomorrow?", "What is the inflation rate?", "Who is Leonardo da Vinci?"

3. **Travel**: Questions about travel planning, flights, hotels, destinations, itineraries or travel tips.

4. **Belge Sorusu**: Clearly document-related queries, either about a previously uploaded document or a follow-up referencing it ("in that document...", "What else does it say about X?"). If document context exists, this category takes priority over others.

5. **Other**: Casual chat ("Hi", "How are you?"), meaningless or incomplete phrases ("asdf"), direct commands ("Write code"), jokes, or anything this system isn't designed to answer.

Examples:
Query: "What's in the latest decree law?"
Category: Resmi Gazete
Query: "Can you check train tickets from Istanbul to Ankara?"
Category: Travel
Query: "Can you tell me about AI ethics?"
Category: News
Query: "What were the risks mentioned in that document?"
Category: Belge Sorusu
Query: "Hello, how are you?"
Category: Other

Now classify the following query:

User Query:
"{{ .Query }}"

Provide ONLY and EXACTLY one of the five category names ({{ .Labels }}) as the answer. No explanation, prefix or extra information.

Category:`)

// Classifier maps a query to a Category with one deterministic model call.
type Classifier struct {
	complete llm.Completer
	fallback Category
}

type ClassifierOption func(*Classifier)

// WithDefaultCategory sets the category used when resolution fails.
func WithDefaultCategory(c Category) ClassifierOption {
	return func(cl *Classifier) { cl.fallback = c }
}

func NewClassifier(complete llm.Completer, opts ...ClassifierOption) *Classifier {
	c := &Classifier{complete: complete, fallback: Other}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify always returns a category. Empty queries are Other without a
// model call; model failures fall back to the default category.
func (c *Classifier) Classify(ctx context.Context, query string) Category {
	log := logger.FromContext(ctx)
	if strings.TrimSpace(query) == "" {
		return Other
	}
	quoted := make([]string, len(Categories))
	for i, cat := range Categories {
		quoted[i] = "'" + cat.Label() + "'"
	}
	prompt, err := classifierPrompts.Render(tplClassify, map[string]any{
		"Query":  query,
		"Labels": strings.Join(quoted, ", "),
	})
	if err != nil {
		log.Error("Classification prompt failed", "error", err)
		return c.fallback
	}
	raw, err := c.complete.Complete(ctx, prompt, llm.Config{Temperature: 0})
	if err != nil {
		log.Warn("Classification failed, using default category", "error", err, "default", c.fallback)
		return c.fallback
	}
	cat, ok := Resolve(raw)
	if !ok {
		log.Warn("Unrecognized classification", "raw", raw, "default", c.fallback)
		return c.fallback
	}
	log.Info("Classified query", "category", cat)
	return cat
}

// Resolve maps raw model output to a category: an exact label match after
// trimming, else the first label in canonical order contained in raw.
func Resolve(raw string) (Category, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Other, false
	}
	for _, cat := range Categories {
		if trimmed == cat.Label() {
			return cat, true
		}
	}
	for _, cat := range Categories {
		if strings.Contains(trimmed, cat.Label()) {
			return cat, true
		}
	}
	return Other, false
}
