package router

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

// Responder answers a query for one category. Implementations must not
// return an error: failures are reported inside the envelope.
type Responder interface {
	Respond(ctx context.Context, q Query) core.AnswerEnvelope
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, q Query) core.AnswerEnvelope

func (f ResponderFunc) Respond(ctx context.Context, q Query) core.AnswerEnvelope {
	return f(ctx, q)
}

// State is a routing step.
type State int

const (
	StateClassify State = iota
	StateDispatch
	StateDone
)

func (s State) String() string {
	switch s {
	case StateClassify:
		return "classify"
	case StateDispatch:
		return "dispatch"
	default:
		return "done"
	}
}

// Transition returns the state that follows s.
func Transition(s State) State {
	switch s {
	case StateClassify:
		return StateDispatch
	default:
		return StateDone
	}
}

const (
	routerSource   = "Supervisor"
	recoveryAnswer = "An unexpected error occurred while processing your request. Please try again."
)

// Router classifies a query and hands it to the responder of its category.
type Router struct {
	classifier *Classifier
	fallback   Responder
	responders map[Category]Responder
}

type Option func(*Router)

// WithResponder registers r for category c.
func WithResponder(c Category, r Responder) Option {
	return func(rt *Router) {
		if r != nil {
			rt.responders[c] = r
		}
	}
}

// NewRouter builds a router. fallback answers Other and any category without
// a registered responder.
func NewRouter(classifier *Classifier, fallback Responder, opts ...Option) *Router {
	rt := &Router{
		classifier: classifier,
		fallback:   fallback,
		responders: make(map[Category]Responder),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Route returns the responder for c.
func (rt *Router) Route(c Category) Responder {
	if c != Other {
		if r, ok := rt.responders[c]; ok {
			return r
		}
	}
	return rt.fallback
}

// Handle always returns a valid envelope.
func (rt *Router) Handle(ctx context.Context, q Query) core.AnswerEnvelope {
	start := time.Now()
	log := logger.FromContext(ctx)
	var (
		category = Other
		envelope core.AnswerEnvelope
	)
	for state := StateClassify; state != StateDone; state = Transition(state) {
		switch state {
		case StateClassify:
			category = rt.categorize(ctx, q)
		case StateDispatch:
			envelope = rt.dispatch(ctx, category, q)
		}
	}
	if !envelope.Valid() {
		log.Warn("Responder returned an incomplete envelope", "category", category)
		envelope = repair(envelope, category)
	}
	recordRoute(ctx, category, time.Since(start))
	return envelope
}

func (rt *Router) categorize(ctx context.Context, q Query) Category {
	if q.ForceDocumentQA {
		logger.FromContext(ctx).Info("Routing directly to document QA")
		return ActiveDocumentQA
	}
	if rt.classifier == nil {
		return Other
	}
	return rt.classifier.Classify(ctx, q.Text)
}

func (rt *Router) dispatch(ctx context.Context, c Category, q Query) (env core.AnswerEnvelope) {
	r := rt.Route(c)
	if r == nil {
		return core.NewEnvelope(recoveryAnswer, core.TaggedSource(routerSource, "Error: No Responder"))
	}
	defer func() {
		if p := recover(); p != nil {
			logger.FromContext(ctx).Error("Responder panicked",
				"category", c,
				"panic", p,
				"stack", string(debug.Stack()),
			)
			env = core.NewEnvelope(recoveryAnswer, core.TaggedSource(c.Label(), fmt.Sprintf("Error: %v", p)))
		}
	}()
	return r.Respond(ctx, q)
}

func repair(env core.AnswerEnvelope, c Category) core.AnswerEnvelope {
	if strings.TrimSpace(env.Answer) == "" {
		env.Answer = recoveryAnswer
	}
	if strings.TrimSpace(env.Source) == "" {
		env.Source = core.TaggedSource(c.Label(), "Error: Empty Response")
	}
	return env
}
