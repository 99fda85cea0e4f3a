package responder

import (
	"context"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/router"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

const (
	FallbackSource   = "Fallback Agent"
	FallbackResponse = "Sorry, I can't help you with this. Your question doesn't seem to fall under the scope of " +
		"the Official Gazette or current news/general information, or I can't process your request at the moment."
)

// Fallback answers everything it receives with a fixed apology.
type Fallback struct{}

func NewFallback() *Fallback { return &Fallback{} }

func (*Fallback) Respond(ctx context.Context, q router.Query) core.AnswerEnvelope {
	logger.FromContext(ctx).Info("Answering with fallback", "query_len", len(q.Text))
	return core.NewEnvelope(FallbackResponse, FallbackSource)
}
