package responder

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/router"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/travel"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

const TravelSource = "Travel Agent"

// Planner produces a travel plan for a query.
type Planner interface {
	Run(ctx context.Context, query string) travel.Result
}

// PlanSaver persists a plan and returns where it was written.
type PlanSaver interface {
	Save(ctx context.Context, plan string) (string, error)
}

// Travel runs the planning workflow and exports successful plans.
type Travel struct {
	planner Planner
	saver   PlanSaver
}

// NewTravel builds the responder. A nil saver disables export.
func NewTravel(planner Planner, saver PlanSaver) *Travel {
	return &Travel{planner: planner, saver: saver}
}

func (t *Travel) Respond(ctx context.Context, q router.Query) core.AnswerEnvelope {
	if strings.TrimSpace(q.Text) == "" {
		return core.NewEnvelope("Please enter a travel query.", core.TaggedSource(TravelSource, "Error"))
	}
	res := t.planner.Run(ctx, q.Text)
	log := logger.FromContext(ctx).With("responder", "travel", "run_id", res.RunID)
	plan := strings.TrimSpace(res.Plan)
	if plan == "" {
		log.Warn("Travel workflow returned an empty plan")
		return core.NewEnvelope("Travel plan could not be generated.", core.TaggedSource(TravelSource, "Error"))
	}
	if !travel.IsSuccessfulPlan(plan) {
		log.Warn("Travel plan not successful, skipping export")
		return core.NewEnvelope(plan, TravelSource)
	}
	if t.saver == nil {
		return core.NewEnvelope(plan, TravelSource)
	}
	path, err := t.saver.Save(ctx, plan)
	if err != nil {
		log.Error("Failed to export travel plan", "error", err)
		return core.NewEnvelope(plan, TravelSource)
	}
	return core.NewEnvelope(plan, fmt.Sprintf("%s (PDF: %s)", TravelSource, filepath.Base(path))).
		WithArtifact(path)
}
