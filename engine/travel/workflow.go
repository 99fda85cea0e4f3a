// Package travel plans a trip from a free-text query through a fixed
// sequence of stages: parse, dates, date/budget summary, destination summary
// and compile. Only parse and date failures stop a run early.
package travel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/travel/tools"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

const (
	skippedMissingInfo = "Skipped: Missing info."
	planFailurePrefix  = "Plan could not be created."
	runErrorPrefix     = "An error occurred"
	compileErrorPrefix = "Could not generate"
)

var destinationProblemKeywords = []string{"error", "hata", "lütfen", "belirtiniz", "eksik", "summary error"}

// Gateway is the completion surface the workflow needs.
type Gateway interface {
	llm.Completer
	llm.Chatter
}

// Result is the outcome of a run.
type Result struct {
	RunID string
	Plan  string
	State *State
}

// Workflow runs travel planning. It is safe for concurrent use; every run
// owns its state.
type Workflow struct {
	model         Gateway
	parser        *Parser
	toolset       *tools.Toolset
	checkpointer  Checkpointer
	maxIterations int
	now           func() time.Time
}

type Option func(*Workflow)

// WithCheckpointer saves the state after every stage.
func WithCheckpointer(c Checkpointer) Option {
	return func(w *Workflow) { w.checkpointer = c }
}

// WithMaxIterations bounds each agent's tool loop.
func WithMaxIterations(n int) Option {
	return func(w *Workflow) {
		if n > 0 {
			w.maxIterations = n
		}
	}
}

// WithHome sets the default origin and budget currency.
func WithHome(base, currency string) Option {
	return func(w *Workflow) { w.parser = NewParser(w.model, base, currency, w.now) }
}

// WithClock fixes the reference time of the parser.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		w.now = now
		w.parser.now = now
	}
}

func New(model Gateway, toolset *tools.Toolset, opts ...Option) *Workflow {
	w := &Workflow{
		model:         model,
		toolset:       toolset,
		maxIterations: 8,
		now:           time.Now,
	}
	w.parser = NewParser(model, "", "", w.now)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run plans a trip for query. It always yields a plan text.
func (w *Workflow) Run(ctx context.Context, query string) Result {
	s := &State{RunID: uuid.NewString(), Query: query, Stage: StageParse}
	return w.drive(ctx, s)
}

// Resume continues a checkpointed run from its saved stage.
func (w *Workflow) Resume(ctx context.Context, runID string) (Result, error) {
	if w.checkpointer == nil {
		return Result{}, fmt.Errorf("travel: resume %s: %w", runID, ErrCheckpointNotFound)
	}
	s, err := w.checkpointer.Load(ctx, runID)
	if err != nil {
		return Result{}, err
	}
	if s.Stage == StageDone {
		return Result{RunID: s.RunID, Plan: s.FinalPlan, State: s}, nil
	}
	return w.drive(ctx, s), nil
}

func (w *Workflow) drive(ctx context.Context, s *State) (res Result) {
	log := logger.FromContext(ctx).With("run_id", s.RunID)
	ctx = logger.ContextWithLogger(ctx, log)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Travel run panicked", "stage", s.Stage, "panic", r)
			s.FinalPlan = fmt.Sprintf("%s while creating the travel plan: %v", runErrorPrefix, r)
			res = Result{RunID: s.RunID, Plan: s.FinalPlan, State: s}
		}
	}()
	for s.Stage != StageDone {
		if err := ctx.Err(); err != nil {
			s.FinalPlan = fmt.Sprintf("%s while creating the travel plan: %v", runErrorPrefix, err)
			return Result{RunID: s.RunID, Plan: s.FinalPlan, State: s}
		}
		stage := s.Stage
		log.Info("Running travel stage", "stage", stage)
		w.step(ctx, stage, s)
		s.Stage = Next(stage, s)
		w.save(ctx, s)
	}
	if IsSuccessfulPlan(s.FinalPlan) {
		log.Info("Travel plan completed")
	} else {
		log.Warn("Travel plan finished without a usable plan", "error", s.Error)
	}
	return Result{RunID: s.RunID, Plan: s.FinalPlan, State: s}
}

func (w *Workflow) step(ctx context.Context, stage Stage, s *State) {
	switch stage {
	case StageParse:
		w.parse(ctx, s)
	case StageDates:
		w.dates(ctx, s)
	case StageDateBudget:
		w.dateBudget(ctx, s)
	case StageDestination:
		w.destination(ctx, s)
	case StageCompile:
		w.compile(ctx, s)
	}
}

func (w *Workflow) save(ctx context.Context, s *State) {
	if w.checkpointer == nil {
		return
	}
	if err := w.checkpointer.Save(ctx, s); err != nil {
		logger.FromContext(ctx).Warn("Checkpoint save failed", "stage", s.Stage, "error", err)
	}
}

func (w *Workflow) parse(ctx context.Context, s *State) {
	s.Parsed = w.parser.Parse(ctx, s.Query)
	s.AddError(s.Parsed.Error)
}

func (w *Workflow) dates(ctx context.Context, s *State) {
	p := s.Parsed
	if p == nil {
		s.AddError("Cannot calculate dates without parsed info.")
		return
	}
	if p.NaturalLanguageDate == "" || p.DurationDays <= 0 {
		s.AddError("Missing nl_date or duration.")
		return
	}
	dates, err := w.toolset.Dates.Calculate(ctx, p.NaturalLanguageDate, p.DurationDays)
	if err != nil {
		logger.FromContext(ctx).Error("Date calculation failed", "error", err)
		s.AddError("Date calculation failed: " + err.Error())
		return
	}
	s.Dates = &dates
}

func (w *Workflow) dateBudget(ctx context.Context, s *State) {
	p, d := s.Parsed, s.Dates
	if p == nil || d == nil {
		s.DateBudgetSummary = skippedMissingInfo
		return
	}
	if p.Destination == "" || p.NaturalLanguageDate == "" || d.StartDate == "" || d.EndDate == "" {
		s.DateBudgetSummary = "Skipped: Missing sub-keys."
		return
	}
	input, err := prompts.Render(tplDateBudget, map[string]any{
		"Destination": p.Destination,
		"NaturalDate": p.NaturalLanguageDate,
		"Start":       d.StartDate,
		"End":         d.EndDate,
		"Days":        p.DurationDays,
		"Budget":      budgetText(p),
		"Currency":    p.BudgetCurrency,
	})
	if err != nil {
		s.DateBudgetSummary = "Error: " + err.Error()
		s.AddError(s.DateBudgetSummary)
		return
	}
	agent := llm.NewAgent("date_budget", w.model,
		llm.WithSystemPrompt(dateBudgetSystem),
		llm.WithTools(w.toolset.DateBudgetTools()...),
		llm.WithMaxIterations(w.maxIterations),
		llm.WithAgentConfig(llm.Config{Temperature: 0}),
	)
	summary, err := runAgent(ctx, agent, input, "Date/Budget summary error.")
	if err != nil {
		s.DateBudgetSummary = "Error: " + err.Error()
		s.AddError("DateBudget Agent Error: " + err.Error())
		return
	}
	s.DateBudgetSummary = summary
	if core.ContainsFold(summary, "error", "hata") {
		s.AddError("DateBudget Agent Error: " + summary)
	}
}

func (w *Workflow) destination(ctx context.Context, s *State) {
	p, d := s.Parsed, s.Dates
	if p == nil || d == nil {
		var missing []string
		if p == nil {
			missing = append(missing, "parsed_info")
		}
		if d == nil {
			missing = append(missing, "calculated_dates")
		}
		s.DestinationInfo = fmt.Sprintf("Skipped: Missing critical info: %s.", strings.Join(missing, ", "))
		s.AddError(s.DestinationInfo)
		return
	}
	var missing []string
	for _, kv := range [][2]string{{"destination", p.Destination}, {"start_date", d.StartDate}, {"end_date", d.EndDate}} {
		if kv[1] == "" {
			missing = append(missing, kv[0])
		}
	}
	if len(missing) > 0 {
		s.DestinationInfo = fmt.Sprintf("Skipped: Missing sub-keys: %s.", strings.Join(missing, ", "))
		s.AddError(s.DestinationInfo)
		return
	}
	input, err := prompts.Render(tplDestination, map[string]any{
		"Origin":      p.Origin,
		"Destination": p.Destination,
		"Start":       d.StartDate,
		"End":         d.EndDate,
		"Budget":      budgetText(p),
		"Currency":    p.BudgetCurrency,
	})
	if err != nil {
		s.DestinationInfo = "Error: " + err.Error()
		s.AddError(s.DestinationInfo)
		return
	}
	agent := llm.NewAgent("destination", w.model,
		llm.WithSystemPrompt(destinationSystem),
		llm.WithTools(w.toolset.DestinationTools()...),
		llm.WithMaxIterations(w.maxIterations),
	)
	summary, err := runAgent(ctx, agent, input, "Destination summary error.")
	if err != nil {
		s.DestinationInfo = "Error: " + err.Error()
		s.AddError("Error calling Destination Agent: " + err.Error())
		return
	}
	s.DestinationInfo = summary
	if core.ContainsFold(summary, destinationProblemKeywords...) {
		logger.FromContext(ctx).Warn("Destination summary reports a problem")
		s.AddError("Destination Agent Error/Incomplete: " + summary)
	}
}

func (w *Workflow) compile(ctx context.Context, s *State) {
	log := logger.FromContext(ctx)
	if fatal(s.Error) {
		log.Error("Cannot compile plan", "error", s.Error)
		s.FinalPlan = fmt.Sprintf("%s Basic information could not be parsed or dates could not be calculated. Error: %s",
			planFailurePrefix, s.Error)
		return
	}
	prompt, err := w.compilePrompt(s)
	if err != nil {
		s.FinalPlan = fmt.Sprintf("%s the travel plan: %v", compileErrorPrefix, err)
		return
	}
	resp, err := w.model.Chat(ctx, llm.ChatRequest{
		Messages: []llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, coordinatorSystem),
			llms.TextParts(llms.ChatMessageTypeHuman, prompt),
		},
		Config: llm.Config{Temperature: 0.1},
	})
	if err != nil {
		log.Error("Coordinator failed", "error", err)
		s.FinalPlan = fmt.Sprintf("%s the travel plan: the coordinator failed while compiling (%v).", compileErrorPrefix, err)
		return
	}
	plan := strings.TrimSpace(resp.Content)
	if plan == "" {
		s.FinalPlan = compileErrorPrefix + " the travel plan: the coordinator returned no text."
		return
	}
	s.FinalPlan = plan
}

func (w *Workflow) compilePrompt(s *State) (string, error) {
	parsed := "{}"
	days := "?"
	if s.Parsed != nil {
		raw, err := json.MarshalIndent(s.Parsed, "", "  ")
		if err != nil {
			return "", err
		}
		parsed = string(raw)
		days = fmt.Sprint(s.Parsed.DurationDays)
	}
	start, end := "?", "?"
	if s.Dates != nil {
		start, end = s.Dates.StartDate, s.Dates.EndDate
	}
	destination := orDefault(s.DestinationInfo, "Destination Information Summary Not Available")
	if strings.Contains(s.Error, "Destination Agent Error") {
		destination = fmt.Sprintf("(Note: Problem occurred while getting destination information: %s)", destination)
	}
	return prompts.Render(tplCompile, map[string]any{
		"Query":       s.Query,
		"Parsed":      parsed,
		"Start":       start,
		"End":         end,
		"Days":        days,
		"Origin":      s.Origin(),
		"DateBudget":  orDefault(s.DateBudgetSummary, "Budget/Date Summary Not Available"),
		"Destination": destination,
		"Problems":    s.Error,
	})
}

// runAgent returns the agent's answer. Hitting the iteration bound keeps
// whatever text the agent produced; an empty answer becomes fallback.
func runAgent(ctx context.Context, agent *llm.Agent, input, fallback string) (string, error) {
	res, err := agent.Run(ctx, input)
	if err != nil && !errors.Is(err, llm.ErrIterationLimit) {
		return "", err
	}
	if res == nil || strings.TrimSpace(res.Output) == "" {
		return fallback, nil
	}
	return res.Output, nil
}

func budgetText(p *ParsedRequest) string {
	if p.BudgetAmount == nil {
		return "N/A"
	}
	return fmt.Sprint(*p.BudgetAmount)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// IsSuccessfulPlan reports whether plan is a real plan rather than a
// failure message.
func IsSuccessfulPlan(plan string) bool {
	plan = strings.TrimSpace(plan)
	if plan == "" {
		return false
	}
	for _, prefix := range []string{runErrorPrefix, compileErrorPrefix, planFailurePrefix} {
		if strings.HasPrefix(plan, prefix) {
			return false
		}
	}
	return true
}
