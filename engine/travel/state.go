package travel

import (
	"strings"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/travel/tools"
)

// Stage is a step of the planning pipeline.
type Stage string

const (
	StageParse       Stage = "parse"
	StageDates       Stage = "dates"
	StageDateBudget  Stage = "date_budget"
	StageDestination Stage = "destination"
	StageCompile     Stage = "compile"
	StageDone        Stage = "done"
)

func (s Stage) String() string {
	return string(s)
}

// DateRange is the computed trip window.
type DateRange = tools.DateRange

// ParsedRequest is the structured form of a travel query.
type ParsedRequest struct {
	Origin              string   `json:"origin,omitempty"          jsonschema:"description=The starting city or location of the trip. Null if not mentioned."`
	Destination         string   `json:"destination"               jsonschema:"description=The city or place the user wants to travel to."                                    validate:"required"`
	NaturalLanguageDate string   `json:"natural_language_date"     jsonschema:"description=The user's own description of the start date such as 'next Wednesday' or 'in 2 weeks'." validate:"required"`
	DurationDays        int      `json:"duration_days"             jsonschema:"description=Length of the stay in days. 'one week' means 7."                                   validate:"required,gt=0"`
	BudgetAmount        *float64 `json:"budget_amount,omitempty"   jsonschema:"description=Approximate budget amount if mentioned."`
	BudgetCurrency      string   `json:"budget_currency,omitempty" jsonschema:"description=Budget currency as an ISO 4217 code (TRY EUR USD GBP). Null if not recognized."`
	Error               string   `json:"error,omitempty"           jsonschema:"description=Explanation when required information is missing or ambiguous."`
}

// State is everything a run knows. It is saved after every stage so a run
// can be resumed by ID.
type State struct {
	RunID             string         `json:"run_id"`
	Query             string         `json:"query"`
	Stage             Stage          `json:"stage"`
	Parsed            *ParsedRequest `json:"parsed_request,omitempty"`
	Dates             *DateRange     `json:"calculated_dates,omitempty"`
	DateBudgetSummary string         `json:"date_budget_summary,omitempty"`
	DestinationInfo   string         `json:"destination_summary,omitempty"`
	FinalPlan         string         `json:"final_plan,omitempty"`
	Error             string         `json:"error_message,omitempty"`
}

// AddError appends msg to the accumulated error.
func (s *State) AddError(msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	if s.Error == "" {
		s.Error = msg
		return
	}
	s.Error += "; " + msg
}

// Origin returns the parsed origin, if any.
func (s *State) Origin() string {
	if s.Parsed == nil {
		return ""
	}
	return s.Parsed.Origin
}

// parseFailed reports an error that stops the run right after parsing.
func parseFailed(errMsg string) bool {
	return errMsg != "" && core.ContainsFold(errMsg, "parse", "ayrıştırılamadı")
}

// datesFailed reports an error that stops the run right after date calculation.
func datesFailed(errMsg string) bool {
	return errMsg != "" && core.ContainsFold(errMsg, "date calculation failed")
}

// fatal reports whether no plan can be compiled from the state.
func fatal(errMsg string) bool {
	return parseFailed(errMsg) || datesFailed(errMsg)
}

// Next returns the stage that follows stage given the state it produced.
func Next(stage Stage, s *State) Stage {
	errMsg := ""
	if s != nil {
		errMsg = s.Error
	}
	switch stage {
	case StageParse:
		if parseFailed(errMsg) {
			return StageCompile
		}
		return StageDates
	case StageDates:
		if datesFailed(errMsg) {
			return StageCompile
		}
		return StageDateBudget
	case StageDateBudget:
		return StageDestination
	case StageDestination:
		return StageCompile
	default:
		return StageDone
	}
}
