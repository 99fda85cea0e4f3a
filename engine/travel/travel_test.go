package travel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm/llmtest"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/search"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/travel/tools"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/config"
)

func fixedNow() time.Time {
	return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
}

// scripted answers each kind of model request the workflow makes.
type scripted struct {
	mu          sync.Mutex
	extract     string
	extractErr  error
	jsonReply   string
	jsonErr     error
	dateBudget  string
	destination string
	plan        string
	planErr     error
	calls       []string
	prompts     map[string]string
}

func (s *scripted) gateway() *llmtest.Gateway {
	return &llmtest.Gateway{
		Responds: func(string) (string, error) {
			s.record("parse_json", "")
			return s.jsonReply, s.jsonErr
		},
		ChatFn: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
			kind := requestKind(req)
			s.record(kind, lastText(req.Messages))
			switch kind {
			case extractToolName:
				if s.extractErr != nil {
					return nil, s.extractErr
				}
				if s.extract == "" {
					return &llm.ChatResponse{Content: "no idea"}, nil
				}
				return &llm.ChatResponse{ToolCalls: []llms.ToolCall{llmtest.ToolCall("c1", extractToolName, s.extract)}}, nil
			case tools.DatesToolName:
				return &llm.ChatResponse{Content: s.dateBudget}, nil
			case tools.CityToolName:
				return &llm.ChatResponse{Content: s.destination}, nil
			default:
				if s.planErr != nil {
					return nil, s.planErr
				}
				return &llm.ChatResponse{Content: s.plan}, nil
			}
		},
	}
}

func (s *scripted) record(kind, prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, kind)
	if s.prompts == nil {
		s.prompts = make(map[string]string)
	}
	s.prompts[kind] = prompt
}

func (s *scripted) called(kind string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c == kind {
			return true
		}
	}
	return false
}

func requestKind(req llm.ChatRequest) string {
	if len(req.Tools) > 0 {
		return req.Tools[0].Function.Name
	}
	return "compile"
}

func lastText(msgs []llms.MessageContent) string {
	var out string
	for _, m := range msgs {
		for _, p := range m.Parts {
			if t, ok := p.(llms.TextContent); ok {
				out = t.Text
			}
		}
	}
	return out
}

func newWorkflow(s *scripted, opts ...Option) *Workflow {
	client := search.NewClient(search.ClientConfig{Timeout: time.Second})
	suite := search.NewSuite(search.Config{Client: client})
	gw := s.gateway()
	set := tools.NewToolset(tools.Config{}, client, suite, nil, tools.WithClock(fixedNow))
	return New(gw, set, append([]Option{WithClock(fixedNow)}, opts...)...)
}

func TestParser_Parse(t *testing.T) {
	t.Run("Should extract the Paris request with defaults and normalized currency", func(t *testing.T) {
		s := &scripted{extract: `{"destination":"Paris","natural_language_date":"next Monday","duration_days":3,` +
			`"budget_amount":500,"budget_currency":"euro"}`}
		p := NewParser(s.gateway(), "", "", fixedNow)
		got := p.Parse(t.Context(), "3 days in Paris starting next Monday, budget 500 euro")
		assert.Equal(t, "Paris", got.Destination)
		assert.Equal(t, 3, got.DurationDays)
		assert.Equal(t, "EUR", got.BudgetCurrency)
		require.NotNil(t, got.BudgetAmount)
		assert.InDelta(t, 500.0, *got.BudgetAmount, 0.001)
		assert.NotEmpty(t, got.NaturalLanguageDate)
		assert.Equal(t, "Ayrancılar, İzmir", got.Origin)
		assert.Empty(t, got.Error)
		assert.Contains(t, s.prompts[extractToolName], "Today's date is 2026-10-18")
	})

	t.Run("Should fall back to the JSON prompt and strip code fences", func(t *testing.T) {
		s := &scripted{jsonReply: "```json\n{\"origin\":\"Ankara\",\"destination\":\"Roma\"," +
			"\"natural_language_date\":\"yarın\",\"duration_days\":\"4\",\"budget_amount\":1000}\n```"}
		got := NewParser(s.gateway(), "", "", fixedNow).Parse(t.Context(), "yarın 4 gün Roma")
		assert.Equal(t, "Ankara", got.Origin)
		assert.Equal(t, 4, got.DurationDays)
		assert.Equal(t, "TRY", got.BudgetCurrency)
		assert.True(t, s.called("parse_json"))
	})

	t.Run("Should report missing fields in schema order", func(t *testing.T) {
		s := &scripted{extract: `{"destination":"Paris","natural_language_date":null,"duration_days":0}`}
		got := NewParser(s.gateway(), "", "", fixedNow).Parse(t.Context(), "Paris")
		assert.Equal(t, "Missing information: natural_language_date, duration_days not specified or could not be understood.", got.Error)
	})

	t.Run("Should keep the model's own error message", func(t *testing.T) {
		s := &scripted{extract: `{"destination":"","natural_language_date":"soon","duration_days":2,"error":"Hedef belirsiz"}`}
		got := NewParser(s.gateway(), "", "", fixedNow).Parse(t.Context(), "bir yere")
		assert.Equal(t, "Hedef belirsiz", got.Error)
	})

	t.Run("Should report when both extraction paths fail", func(t *testing.T) {
		s := &scripted{extractErr: errors.New("down"), jsonErr: errors.New("still down")}
		got := NewParser(s.gateway(), "", "", fixedNow).Parse(t.Context(), "Paris")
		assert.Equal(t, "Query could not be parsed: still down", got.Error)
	})
}

func TestNormalizeCurrency(t *testing.T) {
	cases := map[string]string{
		"TL": "TRY", "lira": "TRY", "Turkish Lira": "TRY", "€": "EUR", "Euro": "EUR",
		"$": "USD", "dollar": "USD", "£": "GBP", "Sterling": "GBP", "chf": "CHF", "yen": "YEN", "rupees": "", "": "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeCurrency(in), in)
	}
}

func TestNext(t *testing.T) {
	t.Run("Should follow the happy path", func(t *testing.T) {
		s := &State{}
		assert.Equal(t, StageDates, Next(StageParse, s))
		assert.Equal(t, StageDateBudget, Next(StageDates, s))
		assert.Equal(t, StageDestination, Next(StageDateBudget, s))
		assert.Equal(t, StageCompile, Next(StageDestination, s))
		assert.Equal(t, StageDone, Next(StageCompile, s))
		assert.Equal(t, StageDone, Next(StageDone, s))
	})

	t.Run("Should short-circuit parse failures", func(t *testing.T) {
		assert.Equal(t, StageCompile, Next(StageParse, &State{Error: "Query could not be parsed: x"}))
		assert.Equal(t, StageCompile, Next(StageParse, &State{Error: "Sorgu ayrıştırılamadı"}))
		assert.Equal(t, StageDates, Next(StageParse, &State{Error: "Missing information: destination"}))
	})

	t.Run("Should short-circuit date failures", func(t *testing.T) {
		assert.Equal(t, StageCompile, Next(StageDates, &State{Error: "Date calculation failed: bad"}))
		assert.Equal(t, StageDateBudget, Next(StageDates, &State{Error: "Missing nl_date or duration."}))
	})
}

func TestWorkflow_Run(t *testing.T) {
	parisISO := `{"destination":"Paris","natural_language_date":"2026-11-02","duration_days":3,"budget_amount":500,"budget_currency":"EUR"}`

	t.Run("Should run every stage and return the compiled plan", func(t *testing.T) {
		s := &scripted{
			extract:     parisISO,
			dateBudget:  "Tarihler 2026-11-02 ile 2026-11-04 arası.",
			destination: "Şehir Bilgileri: Paris. Harita Görünümü: https://map",
			plan:        "**Paris Gezisi**\nSeyahat Özeti ...",
		}
		cp, err := NewMemoryCheckpointer(time.Minute)
		require.NoError(t, err)
		defer cp.Close()
		res := newWorkflow(s, WithCheckpointer(cp)).Run(t.Context(), "3 gün Paris")
		assert.Equal(t, "**Paris Gezisi**\nSeyahat Özeti ...", res.Plan)
		assert.True(t, IsSuccessfulPlan(res.Plan))
		require.NotNil(t, res.State.Dates)
		assert.Equal(t, DateRange{StartDate: "2026-11-02", EndDate: "2026-11-04"}, *res.State.Dates)
		assert.Empty(t, res.State.Error)
		assert.Contains(t, s.prompts["compile"], "Calculated Dates: 2026-11-02 - 2026-11-04 (Duration: 3 days)")
		assert.Contains(t, s.prompts[tools.DatesToolName], "Budget: 500 EUR")
		saved, err := cp.Load(t.Context(), res.RunID)
		require.NoError(t, err)
		assert.Equal(t, StageDone, saved.Stage)
		assert.Equal(t, res.Plan, saved.FinalPlan)
	})

	t.Run("Should stop after a date failure without running either summary", func(t *testing.T) {
		s := &scripted{extract: `{"destination":"Paris","natural_language_date":"zzqx plmk vvbn","duration_days":3}`}
		res := newWorkflow(s).Run(t.Context(), "Paris")
		assert.True(t, strings.HasPrefix(res.Plan, "Plan could not be created."))
		assert.Contains(t, res.Plan, "dates could not be calculated")
		assert.Contains(t, res.Plan, "Date calculation failed")
		assert.Empty(t, res.State.DateBudgetSummary)
		assert.Empty(t, res.State.DestinationInfo)
		assert.False(t, s.called(tools.DatesToolName))
		assert.False(t, s.called(tools.CityToolName))
		assert.False(t, s.called("compile"))
		assert.False(t, IsSuccessfulPlan(res.Plan))
	})

	t.Run("Should end with a fatal date error when the model cannot resolve the phrase", func(t *testing.T) {
		s := &scripted{extract: `{"destination":"Paris","natural_language_date":"next Monday","duration_days":3}`}
		client := search.NewClient(search.ClientConfig{Timeout: time.Second})
		set := tools.NewToolset(tools.Config{}, client, search.NewSuite(search.Config{Client: client}),
			llmtest.Failing(errors.New("model down")), tools.WithClock(fixedNow))
		res := New(s.gateway(), set, WithClock(fixedNow)).Run(t.Context(), "3 days in Paris starting next Monday")
		assert.True(t, strings.HasPrefix(res.Plan, "Plan could not be created."))
		assert.Contains(t, res.State.Error, "Date calculation failed: model down")
		assert.Nil(t, res.State.Dates)
		assert.False(t, s.called(tools.DatesToolName))
		assert.False(t, s.called(tools.CityToolName))
	})

	t.Run("Should stop after a parse failure", func(t *testing.T) {
		s := &scripted{extractErr: errors.New("down"), jsonErr: errors.New("down")}
		res := newWorkflow(s).Run(t.Context(), "Paris")
		assert.True(t, strings.HasPrefix(res.Plan, "Plan could not be created."))
		assert.Contains(t, res.Plan, "Query could not be parsed")
		assert.Nil(t, res.State.Dates)
	})

	t.Run("Should carry flagged destination output into the compile prompt", func(t *testing.T) {
		s := &scripted{
			extract:     parisISO,
			dateBudget:  "Tarihler onaylandı.",
			destination: "Hava durumu alınırken bir hata oluştu.",
			plan:        "Plan metni",
		}
		res := newWorkflow(s).Run(t.Context(), "Paris")
		assert.Equal(t, "Plan metni", res.Plan)
		assert.Contains(t, res.State.Error, "Destination Agent Error/Incomplete: Hava durumu")
		assert.Contains(t, s.prompts["compile"], "(Note: Problem occurred while getting destination information:")
	})

	t.Run("Should skip summaries when fields are missing but still compile", func(t *testing.T) {
		s := &scripted{extract: `{"destination":"Paris","natural_language_date":"","duration_days":3}`, plan: "Eksik plan"}
		res := newWorkflow(s).Run(t.Context(), "Paris")
		assert.Equal(t, "Skipped: Missing info.", res.State.DateBudgetSummary)
		assert.Equal(t, "Skipped: Missing critical info: calculated_dates.", res.State.DestinationInfo)
		assert.Contains(t, res.State.Error, "Missing nl_date or duration.")
		assert.Equal(t, "Eksik plan", res.Plan)
	})

	t.Run("Should report a coordinator failure as a non-plan", func(t *testing.T) {
		s := &scripted{extract: parisISO, dateBudget: "ok", destination: "ok", planErr: errors.New("quota")}
		res := newWorkflow(s).Run(t.Context(), "Paris")
		assert.True(t, strings.HasPrefix(res.Plan, "Could not generate"))
		assert.False(t, IsSuccessfulPlan(res.Plan))
	})

	t.Run("Should convert a panic into an error plan", func(t *testing.T) {
		s := &scripted{}
		gw := s.gateway()
		gw.ChatFn = func(llm.ChatRequest) (*llm.ChatResponse, error) { panic("boom") }
		client := search.NewClient(search.ClientConfig{Timeout: time.Second})
		set := tools.NewToolset(tools.Config{}, client, search.NewSuite(search.Config{Client: client}), nil)
		res := New(gw, set).Run(t.Context(), "Paris")
		assert.True(t, strings.HasPrefix(res.Plan, "An error occurred"))
		assert.False(t, IsSuccessfulPlan(res.Plan))
	})
}

func TestWorkflow_Resume(t *testing.T) {
	t.Run("Should continue from the saved stage", func(t *testing.T) {
		cp, err := NewMemoryCheckpointer(0)
		require.NoError(t, err)
		defer cp.Close()
		saved := &State{
			RunID:             "run-1",
			Query:             "Paris",
			Stage:             StageCompile,
			Parsed:            &ParsedRequest{Destination: "Paris", NaturalLanguageDate: "2026-11-02", DurationDays: 2},
			Dates:             &DateRange{StartDate: "2026-11-02", EndDate: "2026-11-03"},
			DateBudgetSummary: "özet",
			DestinationInfo:   "bilgi",
		}
		require.NoError(t, cp.Save(t.Context(), saved))
		s := &scripted{plan: "Devam planı"}
		res, err := newWorkflow(s, WithCheckpointer(cp)).Resume(t.Context(), "run-1")
		require.NoError(t, err)
		assert.Equal(t, "Devam planı", res.Plan)
		assert.Equal(t, []string{"compile"}, s.calls)
	})

	t.Run("Should fail for unknown runs", func(t *testing.T) {
		cp, err := NewMemoryCheckpointer(0)
		require.NoError(t, err)
		defer cp.Close()
		_, err = newWorkflow(&scripted{}, WithCheckpointer(cp)).Resume(t.Context(), "missing")
		assert.ErrorIs(t, err, ErrCheckpointNotFound)
	})

	t.Run("Should fail without a checkpointer", func(t *testing.T) {
		_, err := newWorkflow(&scripted{}).Resume(t.Context(), "x")
		assert.ErrorIs(t, err, ErrCheckpointNotFound)
	})
}

func TestRedisCheckpointer(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cp := NewRedisCheckpointer(client, "travel:run:", time.Hour)

	t.Run("Should round-trip a state under the prefix", func(t *testing.T) {
		require.NoError(t, cp.Save(t.Context(), &State{RunID: "r1", Stage: StageDates, Query: "Paris"}))
		assert.True(t, mr.Exists("travel:run:r1"))
		got, err := cp.Load(t.Context(), "r1")
		require.NoError(t, err)
		assert.Equal(t, StageDates, got.Stage)
		assert.Equal(t, "Paris", got.Query)
	})

	t.Run("Should map a missing key to ErrCheckpointNotFound", func(t *testing.T) {
		_, err := cp.Load(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrCheckpointNotFound)
	})
}

func TestNewCheckpointer(t *testing.T) {
	t.Run("Should select drivers from config", func(t *testing.T) {
		cfg := config.Default()
		cfg.Checkpoint.Driver = "none"
		cp, cleanup, err := NewCheckpointer(t.Context(), cfg)
		require.NoError(t, err)
		assert.Nil(t, cp)
		cleanup()

		cfg.Checkpoint.Driver = "memory"
		cp, cleanup, err = NewCheckpointer(t.Context(), cfg)
		require.NoError(t, err)
		assert.IsType(t, &MemoryCheckpointer{}, cp)
		cleanup()

		cfg.Checkpoint.Driver = "redis"
		cp, cleanup, err = NewCheckpointer(t.Context(), cfg)
		require.NoError(t, err)
		assert.IsType(t, &RedisCheckpointer{}, cp)
		cleanup()

		cfg.Checkpoint.Driver = "etcd"
		_, _, err = NewCheckpointer(t.Context(), cfg)
		assert.Error(t, err)
	})
}
