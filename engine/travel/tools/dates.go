package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

const isoDate = "2006-01-02"

// DateRange is an inclusive trip window in YYYY-MM-DD form.
type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// DateCalculator turns a natural-language start phrase and a duration into
// concrete dates. The model is asked only when the phrase cannot be parsed.
type DateCalculator struct {
	complete  llm.Completer
	languages []string
	now       func() time.Time
}

type DateOption func(*DateCalculator)

// WithClock fixes the reference time.
func WithClock(now func() time.Time) DateOption {
	return func(d *DateCalculator) { d.now = now }
}

func NewDateCalculator(complete llm.Completer, opts ...DateOption) *DateCalculator {
	d := &DateCalculator{
		complete:  complete,
		languages: []string{"tr", "en"},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Calculate returns start and end dates; end is start + days - 1.
func (d *DateCalculator) Calculate(ctx context.Context, phrase string, days int) (DateRange, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return DateRange{}, fmt.Errorf("no date phrase given")
	}
	if days < 1 {
		days = 1
	}
	now := d.now()
	start, ok := d.parse(phrase, now)
	if !ok {
		logger.FromContext(ctx).Debug("Date phrase not understood by parser, asking model", "phrase", phrase)
		var err error
		start, err = d.askModel(ctx, phrase, now)
		if err != nil {
			return DateRange{}, err
		}
	}
	end := start.AddDate(0, 0, days-1)
	return DateRange{StartDate: start.Format(isoDate), EndDate: end.Format(isoDate)}, nil
}

func (d *DateCalculator) parse(phrase string, now time.Time) (time.Time, bool) {
	if t, err := time.Parse(isoDate, phrase); err == nil {
		return t, true
	}
	parser := dps.Parser{}
	cfg := &dps.Configuration{
		Languages:           d.languages,
		CurrentTime:         now,
		PreferredDateSource: dps.Future,
	}
	parsed, err := parser.Parse(cfg, phrase)
	if err != nil || parsed.IsZero() {
		return time.Time{}, false
	}
	t := parsed.Time
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location()), true
}

func (d *DateCalculator) askModel(ctx context.Context, phrase string, now time.Time) (time.Time, error) {
	if d.complete == nil {
		return time.Time{}, fmt.Errorf("could not understand date phrase %q", phrase)
	}
	prompt := fmt.Sprintf("Current date is %s.\n"+
		"The user wants to start a trip described by the phrase: '%s'.\n"+
		"What is the exact start date for this trip in 'YYYY-MM-DD' format?\n"+
		"Only output the date string.", now.Format(isoDate), phrase)
	out, err := d.complete.Complete(ctx, prompt, llm.Inherit())
	if err != nil {
		return time.Time{}, err
	}
	out = strings.Trim(strings.TrimSpace(out), "`'\" ")
	t, err := time.ParseInLocation(isoDate, out, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format received from LLM: %s", out)
	}
	return t, nil
}
