package travel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/tmc/langchaingo/llms"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

const (
	extractToolName = "extract_travel_request"
	defaultHomeBase = "Ayrancılar, İzmir"
	defaultCurrency = "TRY"
)

var currencyAliases = map[string]string{
	"tl": "TRY", "lira": "TRY", "turkish lira": "TRY", "try": "TRY",
	"euro": "EUR", "eur": "EUR", "€": "EUR",
	"dollar": "USD", "usd": "USD", "$": "USD",
	"sterling": "GBP", "pound": "GBP", "gbp": "GBP", "£": "GBP",
}

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Parser extracts a ParsedRequest from a free-text travel query. A structured
// tool call is tried first, then a plain JSON prompt.
type Parser struct {
	model        Gateway
	homeBase     string
	homeCurrency string
	now          func() time.Time
}

func NewParser(model Gateway, homeBase, homeCurrency string, now func() time.Time) *Parser {
	if homeBase == "" {
		homeBase = defaultHomeBase
	}
	if homeCurrency == "" {
		homeCurrency = defaultCurrency
	}
	if now == nil {
		now = time.Now
	}
	return &Parser{model: model, homeBase: homeBase, homeCurrency: homeCurrency, now: now}
}

// Parse never fails; problems are reported in ParsedRequest.Error.
func (p *Parser) Parse(ctx context.Context, query string) *ParsedRequest {
	log := logger.FromContext(ctx)
	fields, err := p.structured(ctx, query)
	if err != nil {
		log.Warn("Structured parsing failed, trying JSON prompt", "error", err)
		fields, err = p.fallback(ctx, query)
		if err != nil {
			log.Error("Fallback parsing failed", "error", err)
			return &ParsedRequest{Error: fmt.Sprintf("Query could not be parsed: %v", err)}
		}
	}
	req, err := decodeRequest(fields)
	if err != nil {
		return &ParsedRequest{Error: fmt.Sprintf("Query could not be parsed: %v", err)}
	}
	p.normalize(req)
	if missing := MissingFields(req); len(missing) > 0 {
		log.Warn("Missing fields after parsing", "fields", missing)
		if req.Error == "" {
			req.Error = fmt.Sprintf("Missing information: %s not specified or could not be understood.",
				strings.Join(missing, ", "))
		}
	}
	return req
}

func (p *Parser) structured(ctx context.Context, query string) (map[string]any, error) {
	prompt, err := prompts.Render(tplParse, map[string]any{
		"Tool":  extractToolName,
		"Query": query,
		"Today": p.now().Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}
	tool := llm.FuncTool{
		ToolName:        extractToolName,
		ToolDescription: "Records the structured details of a travel request.",
		Schema:          llm.SchemaFor(ParsedRequest{}),
	}
	resp, err := p.model.Chat(ctx, llm.ChatRequest{
		Messages: []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		Tools:    llm.Definitions([]llm.Tool{&tool}),
		Config:   llm.Config{Temperature: 0},
	})
	if err != nil {
		return nil, err
	}
	for _, call := range resp.ToolCalls {
		if call.FunctionCall == nil || call.FunctionCall.Name != extractToolName {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal([]byte(call.FunctionCall.Arguments), &fields); err != nil {
			return nil, fmt.Errorf("invalid extraction arguments: %w", err)
		}
		return fields, nil
	}
	return nil, errors.New("model did not call the extraction function")
}

func (p *Parser) fallback(ctx context.Context, query string) (map[string]any, error) {
	prompt, err := prompts.Render(tplParseJSON, map[string]any{"Query": query})
	if err != nil {
		return nil, err
	}
	out, err := p.model.Complete(ctx, prompt, llm.Config{Temperature: 0})
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(stripFences(out)), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (p *Parser) normalize(req *ParsedRequest) {
	req.BudgetCurrency = NormalizeCurrency(req.BudgetCurrency)
	if req.BudgetAmount != nil && req.BudgetCurrency == "" {
		req.BudgetCurrency = p.homeCurrency
	}
	req.Origin = strings.TrimSpace(req.Origin)
	if req.Origin == "" {
		req.Origin = p.homeBase
	}
	req.Destination = strings.TrimSpace(req.Destination)
	req.NaturalLanguageDate = strings.TrimSpace(req.NaturalLanguageDate)
}

// NormalizeCurrency maps currency names and symbols to ISO codes. Unknown
// values that are not three letters long are dropped.
func NormalizeCurrency(raw string) string {
	raw = strings.TrimSpace(raw)
	if code, ok := currencyAliases[strings.ToLower(raw)]; ok {
		return code
	}
	if len([]rune(raw)) == 3 {
		return strings.ToUpper(raw)
	}
	return ""
}

// MissingFields lists the required fields absent from req, in schema order.
func MissingFields(req *ParsedRequest) []string {
	err := requestValidator.Struct(req)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return missing
}

func decodeRequest(fields map[string]any) (*ParsedRequest, error) {
	for k, v := range fields {
		if v == nil {
			delete(fields, k)
		}
	}
	req := &ParsedRequest{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           req,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(fields); err != nil {
		return nil, err
	}
	return req, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
