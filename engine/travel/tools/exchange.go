package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/search"
)

const defaultExchangeURL = "https://v6.exchangerate-api.com/v6"

var cityCurrency = map[string]string{
	"paris":    "EUR",
	"kyoto":    "JPY",
	"london":   "GBP",
	"new york": "USD",
	"istanbul": "TRY",
	"ankara":   "TRY",
	"izmir":    "TRY",
}

var currencyKeywords = []struct {
	currency string
	keywords []string
}{
	{"JPY", []string{"japan", "tokyo", "kyoto"}},
	{"USD", []string{"america", "usa", "new york"}},
	{"GBP", []string{"uk", "london"}},
	{"EUR", []string{"euro", "europe", "paris", "berlin"}},
}

// BaseCurrencies are the currencies rates are reported against.
var BaseCurrencies = []string{"TRY", "EUR", "USD"}

// CurrencyFor guesses the local currency of a destination.
func CurrencyFor(destination string) (string, bool) {
	key := core.Fold(destination)
	if c, ok := cityCurrency[key]; ok {
		return c, true
	}
	for _, entry := range currencyKeywords {
		if core.ContainsFold(key, entry.keywords...) {
			return entry.currency, true
		}
	}
	return "", false
}

// BudgetReport is the outcome of a budget check.
type BudgetReport struct {
	TargetCurrency   string            `json:"target_currency"`
	Rates            map[string]string `json:"rates"`
	BudgetEvaluation string            `json:"budget_evaluation"`
}

// Exchange reads USD-based rates from ExchangeRate-API.
type Exchange struct {
	client   *search.Client
	endpoint string
	apiKey   string
}

func NewExchange(client *search.Client, endpoint, apiKey string) *Exchange {
	if endpoint == "" {
		endpoint = defaultExchangeURL
	}
	return &Exchange{client: client, endpoint: strings.TrimRight(endpoint, "/"), apiKey: apiKey}
}

// Evaluate reports rates into the destination currency and, when amount is
// set, how far the converted budget goes.
func (e *Exchange) Evaluate(ctx context.Context, destination string, amount *float64, currency string) (*BudgetReport, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("ExchangeRate-API key not found: %w", core.ErrCollaboratorUnavailable)
	}
	target, ok := CurrencyFor(destination)
	if !ok {
		return nil, fmt.Errorf("target currency for '%s' could not be determined", destination)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "TRY"
	}
	res, err := e.client.JSON(ctx, "exchange_rates", search.Request{
		URL: fmt.Sprintf("%s/%s/latest/USD", e.endpoint, e.apiKey),
	})
	if err != nil {
		return nil, err
	}
	if res.Get("result").String() != "success" {
		errType := res.Get("error-type").String()
		if errType == "" {
			errType = "Unknown API error"
		}
		return nil, core.Upstream("exchange_rates", fmt.Errorf("exchange rate API error: %s", errType))
	}
	usdRates := res.Get("conversion_rates")
	usdToTarget := usdRates.Get(target)
	if !usdToTarget.Exists() {
		return nil, fmt.Errorf("could not find exchange rate for target currency '%s'", target)
	}
	targetRate := decimal.NewFromFloat(usdToTarget.Float())
	rateFor := func(base string) (decimal.Decimal, bool) {
		if base == target {
			return decimal.NewFromInt(1), true
		}
		v := usdRates.Get(base)
		if !v.Exists() || v.Float() == 0 {
			return decimal.Decimal{}, false
		}
		return targetRate.Div(decimal.NewFromFloat(v.Float())), true
	}
	report := &BudgetReport{TargetCurrency: target, Rates: make(map[string]string, len(BaseCurrencies))}
	for _, base := range BaseCurrencies {
		label := "1 " + base
		if rate, ok := rateFor(base); ok {
			report.Rates[label] = rate.StringFixed(4) + " " + target
		} else {
			report.Rates[label] = "N/A"
		}
	}
	report.BudgetEvaluation = "Not specified"
	if amount != nil {
		rate, ok := rateFor(currency)
		if !ok {
			report.BudgetEvaluation = fmt.Sprintf("Could not evaluate due to missing exchange rate for %s.", currency)
		} else {
			report.BudgetEvaluation = EvaluateBudget(decimal.NewFromFloat(*amount).Mul(rate), target)
		}
	}
	return report, nil
}

// EvaluateBudget grades a budget already converted into currency.
func EvaluateBudget(converted decimal.Decimal, currency string) string {
	formatted := converted.StringFixed(2) + " " + currency
	switch {
	case converted.LessThan(decimal.NewFromInt(100)):
		return fmt.Sprintf("The budget (%s) seems very low.", formatted)
	case converted.LessThan(decimal.NewFromInt(500)):
		return fmt.Sprintf("The budget (%s) may be limited.", formatted)
	default:
		return fmt.Sprintf("The budget (%s) seems reasonable.", formatted)
	}
}
