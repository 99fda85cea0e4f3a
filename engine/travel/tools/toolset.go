package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/search"
)

const (
	DatesToolName   = "calculate_travel_dates"
	BudgetToolName  = "get_exchange_rates_and_budget"
	CityToolName    = "search_city_info"
	WeatherToolName = "get_weather_forecast"
	HotelsToolName  = "search_hotel_booking_links"
	MapToolName     = "get_tomtom_map_url"
)

// Config carries credentials and endpoint overrides for the travel tools.
type Config struct {
	ExchangeRateAPIKey   string
	OpenWeatherMapAPIKey string
	TomTomAPIKey         string

	ExchangeURL string
	GeocodeURL  string
	ForecastURL string
	TomTomURL   string
}

// Toolset owns every travel tool over one HTTP client.
type Toolset struct {
	Dates    *DateCalculator
	Exchange *Exchange
	Weather  *Weather
	City     *CityInfo
	Hotels   *HotelLinks
	Map      *TomTom
}

func NewToolset(cfg Config, client *search.Client, suite *search.Suite, complete llm.Completer, opts ...DateOption) *Toolset {
	weather := NewWeather(client, cfg.OpenWeatherMapAPIKey, complete)
	if cfg.GeocodeURL != "" || cfg.ForecastURL != "" {
		weather.WithEndpoints(orValue(cfg.GeocodeURL, defaultGeocodeURL), orValue(cfg.ForecastURL, defaultForecastURL))
	}
	return &Toolset{
		Dates:    NewDateCalculator(complete, opts...),
		Exchange: NewExchange(client, cfg.ExchangeURL, cfg.ExchangeRateAPIKey),
		Weather:  weather,
		City:     NewCityInfo(suite.Serper),
		Hotels:   NewHotelLinks(suite.Tavily),
		Map:      NewTomTom(client, cfg.TomTomURL, cfg.TomTomAPIKey),
	}
}

type datesArgs struct {
	NaturalLanguageDate string `json:"natural_language_date" jsonschema:"description=Start date phrase such as 'next Monday' or 'gelecek hafta'"`
	DurationDays        int    `json:"duration_days"         jsonschema:"description=Trip length in days,minimum=1"`
}

type budgetArgs struct {
	Destination    string   `json:"destination"               jsonschema:"description=Destination city"`
	BudgetAmount   *float64 `json:"budget_amount,omitempty"   jsonschema:"description=Budget amount if the user gave one"`
	BudgetCurrency string   `json:"budget_currency,omitempty" jsonschema:"description=ISO currency code of the budget"`
}

type cityArgs struct {
	City string `json:"city" jsonschema:"description=City name"`
}

type stayArgs struct {
	City      string `json:"city"       jsonschema:"description=City name"`
	StartDate string `json:"start_date" jsonschema:"description=YYYY-MM-DD"`
	EndDate   string `json:"end_date"   jsonschema:"description=YYYY-MM-DD"`
}

// DateBudgetTools returns the tools of the date/budget agent.
func (t *Toolset) DateBudgetTools() []llm.Tool {
	return []llm.Tool{
		&llm.FuncTool{
			ToolName:        DatesToolName,
			ToolDescription: "Calculates the trip start and end dates (YYYY-MM-DD) from a natural language date phrase and a duration in days.",
			Schema:          llm.SchemaFor(datesArgs{}),
			Fn: func(ctx context.Context, raw string) (string, error) {
				var args datesArgs
				if err := decodeArgs(raw, &args); err != nil {
					return "", err
				}
				dates, err := t.Dates.Calculate(ctx, args.NaturalLanguageDate, args.DurationDays)
				if err != nil {
					return "", fmt.Errorf("date calculation failed: %w", err)
				}
				return marshal(dates)
			},
		},
		&llm.FuncTool{
			ToolName: BudgetToolName,
			ToolDescription: "Gets current exchange rates into the destination's currency and evaluates the budget " +
				"if one is given.",
			Schema: llm.SchemaFor(budgetArgs{}),
			Fn: func(ctx context.Context, raw string) (string, error) {
				var args budgetArgs
				if err := decodeArgs(raw, &args); err != nil {
					return "", err
				}
				report, err := t.Exchange.Evaluate(ctx, args.Destination, args.BudgetAmount, args.BudgetCurrency)
				if err != nil {
					return "", err
				}
				return marshal(report)
			},
		},
	}
}

// DestinationTools returns the tools of the destination agent.
func (t *Toolset) DestinationTools() []llm.Tool {
	return []llm.Tool{
		&llm.FuncTool{
			ToolName:        CityToolName,
			ToolDescription: "Searches general information, tourist attractions and popular places of a city.",
			Schema:          llm.SchemaFor(cityArgs{}),
			Fn: func(ctx context.Context, raw string) (string, error) {
				var args cityArgs
				if err := decodeArgs(raw, &args); err != nil {
					return "", err
				}
				return t.City.Search(ctx, args.City)
			},
		},
		&llm.FuncTool{
			ToolName: WeatherToolName,
			ToolDescription: "Returns the weather forecast of a city for the given dates (up to 5 days ahead) " +
				"with clothing suggestions.",
			Schema: llm.SchemaFor(stayArgs{}),
			Fn: func(ctx context.Context, raw string) (string, error) {
				var args stayArgs
				if err := decodeArgs(raw, &args); err != nil {
					return "", err
				}
				return t.Weather.Forecast(ctx, args.City, args.StartDate, args.EndDate)
			},
		},
		&llm.FuncTool{
			ToolName: HotelsToolName,
			ToolDescription: "Finds links to hotel booking websites for a city and dates. " +
				"It does not recommend specific hotels.",
			Schema: llm.SchemaFor(stayArgs{}),
			Fn: func(ctx context.Context, raw string) (string, error) {
				var args stayArgs
				if err := decodeArgs(raw, &args); err != nil {
					return "", err
				}
				return t.Hotels.Search(ctx, args.City, args.StartDate, args.EndDate)
			},
		},
		&llm.FuncTool{
			ToolName:        MapToolName,
			ToolDescription: "Returns a static TomTom map image URL centered on a city.",
			Schema:          llm.SchemaFor(cityArgs{}),
			Fn: func(ctx context.Context, raw string) (string, error) {
				var args cityArgs
				if err := decodeArgs(raw, &args); err != nil {
					return "", err
				}
				return t.Map.MapURL(ctx, args.City)
			},
		},
	}
}

// decodeArgs decodes model-produced JSON arguments into a struct, accepting
// loosely typed values such as "3" for an int.
func decodeArgs(raw string, out any) error {
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &m); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(m); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

func marshal(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
