package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/llm"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/search"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

const (
	defaultGeocodeURL  = "http://api.openweathermap.org/geo/1.0/direct"
	defaultForecastURL = "http://api.openweathermap.org/data/2.5/forecast"
	clothingFailure    = "An LLM error occurred while getting clothing suggestions."
)

var turkishUpper = cases.Upper(language.Turkish)

// Weather summarizes the midday forecast for a date range and asks the
// model for clothing advice.
type Weather struct {
	client      *search.Client
	geocodeURL  string
	forecastURL string
	apiKey      string
	complete    llm.Completer
}

func NewWeather(client *search.Client, apiKey string, complete llm.Completer) *Weather {
	return &Weather{
		client:      client,
		geocodeURL:  defaultGeocodeURL,
		forecastURL: defaultForecastURL,
		apiKey:      apiKey,
		complete:    complete,
	}
}

// WithEndpoints overrides the API endpoints.
func (w *Weather) WithEndpoints(geocodeURL, forecastURL string) *Weather {
	w.geocodeURL = geocodeURL
	w.forecastURL = forecastURL
	return w
}

// Forecast returns the forecast lines followed by clothing suggestions.
func (w *Weather) Forecast(ctx context.Context, city, startDate, endDate string) (string, error) {
	if w.apiKey == "" {
		return "", fmt.Errorf("weather API key not found: %w", core.ErrCollaboratorUnavailable)
	}
	start, err := time.Parse(isoDate, strings.TrimSpace(startDate))
	if err != nil {
		return "", fmt.Errorf("invalid date format (YYYY-MM-DD expected): %s", startDate)
	}
	end, err := time.Parse(isoDate, strings.TrimSpace(endDate))
	if err != nil {
		return "", fmt.Errorf("invalid date format (YYYY-MM-DD expected): %s", endDate)
	}
	lat, lon, err := w.coordinates(ctx, city)
	if err != nil {
		return "", err
	}
	res, err := w.client.JSON(ctx, "weather_forecast", search.Request{
		URL: w.forecastURL,
		Query: map[string]string{
			"lat":   fmt.Sprint(lat),
			"lon":   fmt.Sprint(lon),
			"appid": w.apiKey,
			"units": "metric",
			"lang":  "tr",
		},
	})
	if err != nil {
		return "", err
	}
	if code := res.Get("cod").String(); code != "200" {
		msg := res.Get("message").String()
		if msg == "" {
			msg = "Unknown API error"
		}
		return "", core.Upstream("weather_forecast", fmt.Errorf("weather forecast could not be retrieved: %s", msg))
	}
	lines := middayForecasts(res, start, end)
	var body string
	if len(lines) == 0 {
		body = "Detailed forecast for the specified dates not found (API provides 5-day data).\n"
	} else {
		body = strings.Join(lines, "\n") + "\n"
	}
	summary := fmt.Sprintf("Weather Forecast Summary for %s from %s to %s:\n%s", city, startDate, endDate, body)
	return strings.TrimSpace(summary) + "\n\nClothing Suggestions:\n" + w.clothing(ctx, body), nil
}

func (w *Weather) coordinates(ctx context.Context, city string) (float64, float64, error) {
	res, err := w.client.JSON(ctx, "weather_geocode", search.Request{
		URL:   w.geocodeURL,
		Query: map[string]string{"q": city, "limit": "1", "appid": w.apiKey},
	})
	if err != nil {
		return 0, 0, err
	}
	first := res.Get("0")
	if !first.Exists() {
		return 0, 0, fmt.Errorf("OpenWeatherMap Geocoding API couldn't find the city '%s'", city)
	}
	return first.Get("lat").Float(), first.Get("lon").Float(), nil
}

// middayForecasts keeps 11:00-14:00 local entries inside [start, end],
// deduplicated and sorted.
func middayForecasts(res gjson.Result, start, end time.Time) []string {
	zone := time.FixedZone("city", int(res.Get("city.timezone").Int()))
	seen := make(map[string]struct{})
	var lines []string
	res.Get("list").ForEach(func(_, item gjson.Result) bool {
		at := time.Unix(item.Get("dt").Int(), 0).In(zone)
		day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
		if day.Before(start) || day.After(end) || at.Hour() < 11 || at.Hour() > 14 {
			return true
		}
		line := fmt.Sprintf("- %s %s: %s, Temperature: %s°C (Feels like: %s°C), Humidity: %%%s, Wind: %s m/s",
			at.Format(isoDate), at.Weekday(),
			capitalize(orValue(item.Get("weather.0.description").String(), "no information")),
			orValue(item.Get("main.temp").Raw, "?"),
			orValue(item.Get("main.feels_like").Raw, "?"),
			orValue(item.Get("main.humidity").Raw, "?"),
			orValue(item.Get("wind.speed").Raw, "?"),
		)
		if _, dup := seen[line]; !dup {
			seen[line] = struct{}{}
			lines = append(lines, line)
		}
		return true
	})
	sort.Strings(lines)
	return lines
}

func (w *Weather) clothing(ctx context.Context, forecast string) string {
	if w.complete == nil {
		return clothingFailure
	}
	prompt := "Given the following weather summary, can you provide practical and brief clothing suggestions " +
		"in Turkish for someone living in Turkey? Focus only on clothing suggestions, don't repeat the weather " +
		"forecast. Example: \"Yanınıza katmanlı giysiler, ince bir mont ve şemsiye almanız iyi olur.\" etc.\n\n" +
		"Weather Summary:\n" + forecast + "\nClothing Suggestions:"
	out, err := w.complete.Complete(ctx, prompt, llm.Config{Temperature: 0.3})
	if err != nil {
		logger.FromContext(ctx).Warn("Clothing suggestion failed", "error", err)
		return clothingFailure
	}
	return strings.TrimSpace(out)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return turkishUpper.String(string(r)) + s[size:]
}

func orValue(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
