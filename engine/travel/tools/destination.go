package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/core"
	"github.com/Shubham-murar/supervisor-multi-agent/engine/search"
)

const (
	defaultTomTomURL = "https://api.tomtom.com"
	hotelResultCount = 4
	mapZoom          = 11
	mapWidth         = 600
	mapHeight        = 400
)

var knownHotelSites = []string{"booking.com", "expedia", "google.com/travel/hotels", "hotels.com", "agoda.com", "trivago"}

// CityInfo searches general information about a city.
type CityInfo struct {
	serper *search.Serper
}

func NewCityInfo(serper *search.Serper) *CityInfo {
	return &CityInfo{serper: serper}
}

func (c *CityInfo) Search(ctx context.Context, city string) (string, error) {
	if c.serper == nil {
		return "", fmt.Errorf("city information search API key (Serper) not found: %w", core.ErrCollaboratorUnavailable)
	}
	out, err := c.serper.Run(ctx, city+" general information, tourist attractions, popular places")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return fmt.Sprintf("No information found about '%s' with Google Serper.", city), nil
	}
	return out, nil
}

// HotelLinks finds booking-site links for a destination. It never returns
// specific hotel recommendations.
type HotelLinks struct {
	tavily *search.Tavily
}

func NewHotelLinks(tavily *search.Tavily) *HotelLinks {
	return &HotelLinks{tavily: tavily}
}

func (h *HotelLinks) Search(ctx context.Context, destination, startDate, endDate string) (string, error) {
	if h.tavily == nil {
		return "", fmt.Errorf("hotel search API key (Tavily) not found: %w", core.ErrCollaboratorUnavailable)
	}
	query := fmt.Sprintf("hotel booking websites for %s check-in %s check-out %s", destination, startDate, endDate)
	results, err := h.tavily.Search(ctx, query, hotelResultCount)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("Relevant hotel booking site links for %s could not be found with Tavily search.", destination), nil
	}
	links := FilterHotelLinks(results)
	if len(links) == 0 {
		return fmt.Sprintf("Relevant hotel booking site links for %s could not be extracted from Tavily results.", destination), nil
	}
	return "Some links you can use to search for hotels:\n" + strings.Join(links, "\n"), nil
}

// FilterHotelLinks keeps booking-site or hotel URLs, one per domain.
func FilterHotelLinks(results []search.Result) []string {
	seen := make(map[string]struct{})
	var links []string
	for _, r := range results {
		if r.URL == "" || !isHotelLink(r.URL) {
			continue
		}
		key := r.URL
		if u, err := url.Parse(r.URL); err == nil && u.Host != "" {
			key = strings.TrimPrefix(u.Host, "www.")
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		title := r.Title
		if title == "" {
			title = r.URL
		}
		links = append(links, fmt.Sprintf("- %s: %s", title, r.URL))
	}
	return links
}

func isHotelLink(link string) bool {
	for _, site := range knownHotelSites {
		if strings.Contains(link, site) {
			return true
		}
	}
	return strings.Contains(link, "hotel")
}

// TomTom geocodes a city and builds a static map image URL for it.
type TomTom struct {
	client  *search.Client
	baseURL string
	apiKey  string
}

func NewTomTom(client *search.Client, baseURL, apiKey string) *TomTom {
	if baseURL == "" {
		baseURL = defaultTomTomURL
	}
	return &TomTom{client: client, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

func (t *TomTom) MapURL(ctx context.Context, city string) (string, error) {
	if t.apiKey == "" {
		return "", fmt.Errorf("required API key (TomTom) for creating a map not found: %w", core.ErrCollaboratorUnavailable)
	}
	res, err := t.client.JSON(ctx, "tomtom_geocode", search.Request{
		URL:   fmt.Sprintf("%s/search/2/geocode/%s.json", t.baseURL, url.PathEscape(city)),
		Query: map[string]string{"key": t.apiKey, "limit": "1"},
	})
	if err != nil {
		return "", fmt.Errorf("location information for map could not be retrieved (%s): %w", city, err)
	}
	pos := res.Get("results.0.position")
	if !pos.Get("lat").Exists() || !pos.Get("lon").Exists() {
		return "", fmt.Errorf("TomTom API couldn't find coordinates for '%s'", city)
	}
	q := url.Values{}
	q.Set("key", t.apiKey)
	q.Set("center", fmt.Sprintf("%v,%v", pos.Get("lon").Float(), pos.Get("lat").Float()))
	q.Set("zoom", fmt.Sprint(mapZoom))
	q.Set("width", fmt.Sprint(mapWidth))
	q.Set("height", fmt.Sprint(mapHeight))
	q.Set("format", "png")
	return t.baseURL + "/map/1/staticimage?" + q.Encode(), nil
}
