// internal/provider/weather.go
package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const openWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// Weather is a current-conditions snapshot.
type Weather struct {
	Location  string
	TempF     int
	Condition string
	HighF     int
	LowF      int
	Humidity  int
}

// WeatherProvider fetches conditions from OpenWeatherMap.
type WeatherProvider struct {
	apiKey     string
	location   string
	baseURL    string
	httpClient *http.Client
}

// NewWeather creates a weather provider for the configured location
// (e.g. "Seattle,WA,US").
func NewWeather(apiKey, location string) *WeatherProvider {
	return &WeatherProvider{
		apiKey:     apiKey,
		location:   location,
		baseURL:    openWeatherBaseURL,
		httpClient: newHTTPClient(),
	}
}

// Fetch retrieves current conditions in imperial units.
func (p *WeatherProvider) Fetch(ctx context.Context) (*Weather, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("weather API key not configured")
	}

	q := url.Values{}
	q.Set("q", p.location)
	q.Set("appid", p.apiKey)
	q.Set("units", "imperial")

	var body struct {
		Name string `json:"name"`
		Main struct {
			Temp     float64 `json:"temp"`
			TempMax  float64 `json:"temp_max"`
			TempMin  float64 `json:"temp_min"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
	}
	if err := getJSON(ctx, p.httpClient, p.baseURL+"/weather?"+q.Encode(), &body); err != nil {
		return nil, fmt.Errorf("fetching weather: %w", err)
	}
	if len(body.Weather) == 0 {
		return nil, fmt.Errorf("weather response missing conditions")
	}

	location := body.Name
	if location == "" {
		location = p.location
	}
	return &Weather{
		Location:  location,
		TempF:     int(body.Main.Temp),
		Condition: body.Weather[0].Main,
		HighF:     int(body.Main.TempMax),
		LowF:      int(body.Main.TempMin),
		Humidity:  body.Main.Humidity,
	}, nil
}

// FormatForBoard renders a weather snapshot as board lines.
func (p *WeatherProvider) FormatForBoard(w *Weather) []string {
	return []string{
		strings.ToUpper(w.Location),
		"",
		fmt.Sprintf("%d° %s", w.TempF, strings.ToUpper(w.Condition)),
		"",
		fmt.Sprintf("HIGH %d°  LOW %d°", w.HighF, w.LowF),
		fmt.Sprintf("HUMIDITY %d%%", w.Humidity),
	}
}

// Lines fetches and formats in one step.
func (p *WeatherProvider) Lines(ctx context.Context) ([]string, error) {
	w, err := p.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return p.FormatForBoard(w), nil
}
