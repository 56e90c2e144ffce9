// internal/provider/news.go
package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/colebrumley/flapboard/internal/render"
)

const newsBaseURL = "https://newsapi.org/v2"

// Headline is one news headline.
type Headline struct {
	Title  string
	Source string
}

// NewsProvider fetches top headlines from NewsAPI.
type NewsProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewNews creates a news provider.
func NewNews(apiKey string) *NewsProvider {
	return &NewsProvider{
		apiKey:     apiKey,
		baseURL:    newsBaseURL,
		httpClient: newHTTPClient(),
	}
}

// FetchHeadlines retrieves up to count top US headlines in a category.
func (p *NewsProvider) FetchHeadlines(ctx context.Context, category string, count int) ([]Headline, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("news API key not configured")
	}
	if category == "" {
		category = "general"
	}

	q := url.Values{}
	q.Set("country", "us")
	q.Set("category", category)
	q.Set("pageSize", fmt.Sprint(count))
	q.Set("apiKey", p.apiKey)

	var body struct {
		Articles []struct {
			Title  string `json:"title"`
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := getJSON(ctx, p.httpClient, p.baseURL+"/top-headlines?"+q.Encode(), &body); err != nil {
		return nil, fmt.Errorf("fetching headlines: %w", err)
	}

	headlines := make([]Headline, 0, len(body.Articles))
	for _, a := range body.Articles {
		headlines = append(headlines, Headline{Title: a.Title, Source: a.Source.Name})
	}
	return headlines, nil
}

// FormatForBoard renders a single headline as board lines, wrapping the
// title across at most four lines.
func (p *NewsProvider) FormatForBoard(h Headline) []string {
	lines := []string{"NEWS", ""}
	wrapped := render.Wrap(strings.ToUpper(h.Title), render.Cols)
	if len(wrapped) > 4 {
		wrapped = wrapped[:4]
	}
	return append(lines, wrapped...)
}

// Lines fetches the top headline and formats it.
func (p *NewsProvider) Lines(ctx context.Context) ([]string, error) {
	headlines, err := p.FetchHeadlines(ctx, "general", 1)
	if err != nil {
		return nil, err
	}
	if len(headlines) == 0 {
		return nil, fmt.Errorf("no headlines available")
	}
	return p.FormatForBoard(headlines[0]), nil
}
