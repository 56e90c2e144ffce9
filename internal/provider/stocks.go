// internal/provider/stocks.go
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const yahooChartBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Stock is one symbol's latest quote.
type Stock struct {
	Symbol        string
	Price         float64
	Change        float64
	ChangePercent float64
}

// StockProvider fetches quotes from the Yahoo Finance chart API, which
// needs no API key.
type StockProvider struct {
	symbols    []string
	baseURL    string
	httpClient *http.Client
}

// NewStocks creates a stock provider for the configured symbols.
func NewStocks(symbols []string) *StockProvider {
	return &StockProvider{
		symbols:    symbols,
		baseURL:    yahooChartBaseURL,
		httpClient: newHTTPClient(),
	}
}

// Fetch retrieves the latest quote for one symbol.
func (p *StockProvider) Fetch(ctx context.Context, symbol string) (*Stock, error) {
	var body struct {
		Chart struct {
			Result []struct {
				Meta struct {
					Symbol             string  `json:"symbol"`
					RegularMarketPrice float64 `json:"regularMarketPrice"`
					PreviousClose      float64 `json:"chartPreviousClose"`
				} `json:"meta"`
			} `json:"result"`
		} `json:"chart"`
	}
	url := fmt.Sprintf("%s/%s?interval=1d&range=1d", p.baseURL, symbol)
	if err := getJSON(ctx, p.httpClient, url, &body); err != nil {
		return nil, fmt.Errorf("fetching quote for %s: %w", symbol, err)
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}

	meta := body.Chart.Result[0].Meta
	change := meta.RegularMarketPrice - meta.PreviousClose
	changePercent := 0.0
	if meta.PreviousClose != 0 {
		changePercent = change / meta.PreviousClose * 100
	}
	return &Stock{
		Symbol:        strings.ToUpper(symbol),
		Price:         meta.RegularMarketPrice,
		Change:        change,
		ChangePercent: changePercent,
	}, nil
}

// FetchAll retrieves quotes for every configured symbol, skipping the
// ones that fail. An error is returned only when nothing succeeded.
func (p *StockProvider) FetchAll(ctx context.Context) ([]Stock, error) {
	var stocks []Stock
	var lastErr error
	for _, symbol := range p.symbols {
		s, err := p.Fetch(ctx, symbol)
		if err != nil {
			lastErr = err
			continue
		}
		stocks = append(stocks, *s)
	}
	if len(stocks) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, fmt.Errorf("no stock symbols configured")
	}
	return stocks, nil
}

// FormatForBoard renders quotes as board lines, at most four symbols.
func (p *StockProvider) FormatForBoard(stocks []Stock) []string {
	lines := []string{"MARKETS", ""}
	for i, s := range stocks {
		if i >= 4 {
			break
		}
		sign := ""
		if s.Change >= 0 {
			sign = "+"
		}
		lines = append(lines, fmt.Sprintf("%s $%.0f %s%.1f%%", s.Symbol, s.Price, sign, s.ChangePercent))
	}
	return lines
}

// Lines fetches and formats in one step.
func (p *StockProvider) Lines(ctx context.Context) ([]string, error) {
	stocks, err := p.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return p.FormatForBoard(stocks), nil
}
