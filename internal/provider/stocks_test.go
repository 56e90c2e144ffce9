// internal/provider/stocks_test.go
package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func stockServer(t *testing.T, prices map[string][2]float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.TrimPrefix(r.URL.Path, "/")
		p, ok := prices[symbol]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"chart":{"result":[{"meta":{"symbol":%q,"regularMarketPrice":%f,"chartPreviousClose":%f}}]}}`,
			symbol, p[0], p[1])
	}))
}

func TestStockFetch(t *testing.T) {
	srv := stockServer(t, map[string][2]float64{"SPY": {512, 500}})
	defer srv.Close()

	p := NewStocks([]string{"SPY"})
	p.baseURL = srv.URL

	got, err := p.Fetch(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Symbol != "SPY" || got.Price != 512 || got.Change != 12 {
		t.Errorf("Fetch() = %+v", got)
	}
	if got.ChangePercent < 2.39 || got.ChangePercent > 2.41 {
		t.Errorf("ChangePercent = %v, want 2.4", got.ChangePercent)
	}
}

func TestStockFetchAll_SkipsFailures(t *testing.T) {
	srv := stockServer(t, map[string][2]float64{"QQQ": {430, 433}})
	defer srv.Close()

	p := NewStocks([]string{"BAD", "QQQ"})
	p.baseURL = srv.URL

	got, err := p.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(got) != 1 || got[0].Symbol != "QQQ" {
		t.Errorf("FetchAll() = %+v", got)
	}
}

func TestStockFetchAll_AllFail(t *testing.T) {
	srv := stockServer(t, nil)
	defer srv.Close()

	p := NewStocks([]string{"BAD"})
	p.baseURL = srv.URL

	if _, err := p.FetchAll(context.Background()); err == nil {
		t.Error("FetchAll() succeeded with no quotes")
	}
}

func TestStockFormatForBoard(t *testing.T) {
	p := NewStocks(nil)
	got := p.FormatForBoard([]Stock{
		{Symbol: "SPY", Price: 512.3, Change: 2.1, ChangePercent: 0.41},
		{Symbol: "QQQ", Price: 430.0, Change: -3.2, ChangePercent: -0.74},
	})
	want := []string{
		"MARKETS",
		"",
		"SPY $512 +0.4%",
		"QQQ $430 -0.7%",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FormatForBoard() = %v, want %v", got, want)
	}
}

func TestStockFormatForBoard_MaxFour(t *testing.T) {
	p := NewStocks(nil)
	stocks := make([]Stock, 6)
	for i := range stocks {
		stocks[i] = Stock{Symbol: fmt.Sprintf("S%d", i), Price: 1}
	}
	got := p.FormatForBoard(stocks)
	if len(got) != 6 {
		t.Errorf("FormatForBoard() = %d lines, want 6 (header+blank+4)", len(got))
	}
}
