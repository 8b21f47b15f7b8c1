package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vkquanghd/gold-ai-advisor/internal/yahoo"
)

// MockYahooClient implements yahoo.Client with canned chart responses.
// Responses and errors can be set for every symbol or per symbol; per symbol wins.
type MockYahooClient struct {
	// MockResponse is returned for symbols without an entry in Responses
	MockResponse yahoo.Response
	// Responses overrides the response per symbol
	Responses map[string]yahoo.Response
	// Errors makes the query for a symbol fail
	Errors map[string]error
	// MockError fails every query
	MockError error
	// QueryCount tracks how many queries were made
	QueryCount int

	mu sync.Mutex
}

// NewMockYahooClient creates a mock answering every symbol with five
// consecutive daily bars ending yesterday.
func NewMockYahooClient() *MockYahooClient {
	return &MockYahooClient{
		MockResponse: YahooDailyChart(5, 2000),
		Responses:    map[string]yahoo.Response{},
		Errors:       map[string]error{},
	}
}

// QuerySymbolByDateRange implements yahoo.Client. The range is ignored.
func (m *MockYahooClient) QuerySymbolByDateRange(_ context.Context, symbol string, _, _ time.Time) (yahoo.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QueryCount++
	switch {
	case m.MockError != nil:
		return yahoo.Response{}, m.MockError
	case m.Errors[symbol] != nil:
		return yahoo.Response{}, m.Errors[symbol]
	}
	if resp, ok := m.Responses[symbol]; ok {
		return resp, nil
	}
	return m.MockResponse, nil
}

// ParseChart uses the real parser.
func (m *MockYahooClient) ParseChart(resp yahoo.Response) (yahoo.PriceChart, error) {
	return yahoo.NewFinanceClient().ParseChart(resp)
}

// WithError makes every query fail with err.
func (m *MockYahooClient) WithError(err error) *MockYahooClient {
	m.MockError = err
	return m
}

// WithSymbolError makes only the given symbol fail.
func (m *MockYahooClient) WithSymbolError(symbol string, err error) *MockYahooClient {
	m.Errors[symbol] = err
	return m
}

// WithResponse answers every symbol with resp.
func (m *MockYahooClient) WithResponse(resp yahoo.Response) *MockYahooClient {
	m.MockResponse = resp
	return m
}

// WithSymbolResponse answers one symbol with resp.
func (m *MockYahooClient) WithSymbolResponse(symbol string, resp yahoo.Response) *MockYahooClient {
	m.Responses[symbol] = resp
	return m
}

// WithEmptyResponse answers every symbol with a chart holding no result.
func (m *MockYahooClient) WithEmptyResponse() *MockYahooClient {
	m.MockResponse = yahoo.Response{Chart: yahoo.Chart{Result: []yahoo.Result{}}}
	return m
}

// Price returns a pointer to v for building chart arrays.
func Price(v float64) *float64 {
	return &v
}

// YahooChart builds a chart with one daily bar per close starting at first.
// A nil close becomes a bar Yahoo reports without a price. Open, high and low
// are derived from the close.
func YahooChart(first time.Time, closes ...*float64) yahoo.Response {
	n := len(closes)
	q := yahoo.Quote{
		Open:   make([]*float64, n),
		High:   make([]*float64, n),
		Low:    make([]*float64, n),
		Close:  closes,
		Volume: make([]*int64, n),
	}
	timestamps := make([]int64, n)

	for i, c := range closes {
		timestamps[i] = first.AddDate(0, 0, i).Unix()
		if c == nil {
			continue
		}
		q.Open[i] = Price(*c - 0.25)
		q.High[i] = Price(*c + 0.75)
		q.Low[i] = Price(*c - 0.75)
		vol := int64(1000 + 10*i)
		q.Volume[i] = &vol
	}

	return yahoo.Response{Chart: yahoo.Chart{Result: []yahoo.Result{{
		Meta:       yahoo.Meta{Symbol: "TEST", Currency: "USD", ExchangeName: "CMX"},
		Timestamp:  timestamps,
		Indicators: yahoo.IndicatorsContainer{Quote: []yahoo.Quote{q}},
	}}}}
}

// YahooDailyChart builds days consecutive bars ending yesterday (UTC), with
// closes rising by 0.5 from basePrice+0.25.
func YahooDailyChart(days int, basePrice float64) yahoo.Response {
	now := time.Now().UTC()
	yesterday := time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, time.UTC)

	closes := make([]*float64, days)
	for i := range closes {
		closes[i] = Price(basePrice + float64(i)*0.5 + 0.25)
	}
	return YahooChart(yesterday.AddDate(0, 0, -(days-1)), closes...)
}

// YahooErrorChart builds a response carrying a chart-level error.
func YahooErrorChart(code, description string) yahoo.Response {
	return yahoo.Response{Chart: yahoo.Chart{
		Result: []yahoo.Result{},
		Error:  &yahoo.ChartError{Code: code, Description: description},
	}}
}
