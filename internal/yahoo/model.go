package yahoo

import (
	"fmt"
	"time"
)

// Response represents the raw JSON response structure from the Yahoo Finance chart API.
// This type maps directly to the chart response format, containing nested structures
// for metadata, timestamps, and price indicators.
//
// The structure includes:
//   - Chart.Result: Array of result objects (typically contains one element)
//   - Chart.Result[].Meta: Symbol metadata (currency, exchange, UTC offset)
//   - Chart.Result[].Timestamp: Unix timestamps for each bar
//   - Chart.Result[].Indicators: Price arrays, any element of which may be null
//   - Chart.Error: Optional error object from Yahoo
type Response struct {
	Chart Chart `json:"chart"`
}

// Chart is the top-level chart envelope.
type Chart struct {
	Result []Result    `json:"result"`
	Error  *ChartError `json:"error"`
}

// ChartError is the error object Yahoo returns in place of results,
// e.g. {"code":"Not Found","description":"No data found, symbol may be delisted"}.
type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *ChartError) Error() string {
	return fmt.Sprintf("yahoo error %s: %s", e.Code, e.Description)
}

// Result holds one symbol's series.
type Result struct {
	Meta       Meta                `json:"meta"`
	Timestamp  []int64             `json:"timestamp"`
	Indicators IndicatorsContainer `json:"indicators"`
}

// Meta is the symbol metadata of a chart result.
type Meta struct {
	Currency         string `json:"currency"`
	Symbol           string `json:"symbol"`
	ExchangeName     string `json:"exchangeName"`
	FullExchangeName string `json:"fullExchangeName"`
	LongName         string `json:"longName"`
	Shortname        string `json:"shortName"`
	ExchangeTimezone string `json:"exchangeTimezoneName"`
	GmtOffset        int64  `json:"gmtoffset"`
}

// IndicatorsContainer wraps the quote arrays.
type IndicatorsContainer struct {
	Quote []Quote `json:"quote"`
}

// Quote holds the parallel OHLCV arrays. Yahoo emits JSON null for bars
// without an observation, so every element is a pointer.
type Quote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// PriceChart represents a parsed and structured price chart from Yahoo Finance.
// This is the application's internal representation after parsing the raw Response.
//
// The chart contains:
//   - Symbol metadata: ticker, name, exchange, and currency information
//   - Indicators: Daily bars ordered by date, nulls already resolved
//   - Skipped: Number of bars dropped because they had no close
type PriceChart struct {
	Currency         string       `json:"currency"`
	Symbol           string       `json:"symbol"`
	ExchangeName     string       `json:"exchangeName"`
	FullExchangeName string       `json:"fullExchangeName"`
	LongName         string       `json:"longName"`
	Shortname        string       `json:"shortName"`
	Indicators       []Indicators `json:"indicators"`
	Skipped          int          `json:"skipped"`
}

// Indicators represents a single day's bar.
//
// Fields:
//   - Date: Exchange-local trading date (time component set to midnight UTC)
//   - PriceOpen, PriceHigh, PriceLow: Default to PriceClose when Yahoo reports null
//   - PriceClose: Closing price for the day
//   - Volume: Zero when Yahoo reports null
type Indicators struct {
	Date       time.Time
	PriceOpen  float64
	PriceClose float64
	Volume     int64
	PriceHigh  float64
	PriceLow   float64
}
