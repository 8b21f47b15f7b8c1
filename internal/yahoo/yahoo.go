package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
)

// SourceName identifies Yahoo in fetch errors.
const SourceName = "yahoo"

// DefaultBaseURL is the public chart API host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client is the subset of FinanceClient used by the pipelines.
type Client interface {
	QuerySymbolByDateRange(ctx context.Context, symbol string, startDate, endDate time.Time) (Response, error)
	ParseChart(yahooResult Response) (PriceChart, error)
}

// FinanceClient provides methods for fetching daily charts from the Yahoo Finance API.
// Transient failures (network errors, HTTP 429, HTTP 5xx) are retried with
// exponential backoff; everything else fails on the first attempt.
type FinanceClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	maxRetries int
	retryWait  time.Duration
	logger     *zap.Logger
}

// Option configures a FinanceClient.
type Option func(*FinanceClient)

// WithBaseURL points the client at another host, e.g. an httptest server.
// An empty u keeps the default.
func WithBaseURL(u string) Option {
	return func(c *FinanceClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithTimeout sets the per-request timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *FinanceClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRetry sets the retry budget and the initial wait between attempts.
func WithRetry(maxRetries int, wait time.Duration) Option {
	return func(c *FinanceClient) {
		c.maxRetries = maxRetries
		c.retryWait = wait
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *FinanceClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger used for retry notices.
func WithLogger(l *zap.Logger) Option {
	return func(c *FinanceClient) { c.logger = l }
}

// NewFinanceClient creates a new Yahoo Finance client.
//
// Defaults: public base URL, 15s timeout, 3 retries starting at 2s.
//
// Returns:
//   - *FinanceClient: A new client instance ready for use
func NewFinanceClient(opts ...Option) *FinanceClient {
	c := &FinanceClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    DefaultBaseURL,
		userAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		maxRetries: 3,
		retryWait:  2 * time.Second,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseChart converts a raw Yahoo Finance API response into a structured price chart.
//
// Null handling:
//   - A null close drops the bar and increments Skipped
//   - A null open, high or low takes the close
//   - A null volume becomes 0
//
// Bar dates are the exchange-local calendar day (timestamp shifted by meta.gmtoffset).
// Bars are returned in ascending date order.
//
// Parameters:
//   - yahooResult: Raw response from Yahoo Finance API
//
// Returns:
//   - PriceChart: Structured chart with indicators and metadata
//   - error: If the result is missing, malformed, or arrays have mismatched lengths.
//     A result without timestamps is an empty chart, not an error.
func (c *FinanceClient) ParseChart(yahooResult Response) (PriceChart, error) {
	if yahooResult.Chart.Error != nil {
		return PriceChart{}, yahooResult.Chart.Error
	}
	if len(yahooResult.Chart.Result) == 0 {
		return PriceChart{}, fmt.Errorf("no results returned")
	}

	result := yahooResult.Chart.Result[0]

	chart := PriceChart{
		Symbol:           result.Meta.Symbol,
		Currency:         result.Meta.Currency,
		ExchangeName:     result.Meta.ExchangeName,
		FullExchangeName: result.Meta.FullExchangeName,
		LongName:         result.Meta.LongName,
		Shortname:        result.Meta.Shortname,
	}

	// A window without trading days has no timestamps at all.
	if len(result.Timestamp) == 0 {
		return chart, nil
	}
	if len(result.Indicators.Quote) == 0 || len(result.Indicators.Quote[0].Close) == 0 {
		return PriceChart{}, fmt.Errorf("no close prices returned")
	}

	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(quote.Close) != n {
		return PriceChart{}, fmt.Errorf("mismatched data lengths: %d timestamps, %d closes", n, len(quote.Close))
	}
	for name, l := range map[string]int{"open": len(quote.Open), "high": len(quote.High), "low": len(quote.Low), "volume": len(quote.Volume)} {
		if l != 0 && l != n {
			return PriceChart{}, fmt.Errorf("mismatched data lengths: %d timestamps, %d %s values", n, l, name)
		}
	}

	chart.Indicators = make([]Indicators, 0, n)

	for i, ts := range result.Timestamp {
		closePrice := quote.Close[i]
		if closePrice == nil {
			chart.Skipped++
			continue
		}
		local := time.Unix(ts+result.Meta.GmtOffset, 0).UTC()
		chart.Indicators = append(chart.Indicators, Indicators{
			Date:       time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
			PriceOpen:  valueOr(quote.Open, i, *closePrice),
			PriceHigh:  valueOr(quote.High, i, *closePrice),
			PriceLow:   valueOr(quote.Low, i, *closePrice),
			PriceClose: *closePrice,
			Volume:     volumeAt(quote.Volume, i),
		})
	}

	sort.SliceStable(chart.Indicators, func(a, b int) bool {
		return chart.Indicators[a].Date.Before(chart.Indicators[b].Date)
	})

	return chart, nil
}

func valueOr(values []*float64, i int, fallback float64) float64 {
	if i < len(values) && values[i] != nil {
		return *values[i]
	}
	return fallback
}

func volumeAt(values []*int64, i int) int64 {
	if i < len(values) && values[i] != nil {
		return *values[i]
	}
	return 0
}

// QuerySymbolByDateRange fetches daily price data for a symbol within a specific date range.
// This method is used both for the rolling update and for historical backfilling.
//
// Parameters:
//   - ctx: Cancels the request and any pending retry
//   - symbol: Ticker symbol (e.g., "GC=F", "VND=X")
//   - startDate: Beginning of date range (inclusive)
//   - endDate: End of date range (inclusive)
//
// Returns:
//   - Response: Raw API response containing price data for the range
//   - error: *apperrors.FetchError when the request fails or Yahoo returns an error
func (c *FinanceClient) QuerySymbolByDateRange(ctx context.Context, symbol string, startDate, endDate time.Time) (Response, error) {
	u := fmt.Sprintf(
		"%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		c.baseURL,
		url.PathEscape(symbol),
		startDate.Unix(),
		endDate.AddDate(0, 0, 1).Unix(),
	)
	result, err := c.queryYahoo(ctx, symbol, u)
	if err != nil {
		return Response{}, err
	}
	if len(result.Chart.Result) == 0 {
		return Response{}, &apperrors.FetchError{
			Source:   SourceName,
			Endpoint: symbol,
			Err:      fmt.Errorf("no results returned for symbol %s", symbol),
		}
	}

	return result, nil
}

// queryYahoo executes the request with retries, reads the response,
// parses JSON, and checks for API errors.
func (c *FinanceClient) queryYahoo(ctx context.Context, symbol, u string) (Response, error) {
	var response Response

	op := func() error {
		resp, err := c.do(ctx, symbol, u)
		if err != nil {
			var fe *apperrors.FetchError
			if errors.As(err, &fe) && !fe.Retryable {
				return backoff.Permanent(err)
			}
			return err
		}
		response = resp
		return nil
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryWait
	eb.MaxInterval = 30 * time.Second
	var policy backoff.BackOff = eb
	if c.maxRetries >= 0 {
		policy = backoff.WithMaxRetries(eb, uint64(c.maxRetries))
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("yahoo request failed, retrying",
			zap.String("symbol", symbol),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify); err != nil {
		var fe *apperrors.FetchError
		if errors.As(err, &fe) {
			return Response{}, fe
		}
		return Response{}, &apperrors.FetchError{Source: SourceName, Endpoint: symbol, Retryable: true, Err: err}
	}
	return response, nil
}

func (c *FinanceClient) do(ctx context.Context, symbol, u string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Response{}, &apperrors.FetchError{Source: SourceName, Endpoint: symbol, Err: err}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, &apperrors.FetchError{Source: SourceName, Endpoint: symbol, Retryable: ctx.Err() == nil, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &apperrors.FetchError{Source: SourceName, Endpoint: symbol, Retryable: true, Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return Response{}, &apperrors.FetchError{
			Source:    SourceName,
			Endpoint:  symbol,
			Status:    resp.StatusCode,
			Retryable: true,
			Err:       fmt.Errorf("%s", http.StatusText(resp.StatusCode)),
		}
	}

	var response Response
	decodeErr := json.Unmarshal(data, &response)

	if resp.StatusCode != http.StatusOK {
		var cause error = fmt.Errorf("%s", http.StatusText(resp.StatusCode))
		if decodeErr == nil && response.Chart.Error != nil {
			cause = response.Chart.Error
		}
		return Response{}, &apperrors.FetchError{Source: SourceName, Endpoint: symbol, Status: resp.StatusCode, Err: cause}
	}

	if decodeErr != nil {
		return Response{}, &apperrors.FetchError{
			Source:   SourceName,
			Endpoint: symbol,
			Err:      fmt.Errorf("malformed chart response: %w", decodeErr),
		}
	}

	if response.Chart.Error != nil {
		return Response{}, &apperrors.FetchError{Source: SourceName, Endpoint: symbol, Err: response.Chart.Error}
	}

	return response, nil
}

// FetchChart queries and parses one symbol. Parse failures are reported as a
// non-retryable FetchError, so the caller never sees a partially parsed chart.
func FetchChart(ctx context.Context, c Client, symbol string, startDate, endDate time.Time) (PriceChart, error) {
	resp, err := c.QuerySymbolByDateRange(ctx, symbol, startDate, endDate)
	if err != nil {
		return PriceChart{}, err
	}
	chart, err := c.ParseChart(resp)
	if err != nil {
		return PriceChart{}, &apperrors.FetchError{Source: SourceName, Endpoint: symbol, Err: err}
	}
	return chart, nil
}
