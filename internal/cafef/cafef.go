// Package cafef scrapes Vietnamese retail gold quotes from CafeF's AJAX handlers
// and stores them as a raw JSON file for the import stage.
package cafef

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

// SourceName identifies CafeF in fetch errors.
const SourceName = "cafef"

// Fetcher fetches VN quotes into a raw file.
type Fetcher interface {
	Fetch(ctx context.Context, opts FetchOptions) (FetchResult, error)
}

// Options configures a Client.
type Options struct {
	BaseURL        string
	Endpoints      []Endpoint // empty means DefaultEndpoints for the requested days
	Timeout        time.Duration
	MaxRetries     int
	RetryWait      time.Duration
	UserAgent      string
	ExpectedBrands []string
	AllowPartial   bool
	Logger         *zap.Logger
	Now            func() time.Time
}

// FetchOptions selects where the raw file goes and how much history to keep.
type FetchOptions struct {
	OutDir    string
	Basename  string
	Days      int
	KeepFiles int
}

// FetchResult describes one fetch.
type FetchResult struct {
	Path       string             `json:"path"`
	StablePath string             `json:"stablePath"`
	Quotes     []model.RawVnQuote `json:"-"`
	Records    int                `json:"records"`
	Endpoints  int                `json:"endpoints"`
	Succeeded  int                `json:"succeeded"`
	Skipped    int                `json:"skipped"`
	Warnings   []string           `json:"warnings,omitempty"`
}

// Client fetches retail quotes over HTTP.
type Client struct {
	http *resty.Client
	opts Options
}

// NewClient creates a CafeF client. Requests are retried on transport errors,
// HTTP 429 and HTTP 5xx only.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 100 * time.Millisecond
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetRetryCount(opts.MaxRetries)
	client.SetRetryWaitTime(opts.RetryWait)
	client.SetRetryMaxWaitTime(30 * time.Second)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}
		return retryableStatus(r.StatusCode())
	})
	client.SetHeaders(map[string]string{
		"User-Agent":       opts.UserAgent,
		"Referer":          "https://cafef.vn/du-lieu/gia-vang-hom-nay/trong-nuoc.chn",
		"Accept":           "application/json, text/javascript, */*; q=0.01",
		"Accept-Language":  "vi-VN,vi;q=0.9,en;q=0.8",
		"X-Requested-With": "XMLHttpRequest",
	})

	return &Client{http: client, opts: opts}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Fetch requests every endpoint, keeps quotes from the last opts.Days days and
// writes the raw file.
//
// Failure policy:
//   - every endpoint failing is always an error
//   - a failed endpoint or a missing expected brand is a warning when AllowPartial
//     is set and an error otherwise
//   - no quotes left after filtering is an error
//
// Nothing is written when Fetch returns an error.
func (c *Client) Fetch(ctx context.Context, opts FetchOptions) (FetchResult, error) {
	if opts.Basename == "" {
		opts.Basename = "vn_raw"
	}

	quotes, res, err := c.FetchQuotes(ctx, opts.Days)
	if err != nil {
		return res, err
	}

	now := c.opts.Now().UTC()
	path, stable, err := WriteRawFile(opts.OutDir, opts.Basename, quotes, now)
	if err != nil {
		return res, err
	}
	res.Path, res.StablePath = path, stable

	if removed, err := PruneRawFiles(opts.OutDir, opts.Basename, opts.KeepFiles); err != nil {
		c.opts.Logger.Warn("failed to prune old raw files", zap.Error(err))
	} else if len(removed) > 0 {
		c.opts.Logger.Debug("pruned old raw files", zap.Int("count", len(removed)))
	}

	c.opts.Logger.Info("vn raw file written",
		zap.String("path", path),
		zap.Int("records", res.Records),
		zap.Int("endpoints", res.Endpoints),
		zap.Int("succeeded", res.Succeeded),
	)
	return res, nil
}

// FetchQuotes requests every endpoint and returns the deduplicated quotes, oldest first.
func (c *Client) FetchQuotes(ctx context.Context, days int) ([]model.RawVnQuote, FetchResult, error) {
	endpoints := c.opts.Endpoints
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints(c.opts.BaseURL, days)
	}

	res := FetchResult{Endpoints: len(endpoints)}
	var all []model.RawVnQuote
	var failures []error

	for _, ep := range endpoints {
		if err := ctx.Err(); err != nil {
			return nil, res, &apperrors.FetchError{Source: SourceName, Endpoint: ep.Name, Err: err}
		}

		items, err := c.fetchEndpoint(ctx, ep)
		if err != nil {
			c.opts.Logger.Warn("cafef endpoint failed", zap.String("endpoint", ep.Name), zap.Error(err))
			failures = append(failures, err)
			continue
		}

		n := 0
		for _, item := range items {
			raw, ok := toRaw(item, ep.Name)
			if !ok {
				res.Skipped++
				continue
			}
			all = append(all, raw)
			n++
		}
		res.Succeeded++
		c.opts.Logger.Debug("cafef endpoint fetched", zap.String("endpoint", ep.Name), zap.Int("records", n))
	}

	if res.Succeeded == 0 {
		return nil, res, &apperrors.FetchError{
			Source:    SourceName,
			Endpoint:  "all endpoints",
			Retryable: anyRetryable(failures),
			Err:       errors.Join(failures...),
		}
	}

	quotes := dedupe(all)
	if days > 0 {
		now := c.opts.Now().UTC()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		quotes = since(quotes, today.AddDate(0, 0, -(days-1)))
	}
	if len(quotes) == 0 {
		return nil, res, &apperrors.FetchError{Source: SourceName, Endpoint: "all endpoints", Err: apperrors.ErrNoData}
	}
	res.Records = len(quotes)
	res.Quotes = quotes

	for _, b := range missingBrands(quotes, c.opts.ExpectedBrands) {
		failures = append(failures, &apperrors.FetchError{Source: SourceName, Brand: b, Err: apperrors.ErrNoData})
	}

	if len(failures) > 0 {
		if !c.opts.AllowPartial {
			return nil, res, errors.Join(failures...)
		}
		for _, f := range failures {
			res.Warnings = append(res.Warnings, f.Error())
		}
	}

	return quotes, res, nil
}

func (c *Client) fetchEndpoint(ctx context.Context, ep Endpoint) ([]map[string]any, error) {
	resp, err := c.http.R().SetContext(ctx).Get(ep.URL)
	if err != nil {
		return nil, &apperrors.FetchError{Source: SourceName, Endpoint: ep.Name, Retryable: ctx.Err() == nil, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &apperrors.FetchError{
			Source:    SourceName,
			Endpoint:  ep.Name,
			Status:    resp.StatusCode(),
			Retryable: retryableStatus(resp.StatusCode()),
			Err:       fmt.Errorf("%s", http.StatusText(resp.StatusCode())),
		}
	}

	items, err := Extract(resp.Body())
	if err != nil {
		return nil, &apperrors.FetchError{Source: SourceName, Endpoint: ep.Name, Err: err}
	}
	return items, nil
}

func anyRetryable(errs []error) bool {
	for _, err := range errs {
		if apperrors.IsRetryable(err) {
			return true
		}
	}
	return false
}

// dedupe drops exact repeats (the same quote is served by several handlers) and
// orders the rest by timestamp. Records without a parsed timestamp sort first.
func dedupe(quotes []model.RawVnQuote) []model.RawVnQuote {
	type key struct{ date, time, brand, location, buy, sell string }
	seen := make(map[key]bool, len(quotes))
	out := make([]model.RawVnQuote, 0, len(quotes))
	for _, q := range quotes {
		k := key{string(q.Date), string(q.Time), string(q.GoldType), string(q.Location), string(q.BuyPrice), string(q.SellPrice)}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, q)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return string(out[i].Timestamp) < string(out[j].Timestamp)
	})
	return out
}

// since keeps quotes at or after cutoff, the first of the last days calendar days. Quotes whose date could not be read are
// kept so the import stage reports them.
func since(quotes []model.RawVnQuote, cutoff time.Time) []model.RawVnQuote {
	out := quotes[:0]
	for _, q := range quotes {
		ts, err := time.Parse("2006-01-02T15:04:05", string(q.Timestamp))
		if err != nil || !ts.Before(cutoff) {
			out = append(out, q)
		}
	}
	return out
}

// missingBrands returns the expected brands no quote mentions.
func missingBrands(quotes []model.RawVnQuote, expected []string) []string {
	var missing []string
	for _, want := range expected {
		want = strings.ToUpper(strings.TrimSpace(want))
		if want == "" {
			continue
		}
		found := false
		for _, q := range quotes {
			if strings.Contains(strings.ToUpper(q.GoldType.String()), want) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, want)
		}
	}
	return missing
}
