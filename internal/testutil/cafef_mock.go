package testutil

import (
	"context"
	"time"

	"github.com/vkquanghd/gold-ai-advisor/internal/cafef"
	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

// MockVnFetcher is a mock implementation of cafef.Fetcher. It writes the
// configured quotes as a real raw file so the import stage reads them back.
type MockVnFetcher struct {
	Quotes   []model.RawVnQuote
	Warnings []string
	Err      error
	Now      time.Time
	Calls    int
}

// NewMockVnFetcher creates a fetcher returning the given quotes.
func NewMockVnFetcher(quotes ...model.RawVnQuote) *MockVnFetcher {
	return &MockVnFetcher{Quotes: quotes, Now: time.Date(2025, 1, 10, 18, 0, 0, 0, time.UTC)}
}

// WithError makes Fetch fail without writing a file.
func (m *MockVnFetcher) WithError(err error) *MockVnFetcher {
	m.Err = err
	return m
}

// Fetch implements cafef.Fetcher.
func (m *MockVnFetcher) Fetch(_ context.Context, opts cafef.FetchOptions) (cafef.FetchResult, error) {
	m.Calls++
	if m.Err != nil {
		return cafef.FetchResult{}, m.Err
	}
	basename := opts.Basename
	if basename == "" {
		basename = "vn_raw"
	}
	path, stable, err := cafef.WriteRawFile(opts.OutDir, basename, m.Quotes, m.Now)
	if err != nil {
		return cafef.FetchResult{}, err
	}
	return cafef.FetchResult{
		Path:       path,
		StablePath: stable,
		Quotes:     m.Quotes,
		Records:    len(m.Quotes),
		Endpoints:  1,
		Succeeded:  1,
		Warnings:   m.Warnings,
	}, nil
}

// RawQuote builds a raw quote as the crawler writes it.
func RawQuote(brand, ts, buy, sell string) model.RawVnQuote {
	return model.RawVnQuote{
		Date:      model.RawValue(ts[:10]),
		Time:      model.RawValue(ts[11:]),
		Timestamp: model.RawValue(ts),
		GoldType:  model.RawValue(brand),
		BuyPrice:  model.RawValue(buy),
		SellPrice: model.RawValue(sell),
	}
}
