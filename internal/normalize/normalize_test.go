package normalize

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
	"github.com/vkquanghd/gold-ai-advisor/internal/model"
	"github.com/vkquanghd/gold-ai-advisor/internal/yahoo"
)

func day2025(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestWorldGold(t *testing.T) {
	t.Run("converts and dedupes by date", func(t *testing.T) {
		chart := yahoo.PriceChart{Indicators: []yahoo.Indicators{
			{Date: day2025(1), PriceOpen: 2040, PriceHigh: 2055, PriceLow: 2035, PriceClose: 2050.5, Volume: 10},
			{Date: day2025(2), PriceOpen: 2050, PriceHigh: 2065, PriceLow: 2045, PriceClose: 2060, Volume: 0},
			{Date: day2025(1), PriceOpen: 2041, PriceHigh: 2056, PriceLow: 2036, PriceClose: 2051, Volume: 12},
		}}

		bars, err := WorldGold(chart, "yfinance")
		if err != nil {
			t.Fatalf("WorldGold() returned error: %v", err)
		}
		if len(bars) != 2 {
			t.Fatalf("Expected 2 bars, got %d", len(bars))
		}
		if !bars[0].Date.Equal(day2025(1)) || bars[0].Close != 2051 {
			t.Errorf("Expected last bar for 2025-01-01 in first position, got %+v", bars[0])
		}
		if bars[1].Source != "yfinance" || bars[1].Volume != 0 {
			t.Errorf("Unexpected second bar %+v", bars[1])
		}
	})

	t.Run("non-finite price is a parse error", func(t *testing.T) {
		chart := yahoo.PriceChart{Indicators: []yahoo.Indicators{
			{Date: day2025(1), PriceOpen: 1, PriceHigh: math.Inf(1), PriceLow: 1, PriceClose: 1},
		}}
		_, err := WorldGold(chart, "yfinance")
		var pe *apperrors.ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("Expected ParseError, got %v", err)
		}
		if pe.Field != "high" || pe.Index != 0 {
			t.Errorf("Unexpected ParseError %+v", pe)
		}
	})

	t.Run("zero close is a parse error", func(t *testing.T) {
		chart := yahoo.PriceChart{Indicators: []yahoo.Indicators{
			{Date: day2025(1), PriceOpen: 1, PriceHigh: 1, PriceLow: 1, PriceClose: 0},
		}}
		if _, err := WorldGold(chart, "yfinance"); apperrors.KindOf(err) != apperrors.KindParse {
			t.Errorf("Expected parse error, got %v", err)
		}
	})
}

func TestUsdVnd(t *testing.T) {
	chart := yahoo.PriceChart{Indicators: []yahoo.Indicators{
		{Date: day2025(1), PriceClose: 25400},
		{Date: day2025(2), PriceClose: 25420},
	}}
	rates, err := UsdVnd(chart, "yfinance")
	if err != nil {
		t.Fatalf("UsdVnd() returned error: %v", err)
	}
	if len(rates) != 2 || rates[1].Rate != 25420 {
		t.Errorf("Unexpected rates %+v", rates)
	}

	chart.Indicators[1].PriceClose = math.NaN()
	if _, err := UsdVnd(chart, "yfinance"); apperrors.KindOf(err) != apperrors.KindParse {
		t.Errorf("Expected parse error for NaN, got %v", err)
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    float64
		wantErr error
	}{
		{"plain", "84000000", 84000000, nil},
		{"decimal point", "2650.75", 2650.75, nil},
		{"thousands groups", "84,000,000", 84000000, nil},
		{"thousands groups with decimals", "1,234.5", 1234.5, nil},
		{"surrounding spaces", " 82500 ", 82500, nil},
		{"decimal comma", "79,5", 0, errAmbiguousComma},
		{"short group", "84,00,000", 0, errAmbiguousComma},
		{"trailing comma", "84000,", 0, errAmbiguousComma},
		{"zero", "0", 0, errNotPositive},
		{"missing", "  ", 0, errMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Price("buy_price", tt.value, 3)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Price(%q) returned error: %v", tt.value, err)
				}
				if got != tt.want {
					t.Errorf("Expected %v, got %v", tt.want, got)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			var pe *apperrors.ParseError
			if tt.wantErr != errMissing && !errors.As(err, &pe) {
				t.Errorf("Expected ParseError, got %T", err)
			}
		})
	}
}

func TestBrand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Vàng SJC 1L", "SJC"},
		{"pnj hcm", "PNJ"},
		{"DOJI HN", "DOJI"},
		{"Nhẫn tròn trơn 9999", "NHAN"},
		{"nhan 24k", "NHAN"},
		{"  ", "UNKNOWN"},
		{"bao tin minh chau vang rong", "BAO TIN MINH CHAU VANG R"},
	}
	for _, tt := range tests {
		if got := Brand(tt.in); got != tt.want {
			t.Errorf("Brand(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		name string
		raw  model.RawVnQuote
		want time.Time
	}{
		{
			name: "timestamp with offset converts to UTC",
			raw:  model.RawVnQuote{Timestamp: "2025-01-02T09:30:00+07:00", Date: "2025-01-02"},
			want: time.Date(2025, 1, 2, 2, 30, 0, 0, time.UTC),
		},
		{
			name: "naive timestamp",
			raw:  model.RawVnQuote{Timestamp: "2025-01-02 09:30:00"},
			want: time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC),
		},
		{
			name: "date and time",
			raw:  model.RawVnQuote{Date: "2025-01-02", Time: "14:05"},
			want: time.Date(2025, 1, 2, 14, 5, 0, 0, time.UTC),
		},
		{
			name: "date only",
			raw:  model.RawVnQuote{Date: "2025-01-02"},
			want: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "bad timestamp falls back to date",
			raw:  model.RawVnQuote{Timestamp: "yesterday", Date: "2025-01-02", Time: "08:00:00"},
			want: time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Timestamp(tt.raw)
			if err != nil {
				t.Fatalf("Timestamp() returned error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}

	t.Run("nothing usable", func(t *testing.T) {
		if _, err := Timestamp(model.RawVnQuote{Time: "09:00"}); apperrors.KindOf(err) != apperrors.KindParse {
			t.Errorf("Expected parse error, got %v", err)
		}
	})
}

func TestVnQuotes(t *testing.T) { //nolint:gocyclo // Comprehensive batch coverage
	t.Run("dedupe keeps last value at first position", func(t *testing.T) {
		raws := []model.RawVnQuote{
			{Timestamp: "2025-01-02T09:00:00", GoldType: "SJC", BuyPrice: "82000000", SellPrice: "84000000"},
			{Timestamp: "2025-01-02T09:00:00", GoldType: "PNJ", BuyPrice: "81000000", SellPrice: "83000000"},
			{Timestamp: "2025-01-02T09:00:00", GoldType: "Vàng SJC", BuyPrice: "82500000", SellPrice: "84500000"},
		}
		res, err := VnQuotes(raws, "cafef")
		if err != nil {
			t.Fatalf("VnQuotes() returned error: %v", err)
		}
		if len(res.Quotes) != 2 || res.Duplicates != 1 {
			t.Fatalf("Expected 2 quotes and 1 duplicate, got %d and %d", len(res.Quotes), res.Duplicates)
		}
		if res.Quotes[0].Brand != "SJC" || res.Quotes[0].BuyPrice != 82_500_000 {
			t.Errorf("Expected last SJC record first, got %+v", res.Quotes[0])
		}
		if !res.Quotes[0].Date.Equal(day2025(2)) || res.Quotes[0].Source != "cafef" {
			t.Errorf("Unexpected derived fields %+v", res.Quotes[0])
		}
	})

	t.Run("buy above sell is flagged", func(t *testing.T) {
		raws := []model.RawVnQuote{
			{Date: "2025-01-02", GoldType: "SJC", BuyPrice: "85000000", SellPrice: "84000000"},
			{Date: "2025-01-02", GoldType: "PNJ", BuyPrice: "81000000", SellPrice: "83000000"},
		}
		res, err := VnQuotes(raws, "cafef")
		if err != nil {
			t.Fatalf("VnQuotes() returned error: %v", err)
		}
		if res.Flagged != 1 || len(res.Warnings) != 1 {
			t.Errorf("Expected 1 flagged quote with a warning, got %+v", res)
		}
		if len(res.Quotes) != 1 || res.Quotes[0].Brand != "PNJ" {
			t.Errorf("Expected only PNJ kept, got %+v", res.Quotes)
		}
	})

	t.Run("incomplete quote is skipped", func(t *testing.T) {
		raws := []model.RawVnQuote{
			{Date: "2025-01-02", GoldType: "SJC", SellPrice: "84000000"},
		}
		res, err := VnQuotes(raws, "cafef")
		if err != nil {
			t.Fatalf("VnQuotes() returned error: %v", err)
		}
		if res.Incomplete != 1 || len(res.Quotes) != 0 {
			t.Errorf("Expected incomplete quote skipped, got %+v", res)
		}
	})

	t.Run("unparseable price aborts", func(t *testing.T) {
		raws := []model.RawVnQuote{
			{Date: "2025-01-02", GoldType: "SJC", BuyPrice: "82000000", SellPrice: "84000000"},
			{Date: "2025-01-02", GoldType: "PNJ", BuyPrice: "N/A", SellPrice: "83000000"},
		}
		_, err := VnQuotes(raws, "cafef")
		var pe *apperrors.ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("Expected ParseError, got %v", err)
		}
		if pe.Field != "buy_price" || pe.Index != 1 || pe.Value != "N/A" {
			t.Errorf("Unexpected ParseError %+v", pe)
		}
	})

	t.Run("unparseable date reports record index", func(t *testing.T) {
		raws := []model.RawVnQuote{
			{Date: "2025-01-02", GoldType: "SJC", BuyPrice: "1", SellPrice: "2"},
			{Date: "02/01/2025", GoldType: "SJC", BuyPrice: "1", SellPrice: "2"},
		}
		_, err := VnQuotes(raws, "cafef")
		var pe *apperrors.ParseError
		if !errors.As(err, &pe) || pe.Index != 1 {
			t.Errorf("Expected ParseError at index 1, got %v", err)
		}
	})

	t.Run("thousands separators", func(t *testing.T) {
		raws := []model.RawVnQuote{
			{Date: "2025-01-02", GoldType: "SJC", BuyPrice: "82,000,000", SellPrice: "84,000,000"},
		}
		res, err := VnQuotes(raws, "cafef")
		if err != nil {
			t.Fatalf("VnQuotes() returned error: %v", err)
		}
		if res.Quotes[0].SellPrice != 84_000_000 {
			t.Errorf("Expected 84000000, got %v", res.Quotes[0].SellPrice)
		}
	})
}
