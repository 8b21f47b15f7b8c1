package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

// Day returns midnight UTC of the given calendar date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// WorldGoldDayBuilder provides a fluent interface for creating world gold bars.
//
// Example usage:
//
//	bar := testutil.NewWorldGoldDay().
//	    WithDate(testutil.Day(2025, 1, 1)).
//	    WithClose(2050.5).
//	    Build(t, db)
type WorldGoldDayBuilder struct {
	bar model.WorldGoldDay
}

// NewWorldGoldDay creates a WorldGoldDayBuilder with sensible defaults.
func NewWorldGoldDay() *WorldGoldDayBuilder {
	return &WorldGoldDayBuilder{bar: model.WorldGoldDay{
		Date:   Day(2025, 1, 1),
		Open:   2040,
		High:   2060,
		Low:    2030,
		Close:  2050,
		Volume: 1000,
		Source: "yfinance",
	}}
}

// WithDate sets the bar date.
func (b *WorldGoldDayBuilder) WithDate(d time.Time) *WorldGoldDayBuilder {
	b.bar.Date = d
	return b
}

// WithClose sets the close; open, high and low follow it.
func (b *WorldGoldDayBuilder) WithClose(c float64) *WorldGoldDayBuilder {
	b.bar.Open, b.bar.High, b.bar.Low, b.bar.Close = c, c, c, c
	return b
}

// WithSource sets the source label.
func (b *WorldGoldDayBuilder) WithSource(s string) *WorldGoldDayBuilder {
	b.bar.Source = s
	return b
}

// Value returns the bar without storing it.
func (b *WorldGoldDayBuilder) Value() model.WorldGoldDay {
	return b.bar
}

// Build inserts the bar and returns it.
func (b *WorldGoldDayBuilder) Build(t *testing.T, db *sql.DB) model.WorldGoldDay {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO world_gold (date, open, high, low, close, volume, source)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.bar.Date.Format("2006-01-02"), b.bar.Open, b.bar.High, b.bar.Low, b.bar.Close, b.bar.Volume, b.bar.Source)
	if err != nil {
		t.Fatalf("Failed to create test world_gold row: %v", err)
	}
	return b.bar
}

// UsdVndRateBuilder provides a fluent interface for creating USD/VND rates.
type UsdVndRateBuilder struct {
	rate model.UsdVndRate
}

// NewUsdVndRate creates a UsdVndRateBuilder with sensible defaults.
func NewUsdVndRate() *UsdVndRateBuilder {
	return &UsdVndRateBuilder{rate: model.UsdVndRate{
		Date:   Day(2025, 1, 1),
		Rate:   25400,
		Source: "yfinance",
	}}
}

// WithDate sets the rate date.
func (b *UsdVndRateBuilder) WithDate(d time.Time) *UsdVndRateBuilder {
	b.rate.Date = d
	return b
}

// WithRate sets the rate.
func (b *UsdVndRateBuilder) WithRate(r float64) *UsdVndRateBuilder {
	b.rate.Rate = r
	return b
}

// Build inserts the rate and returns it.
func (b *UsdVndRateBuilder) Build(t *testing.T, db *sql.DB) model.UsdVndRate {
	t.Helper()

	_, err := db.Exec(`INSERT INTO usd_vnd (date, rate, source) VALUES (?, ?, ?)`,
		b.rate.Date.Format("2006-01-02"), b.rate.Rate, b.rate.Source)
	if err != nil {
		t.Fatalf("Failed to create test usd_vnd row: %v", err)
	}
	return b.rate
}

// VnQuoteBuilder provides a fluent interface for creating VN retail quotes.
//
// Example usage:
//
//	quote := testutil.NewVnQuote().WithBrand("PNJ").WithTs(ts).Build(t, db)
type VnQuoteBuilder struct {
	quote model.VnGoldQuote
}

// NewVnQuote creates a VnQuoteBuilder with sensible defaults.
func NewVnQuote() *VnQuoteBuilder {
	ts := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	return &VnQuoteBuilder{quote: model.VnGoldQuote{
		Ts:        ts,
		Date:      Day(2025, 1, 1),
		Brand:     "SJC",
		BuyPrice:  82_000_000,
		SellPrice: 84_000_000,
		Source:    "cafef",
	}}
}

// WithBrand sets the brand.
func (b *VnQuoteBuilder) WithBrand(brand string) *VnQuoteBuilder {
	b.quote.Brand = brand
	return b
}

// WithLocation sets the location.
func (b *VnQuoteBuilder) WithLocation(loc string) *VnQuoteBuilder {
	b.quote.Location = loc
	return b
}

// WithTs sets the timestamp and derives the date from it.
func (b *VnQuoteBuilder) WithTs(ts time.Time) *VnQuoteBuilder {
	b.quote.Ts = ts.UTC()
	b.quote.Date = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	return b
}

// WithPrices sets buy and sell prices.
func (b *VnQuoteBuilder) WithPrices(buy, sell float64) *VnQuoteBuilder {
	b.quote.BuyPrice = buy
	b.quote.SellPrice = sell
	return b
}

// WithSource sets the source label.
func (b *VnQuoteBuilder) WithSource(s string) *VnQuoteBuilder {
	b.quote.Source = s
	return b
}

// Value returns the quote without storing it.
func (b *VnQuoteBuilder) Value() model.VnGoldQuote {
	return b.quote
}

// Build inserts the quote and returns it.
func (b *VnQuoteBuilder) Build(t *testing.T, db *sql.DB) model.VnGoldQuote {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO vn_gold (ts, date, brand, location, buy_price, sell_price, source)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		b.quote.Ts.Format("2006-01-02T15:04:05"),
		b.quote.Date.Format("2006-01-02"),
		b.quote.Brand,
		b.quote.Location,
		b.quote.BuyPrice,
		b.quote.SellPrice,
		b.quote.Source,
	)
	if err != nil {
		t.Fatalf("Failed to create test vn_gold row: %v", err)
	}
	return b.quote
}

// Convenience functions

// SeedVnDays inserts one quote per brand per day for n consecutive days starting at first.
//
// Example usage:
//
//	testutil.SeedVnDays(t, db, testutil.Day(2024, 1, 1), 400, "SJC", "PNJ")
func SeedVnDays(t *testing.T, db *sql.DB, first time.Time, n int, brands ...string) {
	t.Helper()

	if len(brands) == 0 {
		brands = []string{"SJC"}
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin seed transaction: %v", err)
	}
	for i := 0; i < n; i++ {
		d := first.AddDate(0, 0, i)
		for _, brand := range brands {
			_, err := tx.Exec(`
				INSERT INTO vn_gold (ts, date, brand, location, buy_price, sell_price, source)
				VALUES (?, ?, ?, '', ?, ?, 'cafef')
			`, d.Format("2006-01-02")+"T09:00:00", d.Format("2006-01-02"), brand, 80_000_000+float64(i), 82_000_000+float64(i))
			if err != nil {
				_ = tx.Rollback()
				t.Fatalf("Failed to seed vn_gold: %v", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit seed: %v", err)
	}
}

// SeedWorldDays inserts one world bar and one USD/VND rate per day for n consecutive days.
func SeedWorldDays(t *testing.T, db *sql.DB, first time.Time, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		d := first.AddDate(0, 0, i)
		NewWorldGoldDay().WithDate(d).WithClose(2000 + float64(i)).Build(t, db)
		NewUsdVndRate().WithDate(d).WithRate(25000 + float64(i)).Build(t, db)
	}
}
