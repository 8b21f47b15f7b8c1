// Package normalize turns fetched source data into store records.
// Every function is pure: no I/O, no clock, no configuration.
package normalize

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
	"github.com/vkquanghd/gold-ai-advisor/internal/model"
	"github.com/vkquanghd/gold-ai-advisor/internal/yahoo"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05"
	maxBrandLength  = 24
)

// groupedNumber matches comma thousands separators such as 84,000,000.5.
var groupedNumber = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

var (
	errAmbiguousComma = errors.New("comma is not a thousands separator")
	errNotFinite      = errors.New("not a finite number")
	errNotPositive    = errors.New("must be positive")
	errMissing        = errors.New("missing value")
)

// VnResult is the outcome of normalizing one raw VN batch.
type VnResult struct {
	Quotes []model.VnGoldQuote
	// Flagged counts quotes removed because buy exceeded sell.
	Flagged int
	// Incomplete counts quotes removed because one side had no price.
	Incomplete int
	// Duplicates counts records superseded by a later record with the same key.
	Duplicates int
	Warnings   []string
}

// WorldGold converts a parsed GC=F chart into daily bars. Bars sharing a date
// collapse to the last one.
func WorldGold(chart yahoo.PriceChart, source string) ([]model.WorldGoldDay, error) {
	bars := make([]model.WorldGoldDay, 0, len(chart.Indicators))
	index := map[time.Time]int{}

	for i, ind := range chart.Indicators {
		for _, f := range []struct {
			name  string
			value float64
		}{{"open", ind.PriceOpen}, {"high", ind.PriceHigh}, {"low", ind.PriceLow}, {"close", ind.PriceClose}} {
			if err := checkPrice(f.value); err != nil {
				return nil, &apperrors.ParseError{Field: f.name, Value: formatFloat(f.value), Index: i, Err: err}
			}
		}
		if ind.Volume < 0 {
			return nil, &apperrors.ParseError{Field: "volume", Value: strconv.FormatInt(ind.Volume, 10), Index: i, Err: errNotPositive}
		}

		bar := model.WorldGoldDay{
			Date:   day(ind.Date),
			Open:   ind.PriceOpen,
			High:   ind.PriceHigh,
			Low:    ind.PriceLow,
			Close:  ind.PriceClose,
			Volume: float64(ind.Volume),
			Source: source,
		}
		if j, ok := index[bar.Date]; ok {
			bars[j] = bar
			continue
		}
		index[bar.Date] = len(bars)
		bars = append(bars, bar)
	}
	return bars, nil
}

// UsdVnd converts a parsed VND=X chart into daily rates, using each bar's close.
func UsdVnd(chart yahoo.PriceChart, source string) ([]model.UsdVndRate, error) {
	rates := make([]model.UsdVndRate, 0, len(chart.Indicators))
	index := map[time.Time]int{}

	for i, ind := range chart.Indicators {
		if err := checkPrice(ind.PriceClose); err != nil {
			return nil, &apperrors.ParseError{Field: "close", Value: formatFloat(ind.PriceClose), Index: i, Err: err}
		}
		r := model.UsdVndRate{Date: day(ind.Date), Rate: ind.PriceClose, Source: source}
		if j, ok := index[r.Date]; ok {
			rates[j] = r
			continue
		}
		index[r.Date] = len(rates)
		rates = append(rates, r)
	}
	return rates, nil
}

type vnKey struct {
	brand, location string
	ts              time.Time
}

// VnQuotes converts raw retail quotes. Any unparseable value aborts the whole
// batch with a *apperrors.ParseError. When several records share
// (brand, location, ts) the last one wins and keeps the first one's position.
func VnQuotes(raws []model.RawVnQuote, source string) (VnResult, error) {
	res := VnResult{Quotes: make([]model.VnGoldQuote, 0, len(raws))}
	index := map[vnKey]int{}

	for i, raw := range raws {
		ts, err := Timestamp(raw)
		if err != nil {
			var pe *apperrors.ParseError
			if errors.As(err, &pe) {
				pe.Index = i
			}
			return VnResult{}, err
		}

		buy, buyErr := Price("buy_price", raw.BuyPrice.String(), i)
		sell, sellErr := Price("sell_price", raw.SellPrice.String(), i)
		if err := firstParseError(buyErr, sellErr); err != nil {
			return VnResult{}, err
		}

		brand := Brand(raw.GoldType.String())
		if errors.Is(buyErr, errMissing) || errors.Is(sellErr, errMissing) {
			res.Incomplete++
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("record %d (%s %s): incomplete quote skipped", i, brand, ts.Format(timestampLayout)))
			continue
		}

		q := model.VnGoldQuote{
			Ts:        ts,
			Date:      day(ts),
			Brand:     brand,
			Location:  strings.TrimSpace(raw.Location.String()),
			BuyPrice:  buy,
			SellPrice: sell,
			Source:    source,
		}

		k := vnKey{q.Brand, q.Location, q.Ts}
		if j, ok := index[k]; ok {
			res.Quotes[j] = q
			res.Duplicates++
			continue
		}
		index[k] = len(res.Quotes)
		res.Quotes = append(res.Quotes, q)
	}

	// Flagging runs on the deduplicated batch.
	kept := res.Quotes[:0]
	for _, q := range res.Quotes {
		if q.BuyPrice > q.SellPrice {
			res.Flagged++
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s %s %s: buy %s exceeds sell %s",
				q.Brand, q.Location, q.Ts.Format(timestampLayout), formatFloat(q.BuyPrice), formatFloat(q.SellPrice)))
			continue
		}
		kept = append(kept, q)
	}
	res.Quotes = kept

	return res, nil
}

// Brand maps a free-text gold type onto a canonical brand code.
func Brand(goldType string) string {
	s := strings.ToUpper(strings.TrimSpace(goldType))
	switch {
	case s == "":
		return "UNKNOWN"
	case strings.Contains(s, "SJC"):
		return "SJC"
	case strings.Contains(s, "PNJ"):
		return "PNJ"
	case strings.Contains(s, "DOJI"):
		return "DOJI"
	case strings.Contains(s, "NHẪN"), strings.Contains(s, "NHAN"):
		return "NHAN"
	}
	r := []rune(s)
	if len(r) > maxBrandLength {
		r = r[:maxBrandLength]
	}
	return string(r)
}

// Timestamp resolves a raw quote's instant as naive UTC. The timestamp field wins;
// otherwise date and time (default 00:00:00) are combined.
func Timestamp(raw model.RawVnQuote) (time.Time, error) {
	if s := raw.Timestamp.String(); s != "" {
		if t, ok := parseInstant(s); ok {
			return t, nil
		}
		if raw.Date.String() == "" {
			return time.Time{}, &apperrors.ParseError{Field: "timestamp", Value: s, Index: -1, Err: errors.New("unrecognised timestamp")}
		}
	}

	d := raw.Date.String()
	if d == "" {
		return time.Time{}, &apperrors.ParseError{Field: "date", Value: d, Index: -1, Err: errMissing}
	}
	date, err := time.Parse(dateLayout, d)
	if err != nil {
		return time.Time{}, &apperrors.ParseError{Field: "date", Value: d, Index: -1, Err: err}
	}

	tod := raw.Time.String()
	if tod == "" {
		return date, nil
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if c, err := time.Parse(layout, tod); err == nil {
			return date.Add(time.Duration(c.Hour())*time.Hour +
				time.Duration(c.Minute())*time.Minute +
				time.Duration(c.Second())*time.Second), nil
		}
	}
	return time.Time{}, &apperrors.ParseError{Field: "time", Value: tod, Index: -1, Err: errors.New("unrecognised time of day")}
}

func parseInstant(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC().Truncate(time.Second), true
	}
	for _, layout := range []string{timestampLayout, "2006-01-02 15:04:05", "2006-01-02T15:04:05.999999999", dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Truncate(time.Second), true
		}
	}
	return time.Time{}, false
}

// Price coerces a raw price. Empty input yields an error wrapping errMissing;
// anything else that is not a positive finite number is a ParseError. Commas
// are accepted only as thousands separators; "79,5" is rejected, not read as 795.
func Price(field, value string, index int) (float64, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, errMissing
	}
	if strings.Contains(v, ",") {
		if !groupedNumber.MatchString(v) {
			return 0, &apperrors.ParseError{Field: field, Value: value, Index: index, Err: errAmbiguousComma}
		}
		v = strings.ReplaceAll(v, ",", "")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &apperrors.ParseError{Field: field, Value: value, Index: index, Err: err}
	}
	if err := checkPrice(f); err != nil {
		return 0, &apperrors.ParseError{Field: field, Value: value, Index: index, Err: err}
	}
	return f, nil
}

func checkPrice(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errNotFinite
	}
	if v <= 0 {
		return errNotPositive
	}
	return nil
}

func firstParseError(errs ...error) error {
	for _, err := range errs {
		var pe *apperrors.ParseError
		if errors.As(err, &pe) {
			return err
		}
	}
	return nil
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
