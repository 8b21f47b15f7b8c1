package cafef

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

// ErrNoJSON is returned when a response body holds no extractable quote list.
var ErrNoJSON = errors.New("no extractable JSON")

var (
	embeddedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)data\s*[:=]\s*(\[.*?\])`),
		regexp.MustCompile(`(?s)result\s*[:=]\s*(\[.*?\])`),
		regexp.MustCompile(`(?s)(\[.*?\])`),
		regexp.MustCompile(`(?s)(\{.*?\})`),
	}
	dotNetDate = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)
	usDate     = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
)

// Field aliases seen across the CafeF handlers, in lookup order.
var (
	dateKeys     = []string{"createdAt", "lastUpdated", "Date", "CreatedAt", "Time", "timestamp"}
	buyKeys      = []string{"buyPrice", "BuyPrice", "GiaMua", "Buy", "mua"}
	sellKeys     = []string{"sellPrice", "SellPrice", "GiaBan", "Sell", "ban"}
	brandKeys    = []string{"name", "brand", "Brand", "type"}
	locationKeys = []string{"zone", "location", "branch"}
)

// millionScaleBelow marks prices quoted in millions of VND.
var (
	millionScaleBelow = decimal.NewFromInt(200_000)
	million           = decimal.NewFromInt(1_000_000)
)

// Extract returns the quote objects found in a handler response. The body may be
// JSON (a list, an object wrapping the list) or HTML/JS with JSON embedded.
func Extract(body []byte) ([]map[string]any, error) {
	body = bytes.TrimSpace(bytes.TrimPrefix(body, []byte("\xef\xbb\xbf")))

	if v, err := decode(body); err == nil {
		if items := candidates(v); len(items) > 0 {
			return items, nil
		}
		return nil, ErrNoJSON
	}

	for _, re := range embeddedPatterns {
		for _, m := range re.FindAllSubmatch(body, -1) {
			v, err := decode(m[1])
			if err != nil {
				continue
			}
			if items := candidates(v); len(items) > 0 {
				return items, nil
			}
		}
	}
	return nil, ErrNoJSON
}

func decode(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data")
	}
	return v, nil
}

// candidates finds the quote list inside a decoded value: Data.goldPriceWorldHistories,
// goldPriceWorldHistories, then the first list of objects under any key. A list whose
// elements carry prices is taken as is; other lists are searched element by element.
func candidates(v any) []map[string]any {
	switch val := v.(type) {
	case []any:
		objs := objects(val)
		if len(objs) > 0 && hasPrice(objs[0]) {
			return objs
		}
		var out []map[string]any
		for _, o := range objs {
			out = append(out, candidates(o)...)
		}
		return out
	case map[string]any:
		if data, ok := val["Data"].(map[string]any); ok {
			if list, ok := data["goldPriceWorldHistories"].([]any); ok && len(list) > 0 {
				return objects(list)
			}
		}
		if list, ok := val["goldPriceWorldHistories"].([]any); ok && len(list) > 0 {
			return objects(list)
		}
		if hasPrice(val) {
			return []map[string]any{val}
		}
		for _, k := range sortedKeys(val) {
			if list, ok := val[k].([]any); ok {
				if objs := objects(list); len(objs) > 0 {
					return objs
				}
			}
			if nested, ok := val[k].(map[string]any); ok {
				if objs := candidates(nested); len(objs) > 0 {
					return objs
				}
			}
		}
	}
	return nil
}

func objects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, e := range list {
		if m, ok := e.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func hasPrice(m map[string]any) bool {
	_, buy := lookup(m, buyKeys)
	_, sell := lookup(m, sellKeys)
	return buy || sell
}

// sortedKeys keeps the "first list under any key" rule deterministic.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lookup(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, _ := json.Marshal(val)
		return string(b)
	}
}

// toRaw maps one quote object to a raw record. ok is false for objects that carry
// no date or no price at all. Values that cannot be interpreted are kept verbatim
// so the import stage rejects them explicitly.
func toRaw(item map[string]any, endpoint string) (model.RawVnQuote, bool) {
	dateVal, hasDate := lookup(item, dateKeys)
	if !hasDate || !hasPrice(item) {
		return model.RawVnQuote{}, false
	}

	raw := model.RawVnQuote{Endpoint: endpoint}

	if ts, ok := parseDate(dateVal); ok {
		raw.Date = model.RawValue(ts.Format("2006-01-02"))
		raw.Time = model.RawValue(ts.Format("15:04:05"))
		raw.Timestamp = model.RawValue(ts.Format("2006-01-02T15:04:05"))
	} else {
		raw.Date = model.RawValue(text(dateVal))
	}

	if v, ok := lookup(item, brandKeys); ok {
		raw.GoldType = model.RawValue(text(v))
	}
	if v, ok := lookup(item, locationKeys); ok {
		raw.Location = model.RawValue(text(v))
	}

	buy, _ := lookup(item, buyKeys)
	sell, _ := lookup(item, sellKeys)
	b, s := text(buy), text(sell)
	if scaleToVND(b, s) {
		b, s = timesMillion(b), timesMillion(s)
	}
	raw.BuyPrice = model.RawValue(b)
	raw.SellPrice = model.RawValue(s)

	return raw, true
}

// scaleToVND reports whether the pair is quoted in millions of VND. The buy side
// decides, or the sell side when buy is absent.
func scaleToVND(buy, sell string) bool {
	ref := buy
	if ref == "" {
		ref = sell
	}
	d, err := decimal.NewFromString(ref)
	if err != nil {
		return false
	}
	return d.IsPositive() && d.LessThan(millionScaleBelow)
}

func timesMillion(s string) string {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.Mul(million).String()
}

// parseDate accepts ISO 8601, "2006-01-02 15:04:05", "2006-01-02", "01/02/2006",
// .NET "/Date(ms)/" and epoch seconds or milliseconds. Results are naive UTC.
func parseDate(v any) (time.Time, bool) {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return epoch(n), true
		}
		if f, err := val.Float64(); err == nil {
			return epoch(int64(f)), true
		}
		return time.Time{}, false
	case string:
		s := strings.TrimSpace(val)
		if m := dotNetDate.FindStringSubmatch(s); m != nil {
			ms, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				return time.Time{}, false
			}
			return time.UnixMilli(ms).UTC(), true
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC().Truncate(time.Second), true
		}
		for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Truncate(time.Second), true
			}
		}
		if usDate.MatchString(s) {
			if t, err := time.Parse("1/2/2006", s); err == nil {
				return t, true
			}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return epoch(n), true
		}
	}
	return time.Time{}, false
}

func epoch(n int64) time.Time {
	if n > 1_000_000_000_000 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
