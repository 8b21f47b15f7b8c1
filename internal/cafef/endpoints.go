package cafef

import (
	"fmt"
	"strings"
)

// DefaultBaseURL is the CafeF host serving the retail gold AJAX handlers.
const DefaultBaseURL = "https://cafef.vn"

// Endpoint is one CafeF handler to scrape.
type Endpoint struct {
	Name string
	URL  string
}

// historyWindows are the range codes the history handlers accept, smallest first.
var historyWindows = []struct {
	code string
	days int
}{
	{"1m", 31},
	{"3m", 92},
	{"6m", 183},
	{"1y", 366},
	{"2y", 731},
}

// DefaultEndpoints returns the built-in handler set covering the last days days:
// brand history, ring gold history, and the two current price boards.
func DefaultEndpoints(baseURL string, days int) []Endpoint {
	base := strings.TrimRight(baseURL, "/")
	code := historyWindows[len(historyWindows)-1].code
	for _, w := range historyWindows {
		if days <= w.days {
			code = w.code
			break
		}
	}

	return []Endpoint{
		{Name: "history_" + code, URL: base + "/du-lieu/Ajax/ajaxgoldpricehistory.ashx?index=" + code},
		{Name: "ring_" + code, URL: base + "/du-lieu/Ajax/AjaxGoldPriceRing.ashx?time=" + code + "&zone=11"},
		{Name: "current_11", URL: base + "/du-lieu/Ajax/ajaxgoldprice.ashx?index=11"},
		{Name: "current_12", URL: base + "/du-lieu/Ajax/ajaxgoldprice.ashx?index=12"},
	}
}

// ParseEndpoints reads "name=url" pairs. A bare URL is named after its position.
func ParseEndpoints(specs []string) ([]Endpoint, error) {
	out := make([]Endpoint, 0, len(specs))
	for i, s := range specs {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		name, u, ok := strings.Cut(s, "=")
		if !ok || strings.Contains(name, "/") {
			name, u = fmt.Sprintf("endpoint_%d", i+1), s
		}
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return nil, fmt.Errorf("invalid endpoint %q: url must be absolute", s)
		}
		out = append(out, Endpoint{Name: strings.TrimSpace(name), URL: strings.TrimSpace(u)})
	}
	return out, nil
}
