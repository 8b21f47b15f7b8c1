package model

import "time"

// VnQuoteFilter selects a page of VN quotes. Nil dates leave the range open.
type VnQuoteFilter struct {
	Brands    []string
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
	SortBy    string
	SortDir   string
	Page      int
	PerPage   int
}

// VnQuoteSortColumns maps accepted sort keys to their ORDER BY expression.
var VnQuoteSortColumns = map[string]string{
	"ts":       "ts",
	"date":     "date",
	"brand":    "brand",
	"location": "location",
	"buy":      "buy_price",
	"sell":     "sell_price",
	"source":   "source",
}

// VnQuotePage is one page of VN quotes plus paging metadata.
type VnQuotePage struct {
	Items      []VnGoldQuote `json:"items"`
	Page       int           `json:"page"`
	PerPage    int           `json:"perPage"`
	Total      int           `json:"total"`
	TotalPages int           `json:"totalPages"`
}

// VnDeleteFilter selects VN quotes for an archived delete.
// At least one bound must be set; Brands narrows the selection.
type VnDeleteFilter struct {
	Brands    []string   `json:"brands"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
}

// Coverage summarizes what a table currently holds.
type Coverage struct {
	Entity        string     `json:"entity"`
	MinDate       *time.Time `json:"minDate"`
	MaxDate       *time.Time `json:"maxDate"`
	Rows          int        `json:"rows"`
	DistinctDates int        `json:"distinctDates"`
}
