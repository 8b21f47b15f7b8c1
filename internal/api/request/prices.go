package request

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

// Paging bounds accepted on VN quote listings.
const (
	DefaultPerPage = 50
	MaxPerPage     = 500
)

// CreateVnQuoteRequest represents the request body for entering one VN quote by hand.
// Ts accepts RFC3339, "YYYY-MM-DDTHH:MM:SS" (UTC) or a bare date.
type CreateVnQuoteRequest struct {
	Ts        string  `json:"ts"`
	Brand     string  `json:"brand"`
	Location  string  `json:"location,omitempty"`
	BuyPrice  float64 `json:"buyPrice"`
	SellPrice float64 `json:"sellPrice"`
	Source    string  `json:"source,omitempty"`
}

// DeleteVnRangeRequest represents the request body for an archived delete of VN quotes.
type DeleteVnRangeRequest struct {
	Brands    []string `json:"brands,omitempty"`
	StartDate string   `json:"startDate,omitempty"`
	EndDate   string   `json:"endDate,omitempty"`
}

// ParseDateRange parses optional start_date and end_date parameters.
// Either may be empty; when both are set start must not be after end.
func ParseDateRange(startParam, endParam string) (start, end *time.Time, err error) {
	if startParam != "" {
		t, err := ParseDate(startParam)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid start_date format: %w", err)
		}
		start = &t
	}
	if endParam != "" {
		t, err := ParseDate(endParam)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid end_date format: %w", err)
		}
		end = &t
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, nil, fmt.Errorf("start_date %s is after end_date %s", startParam, endParam)
	}
	return start, end, nil
}

// ParseDate parses a YYYY-MM-DD or RFC3339 value and truncates it to a UTC date.
func ParseDate(str string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05.000Z07:00"} {
		if t, err := time.Parse(layout, str); err == nil {
			t = t.UTC()
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date", str)
}

// ParseTimestamp parses a quote timestamp. Values without an offset are UTC.
func ParseTimestamp(str string) (time.Time, error) {
	str = strings.TrimSpace(str)
	if t, err := time.Parse(time.RFC3339, str); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, str, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a timestamp", str)
}

// ParseVnFilters extracts and validates VN quote filters from query parameters.
//
// Validation rules:
//   - brands: comma-separated, upper-cased, empty entries dropped
//   - start_date/end_date: YYYY-MM-DD or RFC3339, start not after end
//   - sort_by: one of model.VnQuoteSortColumns (defaults to "ts")
//   - sort_dir: "asc" or "desc" (defaults to "desc")
//   - page: positive (defaults to 1)
//   - per_page: between 1 and 500 (defaults to 50)
//
//nolint:gocyclo // Sequential parameter checks, clearer inline
func ParseVnFilters(
	brandsParam, startDateParam, endDateParam, searchParam,
	sortByParam, sortDirParam, pageParam, perPageParam string,
) (model.VnQuoteFilter, error) {
	filter := model.VnQuoteFilter{
		Search:  strings.TrimSpace(searchParam),
		SortBy:  "ts",
		SortDir: "desc",
		Page:    1,
		PerPage: DefaultPerPage,
	}

	for _, b := range strings.Split(brandsParam, ",") {
		if b = strings.ToUpper(strings.TrimSpace(b)); b != "" {
			filter.Brands = append(filter.Brands, b)
		}
	}

	start, end, err := ParseDateRange(startDateParam, endDateParam)
	if err != nil {
		return model.VnQuoteFilter{}, err
	}
	filter.StartDate, filter.EndDate = start, end

	if sortByParam != "" {
		sortBy := strings.ToLower(sortByParam)
		if _, ok := model.VnQuoteSortColumns[sortBy]; !ok {
			return model.VnQuoteFilter{}, fmt.Errorf("invalid sort_by: %s", sortByParam)
		}
		filter.SortBy = sortBy
	}

	if sortDirParam != "" {
		sortDir := strings.ToLower(sortDirParam)
		if sortDir != "asc" && sortDir != "desc" {
			return model.VnQuoteFilter{}, fmt.Errorf("invalid sort_dir: must be 'asc' or 'desc'")
		}
		filter.SortDir = sortDir
	}

	if pageParam != "" {
		page, err := strconv.Atoi(pageParam)
		if err != nil || page < 1 {
			return model.VnQuoteFilter{}, fmt.Errorf("invalid page: must be a positive number")
		}
		filter.Page = page
	}

	if perPageParam != "" {
		perPage, err := strconv.Atoi(perPageParam)
		if err != nil {
			return model.VnQuoteFilter{}, fmt.Errorf("invalid per_page: must be a number")
		}
		if perPage < 1 || perPage > MaxPerPage {
			return model.VnQuoteFilter{}, fmt.Errorf("invalid per_page: must be between 1 and %d", MaxPerPage)
		}
		filter.PerPage = perPage
	}

	return filter, nil
}
