package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

// Storage layouts for TEXT date columns.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02T15:04:05"
)

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ParseTime parses a date string in "2006-01-02", "2006-01-02T15:04:05" or RFC3339 format.
func ParseTime(str string) (time.Time, error) {
	for _, layout := range []string{DateLayout, TimestampLayout, time.RFC3339} {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse date: %q", str)
}

// FormatDate renders t as a stored date.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// FormatTimestamp renders t as a stored naive UTC timestamp.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func placeholders(n int) string {
	p := make([]string, n)
	for i := range p {
		p[i] = "?"
	}
	return strings.Join(p, ",")
}

// escapeLike escapes LIKE wildcards in user input; queries use ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// stringify renders a scanned column value for CSV export.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case []byte:
		return string(val)
	case string:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}

// coverage reads min/max date, row count and distinct date count of table.
// table must come from model.Entities.
func coverage(ctx context.Context, q querier, table string) (model.Coverage, error) {
	//#nosec G202 -- Safe: table name comes from a fixed whitelist
	query := `SELECT MIN(date), MAX(date), COUNT(*), COUNT(DISTINCT date) FROM ` + table

	var minDate, maxDate sql.NullString
	c := model.Coverage{Entity: table}
	if err := q.QueryRowContext(ctx, query).Scan(&minDate, &maxDate, &c.Rows, &c.DistinctDates); err != nil {
		return model.Coverage{}, fmt.Errorf("failed to query %s coverage: %w", table, err)
	}

	if minDate.Valid {
		t, err := ParseTime(minDate.String)
		if err != nil {
			return model.Coverage{}, err
		}
		c.MinDate = &t
	}
	if maxDate.Valid {
		t, err := ParseTime(maxDate.String)
		if err != nil {
			return model.Coverage{}, err
		}
		c.MaxDate = &t
	}
	return c, nil
}

// dateRange appends a [start, end] filter on the date column.
func dateRange(where []string, args []any, start, end *time.Time) ([]string, []any) {
	if start != nil {
		where = append(where, "date >= ?")
		args = append(args, FormatDate(*start))
	}
	if end != nil {
		where = append(where, "date <= ?")
		args = append(args, FormatDate(*end))
	}
	return where, args
}

func whereClause(where []string) string {
	if len(where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(where, " AND ")
}

// fillSource tags a copied row's source, e.g. "yfinance" -> "yfinance+ffill".
func fillSource(prev string) string {
	if strings.HasSuffix(prev, model.ForwardFillSuffix) {
		return prev
	}
	return strings.TrimPrefix(prev+model.ForwardFillSuffix, "+")
}
