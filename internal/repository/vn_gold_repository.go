package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

// VnGoldRepository provides data access methods for the vn_gold table.
// Quotes are keyed by (brand, location, ts).
type VnGoldRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewVnGoldRepository creates a new VnGoldRepository with the provided database connection.
func NewVnGoldRepository(db *sql.DB) *VnGoldRepository {
	return &VnGoldRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *VnGoldRepository) WithTx(tx *sql.Tx) *VnGoldRepository {
	return &VnGoldRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *VnGoldRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const vnGoldColumns = `ts, date, brand, location, buy_price, sell_price, source`

// Upsert writes quotes keyed by (brand, location, ts); a repeated key replaces the stored quote.
func (r *VnGoldRepository) Upsert(ctx context.Context, quotes []model.VnGoldQuote) (model.WriteCounts, error) {
	q := r.getQuerier()
	counts := model.WriteCounts{}

	for _, v := range quotes {
		ts := FormatTimestamp(v.Ts)

		var exists int
		err := q.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM vn_gold WHERE brand = ? AND location = ? AND ts = ?`,
			v.Brand, v.Location, ts,
		).Scan(&exists)
		if err != nil {
			return model.WriteCounts{}, fmt.Errorf("failed to query vn_gold table: %w", err)
		}

		_, err = q.ExecContext(ctx, `
			INSERT INTO vn_gold (ts, date, brand, location, buy_price, sell_price, source)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(brand, location, ts) DO UPDATE SET
				date = excluded.date,
				buy_price = excluded.buy_price,
				sell_price = excluded.sell_price,
				source = excluded.source
		`, ts, FormatDate(v.Date), v.Brand, v.Location, v.BuyPrice, v.SellPrice, v.Source)
		if err != nil {
			return model.WriteCounts{}, fmt.Errorf("failed to upsert vn_gold %s/%s: %w", v.Brand, ts, err)
		}

		if exists > 0 {
			counts.Updated++
		} else {
			counts.Inserted++
		}
	}

	return counts, nil
}

// Get returns the quote stored under the natural key.
func (r *VnGoldRepository) Get(ctx context.Context, brand, location string, ts time.Time) (model.VnGoldQuote, error) {
	rows, err := r.getQuerier().QueryContext(ctx,
		`SELECT `+vnGoldColumns+` FROM vn_gold WHERE brand = ? AND location = ? AND ts = ?`,
		brand, location, FormatTimestamp(ts),
	)
	if err != nil {
		return model.VnGoldQuote{}, fmt.Errorf("failed to query vn_gold table: %w", err)
	}
	defer rows.Close()

	quotes, err := scanVnQuotes(rows)
	if err != nil {
		return model.VnGoldQuote{}, err
	}
	if len(quotes) == 0 {
		return model.VnGoldQuote{}, sql.ErrNoRows
	}
	return quotes[0], nil
}

// List returns one page of quotes matching filter.
// The caller is expected to have validated SortBy against model.VnQuoteSortColumns.
func (r *VnGoldRepository) List(ctx context.Context, filter model.VnQuoteFilter) (model.VnQuotePage, error) {
	where, args := vnFilterWhere(filter.Brands, filter.StartDate, filter.EndDate)

	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + escapeLike(s) + "%"
		where = append(where, `(brand LIKE ? ESCAPE '\' OR source LIKE ? ESCAPE '\' OR location LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}

	q := r.getQuerier()

	var total int
	//#nosec G202 -- Safe: where clause is built from fixed fragments
	countQuery := `SELECT COUNT(*) FROM vn_gold` + whereClause(where)
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return model.VnQuotePage{}, fmt.Errorf("failed to count vn_gold table: %w", err)
	}

	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 50
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}

	//#nosec G202 -- Safe: order clause comes from a whitelist
	query := `SELECT ` + vnGoldColumns + ` FROM vn_gold` + whereClause(where) +
		` ORDER BY ` + vnOrderClause(filter.SortBy, filter.SortDir) + ` LIMIT ? OFFSET ?`
	args = append(args, perPage, (page-1)*perPage)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return model.VnQuotePage{}, fmt.Errorf("failed to query vn_gold table: %w", err)
	}
	defer rows.Close()

	items, err := scanVnQuotes(rows)
	if err != nil {
		return model.VnQuotePage{}, err
	}

	return model.VnQuotePage{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// GetRange returns quotes for the given brands (all when empty) between start and end, oldest first.
func (r *VnGoldRepository) GetRange(ctx context.Context, brands []string, start, end *time.Time) ([]model.VnGoldQuote, error) {
	where, args := vnFilterWhere(brands, start, end)

	//#nosec G202 -- Safe: where clause is built from fixed fragments
	query := `SELECT ` + vnGoldColumns + ` FROM vn_gold` + whereClause(where) +
		` ORDER BY date ASC, ts ASC, brand ASC, location ASC`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vn_gold table: %w", err)
	}
	defer rows.Close()

	return scanVnQuotes(rows)
}

// Brands returns the distinct brands stored, alphabetically.
func (r *VnGoldRepository) Brands(ctx context.Context) ([]string, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `SELECT DISTINCT brand FROM vn_gold ORDER BY brand`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vn_gold brands: %w", err)
	}
	defer rows.Close()

	brands := []string{}
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("failed to scan vn_gold brands: %w", err)
		}
		brands = append(brands, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vn_gold brands: %w", err)
	}
	return brands, nil
}

// Coverage returns the stored date span of vn_gold.
func (r *VnGoldRepository) Coverage(ctx context.Context) (model.Coverage, error) {
	return coverage(ctx, r.getQuerier(), model.EntityVnGold)
}

// ForwardFill inserts, per brand and location, a copy of the latest quote of the
// previous day onto every missing day between start and end, including the days
// after a series stops short of end. Filled rows get the timestamp
// <date>T12:00:<n> with n the series index, and a "+ffill" source.
func (r *VnGoldRepository) ForwardFill(ctx context.Context, start, end time.Time) (int, error) {
	q := r.getQuerier()

	series, err := r.series(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for i, s := range series {
		// Latest quote per day for this series, up to end.
		rows, err := q.QueryContext(ctx, `
			SELECT v.`+strings.ReplaceAll(vnGoldColumns, ", ", ", v.")+`
			FROM vn_gold v
			JOIN (
				SELECT date, MAX(ts) AS ts
				FROM vn_gold
				WHERE brand = ? AND location = ? AND date <= ?
				GROUP BY date
			) t ON v.date = t.date AND v.ts = t.ts
			WHERE v.brand = ? AND v.location = ?
			ORDER BY v.date ASC
		`, s[0], s[1], FormatDate(end), s[0], s[1])
		if err != nil {
			return 0, fmt.Errorf("failed to query vn_gold series: %w", err)
		}
		daily, err := scanVnQuotes(rows)
		rows.Close()
		if err != nil {
			return 0, err
		}

		if len(daily) == 0 {
			continue
		}
		// A sentinel past end makes the trailing gap one more gap.
		stop := model.VnGoldQuote{Date: end.AddDate(0, 0, 1)}
		daily = append(daily, stop)

		for j := 1; j < len(daily); j++ {
			prev := daily[j-1]
			for d := prev.Date.AddDate(0, 0, 1); d.Before(daily[j].Date); d = d.AddDate(0, 0, 1) {
				if d.Before(start) {
					continue
				}
				ts := fmt.Sprintf("%sT12:00:%02d", FormatDate(d), i%60)
				res, err := q.ExecContext(ctx, `
					INSERT INTO vn_gold (ts, date, brand, location, buy_price, sell_price, source)
					VALUES (?, ?, ?, ?, ?, ?, ?)
					ON CONFLICT(brand, location, ts) DO NOTHING
				`, ts, FormatDate(d), prev.Brand, prev.Location, prev.BuyPrice, prev.SellPrice, fillSource(prev.Source))
				if err != nil {
					return 0, fmt.Errorf("failed to forward-fill vn_gold: %w", err)
				}
				n, _ := res.RowsAffected()
				created += int(n)
			}
		}
	}
	return created, nil
}

// series lists distinct (brand, location) pairs.
func (r *VnGoldRepository) series(ctx context.Context) ([][2]string, error) {
	rows, err := r.getQuerier().QueryContext(ctx,
		`SELECT DISTINCT brand, location FROM vn_gold ORDER BY brand, location`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vn_gold series: %w", err)
	}
	defer rows.Close()

	var out [][2]string
	for rows.Next() {
		var s [2]string
		if err := rows.Scan(&s[0], &s[1]); err != nil {
			return nil, fmt.Errorf("failed to scan vn_gold series: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func vnFilterWhere(brands []string, start, end *time.Time) ([]string, []any) {
	var where []string
	var args []any

	if len(brands) > 0 {
		//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
		where = append(where, `brand IN (`+placeholders(len(brands))+`)`)
		for _, b := range brands {
			args = append(args, b)
		}
	}
	return dateRange(where, args, start, end)
}

func vnOrderClause(sortBy, sortDir string) string {
	dir := "DESC"
	if strings.EqualFold(sortDir, "asc") {
		dir = "ASC"
	}

	col, ok := model.VnQuoteSortColumns[sortBy]
	if !ok || sortBy == "date" {
		return "date " + dir + ", ts " + dir + ", brand ASC, location ASC"
	}
	return col + " " + dir + ", date DESC, ts DESC, brand ASC, location ASC"
}

func scanVnQuotes(rows *sql.Rows) ([]model.VnGoldQuote, error) {
	quotes := []model.VnGoldQuote{}
	for rows.Next() {
		var (
			v             model.VnGoldQuote
			tsStr, dayStr string
			buy, sell     sql.NullFloat64
			source        sql.NullString
		)
		if err := rows.Scan(&tsStr, &dayStr, &v.Brand, &v.Location, &buy, &sell, &source); err != nil {
			return nil, fmt.Errorf("failed to scan vn_gold table results: %w", err)
		}
		var err error
		if v.Ts, err = ParseTime(tsStr); err != nil {
			return nil, err
		}
		if v.Date, err = ParseTime(dayStr); err != nil {
			return nil, err
		}
		v.BuyPrice = buy.Float64
		v.SellPrice = sell.Float64
		v.Source = source.String
		quotes = append(quotes, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vn_gold table: %w", err)
	}
	return quotes, nil
}
