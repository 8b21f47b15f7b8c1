package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

// UsdVndRepository provides data access methods for the usd_vnd table.
type UsdVndRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewUsdVndRepository creates a new UsdVndRepository with the provided database connection.
func NewUsdVndRepository(db *sql.DB) *UsdVndRepository {
	return &UsdVndRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *UsdVndRepository) WithTx(tx *sql.Tx) *UsdVndRepository {
	return &UsdVndRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *UsdVndRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// Upsert writes rates keyed by date, overwriting existing dates.
func (r *UsdVndRepository) Upsert(ctx context.Context, rates []model.UsdVndRate) (model.WriteCounts, error) {
	q := r.getQuerier()
	counts := model.WriteCounts{}

	for _, rate := range rates {
		date := FormatDate(rate.Date)

		var exists int
		err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM usd_vnd WHERE date = ?`, date).Scan(&exists)
		if err != nil {
			return model.WriteCounts{}, fmt.Errorf("failed to query usd_vnd table: %w", err)
		}

		_, err = q.ExecContext(ctx, `
			INSERT INTO usd_vnd (date, rate, source)
			VALUES (?, ?, ?)
			ON CONFLICT(date) DO UPDATE SET
				rate = excluded.rate,
				source = excluded.source
		`, date, rate.Rate, rate.Source)
		if err != nil {
			return model.WriteCounts{}, fmt.Errorf("failed to upsert usd_vnd %s: %w", date, err)
		}

		if exists > 0 {
			counts.Updated++
		} else {
			counts.Inserted++
		}
	}

	return counts, nil
}

// GetRange returns rates between start and end inclusive, oldest first.
func (r *UsdVndRepository) GetRange(ctx context.Context, start, end *time.Time) ([]model.UsdVndRate, error) {
	where, args := dateRange(nil, nil, start, end)

	//#nosec G202 -- Safe: where clause is built from fixed fragments
	query := `SELECT date, rate, source FROM usd_vnd` + whereClause(where) + ` ORDER BY date ASC`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usd_vnd table: %w", err)
	}
	defer rows.Close()

	rates := []model.UsdVndRate{}
	for rows.Next() {
		var (
			rate    model.UsdVndRate
			dateStr string
			source  sql.NullString
		)
		if err := rows.Scan(&dateStr, &rate.Rate, &source); err != nil {
			return nil, fmt.Errorf("failed to scan usd_vnd table results: %w", err)
		}
		if rate.Date, err = ParseTime(dateStr); err != nil {
			return nil, err
		}
		rate.Source = source.String
		rates = append(rates, rate)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usd_vnd table: %w", err)
	}

	return rates, nil
}

// Coverage returns the stored date span of usd_vnd.
func (r *UsdVndRepository) Coverage(ctx context.Context) (model.Coverage, error) {
	return coverage(ctx, r.getQuerier(), model.EntityUsdVnd)
}

// ForwardFill copies the previous rate onto missing days between start and end.
// See WorldGoldRepository.ForwardFill.
func (r *UsdVndRepository) ForwardFill(ctx context.Context, start, end time.Time) (int, error) {
	rates, err := r.GetRange(ctx, nil, &end)
	if err != nil {
		return 0, err
	}

	q := r.getQuerier()
	created := 0
	for i := 1; i < len(rates); i++ {
		prev := rates[i-1]
		for d := prev.Date.AddDate(0, 0, 1); d.Before(rates[i].Date); d = d.AddDate(0, 0, 1) {
			if d.Before(start) {
				continue
			}
			res, err := q.ExecContext(ctx, `
				INSERT INTO usd_vnd (date, rate, source)
				VALUES (?, ?, ?)
				ON CONFLICT(date) DO NOTHING
			`, FormatDate(d), prev.Rate, fillSource(prev.Source))
			if err != nil {
				return 0, fmt.Errorf("failed to forward-fill usd_vnd: %w", err)
			}
			n, _ := res.RowsAffected()
			created += int(n)
		}
	}
	return created, nil
}
