package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

// WorldGoldRepository provides data access methods for the world_gold table.
// It handles upserting daily OHLCV bars and reading them back by date range.
type WorldGoldRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewWorldGoldRepository creates a new WorldGoldRepository with the provided database connection.
func NewWorldGoldRepository(db *sql.DB) *WorldGoldRepository {
	return &WorldGoldRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *WorldGoldRepository) WithTx(tx *sql.Tx) *WorldGoldRepository {
	return &WorldGoldRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *WorldGoldRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// Upsert writes bars keyed by date. An existing date is overwritten with the new
// values (last write wins). Call it inside a transaction to make the batch atomic.
func (r *WorldGoldRepository) Upsert(ctx context.Context, bars []model.WorldGoldDay) (model.WriteCounts, error) {
	q := r.getQuerier()
	counts := model.WriteCounts{}

	for _, b := range bars {
		date := FormatDate(b.Date)

		var exists int
		err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM world_gold WHERE date = ?`, date).Scan(&exists)
		if err != nil {
			return model.WriteCounts{}, fmt.Errorf("failed to query world_gold table: %w", err)
		}

		_, err = q.ExecContext(ctx, `
			INSERT INTO world_gold (date, open, high, low, close, volume, source)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(date) DO UPDATE SET
				open = excluded.open,
				high = excluded.high,
				low = excluded.low,
				close = excluded.close,
				volume = excluded.volume,
				source = excluded.source
		`, date, b.Open, b.High, b.Low, b.Close, b.Volume, b.Source)
		if err != nil {
			return model.WriteCounts{}, fmt.Errorf("failed to upsert world_gold %s: %w", date, err)
		}

		if exists > 0 {
			counts.Updated++
		} else {
			counts.Inserted++
		}
	}

	return counts, nil
}

// GetRange returns bars between start and end inclusive, oldest first.
// Nil bounds leave that side open.
func (r *WorldGoldRepository) GetRange(ctx context.Context, start, end *time.Time) ([]model.WorldGoldDay, error) {
	where, args := dateRange(nil, nil, start, end)

	//#nosec G202 -- Safe: where clause is built from fixed fragments
	query := `SELECT date, open, high, low, close, volume, source FROM world_gold` +
		whereClause(where) + ` ORDER BY date ASC`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query world_gold table: %w", err)
	}
	defer rows.Close()

	bars := []model.WorldGoldDay{}
	for rows.Next() {
		var (
			b       model.WorldGoldDay
			dateStr string
			volume  sql.NullFloat64
			source  sql.NullString
		)
		if err := rows.Scan(&dateStr, &b.Open, &b.High, &b.Low, &b.Close, &volume, &source); err != nil {
			return nil, fmt.Errorf("failed to scan world_gold table results: %w", err)
		}
		if b.Date, err = ParseTime(dateStr); err != nil {
			return nil, err
		}
		b.Volume = volume.Float64
		b.Source = source.String
		bars = append(bars, b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating world_gold table: %w", err)
	}

	return bars, nil
}

// Coverage returns the stored date span of world_gold.
func (r *WorldGoldRepository) Coverage(ctx context.Context) (model.Coverage, error) {
	return coverage(ctx, r.getQuerier(), model.EntityWorldGold)
}

// ForwardFill copies the previous bar onto every missing calendar day between
// start and end. Days after the newest stored bar are left alone. Synthesized
// rows carry the source suffix "+ffill" and never replace a real observation.
// Returns the number of rows created.
func (r *WorldGoldRepository) ForwardFill(ctx context.Context, start, end time.Time) (int, error) {
	// The bar before start seeds the first gap.
	bars, err := r.GetRange(ctx, nil, &end)
	if err != nil {
		return 0, err
	}

	var fills []model.WorldGoldDay
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1]
		for d := prev.Date.AddDate(0, 0, 1); d.Before(bars[i].Date); d = d.AddDate(0, 0, 1) {
			if d.Before(start) {
				continue
			}
			fill := prev
			fill.Date = d
			fill.Volume = 0
			fill.Source = fillSource(prev.Source)
			fills = append(fills, fill)
		}
	}

	q := r.getQuerier()
	created := 0
	for _, f := range fills {
		res, err := q.ExecContext(ctx, `
			INSERT INTO world_gold (date, open, high, low, close, volume, source)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(date) DO NOTHING
		`, FormatDate(f.Date), f.Open, f.High, f.Low, f.Close, f.Volume, f.Source)
		if err != nil {
			return 0, fmt.Errorf("failed to forward-fill world_gold: %w", err)
		}
		n, _ := res.RowsAffected()
		created += int(n)
	}
	return created, nil
}
