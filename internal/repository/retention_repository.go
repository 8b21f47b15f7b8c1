package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

// entityColumns lists the exported columns of each entity, in table order.
var entityColumns = map[string][]string{
	model.EntityWorldGold: {"date", "open", "high", "low", "close", "volume", "source"},
	model.EntityUsdVnd:    {"date", "rate", "source"},
	model.EntityVnGold:    {"ts", "date", "brand", "location", "buy_price", "sell_price", "source"},
}

// entityOrder keeps archive files in a stable row order.
var entityOrder = map[string]string{
	model.EntityWorldGold: "date",
	model.EntityUsdVnd:    "date",
	model.EntityVnGold:    "date, ts, brand, location",
}

// Predicate is a WHERE clause shared by the select and the delete of one prune,
// so both statements see exactly the same row set.
type Predicate struct {
	where []string
	args  []any
}

// OlderThan selects rows dated strictly before cutoff.
func OlderThan(cutoff time.Time) Predicate {
	return Predicate{where: []string{"date < ?"}, args: []any{FormatDate(cutoff)}}
}

// VnSelection selects VN quotes by brand set and inclusive date range.
func VnSelection(f model.VnDeleteFilter) Predicate {
	where, args := vnFilterWhere(f.Brands, f.StartDate, f.EndDate)
	return Predicate{where: where, args: args}
}

// RetentionRepository reads and deletes rows of any entity for archival.
type RetentionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewRetentionRepository creates a new RetentionRepository with the provided database connection.
func NewRetentionRepository(db *sql.DB) *RetentionRepository {
	return &RetentionRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *RetentionRepository) WithTx(tx *sql.Tx) *RetentionRepository {
	return &RetentionRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *RetentionRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// Columns returns the archive header for entity.
func (r *RetentionRepository) Columns(entity string) ([]string, error) {
	cols, ok := entityColumns[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownEntity, entity)
	}
	return cols, nil
}

// Select returns the rows of entity matching p as text, one slice per row,
// in Columns order.
func (r *RetentionRepository) Select(ctx context.Context, entity string, p Predicate) ([][]string, error) {
	cols, err := r.Columns(entity)
	if err != nil {
		return nil, err
	}

	//#nosec G202 -- Safe: table and columns come from a fixed whitelist
	query := `SELECT ` + strings.Join(cols, ", ") + ` FROM ` + entity + whereClause(p.where) +
		` ORDER BY ` + entityOrder[entity]

	rows, err := r.getQuerier().QueryContext(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s table: %w", entity, err)
	}
	defer rows.Close()

	out := [][]string{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s table results: %w", entity, err)
		}
		record := make([]string, len(cols))
		for i, v := range values {
			record[i] = stringify(v)
		}
		out = append(out, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s table: %w", entity, err)
	}
	return out, nil
}

// Delete removes the rows of entity matching p and returns how many were deleted.
func (r *RetentionRepository) Delete(ctx context.Context, entity string, p Predicate) (int, error) {
	if _, err := r.Columns(entity); err != nil {
		return 0, err
	}

	//#nosec G202 -- Safe: table name comes from a fixed whitelist
	query := `DELETE FROM ` + entity + whereClause(p.where)

	res, err := r.getQuerier().ExecContext(ctx, query, p.args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s table: %w", entity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted row count: %w", err)
	}
	return int(n), nil
}

// LatestDate returns the newest stored date of entity, or nil when it is empty.
func (r *RetentionRepository) LatestDate(ctx context.Context, entity string) (*time.Time, error) {
	if _, err := r.Columns(entity); err != nil {
		return nil, err
	}
	c, err := coverage(ctx, r.getQuerier(), entity)
	if err != nil {
		return nil, err
	}
	return c.MaxDate, nil
}
