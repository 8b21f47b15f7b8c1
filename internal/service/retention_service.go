package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
	"github.com/vkquanghd/gold-ai-advisor/internal/archive"
	"github.com/vkquanghd/gold-ai-advisor/internal/config"
	"github.com/vkquanghd/gold-ai-advisor/internal/model"
	"github.com/vkquanghd/gold-ai-advisor/internal/repository"
)

// RetentionService keeps each table inside a rolling window of calendar days.
// Rows leaving the window are written to a CSV archive before they are deleted.
type RetentionService struct {
	db            *sql.DB
	retentionRepo *repository.RetentionRepository
	archiver      *archive.Writer
	anchor        string
	now           func() time.Time
	logger        *zap.Logger
}

// NewRetentionService creates a new RetentionService.
// anchor is config.AnchorToday or config.AnchorLatest.
func NewRetentionService(
	db *sql.DB,
	retentionRepo *repository.RetentionRepository,
	archiver *archive.Writer,
	anchor string,
	logger *zap.Logger,
) *RetentionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionService{
		db:            db,
		retentionRepo: retentionRepo,
		archiver:      archiver,
		anchor:        anchor,
		now:           time.Now,
		logger:        logger,
	}
}

// WithClock replaces the clock used for the "today" anchor.
func (s *RetentionService) WithClock(now func() time.Time) *RetentionService {
	c := *s
	c.now = now
	return &c
}

// Cutoff returns the first date kept by a window of days days for entity.
// Rows dated before the cutoff leave the window.
//
// The reference date is today (UTC) or, with the latest anchor, the newest
// stored date. ok is false when the latest anchor finds an empty table.
func (s *RetentionService) Cutoff(ctx context.Context, entity string, days int) (cutoff time.Time, ok bool, err error) {
	return s.cutoff(ctx, entity, days, time.Time{})
}

// WindowStart returns the cutoff the prune following a write of a batch
// reaching newest will use. Records dated before it would be archived again
// right after being written, so writers drop them. With the latest anchor the
// reference moves forward when newest is after the stored data. A zero time
// means the window does not bound the batch.
func (s *RetentionService) WindowStart(ctx context.Context, entity string, days int, newest time.Time) (time.Time, error) {
	cutoff, ok, err := s.cutoff(ctx, entity, days, newest)
	if err != nil || !ok {
		return time.Time{}, err
	}
	return cutoff, nil
}

func (s *RetentionService) cutoff(ctx context.Context, entity string, days int, incoming time.Time) (time.Time, bool, error) {
	if days < 1 {
		return time.Time{}, false, apperrors.ErrInvalidRetention
	}

	ref := s.now().UTC()
	if s.anchor == config.AnchorLatest {
		latest, err := s.retentionRepo.LatestDate(ctx, entity)
		if err != nil {
			return time.Time{}, false, err
		}
		switch {
		case latest != nil && latest.After(incoming):
			ref = *latest
		case !incoming.IsZero():
			ref = incoming
		default:
			return time.Time{}, false, nil
		}
	}

	ref = time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	return ref.AddDate(0, 0, -(days - 1)), true, nil
}

// Prune archives and deletes every row of entity older than the window.
//
// Parameters:
//   - ctx: Context for cancellation
//   - entity: One of model.Entities
//   - days: Window size W; the W most recent calendar days are kept
//
// Returns the prune result. Nothing is deleted unless the archive is durable;
// an archive failure yields *apperrors.ArchiveError with the table unchanged.
func (s *RetentionService) Prune(ctx context.Context, entity string, days int) (model.PruneResult, error) {
	cutoff, ok, err := s.Cutoff(ctx, entity, days)
	if err != nil {
		return model.PruneResult{Entity: entity}, err
	}
	if !ok {
		return model.PruneResult{Entity: entity}, nil
	}

	res, err := s.archiveAndDelete(ctx, entity, repository.OlderThan(cutoff))
	res.Cutoff = cutoff
	return res, err
}

// DeleteVnRange archives and deletes VN quotes matching filter.
// At least one date bound is required.
func (s *RetentionService) DeleteVnRange(ctx context.Context, filter model.VnDeleteFilter) (model.PruneResult, error) {
	if filter.StartDate == nil && filter.EndDate == nil {
		return model.PruneResult{Entity: model.EntityVnGold}, fmt.Errorf("%w: start or end date is required", apperrors.ErrInvalidDateRange)
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return model.PruneResult{Entity: model.EntityVnGold}, apperrors.ErrInvalidDateRange
	}
	return s.archiveAndDelete(ctx, model.EntityVnGold, repository.VnSelection(filter))
}

// archiveAndDelete runs select, archive and delete inside one transaction.
// The archive file is removed again whenever the delete does not commit.
func (s *RetentionService) archiveAndDelete(ctx context.Context, entity string, p repository.Predicate) (model.PruneResult, error) {
	res := model.PruneResult{Entity: entity}

	columns, err := s.retentionRepo.Columns(entity)
	if err != nil {
		return res, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, &apperrors.WriteError{Entity: entity, Op: "begin", Err: err}
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	repo := s.retentionRepo.WithTx(tx)
	rows, err := repo.Select(ctx, entity, p)
	if err != nil {
		return res, &apperrors.WriteError{Entity: entity, Op: "select", Err: err}
	}
	if len(rows) == 0 {
		return res, nil
	}

	path, err := s.archiver.Write(entity, columns, rows)
	if err != nil {
		return res, &apperrors.ArchiveError{Entity: entity, Err: err}
	}

	discard := func() {
		if rmErr := archive.Remove(path); rmErr != nil {
			s.logger.Error("failed to remove orphaned archive", zap.String("path", path), zap.Error(rmErr))
		}
	}

	deleted, err := repo.Delete(ctx, entity, p)
	if err != nil {
		discard()
		return res, &apperrors.WriteError{Entity: entity, Op: "delete", Err: err}
	}
	if deleted != len(rows) {
		discard()
		return res, &apperrors.ArchiveError{
			Entity: entity,
			Path:   path,
			Err:    fmt.Errorf("%w: archived %d, deleted %d", apperrors.ErrArchiveMismatch, len(rows), deleted),
		}
	}

	if err := tx.Commit(); err != nil {
		discard()
		return res, &apperrors.WriteError{Entity: entity, Op: "commit", Err: err}
	}
	committed = true

	res.Archived = len(rows)
	res.Deleted = deleted
	res.ArchivePath = path

	s.logger.Info("pruned rows",
		zap.String("entity", entity),
		zap.Int("deleted", deleted),
		zap.String("archive", path),
	)
	return res, nil
}

