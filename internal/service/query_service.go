package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
	"github.com/vkquanghd/gold-ai-advisor/internal/model"
	"github.com/vkquanghd/gold-ai-advisor/internal/normalize"
	"github.com/vkquanghd/gold-ai-advisor/internal/repository"
)

// Paging limits for VN quote listings.
const (
	DefaultPerPage = 50
	MaxPerPage     = 500
)

// DefaultRunLimit is the number of runs returned when no limit is given.
const DefaultRunLimit = 20

// QueryService serves stored prices, coverage and run history to the API.
type QueryService struct {
	worldRepo *repository.WorldGoldRepository
	fxRepo    *repository.UsdVndRepository
	vnRepo    *repository.VnGoldRepository
	runRepo   *repository.PipelineRunRepository
	vnSource  string
}

// NewQueryService creates a new QueryService.
// vnSource is recorded on manually created quotes that do not name one.
func NewQueryService(
	worldRepo *repository.WorldGoldRepository,
	fxRepo *repository.UsdVndRepository,
	vnRepo *repository.VnGoldRepository,
	runRepo *repository.PipelineRunRepository,
	vnSource string,
) *QueryService {
	return &QueryService{
		worldRepo: worldRepo,
		fxRepo:    fxRepo,
		vnRepo:    vnRepo,
		runRepo:   runRepo,
		vnSource:  vnSource,
	}
}

// WorldGoldRange returns world gold bars between start and end inclusive.
// Nil bounds leave that side open.
func (s *QueryService) WorldGoldRange(ctx context.Context, start, end *time.Time) ([]model.WorldGoldDay, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	bars, err := s.worldRepo.GetRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveWorldGold, err)
	}
	return bars, nil
}

// UsdVndRange returns USD/VND rates between start and end inclusive.
func (s *QueryService) UsdVndRange(ctx context.Context, start, end *time.Time) ([]model.UsdVndRate, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	rates, err := s.fxRepo.GetRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveUsdVnd, err)
	}
	return rates, nil
}

// ListVnQuotes returns one page of VN quotes.
//
// Parameters:
//   - ctx: Context for cancellation
//   - filter: Brands, date range, search keyword, sort and paging
//
// Returns the page with totals. PerPage defaults to 50 and is capped at 500;
// an unknown sort column falls back to newest first.
func (s *QueryService) ListVnQuotes(ctx context.Context, filter model.VnQuoteFilter) (model.VnQuotePage, error) {
	if err := checkRange(filter.StartDate, filter.EndDate); err != nil {
		return model.VnQuotePage{}, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	switch {
	case filter.PerPage < 1:
		filter.PerPage = DefaultPerPage
	case filter.PerPage > MaxPerPage:
		filter.PerPage = MaxPerPage
	}

	page, err := s.vnRepo.List(ctx, filter)
	if err != nil {
		return model.VnQuotePage{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveVnGold, err)
	}
	return page, nil
}

// Brands returns the distinct VN brands present in the store.
func (s *QueryService) Brands(ctx context.Context) ([]string, error) {
	brands, err := s.vnRepo.Brands(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveBrands, err)
	}
	return brands, nil
}

// Coverage returns the date span and row count of entity.
func (s *QueryService) Coverage(ctx context.Context, entity string) (model.Coverage, error) {
	var (
		c   model.Coverage
		err error
	)
	switch entity {
	case model.EntityWorldGold:
		c, err = s.worldRepo.Coverage(ctx)
	case model.EntityUsdVnd:
		c, err = s.fxRepo.Coverage(ctx)
	case model.EntityVnGold:
		c, err = s.vnRepo.Coverage(ctx)
	default:
		return model.Coverage{}, fmt.Errorf("%w: %s", apperrors.ErrUnknownEntity, entity)
	}
	if err != nil {
		return model.Coverage{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveCoverage, err)
	}
	return c, nil
}

// Runs returns the most recent pipeline runs, newest first.
func (s *QueryService) Runs(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if limit < 1 {
		limit = DefaultRunLimit
	}
	runs, err := s.runRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveRuns, err)
	}
	return runs, nil
}

// Run returns one pipeline run by ID.
func (s *QueryService) Run(ctx context.Context, id string) (model.RunSummary, error) {
	run, err := s.runRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrPipelineRunNotFound) {
			return model.RunSummary{}, err
		}
		return model.RunSummary{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveRuns, err)
	}
	return run, nil
}

// CreateVnQuote stores one manually entered quote. An existing quote with the
// same brand, location and timestamp is overwritten; created reports which
// case applied.
func (s *QueryService) CreateVnQuote(ctx context.Context, q model.VnGoldQuote) (model.VnGoldQuote, bool, error) {
	q.Brand = normalize.Brand(q.Brand)
	q.Ts = q.Ts.UTC()
	q.Date = time.Date(q.Ts.Year(), q.Ts.Month(), q.Ts.Day(), 0, 0, 0, 0, time.UTC)
	if q.Source == "" {
		q.Source = s.vnSource
	}

	counts, err := s.vnRepo.Upsert(ctx, []model.VnGoldQuote{q})
	if err != nil {
		return model.VnGoldQuote{}, false, fmt.Errorf("%w: %w", apperrors.ErrFailedToCreateQuote, err)
	}
	return q, counts.Inserted == 1, nil
}

func checkRange(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return apperrors.ErrInvalidDateRange
	}
	return nil
}
