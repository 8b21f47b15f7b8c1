package service

import (
	"context"
	"database/sql"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
	"github.com/vkquanghd/gold-ai-advisor/internal/cafef"
	"github.com/vkquanghd/gold-ai-advisor/internal/lock"
	"github.com/vkquanghd/gold-ai-advisor/internal/model"
	"github.com/vkquanghd/gold-ai-advisor/internal/normalize"
	"github.com/vkquanghd/gold-ai-advisor/internal/repository"
	"github.com/vkquanghd/gold-ai-advisor/internal/yahoo"
)

// PipelineConfig holds the configured defaults of the ingestion pipelines.
type PipelineConfig struct {
	RetentionDays int
	ForwardFill   bool

	GoldSymbol   string
	FXSymbol     string
	LookbackDays int
	WorldSource  string

	VnSource     string
	VnDays       int
	RawDir       string
	RawBasename  string
	KeepRawFiles int
}

// PipelineService runs the world and VN ingestion pipelines end to end:
// fetch, normalize, upsert, optional forward-fill and retention.
type PipelineService struct {
	db          *sql.DB
	worldRepo   *repository.WorldGoldRepository
	fxRepo      *repository.UsdVndRepository
	vnRepo      *repository.VnGoldRepository
	runRepo     *repository.PipelineRunRepository
	retention   *RetentionService
	yahooClient yahoo.Client
	vnFetcher   cafef.Fetcher
	locker      lock.Locker
	cfg         PipelineConfig
	now         func() time.Time
	logger      *zap.Logger
}

// NewPipelineService creates a new PipelineService.
func NewPipelineService(
	db *sql.DB,
	worldRepo *repository.WorldGoldRepository,
	fxRepo *repository.UsdVndRepository,
	vnRepo *repository.VnGoldRepository,
	runRepo *repository.PipelineRunRepository,
	retention *RetentionService,
	yahooClient yahoo.Client,
	vnFetcher cafef.Fetcher,
	locker lock.Locker,
	cfg PipelineConfig,
	logger *zap.Logger,
) *PipelineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	return &PipelineService{
		db:          db,
		worldRepo:   worldRepo,
		fxRepo:      fxRepo,
		vnRepo:      vnRepo,
		runRepo:     runRepo,
		retention:   retention,
		yahooClient: yahooClient,
		vnFetcher:   vnFetcher,
		locker:      locker,
		cfg:         cfg,
		now:         time.Now,
		logger:      logger,
	}
}

// WithClock replaces the clock used for fetch windows and run timestamps.
func (s *PipelineService) WithClock(now func() time.Time) *PipelineService {
	c := *s
	c.now = now
	return &c
}

// Run dispatches to the pipeline named name (world, vn or daily).
func (s *PipelineService) Run(ctx context.Context, name string, opts model.RunOptions) (model.RunSummary, error) {
	switch name {
	case model.PipelineWorld:
		return s.RunWorld(ctx, opts)
	case model.PipelineVN:
		return s.RunVN(ctx, opts)
	case model.PipelineDaily:
		return s.RunDaily(ctx, opts)
	default:
		return model.RunSummary{}, fmt.Errorf("%w: %s", apperrors.ErrUnknownPipeline, name)
	}
}

// RunWorld fetches world gold and USD/VND bars, stores them and prunes both tables.
//
// Parameters:
//   - ctx: Context for cancellation
//   - opts: Retention window and trigger; zero values take configured defaults
//
// Returns the run summary. Pipeline failures are reported inside the summary;
// the error is non-nil only for invalid options.
func (s *PipelineService) RunWorld(ctx context.Context, opts model.RunOptions) (model.RunSummary, error) {
	return s.execute(ctx, model.PipelineWorld, opts, func(ctx context.Context, days int) []model.PipelineResult {
		return []model.PipelineResult{s.guarded(ctx, model.PipelineWorld, func(ctx context.Context, res *model.PipelineResult) error {
			return s.world(ctx, days, s.forwardFill(opts), res)
		})}
	})
}

// RunVN fetches VN retail quotes to a raw file, imports it and prunes vn_gold.
func (s *PipelineService) RunVN(ctx context.Context, opts model.RunOptions) (model.RunSummary, error) {
	return s.execute(ctx, model.PipelineVN, opts, func(ctx context.Context, days int) []model.PipelineResult {
		return []model.PipelineResult{s.guarded(ctx, model.PipelineVN, func(ctx context.Context, res *model.PipelineResult) error {
			return s.vn(ctx, "", days, s.forwardFill(opts), res)
		})}
	})
}

// ImportVN imports an existing raw file instead of fetching a new one.
func (s *PipelineService) ImportVN(ctx context.Context, path string, opts model.RunOptions) (model.RunSummary, error) {
	if path == "" {
		return model.RunSummary{}, fmt.Errorf("%w: raw file path", apperrors.ErrMissingRequiredField)
	}
	return s.execute(ctx, model.PipelineVN, opts, func(ctx context.Context, days int) []model.PipelineResult {
		return []model.PipelineResult{s.guarded(ctx, model.PipelineVN, func(ctx context.Context, res *model.PipelineResult) error {
			return s.vn(ctx, path, days, s.forwardFill(opts), res)
		})}
	})
}

// RunDaily runs the world and VN pipelines concurrently. A failure in one does
// not stop the other; the summary succeeds only when both do.
func (s *PipelineService) RunDaily(ctx context.Context, opts model.RunOptions) (model.RunSummary, error) {
	return s.execute(ctx, model.PipelineDaily, opts, func(ctx context.Context, days int) []model.PipelineResult {
		results := make([]model.PipelineResult, 2)
		ff := s.forwardFill(opts)

		var g errgroup.Group
		g.Go(func() error {
			results[0] = s.guarded(ctx, model.PipelineWorld, func(ctx context.Context, res *model.PipelineResult) error {
				return s.world(ctx, days, ff, res)
			})
			return nil
		})
		g.Go(func() error {
			results[1] = s.guarded(ctx, model.PipelineVN, func(ctx context.Context, res *model.PipelineResult) error {
				return s.vn(ctx, "", days, ff, res)
			})
			return nil
		})
		_ = g.Wait()

		return results
	})
}

func (s *PipelineService) forwardFill(opts model.RunOptions) bool {
	if opts.ForwardFill != nil {
		return *opts.ForwardFill
	}
	return s.cfg.ForwardFill
}

// execute resolves the window, runs fn and records the summary.
func (s *PipelineService) execute(
	ctx context.Context,
	name string,
	opts model.RunOptions,
	fn func(ctx context.Context, days int) []model.PipelineResult,
) (model.RunSummary, error) {
	days := opts.RetentionDays
	if days == 0 {
		days = s.cfg.RetentionDays
	}
	if days < 1 {
		return model.RunSummary{}, apperrors.ErrInvalidRetention
	}

	trigger := opts.Trigger
	if trigger == "" {
		trigger = model.TriggerAPI
	}

	summary := model.RunSummary{
		RunID:         uuid.New().String(),
		Pipeline:      name,
		Trigger:       trigger,
		RetentionDays: days,
		StartedAt:     s.now().UTC(),
	}

	summary.Pipelines = fn(ctx, days)
	summary.FinishedAt = s.now().UTC()
	summary.Success = true
	for _, p := range summary.Pipelines {
		if p.Status != model.StatusSuccess {
			summary.Success = false
		}
	}

	// Record the run even when the caller has gone away.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.runRepo.Insert(recordCtx, summary); err != nil {
		s.logger.Error("failed to record pipeline run", zap.String("run_id", summary.RunID), zap.Error(err))
	}

	s.logger.Info("pipeline run finished",
		zap.String("run_id", summary.RunID),
		zap.String("pipeline", name),
		zap.String("trigger", trigger),
		zap.Bool("success", summary.Success),
	)
	return summary, nil
}

// guarded runs fn under the pipeline's lock and turns its error, or a panic,
// into the result's status.
func (s *PipelineService) guarded(
	ctx context.Context,
	name string,
	fn func(ctx context.Context, res *model.PipelineResult) error,
) (res model.PipelineResult) {
	start := time.Now()
	res = model.PipelineResult{Pipeline: name, Pruned: []model.PruneResult{}}

	fail := func(err error) {
		res.Status = model.StatusFailed
		res.Error = err.Error()
		res.ErrorKind = string(apperrors.KindOf(err))
		s.logger.Error("pipeline failed",
			zap.String("pipeline", name),
			zap.String("kind", res.ErrorKind),
			zap.Error(err),
		)
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("pipeline panicked", zap.String("pipeline", name), zap.ByteString("stack", debug.Stack()))
			fail(fmt.Errorf("internal error: %v", r))
		}
		res.DurationMs = time.Since(start).Milliseconds()
	}()

	release, err := s.locker.Acquire(ctx, name)
	if err != nil {
		fail(fmt.Errorf("%s: %w", name, err))
		return res
	}
	defer release()

	if err := fn(ctx, &res); err != nil {
		fail(err)
		return res
	}
	res.Status = model.StatusSuccess
	return res
}

// world fetches both symbols before writing anything so a failure on either
// leaves the store untouched.
func (s *PipelineService) world(ctx context.Context, days int, ff bool, res *model.PipelineResult) error {
	end := s.today()
	start := end.AddDate(0, 0, -(s.cfg.LookbackDays - 1))

	var goldChart, fxChart yahoo.PriceChart
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		goldChart, err = yahoo.FetchChart(gctx, s.yahooClient, s.cfg.GoldSymbol, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		fxChart, err = yahoo.FetchChart(gctx, s.yahooClient, s.cfg.FXSymbol, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	bars, err := normalize.WorldGold(goldChart, s.cfg.WorldSource)
	if err != nil {
		return err
	}
	rates, err := normalize.UsdVnd(fxChart, s.cfg.WorldSource)
	if err != nil {
		return err
	}
	if len(bars) == 0 && len(rates) == 0 {
		return &apperrors.FetchError{Source: yahoo.SourceName, Endpoint: s.cfg.GoldSymbol, Err: apperrors.ErrEmptyBatch}
	}

	res.Fetched = len(bars) + len(rates)

	var dropped, droppedFX int
	if bars, dropped, err = withinWindow(ctx, s.retention, model.EntityWorldGold, days, bars, func(b model.WorldGoldDay) time.Time { return b.Date }); err != nil {
		return err
	}
	if rates, droppedFX, err = withinWindow(ctx, s.retention, model.EntityUsdVnd, days, rates, func(r model.UsdVndRate) time.Time { return r.Date }); err != nil {
		return err
	}
	res.OutsideWindow = dropped + droppedFX

	if goldChart.Skipped > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: skipped %d bars without a close", s.cfg.GoldSymbol, goldChart.Skipped))
	}
	if fxChart.Skipped > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: skipped %d bars without a close", s.cfg.FXSymbol, fxChart.Skipped))
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		gold, err := s.worldRepo.WithTx(tx).Upsert(ctx, bars)
		if err != nil {
			return &apperrors.WriteError{Entity: model.EntityWorldGold, Op: "upsert", Err: err}
		}
		fx, err := s.fxRepo.WithTx(tx).Upsert(ctx, rates)
		if err != nil {
			return &apperrors.WriteError{Entity: model.EntityUsdVnd, Op: "upsert", Err: err}
		}
		counts := gold.Add(fx)
		res.Inserted, res.Updated = counts.Inserted, counts.Updated

		if !ff {
			return nil
		}
		n, err := fillToLatest(ctx, s.worldRepo.WithTx(tx), days)
		if err != nil {
			return &apperrors.WriteError{Entity: model.EntityWorldGold, Op: "forward-fill", Err: err}
		}
		m, err := fillToLatest(ctx, s.fxRepo.WithTx(tx), days)
		if err != nil {
			return &apperrors.WriteError{Entity: model.EntityUsdVnd, Op: "forward-fill", Err: err}
		}
		res.ForwardFilled = n + m
		return nil
	})
	if err != nil {
		return err
	}

	return s.prune(ctx, days, res, model.EntityWorldGold, model.EntityUsdVnd)
}

// vn fetches a raw file, or reuses path when set, and imports it.
func (s *PipelineService) vn(ctx context.Context, path string, days int, ff bool, res *model.PipelineResult) error {
	if path == "" {
		fetched, err := s.vnFetcher.Fetch(ctx, cafef.FetchOptions{
			OutDir:    s.cfg.RawDir,
			Basename:  s.cfg.RawBasename,
			Days:      s.cfg.VnDays,
			KeepFiles: s.cfg.KeepRawFiles,
		})
		if err != nil {
			return err
		}
		path = fetched.StablePath
		res.RawFile = fetched.Path
		res.Warnings = append(res.Warnings, fetched.Warnings...)
	} else {
		res.RawFile = path
	}

	raws, err := cafef.ReadRawFile(path)
	if err != nil {
		return &apperrors.ParseError{Field: "raw file", Value: path, Index: -1, Err: err}
	}

	batch, err := normalize.VnQuotes(raws, s.cfg.VnSource)
	if err != nil {
		return err
	}
	res.Fetched = len(raws)
	res.Flagged = batch.Flagged
	res.Warnings = append(res.Warnings, batch.Warnings...)
	if len(batch.Quotes) == 0 {
		return &apperrors.FetchError{Source: cafef.SourceName, Endpoint: path, Err: apperrors.ErrEmptyBatch}
	}

	quotes, dropped, err := withinWindow(ctx, s.retention, model.EntityVnGold, days, batch.Quotes, func(q model.VnGoldQuote) time.Time { return q.Date })
	if err != nil {
		return err
	}
	res.OutsideWindow = dropped

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		counts, err := s.vnRepo.WithTx(tx).Upsert(ctx, quotes)
		if err != nil {
			return &apperrors.WriteError{Entity: model.EntityVnGold, Op: "upsert", Err: err}
		}
		res.Inserted, res.Updated = counts.Inserted, counts.Updated

		if !ff {
			return nil
		}
		n, err := fillToLatest(ctx, s.vnRepo.WithTx(tx), days)
		if err != nil {
			return &apperrors.WriteError{Entity: model.EntityVnGold, Op: "forward-fill", Err: err}
		}
		res.ForwardFilled = n
		return nil
	})
	if err != nil {
		return err
	}

	return s.prune(ctx, days, res, model.EntityVnGold)
}

func (s *PipelineService) prune(ctx context.Context, days int, res *model.PipelineResult, entities ...string) error {
	for _, entity := range entities {
		pr, err := s.retention.Prune(ctx, entity, days)
		if err != nil {
			return err
		}
		res.Pruned = append(res.Pruned, pr)
	}
	return nil
}

// filler is a table that can forward-fill missing days.
type filler interface {
	Coverage(ctx context.Context) (model.Coverage, error)
	ForwardFill(ctx context.Context, start, end time.Time) (int, error)
}

// fillToLatest forward-fills the last days days ending at the table's newest
// date, so a fill never runs ahead of stored data.
func fillToLatest(ctx context.Context, f filler, days int) (int, error) {
	c, err := f.Coverage(ctx)
	if err != nil {
		return 0, err
	}
	if c.MaxDate == nil {
		return 0, nil
	}
	end := *c.MaxDate
	return f.ForwardFill(ctx, end.AddDate(0, 0, -(days-1)), end)
}

// withinWindow drops records the prune after this write would archive again,
// so a row leaves the store, and reaches an archive, only once.
func withinWindow[T any](
	ctx context.Context,
	retention *RetentionService,
	entity string,
	days int,
	records []T,
	date func(T) time.Time,
) ([]T, int, error) {
	var newest time.Time
	for _, r := range records {
		if d := date(r); d.After(newest) {
			newest = d
		}
	}

	start, err := retention.WindowStart(ctx, entity, days, newest)
	if err != nil {
		return nil, 0, &apperrors.WriteError{Entity: entity, Op: "window", Err: err}
	}
	if start.IsZero() {
		return records, 0, nil
	}

	kept := make([]T, 0, len(records))
	for _, r := range records {
		if !date(r).Before(start) {
			kept = append(kept, r)
		}
	}
	return kept, len(records) - len(kept), nil
}

// inTx runs fn in one transaction and commits only when it returns nil.
func (s *PipelineService) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &apperrors.WriteError{Entity: "store", Op: "begin", Err: err}
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return &apperrors.WriteError{Entity: "store", Op: "commit", Err: err}
	}
	return nil
}

func (s *PipelineService) today() time.Time {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
