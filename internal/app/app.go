// Package app wires configuration, storage, sources and services together for
// the server and the command line tool.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/vkquanghd/gold-ai-advisor/internal/archive"
	"github.com/vkquanghd/gold-ai-advisor/internal/cafef"
	"github.com/vkquanghd/gold-ai-advisor/internal/config"
	"github.com/vkquanghd/gold-ai-advisor/internal/database"
	"github.com/vkquanghd/gold-ai-advisor/internal/lock"
	"github.com/vkquanghd/gold-ai-advisor/internal/repository"
	"github.com/vkquanghd/gold-ai-advisor/internal/service"
	"github.com/vkquanghd/gold-ai-advisor/internal/yahoo"
)

// App holds the opened database and the services built on it.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sql.DB

	System    *service.SystemService
	Query     *service.QueryService
	Retention *service.RetentionService
	Pipeline  *service.PipelineService
	VnClient  *cafef.Client

	closers []func() error
}

// New opens the database, applies migrations and builds every service.
// The Redis lock is used when redis.addr is configured; otherwise runs are
// serialised within this process only.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, DB: db, closers: []func() error{db.Close}}

	if err := database.Migrate(ctx, db, logger); err != nil {
		_ = a.Close()
		return nil, err
	}

	var locker lock.Locker = lock.NewLocalLocker()
	features := map[string]bool{
		"forward_fill": cfg.Retention.ForwardFill,
		"redis_lock":   cfg.Redis.Addr != "",
		"scheduler":    cfg.Cron.Enabled,
	}
	systemPingers := map[string]service.Pinger{}
	if cfg.Redis.Addr != "" {
		rl, err := lock.NewRedisLocker(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.LockTTL, logger)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, rl.Close)
		locker = rl
		systemPingers["redis"] = rl
	}

	vnClient, err := NewVnClient(cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.VnClient = vnClient

	yahooClient := yahoo.NewFinanceClient(
		yahoo.WithBaseURL(cfg.World.BaseURL),
		yahoo.WithTimeout(cfg.HTTP.Timeout),
		yahoo.WithRetry(cfg.HTTP.MaxRetries, cfg.HTTP.RetryWait),
		yahoo.WithUserAgent(cfg.HTTP.UserAgent),
		yahoo.WithLogger(logger.Named("yahoo")),
	)

	worldRepo := repository.NewWorldGoldRepository(db)
	fxRepo := repository.NewUsdVndRepository(db)
	vnRepo := repository.NewVnGoldRepository(db)
	runRepo := repository.NewPipelineRunRepository(db)

	a.Retention = service.NewRetentionService(
		db,
		repository.NewRetentionRepository(db),
		archive.NewWriter(cfg.Storage.ArchiveDir),
		cfg.Retention.Anchor,
		logger.Named("retention"),
	)
	a.Pipeline = service.NewPipelineService(
		db,
		worldRepo,
		fxRepo,
		vnRepo,
		runRepo,
		a.Retention,
		yahooClient,
		vnClient,
		locker,
		PipelineConfig(cfg),
		logger.Named("pipeline"),
	)
	a.Query = service.NewQueryService(worldRepo, fxRepo, vnRepo, runRepo, cfg.VN.Source)

	a.System = service.NewSystemService(db, features)
	for name, p := range systemPingers {
		a.System = a.System.WithPinger(name, p)
	}

	return a, nil
}

// PipelineConfig maps the configuration onto the pipeline settings.
func PipelineConfig(cfg *config.Config) service.PipelineConfig {
	return service.PipelineConfig{
		RetentionDays: cfg.Retention.Days,
		ForwardFill:   cfg.Retention.ForwardFill,
		GoldSymbol:    cfg.World.GoldSymbol,
		FXSymbol:      cfg.World.FXSymbol,
		LookbackDays:  cfg.World.LookbackDays,
		WorldSource:   cfg.World.Source,
		VnSource:      cfg.VN.Source,
		VnDays:        cfg.VN.Days,
		RawDir:        filepath.Join(cfg.Storage.DataDir, "raw"),
		RawBasename:   cfg.Storage.RawBasename,
		KeepRawFiles:  cfg.Storage.KeepRawFiles,
	}
}

// NewVnClient builds the CafeF client from configuration. Configured endpoints
// replace the built-in set.
func NewVnClient(cfg *config.Config, logger *zap.Logger) (*cafef.Client, error) {
	var endpoints []cafef.Endpoint
	if len(cfg.VN.Endpoints) > 0 {
		eps, err := cafef.ParseEndpoints(cfg.VN.Endpoints)
		if err != nil {
			return nil, fmt.Errorf("invalid vn.endpoints: %w", err)
		}
		endpoints = eps
	}

	return cafef.NewClient(cafef.Options{
		Endpoints:      endpoints,
		Timeout:        cfg.HTTP.Timeout,
		MaxRetries:     cfg.HTTP.MaxRetries,
		RetryWait:      cfg.HTTP.RetryWait,
		UserAgent:      cfg.HTTP.UserAgent,
		ExpectedBrands: cfg.VN.ExpectedBrands,
		AllowPartial:   cfg.VN.AllowPartial,
		Logger:         logger.Named("cafef"),
	}), nil
}

// Close releases the Redis client and the database, in reverse order of opening.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
