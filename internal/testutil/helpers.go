package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vkquanghd/gold-ai-advisor/internal/archive"
	"github.com/vkquanghd/gold-ai-advisor/internal/cafef"
	"github.com/vkquanghd/gold-ai-advisor/internal/config"
	"github.com/vkquanghd/gold-ai-advisor/internal/lock"
	"github.com/vkquanghd/gold-ai-advisor/internal/repository"
	"github.com/vkquanghd/gold-ai-advisor/internal/service"
	"github.com/vkquanghd/gold-ai-advisor/internal/yahoo"
)

// Symbols used by the test pipeline configuration.
const (
	TestGoldSymbol = "GC=F"
	TestFXSymbol   = "VND=X"
)

// TestPipelineConfig returns the pipeline defaults used by NewTestPipelineService.
// Raw files go to a per-test temporary directory.
func TestPipelineConfig(t *testing.T) service.PipelineConfig {
	t.Helper()

	return service.PipelineConfig{
		RetentionDays: 365,
		GoldSymbol:    TestGoldSymbol,
		FXSymbol:      TestFXSymbol,
		LookbackDays:  30,
		WorldSource:   "yfinance",
		VnSource:      cafef.SourceName,
		VnDays:        30,
		RawDir:        t.TempDir(),
		RawBasename:   "vn_raw",
		KeepRawFiles:  5,
	}
}

// NewTestRetentionService builds a RetentionService archiving under archiveDir.
// A nil now keeps the real clock.
func NewTestRetentionService(t *testing.T, db *sql.DB, archiveDir, anchor string, now func() time.Time) *service.RetentionService {
	t.Helper()

	if anchor == "" {
		anchor = config.AnchorToday
	}
	svc := service.NewRetentionService(
		db,
		repository.NewRetentionRepository(db),
		archive.NewWriter(archiveDir),
		anchor,
		nil,
	)
	if now != nil {
		svc = svc.WithClock(now)
	}
	return svc
}

// NewTestPipelineService wires a PipelineService around mock sources.
// Retention uses the latest anchor so fixed-date fixtures are not pruned by
// the real clock.
func NewTestPipelineService(
	t *testing.T,
	db *sql.DB,
	yahooClient yahoo.Client,
	fetcher cafef.Fetcher,
	cfg service.PipelineConfig,
) *service.PipelineService {
	t.Helper()

	return service.NewPipelineService(
		db,
		repository.NewWorldGoldRepository(db),
		repository.NewUsdVndRepository(db),
		repository.NewVnGoldRepository(db),
		repository.NewPipelineRunRepository(db),
		NewTestRetentionService(t, db, t.TempDir(), config.AnchorLatest, nil),
		yahooClient,
		fetcher,
		lock.NewLocalLocker(),
		cfg,
		nil,
	)
}

func NewTestQueryService(t *testing.T, db *sql.DB) *service.QueryService {
	t.Helper()

	return service.NewQueryService(
		repository.NewWorldGoldRepository(db),
		repository.NewUsdVndRepository(db),
		repository.NewVnGoldRepository(db),
		repository.NewPipelineRunRepository(db),
		"manual",
	)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db, map[string]bool{"forward_fill": false, "redis_lock": false})
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}
