package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
	"github.com/vkquanghd/gold-ai-advisor/internal/model"
	"github.com/vkquanghd/gold-ai-advisor/internal/repository"
	"github.com/vkquanghd/gold-ai-advisor/internal/testutil"
)

func TestRetentionRepository_SelectDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("older than cutoff", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewRetentionRepository(db)
		testutil.SeedVnDays(t, db, testutil.Day(2025, 1, 1), 10, "SJC")

		p := repository.OlderThan(testutil.Day(2025, 1, 4))

		rows, err := repo.Select(ctx, model.EntityVnGold, p)
		if err != nil {
			t.Fatalf("Select() returned error: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("Expected 3 rows, got %d", len(rows))
		}
		if rows[0][1] != "2025-01-01" || rows[0][2] != "SJC" {
			t.Errorf("Unexpected first row %v", rows[0])
		}
		if rows[0][4] != "80000000" {
			t.Errorf("Expected plain decimal buy price, got %s", rows[0][4])
		}

		deleted, err := repo.Delete(ctx, model.EntityVnGold, p)
		if err != nil {
			t.Fatalf("Delete() returned error: %v", err)
		}
		if deleted != len(rows) {
			t.Errorf("Expected %d deleted, got %d", len(rows), deleted)
		}
		testutil.AssertRowCount(t, db, "vn_gold", 7)
	})

	t.Run("vn selection by brand and range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewRetentionRepository(db)
		testutil.SeedVnDays(t, db, testutil.Day(2025, 1, 1), 5, "SJC", "PNJ")

		start := testutil.Day(2025, 1, 2)
		end := testutil.Day(2025, 1, 3)
		p := repository.VnSelection(model.VnDeleteFilter{Brands: []string{"PNJ"}, StartDate: &start, EndDate: &end})

		rows, err := repo.Select(ctx, model.EntityVnGold, p)
		if err != nil {
			t.Fatalf("Select() returned error: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("Expected 2 rows, got %d", len(rows))
		}
		deleted, err := repo.Delete(ctx, model.EntityVnGold, p)
		if err != nil {
			t.Fatalf("Delete() returned error: %v", err)
		}
		if deleted != 2 {
			t.Errorf("Expected 2 deleted, got %d", deleted)
		}
		testutil.AssertRowCount(t, db, "vn_gold", 8)
	})

	t.Run("world entities", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewRetentionRepository(db)
		testutil.SeedWorldDays(t, db, testutil.Day(2025, 1, 1), 4)

		for _, entity := range []string{model.EntityWorldGold, model.EntityUsdVnd} {
			cols, err := repo.Columns(entity)
			if err != nil {
				t.Fatalf("Columns(%s) returned error: %v", entity, err)
			}
			rows, err := repo.Select(ctx, entity, repository.OlderThan(testutil.Day(2025, 1, 3)))
			if err != nil {
				t.Fatalf("Select(%s) returned error: %v", entity, err)
			}
			if len(rows) != 2 || len(rows[0]) != len(cols) {
				t.Errorf("Expected 2 rows of %d columns for %s, got %v", len(cols), entity, rows)
			}
		}
	})

	t.Run("unknown entity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewRetentionRepository(db)

		if _, err := repo.Select(ctx, "portfolio", repository.Predicate{}); !errors.Is(err, apperrors.ErrUnknownEntity) {
			t.Errorf("Expected ErrUnknownEntity, got %v", err)
		}
		if _, err := repo.Delete(ctx, "portfolio", repository.Predicate{}); !errors.Is(err, apperrors.ErrUnknownEntity) {
			t.Errorf("Expected ErrUnknownEntity, got %v", err)
		}
	})
}

func TestRetentionRepository_LatestDate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewRetentionRepository(db)
	ctx := context.Background()

	latest, err := repo.LatestDate(ctx, model.EntityWorldGold)
	if err != nil {
		t.Fatalf("LatestDate() returned error: %v", err)
	}
	if latest != nil {
		t.Errorf("Expected nil on empty table, got %v", latest)
	}

	testutil.SeedWorldDays(t, db, testutil.Day(2025, 1, 1), 3)

	latest, err = repo.LatestDate(ctx, model.EntityWorldGold)
	if err != nil {
		t.Fatalf("LatestDate() returned error: %v", err)
	}
	if latest == nil || !latest.Equal(testutil.Day(2025, 1, 3)) {
		t.Errorf("Expected 2025-01-03, got %v", latest)
	}
}
