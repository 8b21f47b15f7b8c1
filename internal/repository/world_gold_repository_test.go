package repository_test

import (
	"context"
	"testing"

	"github.com/vkquanghd/gold-ai-advisor/internal/model"
	"github.com/vkquanghd/gold-ai-advisor/internal/repository"
	"github.com/vkquanghd/gold-ai-advisor/internal/testutil"
)

func TestWorldGoldRepository_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("re-ingesting a date overwrites it", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewWorldGoldRepository(db)
		day := testutil.Day(2025, 1, 1)

		first := testutil.NewWorldGoldDay().WithDate(day).WithClose(2050.5).Value()
		counts, err := repo.Upsert(ctx, []model.WorldGoldDay{first})
		if err != nil {
			t.Fatalf("Upsert() returned error: %v", err)
		}
		if counts.Inserted != 1 || counts.Updated != 0 {
			t.Errorf("Expected 1 inserted, got %+v", counts)
		}

		second := testutil.NewWorldGoldDay().WithDate(day).WithClose(2060.0).Value()
		counts, err = repo.Upsert(ctx, []model.WorldGoldDay{second})
		if err != nil {
			t.Fatalf("Upsert() returned error: %v", err)
		}
		if counts.Inserted != 0 || counts.Updated != 1 {
			t.Errorf("Expected 1 updated, got %+v", counts)
		}

		testutil.AssertRowCount(t, db, "world_gold", 1)

		bars, err := repo.GetRange(ctx, nil, nil)
		if err != nil {
			t.Fatalf("GetRange() returned error: %v", err)
		}
		if len(bars) != 1 || bars[0].Close != 2060.0 {
			t.Errorf("Expected single bar with close 2060.0, got %+v", bars)
		}
	})

	t.Run("same batch twice is idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewWorldGoldRepository(db)

		batch := []model.WorldGoldDay{
			testutil.NewWorldGoldDay().WithDate(testutil.Day(2025, 1, 1)).Value(),
			testutil.NewWorldGoldDay().WithDate(testutil.Day(2025, 1, 2)).Value(),
			testutil.NewWorldGoldDay().WithDate(testutil.Day(2025, 1, 3)).Value(),
		}

		if _, err := repo.Upsert(ctx, batch); err != nil {
			t.Fatalf("Upsert() returned error: %v", err)
		}
		before, _ := repo.GetRange(ctx, nil, nil)

		counts, err := repo.Upsert(ctx, batch)
		if err != nil {
			t.Fatalf("Upsert() returned error: %v", err)
		}
		after, _ := repo.GetRange(ctx, nil, nil)

		if counts.Inserted != 0 || counts.Updated != 3 {
			t.Errorf("Expected 3 updates on replay, got %+v", counts)
		}
		if len(before) != len(after) {
			t.Fatalf("Expected %d rows, got %d", len(before), len(after))
		}
		for i := range before {
			if before[i] != after[i] {
				t.Errorf("Row %d changed on replay: %+v -> %+v", i, before[i], after[i])
			}
		}
	})

	t.Run("rolled back transaction leaves no rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewWorldGoldRepository(db)

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("BeginTx() returned error: %v", err)
		}
		if _, err := repo.WithTx(tx).Upsert(ctx, []model.WorldGoldDay{testutil.NewWorldGoldDay().Value()}); err != nil {
			t.Fatalf("Upsert() returned error: %v", err)
		}
		if err := tx.Rollback(); err != nil {
			t.Fatalf("Rollback() returned error: %v", err)
		}

		testutil.AssertRowCount(t, db, "world_gold", 0)
	})
}

func TestWorldGoldRepository_GetRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewWorldGoldRepository(db)
	ctx := context.Background()

	testutil.SeedWorldDays(t, db, testutil.Day(2025, 1, 1), 10)

	start := testutil.Day(2025, 1, 3)
	end := testutil.Day(2025, 1, 5)

	bars, err := repo.GetRange(ctx, &start, &end)
	if err != nil {
		t.Fatalf("GetRange() returned error: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("Expected 3 bars, got %d", len(bars))
	}
	if !bars[0].Date.Equal(start) || !bars[2].Date.Equal(end) {
		t.Errorf("Expected ascending bars from %s to %s, got %s..%s", start, end, bars[0].Date, bars[2].Date)
	}

	cov, err := repo.Coverage(ctx)
	if err != nil {
		t.Fatalf("Coverage() returned error: %v", err)
	}
	if cov.Rows != 10 || cov.DistinctDates != 10 {
		t.Errorf("Expected 10 rows and dates, got %+v", cov)
	}
	if cov.MinDate == nil || !cov.MinDate.Equal(testutil.Day(2025, 1, 1)) {
		t.Errorf("Unexpected min date %v", cov.MinDate)
	}
}

func TestWorldGoldRepository_ForwardFill(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewWorldGoldRepository(db)
	ctx := context.Background()

	// Friday and Monday, weekend missing.
	testutil.NewWorldGoldDay().WithDate(testutil.Day(2025, 1, 3)).WithClose(2000).Build(t, db)
	testutil.NewWorldGoldDay().WithDate(testutil.Day(2025, 1, 6)).WithClose(2010).Build(t, db)

	created, err := repo.ForwardFill(ctx, testutil.Day(2025, 1, 1), testutil.Day(2025, 1, 6))
	if err != nil {
		t.Fatalf("ForwardFill() returned error: %v", err)
	}
	if created != 2 {
		t.Fatalf("Expected 2 filled days, got %d", created)
	}

	bars, _ := repo.GetRange(ctx, nil, nil)
	if len(bars) != 4 {
		t.Fatalf("Expected 4 bars, got %d", len(bars))
	}
	sat := bars[1]
	if sat.Close != 2000 || sat.Source != "yfinance+ffill" || sat.Volume != 0 {
		t.Errorf("Unexpected filled bar %+v", sat)
	}

	again, err := repo.ForwardFill(ctx, testutil.Day(2025, 1, 1), testutil.Day(2025, 1, 6))
	if err != nil {
		t.Fatalf("ForwardFill() returned error: %v", err)
	}
	if again != 0 {
		t.Errorf("Expected second fill to be a no-op, got %d", again)
	}
}
