package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/vkquanghd/gold-ai-advisor/internal/model"
	"github.com/vkquanghd/gold-ai-advisor/internal/testutil"
)

func TestWorldHandler(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SeedWorldDays(t, db, testutil.Day(2025, 3, 1), 10)
	handler := NewWorldHandler(testutil.NewTestQueryService(t, db), zap.NewNop())

	t.Run("world gold in range", func(t *testing.T) {
		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/world", map[string]string{
			"start_date": "2025-03-03",
			"end_date":   "2025-03-05",
		})
		w := httptest.NewRecorder()

		handler.World(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var bars []model.WorldGoldDay
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&bars)
		if len(bars) != 3 || bars[0].Close != 2002 {
			t.Errorf("Expected 3 bars starting at close 2002, got %+v", bars)
		}
	})

	t.Run("fx without bounds", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Fx(w, httptest.NewRequest(http.MethodGet, "/api/fx", nil))

		var rates []model.UsdVndRate
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&rates)
		if len(rates) != 10 || rates[9].Rate != 25009 {
			t.Errorf("Expected 10 rates ending at 25009, got %d", len(rates))
		}
	})

	t.Run("reversed range", func(t *testing.T) {
		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/world", map[string]string{
			"start_date": "2025-03-05",
			"end_date":   "2025-03-01",
		})
		w := httptest.NewRecorder()

		handler.World(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("coverage", func(t *testing.T) {
		for _, tc := range []struct {
			entity string
			fn     http.HandlerFunc
		}{
			{model.EntityWorldGold, handler.WorldCoverage},
			{model.EntityUsdVnd, handler.FxCoverage},
		} {
			w := httptest.NewRecorder()
			tc.fn(w, httptest.NewRequest(http.MethodGet, "/coverage", nil))

			var c model.Coverage
			//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
			json.NewDecoder(w.Body).Decode(&c)
			if c.Entity != tc.entity || c.Rows != 10 || c.DistinctDates != 10 {
				t.Errorf("Unexpected %s coverage %+v", tc.entity, c)
			}
			if c.MaxDate == nil || !c.MaxDate.Equal(testutil.Day(2025, 3, 10)) {
				t.Errorf("Expected max date 2025-03-10, got %v", c.MaxDate)
			}
		}
	})
}
