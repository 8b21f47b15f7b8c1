package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
	"github.com/vkquanghd/gold-ai-advisor/internal/model"
	"github.com/vkquanghd/gold-ai-advisor/internal/testutil"
)

//nolint:gocyclo // Comprehensive handler test with multiple subtests
func TestPipelineHandler(t *testing.T) {
	setup := func(t *testing.T, yc *testutil.MockYahooClient) *PipelineHandler {
		t.Helper()
		db := testutil.SetupTestDB(t)
		quotes := []model.RawVnQuote{testutil.RawQuote("SJC", "2025-01-09T09:00:00", "84000000", "86000000")}
		pipelines := testutil.NewTestPipelineService(t, db, yc, testutil.NewMockVnFetcher(quotes...), testutil.TestPipelineConfig(t))
		return NewPipelineHandler(pipelines, testutil.NewTestQueryService(t, db), zap.NewNop())
	}

	t.Run("runs world pipeline", func(t *testing.T) {
		handler := setup(t, testutil.NewMockYahooClient())
		req := testutil.NewRequestWithURLParams(http.MethodPost, "/api/pipeline/world?retention_days=30", map[string]string{"pipeline": "world"})
		w := httptest.NewRecorder()

		handler.Run(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var summary model.RunSummary
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&summary)
		if summary.RetentionDays != 30 || summary.Trigger != model.TriggerAPI {
			t.Errorf("Unexpected summary %+v", summary)
		}
	})

	t.Run("failed pipeline answers 502 with the summary", func(t *testing.T) {
		yc := testutil.NewMockYahooClient().WithError(&apperrors.FetchError{Source: "yahoo", Status: 503})
		handler := setup(t, yc)
		req := testutil.NewRequestWithURLParams(http.MethodPost, "/api/pipeline/daily", map[string]string{"pipeline": "daily"})
		w := httptest.NewRecorder()

		handler.Run(w, req)

		if w.Code != http.StatusBadGateway {
			t.Fatalf("Expected 502, got %d: %s", w.Code, w.Body.String())
		}
		var summary model.RunSummary
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&summary)
		if len(summary.Pipelines) != 2 || summary.Pipelines[1].Status != model.StatusSuccess {
			t.Errorf("Expected VN to succeed alongside failed world, got %+v", summary.Pipelines)
		}
	})

	t.Run("unknown pipeline", func(t *testing.T) {
		handler := setup(t, testutil.NewMockYahooClient())
		req := testutil.NewRequestWithURLParams(http.MethodPost, "/api/pipeline/weekly", map[string]string{"pipeline": "weekly"})
		w := httptest.NewRecorder()

		handler.Run(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})

	t.Run("invalid retention", func(t *testing.T) {
		handler := setup(t, testutil.NewMockYahooClient())
		req := testutil.NewRequestWithURLParams(http.MethodPost, "/api/pipeline/vn?retention_days=0", map[string]string{"pipeline": "vn"})
		w := httptest.NewRecorder()

		handler.Run(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("lists and fetches runs", func(t *testing.T) {
		handler := setup(t, testutil.NewMockYahooClient())
		w := httptest.NewRecorder()
		handler.Run(w, testutil.NewRequestWithURLParams(http.MethodPost, "/api/pipeline/vn", map[string]string{"pipeline": "vn"}))
		var summary model.RunSummary
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&summary)

		w = httptest.NewRecorder()
		handler.Runs(w, httptest.NewRequest(http.MethodGet, "/api/pipeline/runs?limit=5", nil))
		var runs []model.RunSummary
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&runs)
		if len(runs) != 1 || runs[0].RunID != summary.RunID {
			t.Errorf("Expected the recorded run, got %+v", runs)
		}

		w = httptest.NewRecorder()
		handler.GetRun(w, testutil.NewRequestWithURLParams(http.MethodGet, "/api/pipeline/runs/"+summary.RunID, map[string]string{"runID": summary.RunID}))
		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", w.Code)
		}

		missing := testutil.MakeID()
		w = httptest.NewRecorder()
		handler.GetRun(w, testutil.NewRequestWithURLParams(http.MethodGet, "/api/pipeline/runs/"+missing, map[string]string{"runID": missing}))
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}

		w = httptest.NewRecorder()
		handler.Runs(w, httptest.NewRequest(http.MethodGet, "/api/pipeline/runs?limit=abc", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestSummaryStatus(t *testing.T) {
	tests := []struct {
		name    string
		summary model.RunSummary
		want    int
	}{
		{"success", model.RunSummary{Success: true}, http.StatusOK},
		{"lock only", model.RunSummary{Pipelines: []model.PipelineResult{
			{Status: model.StatusFailed, ErrorKind: string(apperrors.KindLock)},
		}}, http.StatusConflict},
		{"fetch failure", model.RunSummary{Pipelines: []model.PipelineResult{
			{Status: model.StatusFailed, ErrorKind: string(apperrors.KindLock)},
			{Status: model.StatusFailed, ErrorKind: string(apperrors.KindFetch)},
		}}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summaryStatus(tt.summary); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}
