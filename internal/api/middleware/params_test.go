package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vkquanghd/gold-ai-advisor/internal/api/middleware"
	"github.com/vkquanghd/gold-ai-advisor/internal/testutil"
)

func TestUUIDParam(t *testing.T) {
	tests := []struct {
		name       string
		params     map[string]string
		wantStatus int
		wantCalled bool
	}{
		{"valid run id", map[string]string{middleware.RunIDParam: testutil.MakeID()}, http.StatusOK, true},
		{"malformed run id", map[string]string{middleware.RunIDParam: "run-42"}, http.StatusBadRequest, false},
		{"empty run id", map[string]string{middleware.RunIDParam: ""}, http.StatusBadRequest, false},
		{"other parameter only", map[string]string{"pipeline": "daily"}, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			w := httptest.NewRecorder()
			middleware.UUIDParam(middleware.RunIDParam)(next).ServeHTTP(w, testutil.NewRequestWithURLParams(http.MethodGet, "/api/pipeline/runs/x", tt.params))

			if called != tt.wantCalled {
				t.Errorf("Expected next called = %v, got %v", tt.wantCalled, called)
			}
			if w.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}
