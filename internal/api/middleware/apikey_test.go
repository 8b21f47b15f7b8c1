package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vkquanghd/gold-ai-advisor/internal/api/middleware"
)

func TestAPIKey(t *testing.T) {
	const configured = "pipeline-key-7f3a"

	tests := []struct {
		name        string
		key         string
		header      string
		wantStatus  int
		wantDetails string
		wantNext    bool
	}{
		{"missing header", configured, "", http.StatusUnauthorized, "Missing API key", false},
		{"wrong key", configured, "pipeline-key-0000", http.StatusUnauthorized, "Invalid API key", false},
		{"key with different length", configured, "short", http.StatusUnauthorized, "Invalid API key", false},
		{"matching key", configured, configured, http.StatusNoContent, "", true},
		{"no key configured", "", "anything", http.StatusInternalServerError, "Authentication not loaded", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				reached = true
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodDelete, "/api/vn?start_date=2025-01-01", nil)
			if tt.header != "" {
				req.Header.Set(middleware.APIKeyHeader, tt.header)
			}
			w := httptest.NewRecorder()
			middleware.APIKey(tt.key)(next).ServeHTTP(w, req)

			if reached != tt.wantNext {
				t.Errorf("Expected next handler reached=%v, got %v", tt.wantNext, reached)
			}
			if w.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantDetails == "" {
				return
			}

			var body struct {
				Error   string `json:"error"`
				Details string `json:"details"`
			}
			//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
			json.NewDecoder(w.Body).Decode(&body)
			if body.Details != tt.wantDetails {
				t.Errorf("Expected details %q, got %q", tt.wantDetails, body.Details)
			}
		})
	}
}
