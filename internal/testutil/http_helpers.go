package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
)

// NewRequestWithURLParams creates a request carrying chi route parameters, so
// handlers reading chi.URLParam can be called without a router.
//
// Example:
//
//	req := testutil.NewRequestWithURLParams(http.MethodPost, "/api/pipeline/vn",
//	    map[string]string{"pipeline": "vn"})
func NewRequestWithURLParams(method, target string, params map[string]string) *http.Request {
	return withRouteParams(httptest.NewRequest(method, target, nil), params)
}

// NewRequestWithQueryParams creates a request whose query string is built from
// queryParams, added to any query already present in target.
//
// Example:
//
//	req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/vn",
//	    map[string]string{"brands": "SJC,PNJ", "start_date": "2025-01-01"})
func NewRequestWithQueryParams(method, target string, queryParams map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if len(queryParams) == 0 {
		return req
	}

	q := req.URL.Query()
	for key, value := range queryParams {
		q.Add(key, value)
	}
	req.URL.RawQuery = q.Encode()
	return req
}

// NewJSONRequest creates a request with a JSON body. A non-empty apiKey is sent
// in the X-API-Key header.
func NewJSONRequest(method, target, body, apiKey string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	return req
}

func withRouteParams(req *http.Request, params map[string]string) *http.Request {
	if len(params) == 0 {
		return req
	}
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
