// Package middleware provides HTTP middleware for request validation and processing.
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vkquanghd/gold-ai-advisor/internal/api/response"
	"github.com/vkquanghd/gold-ai-advisor/internal/validation"
)

// RunIDParam is the route parameter holding a pipeline run ID.
const RunIDParam = "runID"

// UUIDParam rejects requests whose route parameter name is missing or not a
// UUID with 400 Bad Request before the handler runs.
//
// Example usage in router:
//
//	r.With(middleware.UUIDParam(middleware.RunIDParam)).Get("/runs/{runID}", handler.GetRun)
func UUIDParam(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, name)
			if id == "" {
				response.RespondError(w, http.StatusBadRequest, name+" is required", nil)
				return
			}
			if err := validation.ValidateUUID(id); err != nil {
				response.RespondBadRequest(w, "invalid "+name, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
