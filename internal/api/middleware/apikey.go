package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/vkquanghd/gold-ai-advisor/internal/api/response"
)

// APIKeyHeader carries the internal API key on mutating requests.
const APIKeyHeader = "X-API-Key"

// APIKey returns middleware that requires the X-API-Key header to equal key.
// With no key configured every request is refused with 500, so a missing
// setting never leaves the admin routes open.
//
// Example usage in router:
//
//	r.With(middleware.APIKey(cfg.Security.InternalAPIKey)).Post("/", handler.CreateVnQuote)
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				response.RespondError(w, http.StatusInternalServerError, "authentication error", "Authentication not loaded")
				return
			}

			got := r.Header.Get(APIKeyHeader)
			if got == "" {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing API key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
