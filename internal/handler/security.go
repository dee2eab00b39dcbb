package handler

import (
	"net/http"
	"strings"
)

// apiKeyHeader carries the admin API key. "Authorization: Bearer" is
// accepted as well.
const apiKeyHeader = "api_key"

// RequireScope rejects requests whose API key does not carry scope.
func (h *Handler) RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(apiKeyHeader)
			if key == "" {
				if v, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
					key = strings.TrimSpace(v)
				}
			}
			if _, err := h.auth.Authenticate(r.Context(), key, scope); err != nil {
				h.fail(w, r, err, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

