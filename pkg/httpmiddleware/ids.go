package httpmiddleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type (
	requestIDKey struct{}
	sessionKey   struct{}
)

// RequestIDFromContext returns the id set by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID reuses a well-formed X-Request-ID header or generates a UUID,
// echoes it on the response and stores it in the context.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if !validToken(id) {
				id = uuid.New().String()
			}
			w.Header().Set("X-Request-ID", id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}

// SessionConfig names where the shopper's session id travels.
type SessionConfig struct {
	Cookie string
	Header string
	MaxAge time.Duration
	Secure bool
}

// SessionFromContext returns the id set by Session, or "".
func SessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// WithSession stores id as the request's session.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// Session resolves the session id from the header, then the cookie, and
// issues a new one when neither carries a valid id. The id is always echoed
// in both the header and a refreshed cookie.
func Session(cfg SessionConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(cfg.Header)
			if !validToken(id) {
				id = ""
				if c, err := r.Cookie(cfg.Cookie); err == nil && validToken(c.Value) {
					id = c.Value
				}
			}
			if id == "" {
				id = uuid.New().String()
			}

			w.Header().Set(cfg.Header, id)
			http.SetCookie(w, &http.Cookie{
				Name:     cfg.Cookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(cfg.MaxAge.Seconds()),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), id)))
		})
	}
}

// validToken accepts 1 to 128 bytes of printable ASCII without spaces,
// semicolons or quotes so the value is safe in headers, cookies and keys.
func validToken(s string) bool {
	if len(s) == 0 || len(s) > 128 {
		return false
	}
	for i := range len(s) {
		c := s[i]
		if c <= 0x20 || c > 0x7E || c == ';' || c == '"' || c == ',' || c == '\\' {
			return false
		}
	}
	return true
}
