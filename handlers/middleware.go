package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chatwire/auth"
	"chatwire/errors"
)

type contextKey string

const claimsKey contextKey = "claims"

// Authenticate validates the bearer token and stores the caller's identity
// in the request context. Token issuance belongs to the external identity
// service; this layer only trusts its signatures.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if h == "" {
			respondError(w, errors.ErrMissingIdentity)
			return
		}
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			respondError(w, errors.ErrInvalidToken)
			return
		}
		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			respondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// CallerOf retrieves the authenticated identity placed by Authenticate.
func CallerOf(r *http.Request) (*auth.CustomClaims, bool) {
	claims, ok := r.Context().Value(claimsKey).(*auth.CustomClaims)
	return claims, ok
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger logs one line per request with method, path, status and
// latency.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}
