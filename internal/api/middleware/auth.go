package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"

	"github.com/tiledocs/agent-backend/internal/pkg/response"
)

// BearerAuth rejects requests whose Authorization header does not carry the
// configured static bearer token. The comparison is constant-time so the
// token cannot be guessed byte by byte through response timing. Rejected
// requests never reach the rate limiter or any paid provider call.
func BearerAuth(token string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				ctxzap.Warn(r.Context(), "rejected request with missing or invalid bearer token")
				response.Error(w, http.StatusUnauthorized, "invalid authentication token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
