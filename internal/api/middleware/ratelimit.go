package middleware

import (
	"net"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/tiledocs/agent-backend/internal/pkg/ratelimit"
	"github.com/tiledocs/agent-backend/internal/pkg/response"
)

// RateLimit enforces the per-identity request caps. Identity is the client
// IP (the router runs chi's RealIP first, so proxies are unwrapped). The
// counter is incremented for every authenticated request regardless of the
// downstream outcome; it must run after BearerAuth so unauthenticated
// traffic cannot consume a caller's budget.
func RateLimit(limiter *ratelimit.Limiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := clientIP(r)

			if res := limiter.Allow(identity); !res.Allowed {
				ctxzap.Warn(r.Context(), "rate limit exceeded",
					zap.String("identity", identity),
					zap.String("cap", res.Exceeded),
				)
				response.Error(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
