package middleware

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/platform/redis"
	"github.com/taskhub/taskhub-api/internal/redact"
)

// RateLimitMiddleware throttles requests per caller using a sliding window
// counter in Redis. Authenticated requests are keyed by user ID, anonymous
// requests by client IP. Apply after the auth middleware so the user ID is
// available.
type RateLimitMiddleware struct {
	limiter *redis.RateLimiter
}

// NewRateLimitMiddleware creates a new RateLimitMiddleware.
func NewRateLimitMiddleware(limiter *redis.RateLimiter) *RateLimitMiddleware {
	if limiter == nil {
		panic("limiter cannot be nil")
	}
	return &RateLimitMiddleware{limiter: limiter}
}

// Throttle rejects requests over the limit with 429 Too Many Requests.
// Limiter failures fail open: losing rate limiting is better than losing
// the API.
func (m *RateLimitMiddleware) Throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := m.limiter.Allow(r.Context(), callerKey(r))
		if err != nil {
			slog.Warn("rate limiter unavailable, allowing request",
				"error", redact.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
				"Rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// callerKey identifies the caller: user ID when authenticated, client IP
// otherwise.
func callerKey(r *http.Request) string {
	if userID, ok := GetUserID(r); ok {
		return "user:" + userID.String()
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
