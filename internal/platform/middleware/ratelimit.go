package middleware

import (
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

const rateLimitedBody = `{"error":"Too Many Requests","status_code":429,"message":"rate limit exceeded, retry later"}` + "\n"

// RateLimit returns middleware that admits requests while the shared token
// bucket has capacity and answers 429 otherwise. A nil limiter disables it.
func RateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(limiter)))
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(rateLimitedBody))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfterSeconds(limiter *rate.Limiter) int {
	if limiter.Limit() <= 0 {
		return 1
	}
	secs := int(1 / float64(limiter.Limit()))
	return max(secs, 1)
}
