// Package ratelimit rejects requests beyond a token-bucket budget with 429.
package ratelimit

import (
	"encoding/json"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/kjstillabower/flow/middleware/requestid"
)

// Middleware returns 429 with a JSON error envelope when the token bucket is
// exhausted. Disabled when limiter is nil.
func Middleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeRateLimitError(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimitError(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":      "RATE_LIMITED",
			"message":   "Too many requests",
			"requestId": requestid.FromContext(r.Context()),
		},
	})
}
