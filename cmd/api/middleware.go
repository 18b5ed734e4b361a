package main

import (
	"fmt"
	"net"
	"net/http"
)

// RateLimiterMiddleware throttles by client IP. Provider webhooks
// retry on 429, so throttling them is safe.
func (app *application) RateLimiterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.rateLimiter.Enabled {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if allow, retryAfter := app.rateLimiter.Allow(ip); !allow {
				w.Header().Set("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter.String())
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
