package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/retail-pos/internal/common"
)

// Middleware enforces a limit per request key before delegating to the
// wrapped handler. A limiter failure fails open: search staying up matters
// more than strict accounting while Redis is flapping.
type Middleware struct {
	Limiter Limiter
	Key     func(*http.Request) string
	Window  time.Duration
	Max     int
	OnError func(error)
}

func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		decision, err := m.Limiter.Allow(r.Context(), m.Key(r), m.Window, m.Max)
		if err != nil {
			if m.OnError != nil {
				m.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(m.Max))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, common.CodeRateLimited, "rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ByClientIP keys the limit on the calling client's address.
func ByClientIP(r *http.Request) string {
	return common.ClientIP(r)
}
