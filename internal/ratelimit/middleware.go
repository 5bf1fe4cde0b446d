package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/backend-travel/internal/common"
)

// Handler throttles a route group. Key derives the caller identity from the
// request; the quote surface keys on client IP. A limiter that cannot reach
// Redis fails open so quoting keeps working while OnError reports the
// outage.
type Handler struct {
	Limiter Limiter
	Quota   Quota
	Key     func(*http.Request) string
	OnError func(error)
}

// Middleware counts the request against the caller's quota before letting it
// through. Rejections carry the canonical error envelope plus the usual
// X-RateLimit headers.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		decision, err := h.Limiter.Take(r.Context(), h.Key(r), h.Quota)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		header := w.Header()
		header.Set("X-RateLimit-Limit", strconv.Itoa(clampNonNegative(h.Quota.Max)))
		header.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		header.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retry := int(time.Until(decision.ResetAt).Seconds())
			header.Set("Retry-After", strconv.Itoa(clampNonNegative(retry)))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many quote requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
