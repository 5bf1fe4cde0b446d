package ratelimit_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-travel/internal/common"
	"github.com/noah-isme/backend-travel/internal/ratelimit"
)

func quoteRouter(h ratelimit.Handler) http.Handler {
	r := chi.NewRouter()
	r.Group(func(g chi.Router) {
		g.Use(h.Middleware)
		g.Post("/packages/{packageID}/quote", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	return r
}

func quoteRequest(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/packages/0b6f5c1e-9d7a-4f55-8f34-2a6d1e8c9b01/quote", nil)
	req.RemoteAddr = remoteAddr
	return req
}

func TestMiddlewareThrottlesQuoteCaller(t *testing.T) {
	limiter, _ := newLimiter(t)
	router := quoteRouter(ratelimit.Handler{
		Limiter: limiter,
		Quota:   ratelimit.Quota{Window: time.Minute, Max: 1},
		Key:     common.ClientIP,
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, quoteRequest("203.0.113.7:44123"))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, quoteRequest("203.0.113.7:44124"))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, rr.Header().Get("Retry-After"))

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Equal(t, "RATE_LIMITED", body.Error.Code)

	// Different client IP, same route: fresh quota.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, quoteRequest("198.51.100.20:9001"))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestMiddlewareFailsOpenOnRedisOutage(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	var degraded error
	router := quoteRouter(ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: client, Prefix: "ratelimit:quote:"},
		Quota:   ratelimit.Quota{Window: time.Minute, Max: 1},
		Key:     common.ClientIP,
		OnError: func(err error) { degraded = err },
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, quoteRequest("203.0.113.7:44123"))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Error(t, degraded)
}

func TestMiddlewareWithoutKeyPassesThrough(t *testing.T) {
	limiter, _ := newLimiter(t)
	router := quoteRouter(ratelimit.Handler{
		Limiter: limiter,
		Quota:   ratelimit.Quota{Window: time.Minute, Max: 0},
	})

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, quoteRequest("203.0.113.7:44123"))
		require.Equal(t, http.StatusOK, rr.Code)
	}
}
