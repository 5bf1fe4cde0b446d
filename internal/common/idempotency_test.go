package common_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-travel/internal/common"
)

func newIdem(t *testing.T) common.Idem {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return common.Idem{R: client, TTL: time.Minute}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body.Error.Code
}

func mutationRequest(path, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func TestIdemMiddlewareRejectsReplay(t *testing.T) {
	idem := newIdem(t)
	var hits int
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, mutationRequest("/admin/packages/abc/group-rules", "rule-create-42"))
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, 1, hits)

	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, mutationRequest("/admin/packages/abc/group-rules", "rule-create-42"))
	require.Equal(t, http.StatusConflict, replay.Code)
	require.Equal(t, "IDEMPOTENT_REPLAY", errorCode(t, replay))
	require.Equal(t, 1, hits, "the guarded handler must not run twice")
}

func TestIdemMiddlewareScopesClaimPerEndpoint(t *testing.T) {
	idem := newIdem(t)
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, mutationRequest("/admin/packages/abc/group-rules", "shared-key"))
	require.Equal(t, http.StatusCreated, rr.Code)

	// The same client key against a different rule endpoint is a new
	// mutation, not a replay.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, mutationRequest("/admin/packages/abc/seasonal-rules", "shared-key"))
	require.Equal(t, http.StatusCreated, rr.Code)
}

func TestIdemMiddlewareWithoutHeaderPassesThrough(t *testing.T) {
	idem := newIdem(t)
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, mutationRequest("/admin/packages/abc/group-rules", ""))
		require.Equal(t, http.StatusCreated, rr.Code)
	}
}
