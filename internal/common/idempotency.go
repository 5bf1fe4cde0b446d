package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem guards admin rule mutations against accidental replays. Callers send
// an Idempotency-Key header; the first request through claims the key and
// any repeat inside TTL is rejected. Claims are scoped per method and path
// so one client key can still touch different rule endpoints.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

func (i Idem) claimKey(r *http.Request, header string) string {
	sum := sha256.Sum256([]byte(r.Method + " " + r.URL.Path + " " + header))
	return "idem:rules:" + hex.EncodeToString(sum[:])
}

// Middleware enforces idempotency for write endpoints. Requests without the
// header pass through untouched.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := i.claimKey(r, header)
		claimed, err := i.R.SetNX(r.Context(), key, "1", i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", nil)
			return
		}
		if !claimed {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate mutation for this idempotency key", nil)
			return
		}
		defer func() {
			// keep the claim alive even if the handler panicked mid-write
			_ = i.R.Expire(context.Background(), key, i.TTL).Err()
		}()
		next.ServeHTTP(w, r)
	})
}
