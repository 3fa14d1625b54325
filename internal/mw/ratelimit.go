// internal/mw/ratelimit.go
package mw

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	Rdb   *redis.Client
	RPS   int
	Burst int
}

func NewRateLimiter(rdb *redis.Client, rps, burst int) *RateLimiter {
	return &RateLimiter{Rdb: rdb, RPS: rps, Burst: burst}
}

// Allow counts requests per device in one-second windows (INCR + EXPIRE).
// Redis failures let the request through.
func (rl *RateLimiter) Allow(ctx context.Context, deviceID string) bool {
	now := time.Now().Unix()
	key := "rl:" + deviceID + ":" + strconv.FormatInt(now, 10)
	cnt, err := rl.Rdb.Incr(ctx, key).Result()
	if err != nil {
		return true
	}
	_ = rl.Rdb.Expire(ctx, key, 2*time.Second).Err()
	return int(cnt) <= rl.RPS+rl.Burst
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(r.Context(), DeviceID(r.Context())) {
			http.Error(w, "rate limit", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
