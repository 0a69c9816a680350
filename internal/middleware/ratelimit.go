package middleware

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type windowCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimiter is a fixed-window limiter shared across instances through
// Redis. Requests are keyed by user when authenticated, by IP otherwise.
// Read-only methods pass through.
type RateLimiter struct {
	counter windowCounter
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewRateLimiter(counter windowCounter, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{counter: counter, limit: limit, window: window, now: time.Now}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limit <= 0 || r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		subject := r.RemoteAddr
		if uid := GetUserID(r.Context()); uid != uuid.Nil {
			subject = uid.String()
		}
		slot := rl.now().UnixNano() / int64(rl.window)
		key := "ratelimit:" + subject + ":" + strconv.FormatInt(slot, 10)

		count, err := rl.counter.Incr(r.Context(), key).Result()
		if err != nil {
			// fail open
			log.Printf("rate limiter unavailable: %v", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			if err := rl.counter.Expire(r.Context(), key, rl.window).Err(); err != nil {
				log.Printf("rate limiter: failed to set expiry on %s: %v", key, err)
			}
		}

		if count > int64(rl.limit) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Muitas requisições. Tente novamente em instantes.", r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
