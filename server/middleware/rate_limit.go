package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter limits interpreter calls per chat.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[int64]*rate.Limiter
	every  rate.Limit
	burst  int
}

// NewRateLimiter creates a limiter allowing perMinute calls per chat with the given burst.
// A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	every := rate.Inf
	if perMinute > 0 {
		every = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limits: make(map[int64]*rate.Limiter),
		every:  every,
		burst:  burst,
	}
}

// getLimiter gets or creates a limiter for the given chat.
func (rl *RateLimiter) getLimiter(chatID int64) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits[chatID]; ok {
		return limiter
	}

	limiter := rate.NewLimiter(rl.every, rl.burst)
	rl.limits[chatID] = limiter
	return limiter
}

// Allow checks if a call is allowed for the given chat.
func (rl *RateLimiter) Allow(chatID int64) bool {
	return rl.getLimiter(chatID).Allow()
}

// Wait blocks until a call is allowed for the given chat.
// Returns error if the context is cancelled or the wait would exceed its deadline.
func (rl *RateLimiter) Wait(ctx context.Context, chatID int64) error {
	return rl.getLimiter(chatID).Wait(ctx)
}
