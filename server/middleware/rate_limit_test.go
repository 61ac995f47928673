package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBurstPerChat(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	assert.True(t, rl.Allow(1))
	assert.True(t, rl.Allow(1))
	assert.False(t, rl.Allow(1))

	// Another chat has its own budget.
	assert.True(t, rl.Allow(2))
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow(1))
	}
}

func TestRateLimiterWaitHonoursDeadline(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	assert.NoError(t, rl.Wait(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, rl.Wait(ctx, 1))
}
