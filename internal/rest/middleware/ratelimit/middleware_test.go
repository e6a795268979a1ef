package ratelimit

import (
	"testing"
	"time"

	"github.com/openkeyhub/governance/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestCheck(t *testing.T) {
	t.Parallel()

	cfg := &config.API{
		RateLimit:     1,
		RateBurst:     2,
		StrikeLimit:   3,
		BlockDuration: time.Minute,
	}
	m := New(cfg, zaptest.NewLogger(t))
	defer m.Close()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	allowed, _, _ := m.check("principal:alice")
	assert.True(t, allowed)
	allowed, _, _ = m.check("principal:alice")
	assert.True(t, allowed)

	allowed, retryAfter, message := m.check("principal:alice")
	assert.False(t, allowed)
	assert.Equal(t, errRateLimit, message)
	assert.Equal(t, time.Second, retryAfter)

	// Other clients have their own bucket
	allowed, _, _ = m.check("principal:bob")
	assert.True(t, allowed)

	// Third strike blocks the client
	allowed, _, _ = m.check("principal:alice")
	assert.False(t, allowed)
	allowed, retryAfter, message = m.check("principal:alice")
	assert.False(t, allowed)
	assert.Equal(t, errBlocked, message)
	assert.Equal(t, time.Minute, retryAfter)

	// Still blocked after the bucket refills
	now = now.Add(30 * time.Second)
	allowed, retryAfter, message = m.check("principal:alice")
	assert.False(t, allowed)
	assert.Equal(t, errBlocked, message)
	assert.Equal(t, 30*time.Second, retryAfter)

	now = now.Add(31 * time.Second)
	allowed, _, _ = m.check("principal:alice")
	assert.True(t, allowed)
}
