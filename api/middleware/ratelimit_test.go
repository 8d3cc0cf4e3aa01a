package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/dicepool/config"
)

func TestVisitors_BucketPerPlayer(t *testing.T) {
	v := newVisitors(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 2})
	now := time.Unix(1_700_000_000, 0)

	assert.True(t, v.allow("alice", now))
	assert.True(t, v.allow("alice", now))
	assert.False(t, v.allow("alice", now), "burst exhausted")
	assert.True(t, v.allow("bob", now), "bob gets a separate bucket")

	assert.True(t, v.allow("alice", now.Add(time.Second)), "one token refilled")
}

func TestVisitors_Sweep(t *testing.T) {
	v := newVisitors(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	now := time.Unix(1_700_000_000, 0)

	v.allow("idle", now)
	v.allow("active", now.Add(2*time.Hour))

	assert.Equal(t, 1, v.sweep(now.Add(time.Hour)))
	assert.True(t, v.allow("idle", now.Add(2*time.Hour)), "swept player starts with a full bucket")
}
