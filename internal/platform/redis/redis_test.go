package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/config"
)

// testClient connects to the Redis instance named by REDIS_ADDR, or skips
// the test when none is configured.
func testClient(t *testing.T) *goredis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping integration test - requires REDIS_ADDR environment variable")
	}

	client, err := NewClient(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err, "failed to connect to test redis")

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestNewLoginLimiterDefaults(t *testing.T) {
	l := NewLoginLimiter(goredis.NewClient(&goredis.Options{}), nil, 0, 0)
	assert.Equal(t, DefaultMaxFailedLogins, l.maxAttempts)
	assert.Equal(t, DefaultLockoutWindow, l.window)

	assert.Panics(t, func() { NewLoginLimiter(nil, nil, 0, 0) })
	assert.Panics(t, func() { NewTokenStore(nil, nil) })
	assert.Panics(t, func() { NewRateLimiter(nil, nil, 10, time.Minute) })
	assert.Panics(t, func() { NewCache(nil, nil) })
}

func TestLoginLimiter(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	limiter := NewLoginLimiter(client, nil, 3, time.Minute)
	accountID := fmt.Sprintf("test-account-%d", time.Now().UnixNano())

	// Fresh account is not locked
	assert.NoError(t, limiter.CheckLocked(ctx, accountID))

	// Below the threshold the account stays unlocked
	require.NoError(t, limiter.RecordFailure(ctx, accountID))
	require.NoError(t, limiter.RecordFailure(ctx, accountID))
	assert.NoError(t, limiter.CheckLocked(ctx, accountID))

	// The third failure trips the lockout
	require.NoError(t, limiter.RecordFailure(ctx, accountID))
	assert.ErrorIs(t, limiter.CheckLocked(ctx, accountID), ErrAccountLocked)

	// Reset clears the counter
	require.NoError(t, limiter.Reset(ctx, accountID))
	assert.NoError(t, limiter.CheckLocked(ctx, accountID))
}

func TestTokenStore(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	store := NewTokenStore(client, nil)
	userID := fmt.Sprintf("user-%d", time.Now().UnixNano())
	tokenID := fmt.Sprintf("token-%d", time.Now().UnixNano())

	// Unknown refresh tokens are rejected
	assert.ErrorIs(t, store.ValidateRefreshToken(ctx, userID, tokenID), ErrTokenNotWhitelisted)

	// Whitelisted tokens validate until revoked
	require.NoError(t, store.WhitelistRefreshToken(ctx, userID, tokenID, time.Minute))
	assert.NoError(t, store.ValidateRefreshToken(ctx, userID, tokenID))

	require.NoError(t, store.RevokeRefreshToken(ctx, userID, tokenID))
	assert.ErrorIs(t, store.ValidateRefreshToken(ctx, userID, tokenID), ErrTokenNotWhitelisted)

	// Zero TTL is a caller error
	assert.Error(t, store.WhitelistRefreshToken(ctx, userID, tokenID, 0))
}

func TestTokenStoreBlacklist(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	store := NewTokenStore(client, nil)
	tokenID := fmt.Sprintf("access-%d", time.Now().UnixNano())

	blacklisted, err := store.IsBlacklisted(ctx, tokenID)
	require.NoError(t, err)
	assert.False(t, blacklisted)

	require.NoError(t, store.BlacklistToken(ctx, tokenID, time.Minute))

	blacklisted, err = store.IsBlacklisted(ctx, tokenID)
	require.NoError(t, err)
	assert.True(t, blacklisted)

	// Expired tokens need no blacklist entry
	expiredID := tokenID + "-expired"
	require.NoError(t, store.BlacklistToken(ctx, expiredID, -time.Second))
	blacklisted, err = store.IsBlacklisted(ctx, expiredID)
	require.NoError(t, err)
	assert.False(t, blacklisted)
}

func TestRateLimiter(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	limiter := NewRateLimiter(client, nil, 3, time.Minute)
	callerID := fmt.Sprintf("caller-%d", time.Now().UnixNano())

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, callerID)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be within the limit", i+1)
	}

	allowed, err := limiter.Allow(ctx, callerID)
	require.NoError(t, err)
	assert.False(t, allowed, "request over the limit should be rejected")

	// A different caller has its own window
	allowed, err = limiter.Allow(ctx, callerID+"-other")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCache(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	cache := NewCache(client, nil)
	key := fmt.Sprintf("cache-test-%d", time.Now().UnixNano())

	type payload struct {
		Count int    `json:"count"`
		Name  string `json:"name"`
	}

	var missing payload
	assert.ErrorIs(t, cache.Get(ctx, key, &missing), ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, key, payload{Count: 7, Name: "inbox"}, time.Minute))

	var got payload
	require.NoError(t, cache.Get(ctx, key, &got))
	assert.Equal(t, payload{Count: 7, Name: "inbox"}, got)

	require.NoError(t, cache.Delete(ctx, key))
	assert.ErrorIs(t, cache.Get(ctx, key, &got), ErrCacheMiss)
}
