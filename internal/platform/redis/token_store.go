package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotWhitelisted indicates a refresh token that was never issued or
// has already been rotated or revoked.
var ErrTokenNotWhitelisted = errors.New("refresh token is not recognized")

// TokenStore tracks issued refresh tokens and blacklisted access tokens in
// Redis. Refresh tokens are whitelisted on issue and removed on rotation or
// logout; access tokens are blacklisted on logout for the remainder of their
// lifetime. All entries carry TTLs so state cannot outlive the tokens.
type TokenStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewTokenStore creates a TokenStore backed by the given Redis client.
// If logger is nil, a default logger will be used.
func NewTokenStore(client *redis.Client, logger *slog.Logger) *TokenStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TokenStore{
		client: client,
		logger: logger.With(slog.String("component", "token_store")),
	}
}

func refreshKey(userID, tokenID string) string {
	return fmt.Sprintf("refresh:%s:%s", userID, tokenID)
}

func blacklistKey(tokenID string) string {
	return "blacklist:" + tokenID
}

// WhitelistRefreshToken records an issued refresh token. The TTL should match
// the token's remaining lifetime.
func (s *TokenStore) WhitelistRefreshToken(ctx context.Context, userID, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("refresh token TTL must be positive, got %s", ttl)
	}
	if err := s.client.Set(ctx, refreshKey(userID, tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to whitelist refresh token: %w", err)
	}
	return nil
}

// ValidateRefreshToken returns ErrTokenNotWhitelisted unless the refresh
// token is currently whitelisted for the user.
func (s *TokenStore) ValidateRefreshToken(ctx context.Context, userID, tokenID string) error {
	exists, err := s.client.Exists(ctx, refreshKey(userID, tokenID)).Result()
	if err != nil {
		return fmt.Errorf("failed to validate refresh token: %w", err)
	}
	if exists == 0 {
		return ErrTokenNotWhitelisted
	}
	return nil
}

// RevokeRefreshToken removes a refresh token from the whitelist. Revoking a
// token that is already absent is not an error.
func (s *TokenStore) RevokeRefreshToken(ctx context.Context, userID, tokenID string) error {
	if err := s.client.Del(ctx, refreshKey(userID, tokenID)).Err(); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// BlacklistToken marks an access token as revoked until it would have
// expired anyway. Tokens already past expiry need no entry.
func (s *TokenStore) BlacklistToken(ctx context.Context, tokenID string, remaining time.Duration) error {
	if remaining <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, blacklistKey(tokenID), "1", remaining).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// IsBlacklisted reports whether the access token has been revoked.
func (s *TokenStore) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	exists, err := s.client.Exists(ctx, blacklistKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}
