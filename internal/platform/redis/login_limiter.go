package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskhub/taskhub-api/internal/platform/logger"
)

// Defaults for the failed-login throttle.
const (
	// DefaultMaxFailedLogins is the number of consecutive failed login
	// attempts before an account is locked out.
	DefaultMaxFailedLogins = 5

	// DefaultLockoutWindow is how long failed-attempt counts persist.
	// The lockout expires when the window does.
	DefaultLockoutWindow = time.Hour
)

// ErrAccountLocked indicates that too many failed login attempts were made
// within the lockout window.
var ErrAccountLocked = errors.New("account temporarily locked due to too many failed login attempts")

// LoginLimiter throttles failed login attempts per account using Redis.
// Attempts are counted in a fixed window; once the count reaches the
// configured maximum, further logins are rejected until the window expires.
type LoginLimiter struct {
	client      *redis.Client
	logger      *slog.Logger
	maxAttempts int
	window      time.Duration
}

// NewLoginLimiter creates a LoginLimiter. Zero values for maxAttempts or
// window fall back to the package defaults. If logger is nil, a default
// logger will be used.
func NewLoginLimiter(client *redis.Client, logger *slog.Logger, maxAttempts int, window time.Duration) *LoginLimiter {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxFailedLogins
	}
	if window <= 0 {
		window = DefaultLockoutWindow
	}

	return &LoginLimiter{
		client:      client,
		logger:      logger.With(slog.String("component", "login_limiter")),
		maxAttempts: maxAttempts,
		window:      window,
	}
}

func (l *LoginLimiter) key(accountID string) string {
	return "failed_login:" + accountID
}

// CheckLocked returns ErrAccountLocked if the account has reached the
// maximum number of failed attempts within the current window.
func (l *LoginLimiter) CheckLocked(ctx context.Context, accountID string) error {
	count, err := l.client.Get(ctx, l.key(accountID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("failed to check login lockout: %w", err)
	}

	if count >= l.maxAttempts {
		return ErrAccountLocked
	}
	return nil
}

// RecordFailure increments the failed-attempt counter for the account.
// The first failure in a window starts the expiry clock.
func (l *LoginLimiter) RecordFailure(ctx context.Context, accountID string) error {
	log := logger.FromContextOrDefault(ctx, l.logger)
	key := l.key(accountID)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("failed to set lockout window: %w", err)
		}
	}

	if count >= int64(l.maxAttempts) {
		log.Warn("account locked after repeated failed logins",
			slog.String("account_id", accountID),
			slog.Int64("failed_attempts", count))
	}

	return nil
}

// Reset clears the failed-attempt counter, typically after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, accountID string) error {
	if err := l.client.Del(ctx, l.key(accountID)).Err(); err != nil {
		return fmt.Errorf("failed to reset login failures: %w", err)
	}
	return nil
}
