package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/emploihub/emploihub/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const (
	keyUsageAccount = "usage:account:%s"
	keyWebhookLock  = "webhook:lock:%s:%s"

	webhookLockTTL = 30 * time.Second
)

// UsageLimiter throttles check-and-consume calls per account. A nil
// limiter (rate limiting disabled) allows everything.
type UsageLimiter struct {
	enabled bool

	bucket *TokenBucket
	locker *Locker

	rate  float64
	burst int
}

func NewUsageLimiter(cfg config.Config) (*UsageLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.UsageRate <= 0 || limitCfg.UsageBurst <= 0 {
		return nil, errors.New("usage rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &UsageLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		rate:    limitCfg.UsageRate,
		burst:   limitCfg.UsageBurst,
	}, nil
}

func (l *UsageLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *UsageLimiter) AllowAccount(ctx context.Context, accountID snowflake.ID) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyUsageAccount, accountID), l.rate, l.burst)
}

// TryLockDelivery claims a short-lived lock on one provider event so
// concurrent replays of the same delivery queue up instead of racing.
func (l *UsageLimiter) TryLockDelivery(ctx context.Context, provider, transactionID string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	key := fmt.Sprintf(keyWebhookLock, strings.TrimSpace(provider), strings.TrimSpace(transactionID))
	return l.locker.TryLock(ctx, key, webhookLockTTL)
}

func (l *UsageLimiter) ReleaseDelivery(ctx context.Context, provider, transactionID, token string) error {
	if !l.Enabled() {
		return nil
	}
	key := fmt.Sprintf(keyWebhookLock, strings.TrimSpace(provider), strings.TrimSpace(transactionID))
	return l.locker.Release(ctx, key, token)
}
