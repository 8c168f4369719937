package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"hoa-backend/internal/config"
	"hoa-backend/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Cache keys
const (
	FinanceReportKey   = "finance:report"
	loginFailureKeyFmt = "auth:fail:"
	totpFailureKeyFmt  = "auth:totp:"
)

// Cache wraps a Redis client. A nil *Cache is valid and behaves as an
// always-empty cache so the service degrades gracefully without Redis.
type Cache struct {
	client *redis.Client
}

// New connects to Redis. On failure it returns a nil *Cache and the error.
func New(cfg *config.Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Cache{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.client
}

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return redis.ErrClosed
	}
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// GetJSON decodes the value at key into dest. ok is false on miss or error.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		utils.Logger.WithField("key", key).Warnf("cache decode failed: %v", err)
		return false
	}
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, data, ttl)
}

func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	c.client.Del(ctx, keys...)
}

// RecordLoginFailure increments the failure counter of an email and returns
// the new count. The counter expires window after the first failure.
func (c *Cache) RecordLoginFailure(ctx context.Context, email string, window time.Duration) (int64, error) {
	return c.incrWithTTL(ctx, loginFailureKeyFmt+strings.ToLower(email), window)
}

// LoginFailures returns the current failure count of an email.
func (c *Cache) LoginFailures(ctx context.Context, email string) int64 {
	return c.count(ctx, loginFailureKeyFmt+strings.ToLower(email))
}

// ResetLoginFailures clears the counter after a successful login.
func (c *Cache) ResetLoginFailures(ctx context.Context, email string) {
	c.Delete(ctx, loginFailureKeyFmt+strings.ToLower(email))
}

// RecordTOTPFailure counts failed 2FA codes per user.
func (c *Cache) RecordTOTPFailure(ctx context.Context, userID string, window time.Duration) (int64, error) {
	return c.incrWithTTL(ctx, totpFailureKeyFmt+userID, window)
}

func (c *Cache) TOTPFailures(ctx context.Context, userID string) int64 {
	return c.count(ctx, totpFailureKeyFmt+userID)
}

func (c *Cache) ResetTOTPFailures(ctx context.Context, userID string) {
	c.Delete(ctx, totpFailureKeyFmt+userID)
}

func (c *Cache) incrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if c == nil {
		return 0, nil
	}
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *Cache) count(ctx context.Context, key string) int64 {
	if c == nil {
		return 0
	}
	n, err := c.client.Get(ctx, key).Int64()
	if err != nil {
		return 0
	}
	return n
}
