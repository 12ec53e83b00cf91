package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"license-service/internal/config"
)

// Key prefixes
const (
	ValidationKeyPrefix = "license:validate:"
	PricingKeyPrefix    = "license:pricing:"
)

// ValidationCacheTTL bounds how stale a cached validation verdict can be.
// Kept short so suspensions and expiries take effect quickly.
const ValidationCacheTTL = 60 * time.Second

// PricingCacheTTL is the TTL for cached pricing breakdowns.
const PricingCacheTTL = 5 * time.Minute

// ErrCacheMiss is returned when a key is not present in the cache.
var ErrCacheMiss = errors.New("cache miss")

// Client wraps the Redis client with application-specific methods
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetJSON reads a JSON value from the cache into dest.
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// SetJSON stores a JSON-encoded value with a TTL.
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// InvalidateLicense drops all cached entries for a license key. Called on
// organization updates so suspensions and type changes are visible at once.
// Validation verdicts are keyed per slug, so the prefix is scanned.
func (c *Client) InvalidateLicense(ctx context.Context, licenseKey string) error {
	if err := c.rdb.Del(ctx, PricingKeyPrefix+licenseKey).Err(); err != nil {
		return err
	}

	iter := c.rdb.Scan(ctx, 0, ValidationKeyPrefix+licenseKey+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
