package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Cache is a thin JSON cache over redis used for derived data that is
// cheap to rebuild: merged permission trees and dashboard payloads.
type Cache struct {
	client *redis.Client
}

func New(addr, password string, db int) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Cache{client: client}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// GetJSON unmarshals the cached value into dest. The second return is
// false on a miss; cached data that no longer unmarshals is treated as
// a miss rather than an error so a schema change can never wedge reads.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// --- Token denylist ---

const denyPrefix = "denied-token:"

// DenyToken records a JWT ID as logged out until the token's natural
// expiry; a zero or negative ttl is a no-op since the token is already
// dead.
func (c *Cache) DenyToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, denyPrefix+jti, "1", ttl).Err()
}

// IsTokenDenied reports whether the JWT ID has been logged out. Redis
// errors deny nothing: a cache outage must not lock every user out.
func (c *Cache) IsTokenDenied(ctx context.Context, jti string) bool {
	_, err := c.client.Get(ctx, denyPrefix+jti).Result()
	return err == nil
}
