package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps each browser's slots in one redis hash. The hash expiry is pushed out on
// every write when ttl is positive.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed token store.
func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "coffeeshop:tokens:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(browserID string) string {
	return s.prefix + browserID
}

func (s *RedisStore) Get(ctx context.Context, browserID, key string) (string, error) {
	if err := checkKey(browserID, key); err != nil {
		return "", err
	}
	val, err := s.client.HGet(ctx, s.key(browserID), key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, browserID, key, value string) error {
	if err := checkKey(browserID, key); err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.key(browserID), key, value).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, s.key(browserID), s.ttl).Err(); err != nil {
			return fmt.Errorf("failed to extend %s expiry: %w", key, err)
		}
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, browserID, key string) error {
	if err := checkKey(browserID, key); err != nil {
		return err
	}
	if err := s.client.HDel(ctx, s.key(browserID), key).Err(); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}
