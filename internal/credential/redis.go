package credential

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "credential:"

// RedisStore keeps the slot in a single Redis key. SET is an atomic upsert
// and DEL of a missing key is not an error, which gives the Store contract
// without client-side locking.
type RedisStore struct {
	cache *redis.Client
	key   string
}

// NewRedisStore builds a store for the service/account pair.
func NewRedisStore(cache *redis.Client, service, account string) *RedisStore {
	return &RedisStore{cache: cache, key: keyPrefix + service + ":" + account}
}

func (s *RedisStore) Save(ctx context.Context, token string) error {
	if token == "" {
		return errEmptyToken
	}
	if err := s.cache.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("%w: set: %v", ErrPersistence, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context) (string, bool) {
	token, err := s.cache.Get(ctx, s.key).Result()
	if err != nil {
		return "", false
	}
	return token, true
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.cache.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: del: %v", ErrPersistence, err)
	}
	return nil
}
