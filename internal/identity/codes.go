package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pending is an issued verification code awaiting confirmation. Only the
// bcrypt hash of the code is kept.
type Pending struct {
	Registration Registration `json:"registration"`
	CodeHash     []byte       `json:"code_hash"`
}

// CodeStore keeps one pending code per phone. Put replaces any earlier code.
type CodeStore interface {
	Put(ctx context.Context, phone string, p Pending, ttl time.Duration) error
	// Get returns ErrInvalidCode when nothing is pending or it has expired.
	Get(ctx context.Context, phone string) (Pending, error)
	Delete(ctx context.Context, phone string) error
}

const codeKeyPrefix = "otp:v1:"

// RedisCodeStore stores pending codes as JSON values with a TTL.
type RedisCodeStore struct {
	cache *redis.Client
}

// NewRedisCodeStore builds a Redis-backed code store.
func NewRedisCodeStore(cache *redis.Client) *RedisCodeStore {
	return &RedisCodeStore{cache: cache}
}

func (s *RedisCodeStore) Put(ctx context.Context, phone string, p Pending, ttl time.Duration) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode pending code: %w", err)
	}
	if err := s.cache.Set(ctx, codeKeyPrefix+phone, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store pending code: %w", err)
	}
	return nil
}

func (s *RedisCodeStore) Get(ctx context.Context, phone string) (Pending, error) {
	raw, err := s.cache.Get(ctx, codeKeyPrefix+phone).Bytes()
	if errors.Is(err, redis.Nil) {
		return Pending{}, ErrInvalidCode
	}
	if err != nil {
		return Pending{}, fmt.Errorf("load pending code: %w", err)
	}
	var p Pending
	if err := json.Unmarshal(raw, &p); err != nil {
		return Pending{}, fmt.Errorf("decode pending code: %w", err)
	}
	return p, nil
}

func (s *RedisCodeStore) Delete(ctx context.Context, phone string) error {
	return s.cache.Del(ctx, codeKeyPrefix+phone).Err()
}

type memoryEntry struct {
	pending Pending
	expires time.Time
}

type memoryCodeStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryCodeStore keeps pending codes in process, for running without Redis.
func NewMemoryCodeStore() CodeStore {
	return &memoryCodeStore{now: time.Now, entries: make(map[string]memoryEntry)}
}

func (s *memoryCodeStore) Put(_ context.Context, phone string, p Pending, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[phone] = memoryEntry{pending: p, expires: s.now().Add(ttl)}
	return nil
}

func (s *memoryCodeStore) Get(_ context.Context, phone string) (Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[phone]
	if !ok || !s.now().Before(e.expires) {
		delete(s.entries, phone)
		return Pending{}, ErrInvalidCode
	}
	return e.pending, nil
}

func (s *memoryCodeStore) Delete(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, phone)
	return nil
}
