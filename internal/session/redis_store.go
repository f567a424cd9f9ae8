package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "shopbot:session:"

// RedisStore keeps sessions in Redis so dialogues survive process restarts.
// Expiry is delegated to Redis key TTLs; an expired key simply reads as a
// miss.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an established Redis client. A non-positive ttl stores
// sessions without expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(key Key) string {
	return redisKeyPrefix + key.String()
}

// Get loads the session into dest, reporting ok == false when the key is
// missing or expired.
func (s *RedisStore) Get(ctx context.Context, key Key, dest any) (bool, error) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load session %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode session %s: %w", key, err)
	}
	return true, nil
}

// Put stores the session, refreshing its TTL.
func (s *RedisStore) Put(ctx context.Context, key Key, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", key, err)
	}
	if err := s.client.Set(ctx, redisKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session %s: %w", key, err)
	}
	return nil
}

// Delete discards the session if present.
func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", key, err)
	}
	return nil
}
