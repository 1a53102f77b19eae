package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps sessions as JSON blobs with a Redis TTL.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionStore builds a store writing keys under "session:".
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: "session:"}
}

// Find implements SessionStore.
func (s *RedisSessionStore) Find(ctx context.Context, id string) (SessionRecord, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return SessionRecord{}, ErrSessionNotFound
		}
		return SessionRecord{}, err
	}
	var rec SessionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return SessionRecord{}, err
	}
	return rec, nil
}

// Save implements SessionStore.
func (s *RedisSessionStore) Save(ctx context.Context, id string, rec SessionRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(id), data, ttl).Err()
}

// Delete implements SessionStore.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (s *RedisSessionStore) key(id string) string {
	return s.prefix + id
}
