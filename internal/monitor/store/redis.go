package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one hash per collection; fields are entry keys and
// values are JSON-marshalled entries.
type RedisStore struct {
	rdb redis.UniversalClient
}

func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Conn() redis.UniversalClient {
	return s.rdb
}

func (s *RedisStore) Read(ctx context.Context, collection string) (map[string]Entry, error) {
	fields, err := s.rdb.HGetAll(ctx, collection).Result()
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", collection, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	out := make(map[string]Entry, len(fields))
	for key, raw := range fields {
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("decode entry %s in %s: %w", key, collection, err)
		}
		out[key] = entry
	}
	return out, nil
}

func (s *RedisStore) Write(ctx context.Context, collection, key string, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry %s: %w", key, err)
	}
	if err := s.rdb.HSet(ctx, collection, key, string(raw)).Err(); err != nil {
		return fmt.Errorf("write entry %s to %s: %w", key, collection, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, collection string) error {
	if err := s.rdb.Del(ctx, collection).Err(); err != nil {
		return fmt.Errorf("clear collection %s: %w", collection, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
