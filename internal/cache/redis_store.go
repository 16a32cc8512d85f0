package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore keeps each room in one hash, field per key
func NewRedisStore(client *redis.Client) RoomStore {
	return &redisStore{
		client: client,
		ttl:    24 * time.Hour, // idle rooms expire after 24h
	}
}

func (s *redisStore) key(room string) string {
	return fmt.Sprintf("bingo:room:%s", room)
}

func (s *redisStore) Get(ctx context.Context, room, key string) ([]byte, error) {
	data, err := s.client.HGet(ctx, s.key(room), key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hget %s: %w", key, err)
	}
	return data, nil
}

func (s *redisStore) GetMany(ctx context.Context, room string, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := s.client.HMGet(ctx, s.key(room), keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("hmget: %w", err)
	}
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[keys[i]] = []byte(str)
		}
	}
	return out, nil
}

func (s *redisStore) PutMany(ctx context.Context, room string, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}
	values := make([]any, 0, len(entries)*2)
	for k, v := range entries {
		values = append(values, k, v)
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(room), values...)
	pipe.Expire(ctx, s.key(room), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("hset: %w", err)
	}
	return nil
}

func (s *redisStore) List(ctx context.Context, room, prefix string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	match := escapeGlob(prefix) + "*"
	var cursor uint64
	for {
		kvs, next, err := s.client.HScan(ctx, s.key(room), cursor, match, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("hscan: %w", err)
		}
		for i := 0; i+1 < len(kvs); i += 2 {
			if strings.HasPrefix(kvs[i], prefix) {
				out[kvs[i]] = []byte(kvs[i+1])
			}
		}
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

func (s *redisStore) DeleteAll(ctx context.Context, room string) error {
	return s.client.Del(ctx, s.key(room)).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
